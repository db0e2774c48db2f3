package booking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "travellite_booking_transitions_total",
		Help: "Committed booking lifecycle transitions, by event.",
	},
	[]string{"event"},
)
