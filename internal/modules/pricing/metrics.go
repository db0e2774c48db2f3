package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var quotesComputed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "travellite_quotes_total",
		Help: "Price quotes computed, by station pairing.",
	},
	[]string{"pairing"},
)
