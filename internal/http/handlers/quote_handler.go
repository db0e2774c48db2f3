// README: Quote handler: prices a route between two catalog stations.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httpmiddleware "travellite/internal/http/middleware"
	"travellite/internal/modules/pricing"
	"travellite/internal/types"
)

// BookingCounter reports how many bookings a customer already holds.
type BookingCounter interface {
	CountByCustomer(ctx context.Context, customerID types.ID) (int, error)
}

type QuoteHandler struct {
	pricing  *pricing.Service
	bookings BookingCounter
}

func NewQuoteHandler(pricingSvc *pricing.Service, bookings BookingCounter) *QuoteHandler {
	return &QuoteHandler{pricing: pricingSvc, bookings: bookings}
}

type quoteReq struct {
	SourceStationID      string `json:"source_station_id"`
	DestinationStationID string `json:"destination_station_id"`
	PickupTime           string `json:"pickup_time"`
	UserTier             string `json:"user_tier"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteReq
	if !bindJSON(c, &req) {
		return
	}
	pickup, ok := parsePickup(c, req.PickupTime)
	if !ok {
		return
	}

	tier := pricing.UserTier(req.UserTier)
	prior := 0
	if uid := httpmiddleware.CallerUID(c); uid != "" {
		n, err := h.bookings.CountByCustomer(c.Request.Context(), uid)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		prior = n
		tier = resolveTier(httpmiddleware.CallerTier(c), prior)
	} else if tier == "" {
		tier = pricing.TierNew
	}

	rq, err := h.pricing.EstimateRoute(c.Request.Context(), pricing.RouteRequest{
		SourceStationID:      types.ID(req.SourceStationID),
		DestinationStationID: types.ID(req.DestinationStationID),
		PickupTime:           pickup,
		UserTier:             tier,
		PriorBookingCount:    prior,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"source":      rq.Source,
		"destination": rq.Destination,
		"distance_km": rq.DistanceKm,
		"user_tier":   tier,
		"quote":       rq.Quote,
		"breakdown":   rq.Quote.Breakdown(),
	})
}

// resolveTier prefers the token's tier claim; otherwise customers with no
// bookings are new and everyone else is returning.
func resolveTier(claim string, prior int) pricing.UserTier {
	if claim != "" {
		return pricing.UserTier(claim)
	}
	if prior == 0 {
		return pricing.TierNew
	}
	return pricing.TierReturning
}

func parsePickup(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Now(), true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{
			Error: "pickup_time must be RFC3339",
			Kind:  string(types.KindValidation),
			Field: "pickup_time",
		})
		return time.Time{}, false
	}
	return t, true
}
