// README: Customer booking handlers: create, list, get, pay and cancel.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	httpmiddleware "travellite/internal/http/middleware"
	"travellite/internal/modules/booking"
	"travellite/internal/modules/pricing"
	"travellite/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
	pricing  *pricing.Service
}

func NewBookingHandler(bookings *booking.Service, pricingSvc *pricing.Service) *BookingHandler {
	return &BookingHandler{bookings: bookings, pricing: pricingSvc}
}

type createBookingReq struct {
	SourceStationID      string              `json:"source_station_id"`
	DestinationStationID string              `json:"destination_station_id"`
	PickupTime           string              `json:"pickup_time"`
	SecurityItems        []string            `json:"security_items"`
	ContactInfo          booking.ContactInfo `json:"contact_info"`
	LuggagePhotos        []booking.Photo     `json:"luggage_photos"`
}

// Create prices the route server-side and opens the booking for the caller.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if !bindJSON(c, &req) {
		return
	}
	pickup, ok := parsePickup(c, req.PickupTime)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	uid := httpmiddleware.CallerUID(c)

	prior, err := h.bookings.CountByCustomer(ctx, uid)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	rq, err := h.pricing.EstimateRoute(ctx, pricing.RouteRequest{
		SourceStationID:      types.ID(req.SourceStationID),
		DestinationStationID: types.ID(req.DestinationStationID),
		PickupTime:           pickup,
		UserTier:             resolveTier(httpmiddleware.CallerTier(c), prior),
		PriorBookingCount:    prior,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	b, err := h.bookings.Create(ctx, booking.CreateCommand{
		CustomerID:           uid,
		SourceStationID:      types.ID(req.SourceStationID),
		DestinationStationID: types.ID(req.DestinationStationID),
		DistanceKm:           rq.DistanceKm,
		Quote:                &rq.Quote,
		SecurityItems:        req.SecurityItems,
		Contact:              req.ContactInfo,
		Photos:               req.LuggagePhotos,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

// List returns the caller's bookings, or a single one when ?code= is given.
func (h *BookingHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	uid := httpmiddleware.CallerUID(c)

	if code := c.Query("code"); code != "" {
		b, err := h.bookings.GetByCode(ctx, code)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		if b.CustomerID != uid {
			writeDomainError(c, booking.ErrNotFound)
			return
		}
		writeJSON(c, http.StatusOK, gin.H{"bookings": []*booking.Booking{b}})
		return
	}

	list, err := h.bookings.ListByCustomer(ctx, uid)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if b.CustomerID != httpmiddleware.CallerUID(c) {
		writeDomainError(c, types.Forbidden("booking belongs to another customer"))
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type paymentReq struct {
	Method string `json:"payment_method"`
}

func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	var req paymentReq
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.bookings.ConfirmPayment(c.Request.Context(), booking.ConfirmPaymentCommand{
		BookingID:  types.ID(c.Param("id")),
		CustomerID: httpmiddleware.CallerUID(c),
		Method:     req.Method,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelReq
	// The body is optional; an empty one keeps the default reason.
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "cancelled by customer"
	}
	b, err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID:  types.ID(c.Param("id")),
		CustomerID: httpmiddleware.CallerUID(c),
		Reason:     req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}
