// README: Station staff handlers: lookup, accept, dispatch and deliver.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpmiddleware "travellite/internal/http/middleware"
	"travellite/internal/modules/booking"
	"travellite/internal/types"
)

type StaffHandler struct {
	bookings *booking.Service
}

func NewStaffHandler(svc *booking.Service) *StaffHandler {
	return &StaffHandler{bookings: svc}
}

// staffStation returns the caller's assigned station or writes 403.
func staffStation(c *gin.Context) (types.ID, bool) {
	st := httpmiddleware.CallerStation(c)
	if st == "" {
		writeDomainError(c, types.Forbidden("staff account has no station"))
		return "", false
	}
	return st, true
}

func (h *StaffHandler) Lookup(c *gin.Context) {
	st, ok := staffStation(c)
	if !ok {
		return
	}
	b, op, err := h.bookings.Lookup(c.Request.Context(), types.ID(c.Param("id")), st)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"booking": b, "operation_type": op})
}

func (h *StaffHandler) Accept(c *gin.Context) {
	st, ok := staffStation(c)
	if !ok {
		return
	}
	b, err := h.bookings.AcceptLuggage(c.Request.Context(), booking.AcceptLuggageCommand{
		BookingID:      types.ID(c.Param("id")),
		StaffStationID: st,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *StaffHandler) Dispatch(c *gin.Context) {
	st, ok := staffStation(c)
	if !ok {
		return
	}
	b, err := h.bookings.Dispatch(c.Request.Context(), booking.DispatchCommand{
		BookingID:      types.ID(c.Param("id")),
		StaffStationID: st,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *StaffHandler) Deliver(c *gin.Context) {
	st, ok := staffStation(c)
	if !ok {
		return
	}
	b, err := h.bookings.Deliver(c.Request.Context(), booking.DeliverCommand{
		BookingID:      types.ID(c.Param("id")),
		StaffStationID: st,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}
