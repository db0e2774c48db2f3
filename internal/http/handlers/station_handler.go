// README: Station catalog handlers: search, popular, nearby and lookup.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"travellite/internal/modules/station"
	"travellite/internal/types"
)

const defaultNearbyRadiusKm = 25.0

type StationHandler struct {
	stations *station.Service
}

func NewStationHandler(svc *station.Service) *StationHandler {
	return &StationHandler{stations: svc}
}

func (h *StationHandler) Search(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	list, err := h.stations.Search(c.Request.Context(), c.Query("q"), station.Type(c.Query("type")), limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"stations": list})
}

func (h *StationHandler) Popular(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	list, err := h.stations.ListPopular(c.Request.Context(), station.Type(c.Query("type")), limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"stations": list})
}

func (h *StationHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radius := defaultNearbyRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			writeError(c, http.StatusBadRequest, "radius_km must be positive")
			return
		}
		radius = r
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	list, err := h.stations.Nearby(c.Request.Context(), types.GeoCoordinate{Latitude: lat, Longitude: lng}, radius, limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"stations": list})
}

func (h *StationHandler) Get(c *gin.Context) {
	st, err := h.stations.Lookup(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, st)
}
