// README: End-to-end HTTP tests over memory stores with a stub token verifier.
package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "travellite/internal/http"
	"travellite/internal/infra"
	"travellite/internal/modules/booking"
	"travellite/internal/modules/pricing"
	"travellite/internal/modules/station"
	"travellite/internal/types"
)

// tokenTable maps raw bearer tokens to identities.
type tokenTable map[string]*infra.Token

func (t tokenTable) VerifyIDToken(_ context.Context, raw string) (*infra.Token, error) {
	tok, ok := t[raw]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return tok, nil
}

var tokens = tokenTable{
	"cust":      {UID: "c1", Claims: map[string]interface{}{}},
	"other":     {UID: "c2", Claims: map[string]interface{}{}},
	"staff-src": {UID: "s1", Claims: map[string]interface{}{"role": "staff", "station_id": "ndls"}},
	"staff-dst": {UID: "s2", Claims: map[string]interface{}{"role": "staff", "station_id": "csmt"}},
	"staff-del": {UID: "s3", Claims: map[string]interface{}{"role": "staff", "station_id": "del"}},
	"staff-nil": {UID: "s4", Claims: map[string]interface{}{"role": "staff"}},
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	src, err := station.NewMemoryStore([]station.Station{
		{ID: "ndls", Code: "NDLS", Name: "New Delhi", City: "Delhi", Type: station.TypeRailway,
			Coordinates: types.GeoCoordinate{Latitude: 28.6430, Longitude: 77.2194}, Popularity: 90},
		{ID: "csmt", Code: "CSMT", Name: "Mumbai CSMT", City: "Mumbai", Type: station.TypeRailway,
			Coordinates: types.GeoCoordinate{Latitude: 18.9398, Longitude: 72.8355}, Popularity: 80},
		{ID: "del", Code: "DEL", Name: "Indira Gandhi International", City: "Delhi", Type: station.TypeAirport,
			Coordinates: types.GeoCoordinate{Latitude: 28.5562, Longitude: 77.1000}, Popularity: 95},
	})
	require.NoError(t, err)

	stations := station.NewService(src, nil)
	bookings := booking.NewService(booking.NewMemoryStore(), stations, nil, stations)
	return httptransport.NewRouter(httptransport.ServerDeps{
		Stations: stations,
		Pricing:  pricing.NewService(stations),
		Bookings: bookings,
		Verifier: tokens,
	})
}

func doRequest(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func photos(angles ...string) []map[string]string {
	out := make([]map[string]string, 0, len(angles))
	for _, a := range angles {
		out = append(out, map[string]string{"angle": a, "url": "https://img.example/" + a + ".jpg"})
	}
	return out
}

func createBody(src, dst string, angles ...string) map[string]any {
	return map[string]any{
		"source_station_id":      src,
		"destination_station_id": dst,
		"pickup_time":            "2024-12-01T14:00:00+05:30",
		"security_items":         []string{"laptop"},
		"contact_info":           map[string]string{"name": "Asha", "phone": "+91 98100 00000"},
		"luggage_photos":         photos(angles...),
	}
}

func mustCreateBooking(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/bookings", createBody("ndls", "csmt", "front", "back", "left", "right"), "cust")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	return body["id"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/metrics", nil, "").Code)
}

func TestStationRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/stations?q=delhi", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["stations"], 2)

	w = doRequest(r, http.MethodGet, "/api/stations/popular?type=railway", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["stations"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "ndls", list[0].(map[string]any)["id"])

	w = doRequest(r, http.MethodGet, "/api/stations/nearby?lat=28.60&lng=77.20&radius_km=20", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["stations"], 2)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/api/stations/csmt", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/api/stations/nope", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/api/stations/nearby?lat=95&lng=0", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/api/stations?type=bus", nil, "").Code)
}

func TestQuote(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/quotes", map[string]any{
		"source_station_id":      "ndls",
		"destination_station_id": "csmt",
		"pickup_time":            "2024-12-01T14:00:00+05:30",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	quote := body["quote"].(map[string]any)
	assert.Equal(t, 2000.0, quote["total"])
	assert.Equal(t, 1.3, quote["distance_multiplier"])
	assert.Equal(t, "new", body["user_tier"])

	w = doRequest(r, http.MethodPost, "/api/quotes", map[string]any{
		"source_station_id":      "ndls",
		"destination_station_id": "ndls",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Source and destination stations cannot be the same", decode(t, w)["error"])

	w = doRequest(r, http.MethodPost, "/api/quotes", map[string]any{
		"source_station_id":      "ndls",
		"destination_station_id": "csmt",
		"pickup_time":            "tomorrow",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodPost, "/api/quotes", map[string]any{}, "forged").Code)
}

func TestCreateBookingValidation(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized,
		doRequest(r, http.MethodPost, "/api/bookings", createBody("ndls", "csmt", "front", "back", "left", "right"), "").Code)

	w := doRequest(r, http.MethodPost, "/api/bookings", createBody("ndls", "csmt", "front", "back", "left"), "cust")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "luggage_photos", decode(t, w)["field"])

	w = doRequest(r, http.MethodPost, "/api/bookings", createBody("ndls", "csmt", "front", "back", "right", "right"), "cust")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "left")

	w = doRequest(r, http.MethodPost, "/api/bookings", createBody("ndls", "nowhere", "front", "back", "left", "right"), "cust")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	id := mustCreateBooking(t, r)

	w := doRequest(r, http.MethodGet, "/api/bookings/"+id, nil, "cust")
	require.Equal(t, http.StatusOK, w.Code)
	created := decode(t, w)
	assert.Equal(t, "pending_payment", created["status"])
	assert.Regexp(t, `^TL\d{8}[A-Z]{2,4}$`, created["booking_code"])

	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/api/bookings/"+id, nil, "other").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/api/bookings/missing", nil, "cust").Code)

	w = doRequest(r, http.MethodGet, "/api/bookings?code="+created["booking_code"].(string), nil, "cust")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["bookings"], 1)

	w = doRequest(r, http.MethodPost, "/api/bookings/"+id+"/payment", map[string]string{"payment_method": "upi"}, "other")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doRequest(r, http.MethodPost, "/api/bookings/"+id+"/payment", map[string]string{"payment_method": "upi"}, "cust")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "payment_confirmed", decode(t, w)["status"])

	// Staff routes.
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/api/staff/bookings/"+id, nil, "cust").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/api/staff/bookings/"+id, nil, "staff-nil").Code)

	w = doRequest(r, http.MethodGet, "/api/staff/bookings/"+id, nil, "staff-dst")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delivery", decode(t, w)["operation_type"])
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/api/staff/bookings/"+id, nil, "staff-del").Code)

	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodPost, "/api/staff/bookings/"+id+"/accept", nil, "staff-del").Code)
	w = doRequest(r, http.MethodPost, "/api/staff/bookings/"+id+"/accept", nil, "staff-src")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "luggage_collected", decode(t, w)["status"])

	w = doRequest(r, http.MethodPost, "/api/bookings/"+id+"/cancel", map[string]string{"reason": "late"}, "cust")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Booking cannot be cancelled at this stage", decode(t, w)["error"])

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, "/api/staff/bookings/"+id+"/dispatch", nil, "staff-src").Code)
	w = doRequest(r, http.MethodPost, "/api/staff/bookings/"+id+"/deliver", nil, "staff-dst")
	require.Equal(t, http.StatusOK, w.Code)
	done := decode(t, w)
	assert.Equal(t, "delivered", done["status"])
	assert.Len(t, done["tracking_history"], 5)
}

func TestCancelAndList(t *testing.T) {
	r := newTestRouter(t)
	id := mustCreateBooking(t, r)
	mustCreateBooking(t, r)

	w := doRequest(r, http.MethodPost, "/api/bookings/"+id+"/cancel", map[string]string{"reason": "plans changed"}, "cust")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "cancelled", body["status"])
	history := body["tracking_history"].([]any)
	assert.Equal(t, "plans changed", history[len(history)-1].(map[string]any)["notes"])

	w = doRequest(r, http.MethodPost, "/api/bookings/"+id+"/payment", map[string]string{"payment_method": "upi"}, "cust")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, http.MethodGet, "/api/bookings", nil, "cust")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["bookings"], 2)

	w = doRequest(r, http.MethodGet, "/api/bookings", nil, "other")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["bookings"], 0)
}

func TestCancelReasonFromChunkedBody(t *testing.T) {
	r := newTestRouter(t)
	id := mustCreateBooking(t, r)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+id+"/cancel", bytes.NewBufferString(`{"reason":"flight moved"}`))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer cust")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "flight moved", decode(t, w)["cancel_reason"])
}

func TestCancelWithoutBodyUsesDefaultReason(t *testing.T) {
	r := newTestRouter(t)
	id := mustCreateBooking(t, r)

	w := doRequest(r, http.MethodPost, "/api/bookings/"+id+"/cancel", nil, "cust")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled by customer", decode(t, w)["cancel_reason"])

	id = mustCreateBooking(t, r)
	w = doRequest(r, http.MethodPost, "/api/bookings/"+id+"/cancel", "not an object", "cust")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
