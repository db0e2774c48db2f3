// README: Pricing engine: deterministic multi-stage luggage transport quote.
package pricing

import (
	"context"
	"math"
	"time"

	"travellite/internal/modules/location"
	"travellite/internal/modules/station"
	"travellite/internal/types"
)

// All amounts are paise; multipliers are hundredths.
const (
	basePrice      int64 = 5000
	perKmPaise           = 250.0
	handlingFee    int64 = 2500
	insuranceFee   int64 = 1500
	packagingFee   int64 = 2000
	trackingFee    int64 = 1000
	gstPercent     int64 = 18
	serviceTaxPct  int64 = 5
	minTotal       int64 = 10000
	maxTotal       int64 = 200000
	returningAfter       = 5

	// maxDistanceKm keeps subtotal times the combined multiplier within int64.
	maxDistanceKm = 1e6
)

var stationMultipliers = map[string]Multiplier{
	"railway-railway": 100,
	"railway-airport": 120,
	"airport-railway": 120,
	"airport-airport": 140,
}

var tierDiscounts = map[UserTier]int64{
	TierNew:       10,
	TierReturning: 5,
	TierPremium:   15,
}

// Calculate runs the quote pipeline. It is a pure function.
func Calculate(req PricingRequest) (Quote, error) {
	if math.IsNaN(req.DistanceKm) || math.IsInf(req.DistanceKm, 0) || req.DistanceKm <= 0 {
		return Quote{}, &types.Error{Kind: types.KindInvalidDistance, Field: "distance_km", Msg: "distance must be greater than zero"}
	}
	if req.DistanceKm > maxDistanceKm {
		return Quote{}, &types.Error{Kind: types.KindInvalidDistance, Field: "distance_km", Msg: "distance must not exceed 1000000 km"}
	}

	var q Quote
	q.Currency = types.DefaultCurrency

	distancePrice := int64(math.Round(req.DistanceKm * perKmPaise))
	subtotal := basePrice + distancePrice
	q.BasePrice = types.INR(basePrice)
	q.DistancePrice = types.INR(distancePrice)
	q.Subtotal = types.INR(subtotal)

	q.StationMultiplier = StationMultiplier(req.SourceType, req.DestinationType)
	q.DistanceMultiplier = DistanceMultiplier(req.DistanceKm)
	q.TimeMultiplier = TimeMultiplier(req.PickupTime)

	factor := int64(q.StationMultiplier) * int64(q.DistanceMultiplier) * int64(q.TimeMultiplier)
	adjusted := roundDiv(subtotal*factor, 100*100*100)
	q.AdjustedPrice = types.INR(adjusted)

	fees := handlingFee + insuranceFee + packagingFee + trackingFee
	q.Fees = Fees{
		Handling:  types.INR(handlingFee),
		Insurance: types.INR(insuranceFee),
		Packaging: types.INR(packagingFee),
		Tracking:  types.INR(trackingFee),
		Total:     types.INR(fees),
	}
	preTax := adjusted + fees
	q.PreTaxTotal = types.INR(preTax)

	pct := DiscountPercent(req.UserTier, req.PriorBookingCount)
	discount := roundDiv(preTax*pct, 100)
	q.Discount = Discount{Percentage: pct, Amount: types.INR(discount)}
	if pct > 0 {
		q.Discount.Type = string(req.UserTier)
	}
	discounted := preTax - discount
	q.DiscountedTotal = types.INR(discounted)

	gst := roundDiv(discounted*gstPercent, 100)
	serviceTax := roundDiv(discounted*serviceTaxPct, 100)
	q.Taxes = Taxes{
		GST:        types.INR(gst),
		ServiceTax: types.INR(serviceTax),
		Total:      types.INR(gst + serviceTax),
	}

	final := discounted + gst + serviceTax
	q.UnclampedTotal = types.INR(final)
	q.Total = types.INR(clamp(final, minTotal, maxTotal))
	return q, nil
}

// StationMultiplier looks up the "{source}-{destination}" pairing; unknown pairs are 1.00.
func StationMultiplier(source, destination station.Type) Multiplier {
	if m, ok := stationMultipliers[string(source)+"-"+string(destination)]; ok {
		return m
	}
	return 100
}

func DistanceMultiplier(km float64) Multiplier {
	switch {
	case km > 500:
		return 130
	case km > 200:
		return 120
	case km > 50:
		return 110
	default:
		return 100
	}
}

// TimeMultiplier uses the pickup hour in the pickup time's own location:
// night [22:00, 06:00) and rush [06:00, 10:00) ∪ [17:00, 21:00).
func TimeMultiplier(pickup time.Time) Multiplier {
	h := pickup.Hour()
	switch {
	case h >= 22 || h < 6:
		return 115
	case (h >= 6 && h < 10) || (h >= 17 && h < 21):
		return 105
	default:
		return 100
	}
}

// DiscountPercent: unrecognised tiers get no discount.
func DiscountPercent(tier UserTier, priorBookings int) int64 {
	if tier == TierReturning && priorBookings < returningAfter {
		return 0
	}
	return tierDiscounts[tier]
}

// roundDiv divides with half-up rounding; n and d are non-negative.
func roundDiv(n, d int64) int64 {
	return (n + d/2) / d
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type StationLookup interface {
	Lookup(ctx context.Context, id types.ID) (station.Station, error)
}

type Service struct {
	stations StationLookup
}

func NewService(stations StationLookup) *Service {
	return &Service{stations: stations}
}

func (s *Service) Estimate(ctx context.Context, req PricingRequest) (Quote, error) {
	q, err := Calculate(req)
	if err != nil {
		return Quote{}, err
	}
	quotesComputed.WithLabelValues(string(req.SourceType) + "-" + string(req.DestinationType)).Inc()
	return q, nil
}

type RouteRequest struct {
	SourceStationID      types.ID
	DestinationStationID types.ID
	PickupTime           time.Time
	UserTier             UserTier
	PriorBookingCount    int
}

// EstimateRoute resolves both stations, measures the route and prices it.
// Catalog errors are returned unchanged.
func (s *Service) EstimateRoute(ctx context.Context, req RouteRequest) (RouteQuote, error) {
	if req.SourceStationID == req.DestinationStationID {
		return RouteQuote{}, types.Validation("destination_station_id", "Source and destination stations cannot be the same")
	}
	src, err := s.stations.Lookup(ctx, req.SourceStationID)
	if err != nil {
		return RouteQuote{}, err
	}
	dst, err := s.stations.Lookup(ctx, req.DestinationStationID)
	if err != nil {
		return RouteQuote{}, err
	}
	km, err := location.Distance(src.Coordinates, dst.Coordinates)
	if err != nil {
		return RouteQuote{}, err
	}

	q, err := s.Estimate(ctx, PricingRequest{
		DistanceKm:        km,
		SourceType:        src.Type,
		DestinationType:   dst.Type,
		PickupTime:        req.PickupTime,
		UserTier:          req.UserTier,
		PriorBookingCount: req.PriorBookingCount,
	})
	if err != nil {
		return RouteQuote{}, err
	}
	return RouteQuote{Source: src, Destination: dst, DistanceKm: location.RoundKm(km), Quote: q}, nil
}
