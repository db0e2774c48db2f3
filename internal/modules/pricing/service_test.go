package pricing

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"travellite/internal/modules/station"
	"travellite/internal/types"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 12, 1, hour, minute, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		req      PricingRequest
		wantAdj  int64
		wantDisc int64
		wantTax  int64
		wantRaw  int64
		want     int64
	}{
		{
			name: "Long railway route, new user, clamped to max",
			req: PricingRequest{
				DistanceKm: 1384, SourceType: station.TypeRailway, DestinationType: station.TypeRailway,
				PickupTime: at(14, 0), UserTier: TierNew,
			},
			// subtotal 50 + 3460 = 3510; x1.3 = 4563.00; +70 = 4633.00
			// discount 10% = 463.30 -> 4169.70; GST 750.55 + service 208.49
			wantAdj:  456300,
			wantDisc: 46330,
			wantTax:  95904,
			wantRaw:  512874,
			want:     200000,
		},
		{
			name: "Short route off-peak, new user",
			req: PricingRequest{
				DistanceKm: 10, SourceType: station.TypeRailway, DestinationType: station.TypeRailway,
				PickupTime: at(12, 0), UserTier: TierNew,
			},
			// 75 -> 145 -> -14.50 = 130.50; taxes 23.49 + 6.53
			wantAdj:  7500,
			wantDisc: 1450,
			wantTax:  3002,
			wantRaw:  16052,
			want:     16052,
		},
		{
			name: "Rush hour railway-airport, returning with 5 prior bookings",
			req: PricingRequest{
				DistanceKm: 100, SourceType: station.TypeRailway, DestinationType: station.TypeAirport,
				PickupTime: at(8, 0), UserTier: TierReturning, PriorBookingCount: 5,
			},
			// 300 x1.2 x1.1 x1.05 = 415.80; +70 = 485.80; 5% = 24.29
			wantAdj:  41580,
			wantDisc: 2429,
			wantTax:  10615,
			wantRaw:  56766,
			want:     56766,
		},
		{
			name: "Returning with fewer than 5 prior bookings gets no discount",
			req: PricingRequest{
				DistanceKm: 100, SourceType: station.TypeRailway, DestinationType: station.TypeAirport,
				PickupTime: at(8, 0), UserTier: TierReturning, PriorBookingCount: 4,
			},
			wantAdj:  41580,
			wantDisc: 0,
			wantTax:  11173,
			wantRaw:  59753,
			want:     59753,
		},
		{
			name: "Night airport-airport, premium",
			req: PricingRequest{
				DistanceKm: 250, SourceType: station.TypeAirport, DestinationType: station.TypeAirport,
				PickupTime: at(23, 30), UserTier: TierPremium,
			},
			// 675 x1.4 x1.2 x1.15 = 1304.10; +70 = 1374.10; 15% = 206.12 (206.115 rounded up)
			wantAdj:  130410,
			wantDisc: 20612,
			wantTax:  26864,
			wantRaw:  143662,
			want:     143662,
		},
		{
			name: "Unknown tier gets no discount",
			req: PricingRequest{
				DistanceKm: 30, SourceType: station.TypeAirport, DestinationType: station.TypeRailway,
				PickupTime: at(18, 0), UserTier: UserTier("gold"),
			},
			wantAdj:  15750,
			wantDisc: 0,
			wantTax:  5233,
			wantRaw:  27983,
			want:     27983,
		},
		{
			name: "21:00 is neither rush nor night",
			req: PricingRequest{
				DistanceKm: 60, SourceType: station.TypeRailway, DestinationType: station.TypeRailway,
				PickupTime: at(21, 0),
			},
			wantAdj:  22000,
			wantDisc: 0,
			wantTax:  6670,
			wantRaw:  35670,
			want:     35670,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.req)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got.AdjustedPrice.Amount != tt.wantAdj {
				t.Errorf("AdjustedPrice = %d, want %d", got.AdjustedPrice.Amount, tt.wantAdj)
			}
			if got.Discount.Amount.Amount != tt.wantDisc {
				t.Errorf("Discount = %d, want %d", got.Discount.Amount.Amount, tt.wantDisc)
			}
			if got.Taxes.Total.Amount != tt.wantTax {
				t.Errorf("Taxes = %d, want %d", got.Taxes.Total.Amount, tt.wantTax)
			}
			if got.Taxes.Total.Amount != got.Taxes.GST.Amount+got.Taxes.ServiceTax.Amount {
				t.Errorf("taxes total %d is not the sum of its parts", got.Taxes.Total.Amount)
			}
			if got.UnclampedTotal.Amount != tt.wantRaw {
				t.Errorf("UnclampedTotal = %d, want %d", got.UnclampedTotal.Amount, tt.wantRaw)
			}
			if got.Total.Amount != tt.want {
				t.Errorf("Total = %d, want %d", got.Total.Amount, tt.want)
			}
			if got.Currency != "INR" {
				t.Errorf("Currency = %q", got.Currency)
			}
		})
	}
}

func TestCalculate_ScenarioLongRailwayRoute(t *testing.T) {
	q, err := Calculate(PricingRequest{
		DistanceKm: 1384, SourceType: station.TypeRailway, DestinationType: station.TypeRailway,
		PickupTime: at(14, 0), UserTier: TierNew,
	})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	if q.StationMultiplier != 100 || q.DistanceMultiplier != 130 || q.TimeMultiplier != 100 {
		t.Errorf("multipliers = %v/%v/%v, want 1.00/1.30/1.00", q.StationMultiplier, q.DistanceMultiplier, q.TimeMultiplier)
	}
	if q.Discount.Percentage != 10 || q.Discount.Type != "new" {
		t.Errorf("discount = %+v, want 10%% new", q.Discount)
	}
	if q.Fees.Total.Amount != 7000 {
		t.Errorf("fees = %d, want 7000", q.Fees.Total.Amount)
	}
	if q.Total.Amount < 10000 || q.Total.Amount > 200000 {
		t.Errorf("total %d outside [100, 2000]", q.Total.Amount)
	}
}

func TestCalculate_InvalidDistance(t *testing.T) {
	for _, km := range []float64{0, -1, math.NaN(), math.Inf(1), 1e6 + 0.01, 2e10, 1e17, math.MaxFloat64} {
		_, err := Calculate(PricingRequest{
			DistanceKm: km, SourceType: station.TypeAirport, DestinationType: station.TypeAirport,
			PickupTime: at(23, 0), UserTier: TierNew,
		})
		if !errors.Is(err, types.ErrInvalidDistance) {
			t.Errorf("Calculate(%v) error = %v, want ErrInvalidDistance", km, err)
		}
	}
}

func TestCalculate_LongestAcceptedDistanceHasNoNegativeAmounts(t *testing.T) {
	q, err := Calculate(PricingRequest{
		DistanceKm: 1e6, SourceType: station.TypeAirport, DestinationType: station.TypeAirport,
		PickupTime: at(23, 0), UserTier: TierNew,
	})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	for name, v := range q.Breakdown() {
		if v < 0 {
			t.Errorf("%s = %d, want non-negative", name, v)
		}
	}
	if q.UnclampedTotal.Amount <= 200000 || q.Total.Amount != 200000 {
		t.Errorf("unclamped=%d total=%d, want clamped to the maximum", q.UnclampedTotal.Amount, q.Total.Amount)
	}
}

func TestCalculate_TotalAlwaysWithinBounds(t *testing.T) {
	tiers := []UserTier{TierNew, TierReturning, TierPremium, "", "vip"}
	pairs := [][2]station.Type{
		{station.TypeRailway, station.TypeRailway},
		{station.TypeRailway, station.TypeAirport},
		{station.TypeAirport, station.TypeAirport},
		{"bus", station.TypeAirport},
	}
	for _, km := range []float64{0.01, 1, 49.99, 50, 50.01, 200, 200.5, 500, 501, 3000, 1e6} {
		for hour := 0; hour < 24; hour++ {
			for _, tier := range tiers {
				for _, p := range pairs {
					req := PricingRequest{
						DistanceKm: km, SourceType: p[0], DestinationType: p[1],
						PickupTime: at(hour, 15), UserTier: tier, PriorBookingCount: hour % 7,
					}
					q, err := Calculate(req)
					if err != nil {
						t.Fatalf("Calculate(%+v) error = %v", req, err)
					}
					if q.Total.Amount < 10000 || q.Total.Amount > 200000 {
						t.Fatalf("Calculate(%+v) total = %d, outside bounds", req, q.Total.Amount)
					}
				}
			}
		}
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	req := PricingRequest{
		DistanceKm: 321.77, SourceType: station.TypeAirport, DestinationType: station.TypeRailway,
		PickupTime: at(7, 45), UserTier: TierPremium,
	}
	first, _ := Calculate(req)
	for i := 0; i < 50; i++ {
		got, _ := Calculate(req)
		if got != first {
			t.Fatalf("Calculate() not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestMultipliers(t *testing.T) {
	if got := StationMultiplier(station.TypeAirport, station.TypeRailway); got != 120 {
		t.Errorf("airport-railway = %v", got)
	}
	if got := StationMultiplier("bus", "ferry"); got != 100 {
		t.Errorf("unknown pairing = %v, want 1.00", got)
	}

	distances := map[float64]Multiplier{50: 100, 50.5: 110, 200: 110, 201: 120, 500: 120, 500.01: 130}
	for km, want := range distances {
		if got := DistanceMultiplier(km); got != want {
			t.Errorf("DistanceMultiplier(%v) = %v, want %v", km, got, want)
		}
	}

	hours := map[int]Multiplier{
		0: 115, 5: 115, 6: 105, 9: 105, 10: 100, 16: 100,
		17: 105, 20: 105, 21: 100, 22: 115, 23: 115,
	}
	for h, want := range hours {
		if got := TimeMultiplier(at(h, 59)); got != want {
			t.Errorf("TimeMultiplier(%02d:59) = %v, want %v", h, got, want)
		}
	}
}

type stubLookup map[types.ID]station.Station

func (s stubLookup) Lookup(_ context.Context, id types.ID) (station.Station, error) {
	st, ok := s[id]
	if !ok {
		return station.Station{}, station.ErrNotFound
	}
	return st, nil
}

func TestService_EstimateRoute(t *testing.T) {
	stations := stubLookup{
		"ndls": {ID: "ndls", Type: station.TypeRailway, Coordinates: types.GeoCoordinate{Latitude: 28.6430, Longitude: 77.2194}},
		"bom":  {ID: "bom", Type: station.TypeAirport, Coordinates: types.GeoCoordinate{Latitude: 19.0896, Longitude: 72.8656}},
	}
	svc := NewService(stations)
	ctx := context.Background()

	rq, err := svc.EstimateRoute(ctx, RouteRequest{
		SourceStationID: "ndls", DestinationStationID: "bom", PickupTime: at(12, 0), UserTier: TierNew,
	})
	if err != nil {
		t.Fatalf("EstimateRoute() error = %v", err)
	}
	if rq.DistanceKm < 1100 || rq.DistanceKm > 1200 {
		t.Errorf("distance = %v, want ~1150km", rq.DistanceKm)
	}
	if rq.Quote.StationMultiplier != 120 || rq.Quote.DistanceMultiplier != 130 {
		t.Errorf("multipliers = %v/%v", rq.Quote.StationMultiplier, rq.Quote.DistanceMultiplier)
	}

	_, err = svc.EstimateRoute(ctx, RouteRequest{SourceStationID: "ndls", DestinationStationID: "ndls", PickupTime: at(12, 0)})
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("same station: error = %v, want ErrValidation", err)
	}

	_, err = svc.EstimateRoute(ctx, RouteRequest{SourceStationID: "ndls", DestinationStationID: "xxx", PickupTime: at(12, 0)})
	if err != station.ErrNotFound {
		t.Errorf("unknown station: error = %v, want catalog error unchanged", err)
	}
}

func TestService_EstimateRoute_AdjacentStations(t *testing.T) {
	// Roughly two metres apart; the displayed distance rounds to 0.00 km.
	svc := NewService(stubLookup{
		"t1": {ID: "t1", Type: station.TypeAirport, Coordinates: types.GeoCoordinate{Latitude: 19.0896, Longitude: 72.8656}},
		"t2": {ID: "t2", Type: station.TypeAirport, Coordinates: types.GeoCoordinate{Latitude: 19.08962, Longitude: 72.8656}},
	})

	rq, err := svc.EstimateRoute(context.Background(), RouteRequest{
		SourceStationID: "t1", DestinationStationID: "t2", PickupTime: at(12, 0), UserTier: TierNew,
	})
	if err != nil {
		t.Fatalf("EstimateRoute() error = %v", err)
	}
	if rq.DistanceKm != 0 {
		t.Errorf("displayed distance = %v, want 0", rq.DistanceKm)
	}
	if rq.Quote.DistancePrice.Amount > 1 {
		t.Errorf("distance price = %d paise, want at most 1", rq.Quote.DistancePrice.Amount)
	}
}
