// README: Quote value objects produced by the pricing engine.
package pricing

import (
	"math"
	"strconv"
	"time"

	"travellite/internal/modules/station"
	"travellite/internal/types"
)

type UserTier string

const (
	TierNew       UserTier = "new"
	TierReturning UserTier = "returning"
	TierPremium   UserTier = "premium"
)

type PricingRequest struct {
	DistanceKm        float64
	SourceType        station.Type
	DestinationType   station.Type
	PickupTime        time.Time
	UserTier          UserTier
	PriorBookingCount int
}

// Multiplier is a price factor in hundredths (115 == 1.15).
type Multiplier int64

func (m Multiplier) Float() float64 {
	return float64(m) / 100
}

func (m Multiplier) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Float(), 'f', 2, 64)), nil
}

func (m *Multiplier) UnmarshalJSON(b []byte) error {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*m = Multiplier(math.Round(f * 100))
	return nil
}

type Fees struct {
	Handling  types.Money `json:"handling"`
	Insurance types.Money `json:"insurance"`
	Packaging types.Money `json:"packaging"`
	Tracking  types.Money `json:"tracking"`
	Total     types.Money `json:"total"`
}

type Discount struct {
	Type       string      `json:"type"`
	Percentage int64       `json:"percentage"`
	Amount     types.Money `json:"amount"`
}

type Taxes struct {
	GST        types.Money `json:"gst"`
	ServiceTax types.Money `json:"service_tax"`
	Total      types.Money `json:"total"`
}

// Quote is an immutable price breakdown. Every amount is already rounded to
// two decimals at the stage it was computed.
type Quote struct {
	BasePrice          types.Money `json:"base_price"`
	DistancePrice      types.Money `json:"distance_price"`
	Subtotal           types.Money `json:"subtotal"`
	StationMultiplier  Multiplier  `json:"station_multiplier"`
	DistanceMultiplier Multiplier  `json:"distance_multiplier"`
	TimeMultiplier     Multiplier  `json:"time_multiplier"`
	AdjustedPrice      types.Money `json:"adjusted_price"`
	Fees               Fees        `json:"fees"`
	PreTaxTotal        types.Money `json:"pre_tax_total"`
	Discount           Discount    `json:"discount"`
	DiscountedTotal    types.Money `json:"discounted_total"`
	Taxes              Taxes       `json:"taxes"`
	UnclampedTotal     types.Money `json:"unclamped_total"`
	Total              types.Money `json:"total"`
	Currency           string      `json:"currency"`
}

// Breakdown flattens the quote into minor-unit line items.
func (q Quote) Breakdown() map[string]int64 {
	return map[string]int64{
		"base_price":     q.BasePrice.Amount,
		"distance_price": q.DistancePrice.Amount,
		"adjusted_price": q.AdjustedPrice.Amount,
		"service_fees":   q.Fees.Total.Amount,
		"discount":       q.Discount.Amount.Amount,
		"gst":            q.Taxes.GST.Amount,
		"service_tax":    q.Taxes.ServiceTax.Amount,
		"total":          q.Total.Amount,
	}
}

type RouteQuote struct {
	Source      station.Station `json:"source"`
	Destination station.Station `json:"destination"`
	DistanceKm  float64         `json:"distance_km"`
	Quote       Quote           `json:"quote"`
}
