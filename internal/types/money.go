// README: Common money value object used across modules.
package types

import (
    "fmt"
    "math"
    "strconv"
)

// Money holds an amount in minor units (paise for INR).
type Money struct {
    Amount   int64
    Currency string
}

const DefaultCurrency = "INR"

func INR(minor int64) Money {
    return Money{Amount: minor, Currency: DefaultCurrency}
}

// Major renders the amount in major units for JSON payloads.
func (m Money) Major() float64 {
    return float64(m.Amount) / 100
}

func (m Money) String() string {
    sign := ""
    a := m.Amount
    if a < 0 {
        sign = "-"
        a = -a
    }
    return fmt.Sprintf("%s%d.%02d %s", sign, a/100, a%100, m.Currency)
}

// MarshalJSON encodes the amount in major units with two decimals; the
// currency travels on the enclosing object.
func (m Money) MarshalJSON() ([]byte, error) {
    return []byte(strconv.FormatFloat(m.Major(), 'f', 2, 64)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
    v, err := strconv.ParseFloat(string(b), 64)
    if err != nil {
        return fmt.Errorf("money: %w", err)
    }
    m.Amount = int64(math.Round(v * 100))
    if m.Currency == "" {
        m.Currency = DefaultCurrency
    }
    return nil
}
