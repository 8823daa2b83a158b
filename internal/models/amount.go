package models

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a currency value. The backend serialises money as a JSON number
// or as a string; both are accepted, and null or "" read as zero.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func AmountFromInt(v int64) Amount {
	return Amount{Decimal: decimal.NewFromInt(v)}
}

// MustAmount parses s and panics on malformed input. Intended for constants and tests.
func MustAmount(s string) Amount {
	return Amount{Decimal: decimal.RequireFromString(s)}
}

func (a *Amount) UnmarshalJSON(data []byte) error {

	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}

	if data[0] == '"' {
		data = bytes.Trim(data, `"`)
		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			a.Decimal = decimal.Zero
			return nil
		}
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", string(data), err)
	}

	a.Decimal = d

	return nil
}

// MarshalJSON emits a JSON number at full precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// Rounded returns the display value, rounded half away from zero to 2 places.
func (a Amount) Rounded() Amount {
	return Amount{Decimal: a.Decimal.Round(2)}
}

func (a Amount) Display() string {
	return a.Decimal.StringFixed(2)
}
