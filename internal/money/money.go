// Package money normalises backend amounts into major currency units.
//
// The commerce backend may report an amount either in major units (15.00) or
// in minor units (1500). ModeHeuristic reproduces the storefront's historical
// rule of treating any amount >= 100 as minor units. ModeMinor and ModeMajor
// make the unit explicit; ModeMinor shifts by the ISO 4217 exponent of the
// currency (0 for JPY, 3 for KWD, 2 otherwise).
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeMinor     Mode = "minor"
	ModeMajor     Mode = "major"
)

const defaultExponent = 2

var hundred = decimal.NewFromInt(100)

// Normalizer converts raw backend amounts to major units.
type Normalizer struct {
	mode Mode
}

// NewNormalizer parses mode; an empty mode selects ModeHeuristic.
func NewNormalizer(mode string) (Normalizer, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(mode)))
	switch m {
	case "":
		return Normalizer{mode: ModeHeuristic}, nil
	case ModeHeuristic, ModeMinor, ModeMajor:
		return Normalizer{mode: m}, nil
	default:
		return Normalizer{}, fmt.Errorf("unknown money mode %q", mode)
	}
}

// Mode reports the active mode. The zero Normalizer behaves as ModeHeuristic.
func (n Normalizer) Mode() Mode {
	if n.mode == "" {
		return ModeHeuristic
	}
	return n.mode
}

// Normalize converts amount, expressed in currencyCode, to major units.
func (n Normalizer) Normalize(amount decimal.Decimal, currencyCode string) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	switch n.Mode() {
	case ModeMajor:
		return amount
	case ModeMinor:
		return FromMinor(amount, currencyCode)
	default:
		return Heuristic(amount)
	}
}

// Heuristic divides amounts of 100 or more by 100 and returns smaller amounts
// unchanged.
func Heuristic(amount decimal.Decimal) decimal.Decimal {
	if amount.GreaterThanOrEqual(hundred) {
		return amount.Div(hundred)
	}
	return amount
}

// FromMinor shifts a minor-unit amount by the currency's exponent.
func FromMinor(amount decimal.Decimal, currencyCode string) decimal.Decimal {
	return amount.Shift(-int32(MinorUnitExponent(currencyCode)))
}

// MinorUnitExponent returns the number of decimal places of the currency's
// minor unit, falling back to 2 for unknown codes.
func MinorUnitExponent(currencyCode string) int {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		return defaultExponent
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}
