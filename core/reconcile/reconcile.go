// Package reconcile compares derived money amounts with the amounts declared on a record.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tolerance is the absolute difference (one currency minor unit) allowed between a derived
// amount and a declared one. Every reconciliation uses it.
var Tolerance = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// Reconcile reports whether |derived - declared| <= tolerance. An absent declared amount has
// nothing to reconcile against and always passes.
func Reconcile(derived decimal.Decimal, declared decimal.NullDecimal, tolerance decimal.Decimal) bool {
	if !declared.Valid {
		return true
	}
	return derived.Sub(declared.Decimal).Abs().LessThanOrEqual(tolerance)
}

// Mismatch describes a failed reconciliation.
type Mismatch struct {
	Field     string
	Derived   decimal.Decimal
	Declared  decimal.Decimal
	Tolerance decimal.Decimal
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("%s is %s but should be %s (tolerance %s)",
		m.Field, m.Declared.StringFixed(2), m.Derived.StringFixed(2), m.Tolerance.String())
}

// Check reconciles the declared value of field against derived using Tolerance.
// It returns nil when the amounts agree.
func Check(field string, derived decimal.Decimal, declared decimal.NullDecimal) *Mismatch {
	if Reconcile(derived, declared, Tolerance) {
		return nil
	}
	return &Mismatch{Field: field, Derived: derived, Declared: declared.Decimal, Tolerance: Tolerance}
}

// Percentage returns pct percent of base.
func Percentage(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Sum adds up parts.
func Sum(parts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p)
	}
	return total
}
