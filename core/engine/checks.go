package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/masomo-guard/core/reconcile"
)

// After requires field to be strictly later (or greater) than other.
func After(field, other string) Check {
	return Check{
		Name: field + " after " + other,
		Eval: func(r Record) []Failure {
			if c, ok := compare(r, field, other); ok && c <= 0 {
				return []Failure{Fail(FormatViolation, r.Path(field), CodeAfter, r.Path(other))}
			}
			return nil
		},
	}
}

// NotBefore requires field to be later than or equal to other.
func NotBefore(field, other string) Check {
	return Check{
		Name: field + " not before " + other,
		Eval: func(r Record) []Failure {
			if c, ok := compare(r, field, other); ok && c < 0 {
				return []Failure{Fail(FormatViolation, r.Path(field), CodeNotBefore, r.Path(other))}
			}
			return nil
		},
	}
}

// AtMost requires field <= other.
func AtMost(field, other string) Check {
	return Check{
		Name: field + " at most " + other,
		Eval: func(r Record) []Failure {
			if c, ok := compare(r, field, other); ok && c > 0 {
				return []Failure{Fail(FormatViolation, r.Path(field), CodeAtMost, r.Path(other))}
			}
			return nil
		},
	}
}

// RequiredIf requires field when trigger equals one of values.
func RequiredIf(field, trigger string, values ...string) Check {
	return Check{
		Name: field + " required if " + trigger + " in " + strings.Join(values, "|"),
		Eval: func(r Record) []Failure {
			if r.Has(field) || r.Invalid(field) {
				return nil
			}
			tv, ok := r.Text(trigger)
			if !ok || !contains(values, tv) {
				return nil
			}
			return []Failure{Fail(FormatViolation, r.Path(field), CodeRequiredIf, r.Path(trigger)+" is "+tv)}
		},
	}
}

// RequiredWith requires field whenever other is present.
func RequiredWith(field, other string) Check {
	return Check{
		Name: field + " required with " + other,
		Eval: func(r Record) []Failure {
			if r.Has(field) || r.Invalid(field) || !r.Has(other) {
				return nil
			}
			return []Failure{Fail(FormatViolation, r.Path(field), CodeRequiredWith, r.Path(other))}
		},
	}
}

// AgeBetween requires the age derived from the birth date in field to lie in [min, max] years
// on the date held by asOf, or on the validation date when asOf is empty. max <= 0 means no
// upper bound.
func AgeBetween(field, asOf string, min, max int) Check {
	return Check{
		Name: fmt.Sprintf("%s age between %d and %d", field, min, max),
		Eval: func(r Record) []Failure {
			birth, ok := r.Time(field)
			if !ok {
				return nil
			}
			ref := r.Now()
			if asOf != "" {
				if ref, ok = r.Time(asOf); !ok {
					return nil
				}
			}
			age := Age(birth, ref)
			switch {
			case max <= 0 && age < min:
				return []Failure{Fail(FormatViolation, r.Path(field), CodeAgeMin, strconv.Itoa(min))}
			case max > 0 && (age < min || age > max):
				return []Failure{Fail(FormatViolation, r.Path(field), CodeAgeBetween, fmt.Sprintf("%d and %d", min, max))}
			}
			return nil
		},
	}
}

// Age returns the number of full years between birth and on.
func Age(birth, on time.Time) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}

// NotInFuture requires the date in field to be on or before the validation date.
func NotInFuture(field string) Check {
	return Check{
		Name: field + " not in future",
		Eval: func(r Record) []Failure {
			t, ok := r.Time(field)
			if ok && t.After(truncateDay(r.Now())) {
				return []Failure{Fail(FormatViolation, r.Path(field), CodeNotInFuture)}
			}
			return nil
		},
	}
}

// SameLength requires the lists a and b to have the same number of elements.
func SameLength(a, b string) Check {
	return Check{
		Name: b + " same length as " + a,
		Eval: func(r Record) []Failure {
			la, okA := r.Len(a)
			lb, okB := r.Len(b)
			if okA && okB && la != lb {
				return []Failure{Fail(FormatViolation, r.Path(b), CodeSameLength, r.Path(a))}
			}
			return nil
		},
	}
}

// AcademicYearSequential requires a YYYY-YYYY academic year to span consecutive years.
func AcademicYearSequential(field string) Check {
	return Check{
		Name: field + " sequential",
		Eval: func(r Record) []Failure {
			s, ok := r.String(field)
			if !ok {
				return nil
			}
			start, end, ok := strings.Cut(s, "-")
			if !ok {
				return nil
			}
			y1, err1 := strconv.Atoi(start)
			y2, err2 := strconv.Atoi(end)
			if err1 != nil || err2 != nil || y2 != y1+1 {
				return []Failure{Fail(FormatViolation, r.Path(field), CodeAcademicYearSeq)}
			}
			return nil
		},
	}
}

// Ascending requires the itemField values of the items of list to strictly increase.
func Ascending(list, itemField string) Check {
	return Check{
		Name: list + "." + itemField + " ascending",
		Eval: func(r Record) []Failure {
			items, ok := r.Items(list)
			if !ok {
				return nil
			}
			var failures []Failure
			for i := 1; i < len(items); i++ {
				if c, ok := compareValues(items[i], itemField, items[i-1], itemField); ok && c <= 0 {
					failures = append(failures, Fail(FormatViolation, items[i].Path(itemField), CodeAscending, items[i-1].Path(itemField)))
				}
			}
			return failures
		},
	}
}

// Derivation computes an amount from a record. It reports false when an operand is missing.
type Derivation func(r Record) (decimal.Decimal, bool)

// Amount derives the value of field itself.
func Amount(field string) Derivation {
	return func(r Record) (decimal.Decimal, bool) { return r.Decimal(field) }
}

// PercentOf derives pct percent of base.
func PercentOf(base, pct string) Derivation {
	return func(r Record) (decimal.Decimal, bool) {
		b, ok1 := r.Decimal(base)
		p, ok2 := r.Decimal(pct)
		if !ok1 || !ok2 {
			return decimal.Zero, false
		}
		return reconcile.Percentage(b, p), true
	}
}

// SumItems adds up itemField over the items of list. An absent list sums to zero; an item
// lacking the field makes the sum unknown.
func SumItems(list, itemField string) Derivation {
	return func(r Record) (decimal.Decimal, bool) {
		items, _ := r.Items(list)
		parts := make([]decimal.Decimal, 0, len(items))
		for _, item := range items {
			d, ok := item.Decimal(itemField)
			if !ok {
				return decimal.Zero, false
			}
			parts = append(parts, d)
		}
		return reconcile.Sum(parts...), true
	}
}

// Plus derives a + b.
func Plus(a, b Derivation) Derivation {
	return func(r Record) (decimal.Decimal, bool) {
		x, ok1 := a(r)
		y, ok2 := b(r)
		return x.Add(y), ok1 && ok2
	}
}

// Minus derives a - b.
func Minus(a, b Derivation) Derivation {
	return func(r Record) (decimal.Decimal, bool) {
		x, ok1 := a(r)
		y, ok2 := b(r)
		return x.Sub(y), ok1 && ok2
	}
}

// Reconciles requires the declared amount in field to match derived within reconcile.Tolerance.
func Reconciles(field string, derived Derivation) Check {
	return Check{
		Name: field + " reconciles",
		Eval: func(r Record) []Failure {
			d, ok := derived(r)
			if !ok {
				return nil
			}
			if m := reconcile.Check(r.Path(field), d, r.NullDecimal(field)); m != nil {
				return []Failure{{Field: r.Path(field), Kind: ReconciliationMismatch, Code: CodeReconciliation, Message: m.Error()}}
			}
			return nil
		},
	}
}

// ReconcilesTotal requires the itemField values of list to add up to the declared amount in
// field. The failure is reported on the list.
func ReconcilesTotal(list, itemField, field string) Check {
	return Check{
		Name: list + "." + itemField + " total reconciles with " + field,
		Eval: func(r Record) []Failure {
			if !r.Has(list) {
				return nil
			}
			total, ok := SumItems(list, itemField)(r)
			if !ok {
				return nil
			}
			declared := r.NullDecimal(field)
			if reconcile.Reconcile(total, declared, reconcile.Tolerance) {
				return nil
			}
			return []Failure{{
				Field: r.Path(list),
				Kind:  ReconciliationMismatch,
				Code:  CodeReconciliation,
				Message: fmt.Sprintf("%s total is %s but %s is %s (tolerance %s)",
					r.Path(list), total.StringFixed(2), r.Path(field), declared.Decimal.StringFixed(2), reconcile.Tolerance),
			}}
		},
	}
}

func compare(r Record, a, b string) (int, bool) {
	return compareValues(r, a, r, b)
}

func compareValues(ra Record, a string, rb Record, b string) (int, bool) {
	if ta, ok := ra.Time(a); ok {
		tb, ok := rb.Time(b)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	da, ok1 := ra.Decimal(a)
	db, ok2 := rb.Decimal(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	return da.Cmp(db), true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
