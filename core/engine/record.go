package engine

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Candidate is a record as submitted: raw, unvalidated values keyed by field name.
type Candidate struct {
	Kind      Kind
	Operation Operation
	Fields    map[string]interface{}
}

// Record is the sanitized view of a Candidate. It only holds the fields declared by the rule set
// whose value could be coerced to the declared type and passed the field's tag. Everything
// downstream of the field rules (checks, cross-record rules, escalation policies) reads a Record,
// never the raw input.
//
// Values are stored as string, int64, decimal.Decimal, bool, time.Time, []string,
// map[string]interface{} or []Record.
type Record struct {
	prefix  string
	values  map[string]interface{}
	invalid map[string]bool
	now     time.Time
}

// NewRecord builds a Record from already sanitized values.
func NewRecord(values map[string]interface{}, now time.Time) Record {
	r := newRecord("", now)
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

func newRecord(prefix string, now time.Time) Record {
	return Record{
		prefix:  prefix,
		values:  make(map[string]interface{}),
		invalid: make(map[string]bool),
		now:     now,
	}
}

// Path returns the name under which failures on field are reported, eg. "attendance.2.status"
// for the status of the third item of a bulk attendance.
func (r Record) Path(field string) string { return r.prefix + field }

// Now is the reference time of the validation.
func (r Record) Now() time.Time { return r.now }

// Has reports whether field holds a valid value.
func (r Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Invalid reports whether field was submitted but rejected by its field rule.
func (r Record) Invalid(field string) bool { return r.invalid[field] }

// Fields returns the names of the valid fields, sorted.
func (r Record) Fields() []string {
	out := make([]string, 0, len(r.values))
	for k := range r.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r Record) Value(field string) (interface{}, bool) {
	v, ok := r.values[field]
	return v, ok
}

func (r Record) String(field string) (string, bool) {
	s, ok := r.values[field].(string)
	return s, ok
}

func (r Record) Int(field string) (int64, bool) {
	i, ok := r.values[field].(int64)
	return i, ok
}

func (r Record) Decimal(field string) (decimal.Decimal, bool) {
	switch v := r.values[field].(type) {
	case decimal.Decimal:
		return v, true
	case int64:
		return decimal.NewFromInt(v), true
	}
	return decimal.Zero, false
}

// NullDecimal returns field as a decimal.NullDecimal, invalid when the field is absent.
func (r Record) NullDecimal(field string) decimal.NullDecimal {
	d, ok := r.Decimal(field)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

func (r Record) Bool(field string) (bool, bool) {
	b, ok := r.values[field].(bool)
	return b, ok
}

func (r Record) Time(field string) (time.Time, bool) {
	t, ok := r.values[field].(time.Time)
	return t, ok
}

func (r Record) Strings(field string) ([]string, bool) {
	s, ok := r.values[field].([]string)
	return s, ok
}

func (r Record) Map(field string) (map[string]interface{}, bool) {
	m, ok := r.values[field].(map[string]interface{})
	return m, ok
}

func (r Record) Items(field string) ([]Record, bool) {
	items, ok := r.values[field].([]Record)
	return items, ok
}

// Len returns the number of elements of a list field.
func (r Record) Len(field string) (int, bool) {
	switch v := r.values[field].(type) {
	case []string:
		return len(v), true
	case []Record:
		return len(v), true
	}
	return 0, false
}

// Text formats a scalar field for comparisons with configured values.
func (r Record) Text(field string) (string, bool) {
	v, ok := r.values[field]
	if !ok {
		return "", false
	}
	return text(v)
}

func text(v interface{}) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case decimal.Decimal:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		if v.Year() == 0 {
			return v.Format(clockLayout), true
		}
		return v.Format(dateLayout), true
	}
	return "", false
}

// ToMap returns the record as plain values: decimals become float64 and items become maps.
func (r Record) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = plain(v)
	}
	return out
}

func plain(v interface{}) interface{} {
	switch v := v.(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	case []Record:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = item.ToMap()
		}
		return items
	}
	return v
}

func (r Record) set(field string, v interface{}) {
	r.values[field] = v
	delete(r.invalid, field)
}

func (r Record) reject(field string) {
	delete(r.values, field)
	r.invalid[field] = true
}
