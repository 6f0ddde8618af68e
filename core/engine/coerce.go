package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/masomo-guard/core"
)

// Type is the type a raw value is coerced to.
type Type int

const (
	String Type = iota
	Lower       // string, lowercased
	Int
	Decimal
	Bool
	Date  // YYYY-MM-DD
	Clock // HH:MM or HH:MM:SS
	Strings
	Map
	List // list of objects, see ItemSchema
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var typeNames = [...]string{"string", "lower", "int", "decimal", "bool", "date", "clock", "strings", "map", "list"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// code is the failure code reported when a value cannot be coerced to t.
func (t Type) code() string {
	switch t {
	case Int:
		return "integer"
	case Decimal:
		return "decimal"
	case Bool:
		return "boolean"
	case Date:
		return "date"
	case Clock:
		return "hhmm"
	case Strings:
		return "strings"
	case Map:
		return "map"
	case List:
		return "list"
	default:
		return "string"
	}
}

// blank reports whether raw counts as not submitted.
func blank(t Type, raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return t == Strings && len(v) == 0
	case []string:
		return t == Strings && len(v) == 0
	}
	return false
}

func coerce(t Type, raw interface{}) (interface{}, bool) {
	switch t {
	case String:
		return toString(raw)
	case Lower:
		s, ok := toString(raw)
		if !ok {
			return nil, false
		}
		return strings.ToLower(s), true
	case Int:
		return toInt(raw)
	case Decimal:
		return toDecimal(raw)
	case Bool:
		return toBool(raw)
	case Date:
		return toDate(raw)
	case Clock:
		return toClock(raw)
	case Strings:
		return toStrings(raw)
	case Map:
		m, ok := raw.(map[string]interface{})
		return m, ok
	case List:
		return toList(raw)
	}
	return nil, false
}

func toString(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return core.CleanString(v), true
	case json.Number:
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func toInt(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toDecimal(raw interface{}) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	}
	return decimal.Zero, false
}

func toBool(raw interface{}) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off":
			return false, true
		}
	case int, int64, float64, json.Number:
		i, ok := toInt(v)
		if ok && (i == 0 || i == 1) {
			return i == 1, true
		}
	}
	return false, false
}

func toDate(raw interface{}) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return truncateDay(v), true
	case string:
		v = strings.TrimSpace(v)
		if t, err := time.Parse(dateLayout, v); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

func toClock(raw interface{}) (time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if err := core.Validate.Var(s, "hhmm"); err != nil {
		return time.Time{}, false
	}
	layout := clockLayout
	if len(s) > len(clockLayout) {
		layout = clockLayout + ":05"
	}
	t, err := time.Parse(layout, s)
	return t, err == nil
}

func toStrings(raw interface{}) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = core.CleanString(s)
		}
		return out, true
	case []interface{}:
		out := make([]string, len(v))
		for i, elem := range v {
			s, ok := toString(elem)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func toList(raw interface{}) ([]interface{}, bool) {
	switch v := raw.(type) {
	case []interface{}:
		return v, true
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// tagValue is the value handed to the validator for a field's tag.
func tagValue(v interface{}) (interface{}, bool) {
	switch v := v.(type) {
	case string, int64, bool, []string, map[string]interface{}:
		return v, true
	case decimal.Decimal:
		return v.InexactFloat64(), true
	}
	return nil, false
}
