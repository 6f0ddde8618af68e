package engine

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-guard/core"
)

// FieldRule declares one field of a rule set. A FieldRule never looks outside the record.
type FieldRule struct {
	Field    string
	Type     Type
	Required bool
	// Tag holds the go-playground/validator tags applied to the coerced value, eg. "min=1,max=12".
	Tag string
	// Items describes the elements of a List field.
	Items *ItemSchema
}

// ItemSchema describes the elements of a List field. Every element is validated with the full
// per-item field set and checks.
type ItemSchema struct {
	Fields []FieldRule
	Checks []Check
	Min    int
	Max    int // 0: unbounded
	// Distinct fields must not repeat across items.
	Distinct []string
	// Inherit copies these fields from the enclosing record into items lacking them, so that item
	// level cross-record rules see the whole scope (eg. the class and date of a bulk attendance).
	Inherit []string
}

// Check is a named predicate over a sanitized record. It reports nothing when an operand it
// needs is absent.
type Check struct {
	Name string
	Eval func(r Record) []Failure
}

// Field shortcuts.

func Required(field string, t Type, tag ...string) FieldRule {
	return FieldRule{Field: field, Type: t, Required: true, Tag: first(tag)}
}

func Optional(field string, t Type, tag ...string) FieldRule {
	return FieldRule{Field: field, Type: t, Tag: first(tag)}
}

func first(s []string) string {
	if len(s) > 0 {
		return s[0]
	}
	return ""
}

// evaluateFields sanitizes raw against rules then runs checks. All rules run; a field failing
// its rule is left out of the returned Record and marked invalid.
func evaluateFields(prefix string, raw map[string]interface{}, rules []FieldRule, checks []Check, now time.Time) (Record, []Failure) {
	rec := newRecord(prefix, now)
	var failures []Failure
	var lists []FieldRule

	for _, rule := range rules {
		path := rec.Path(rule.Field)
		val, present := raw[rule.Field]
		if !present || blank(rule.Type, val) {
			if rule.Required {
				failures = append(failures, Fail(FormatViolation, path, CodeRequired))
			}
			continue
		}

		v, ok := coerce(rule.Type, val)
		if !ok {
			failures = append(failures, Fail(FormatViolation, path, rule.Type.code()))
			rec.reject(rule.Field)
			continue
		}

		if rule.Type == List {
			items, fs := evaluateItems(path, v.([]interface{}), rule.Items, now)
			failures = append(failures, fs...)
			rec.set(rule.Field, items)
			lists = append(lists, rule)
			continue
		}

		if fs := evaluateTag(path, v, rule.Tag); len(fs) > 0 {
			failures = append(failures, fs...)
			rec.reject(rule.Field)
			continue
		}
		rec.set(rule.Field, v)
	}

	for _, rule := range lists {
		if rule.Items == nil || len(rule.Items.Inherit) == 0 {
			continue
		}
		items, _ := rec.Items(rule.Field)
		for _, item := range items {
			for _, f := range rule.Items.Inherit {
				if v, ok := rec.Value(f); ok && !item.Has(f) && !item.Invalid(f) {
					item.set(f, v)
				}
			}
		}
	}

	failures = append(failures, runChecks(rec, checks)...)
	return rec, failures
}

func evaluateTag(path string, v interface{}, tag string) []Failure {
	if tag == "" {
		return nil
	}
	tv, ok := tagValue(v)
	if !ok {
		return nil
	}
	err := core.Validate.Var(tv, tag)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Failure{{Field: path, Kind: FormatViolation, Code: "tag", Message: err.Error()}}
	}
	failures := make([]Failure, 0, len(verrs))
	for _, fe := range verrs {
		failures = append(failures, Failure{
			Field:   path,
			Kind:    FormatViolation,
			Code:    fe.Tag(),
			Message: core.FieldMessage(path, fe),
		})
	}
	return failures
}

func evaluateItems(path string, raw []interface{}, schema *ItemSchema, now time.Time) ([]Record, []Failure) {
	if schema == nil {
		schema = &ItemSchema{}
	}
	var failures []Failure
	if len(raw) < schema.Min {
		failures = append(failures, Fail(FormatViolation, path, CodeMinItems, strconv.Itoa(schema.Min)))
	}
	if schema.Max > 0 && len(raw) > schema.Max {
		failures = append(failures, Fail(FormatViolation, path, CodeMaxItems, strconv.Itoa(schema.Max)))
	}

	items := make([]Record, len(raw))
	for i, elem := range raw {
		itemPath := path + "." + strconv.Itoa(i)
		m, ok := elem.(map[string]interface{})
		if !ok {
			failures = append(failures, Fail(FormatViolation, itemPath, Map.code()))
			items[i] = newRecord(itemPath+".", now)
			continue
		}
		rec, fs := evaluateFields(itemPath+".", m, schema.Fields, schema.Checks, now)
		failures = append(failures, fs...)
		items[i] = rec
	}

	for _, field := range schema.Distinct {
		seen := make(map[string]int)
		for i, item := range items {
			key, ok := item.Text(field)
			if !ok {
				continue
			}
			if j, dup := seen[key]; dup {
				failures = append(failures, Fail(FormatViolation, item.Path(field), CodeDistinct, items[j].Path(field)))
				continue
			}
			seen[key] = i
		}
	}
	return items, failures
}

func runChecks(rec Record, checks []Check) []Failure {
	var failures []Failure
	for _, c := range checks {
		failures = append(failures, c.Eval(rec)...)
	}
	return failures
}
