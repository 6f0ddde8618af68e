package engine

import "github.com/trezcool/masomo-guard/core"

// Failure codes produced by the engine itself; rule sets may add their own.
const (
	CodeRequired           = "required"
	CodeRequiredIf         = "required_if"
	CodeRequiredWith       = "required_with"
	CodeAfter              = "after"
	CodeNotBefore          = "not_before"
	CodeAtMost             = "lte_field"
	CodeAgeBetween         = "age_between"
	CodeAgeMin             = "age_min"
	CodeNotInFuture        = "not_future"
	CodeSameLength         = "same_length"
	CodeAcademicYearSeq    = "academic_year_sequence"
	CodeAscending          = "ascending"
	CodeReconciliation     = "reconciliation"
	CodeMinItems           = "min_items"
	CodeMaxItems           = "max_items"
	CodeDistinct           = "distinct"
	CodeExists             = "exists"
	CodeMismatch           = "mismatch"
	CodeDuplicate          = "duplicate"
	CodeTaken              = "taken"
	CodeInvalidState       = "invalid_state"
	CodeNotAuthorized      = "not_authorized"
	CodeEscalationRequired = "escalation_required"
)

// Placeholders must appear in order: {0} is the field, {1} the parameter.
var texts = map[string]string{
	// coercion
	"string":  "{0} must be a string",
	"integer": "{0} must be an integer",
	"decimal": "{0} must be a decimal number",
	"boolean": "{0} must be true or false",
	"date":    "{0} must be a date formatted as YYYY-MM-DD",
	"strings": "{0} must be a list of strings",
	"map":     "{0} must be an object",
	"list":    "{0} must be a list of objects",

	// cross-field
	CodeRequiredIf:      "{0} is required when {1}",
	CodeRequiredWith:    "{0} is required when {1} is present",
	CodeAfter:           "{0} must be after {1}",
	CodeNotBefore:       "{0} must not be before {1}",
	CodeAtMost:          "{0} must be less than or equal to {1}",
	CodeAgeBetween:      "{0} must correspond to an age between {1} years",
	CodeAgeMin:          "{0} must correspond to an age of at least {1} years",
	CodeNotInFuture:     "{0} cannot be in the future",
	CodeSameLength:      "{0} must have as many items as {1}",
	CodeAcademicYearSeq: "{0} must span two consecutive years",
	CodeAscending:       "{0} must be after {1}",
	CodeMinItems:        "{0} must contain at least {1} items",
	CodeMaxItems:        "{0} may not contain more than {1} items",
	CodeDistinct:        "{0} duplicates {1}",

	// cross-record
	CodeExists:        "{0} refers to a record that does not exist",
	CodeMismatch:      "{0} does not match {1}",
	CodeDuplicate:     "{0} duplicates an existing record on ({1})",
	CodeTaken:         "{0} has already been taken",
	CodeInvalidState:  "{0} is in an invalid state: {1}",
	CodeNotAuthorized: "{0}: {1} is not allowed to act on this record",

	// escalation
	CodeEscalationRequired: "{0} is required when {1}",
}

func init() {
	for code, text := range texts {
		core.RegisterCustomTranslation(code, text)
	}
}
