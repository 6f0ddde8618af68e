package engine

import (
	"encoding/json"

	"github.com/trezcool/masomo-guard/core"
)

// FailureKind classifies a rule failure.
type FailureKind string

const (
	FormatViolation         FailureKind = "FormatViolation"
	ReconciliationMismatch  FailureKind = "ReconciliationMismatch"
	DuplicateExists         FailureKind = "DuplicateExists"
	InvalidState            FailureKind = "InvalidState"
	NotAuthorized           FailureKind = "NotAuthorized"
	InconsistentReference   FailureKind = "InconsistentReference"
	MissingConditionalField FailureKind = "MissingConditionalField"
)

// Failure is one reason for rejecting a candidate record.
// An empty Field means the failure concerns the whole record.
type Failure struct {
	Field   string
	Kind    FailureKind
	Code    string
	Message string
}

type failureJSON struct {
	Field   *string     `json:"field"`
	Kind    FailureKind `json:"kind"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

func (f Failure) MarshalJSON() ([]byte, error) {
	out := failureJSON{Kind: f.Kind, Code: f.Code, Message: f.Message}
	if f.Field != "" {
		out.Field = &f.Field
	}
	return json.Marshal(out)
}

func (f *Failure) UnmarshalJSON(data []byte) error {
	var in failureJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*f = Failure{Kind: in.Kind, Code: in.Code, Message: in.Message}
	if in.Field != nil {
		f.Field = *in.Field
	}
	return nil
}

func (f Failure) String() string {
	if f.Field == "" {
		return string(f.Kind) + "/" + f.Code + ": " + f.Message
	}
	return f.Field + ": " + string(f.Kind) + "/" + f.Code + ": " + f.Message
}

// Fail builds a Failure whose message is the translation registered for code.
func Fail(kind FailureKind, field, code string, param ...string) Failure {
	return Failure{Field: field, Kind: kind, Code: code, Message: core.Translate(code, field, param...)}
}

// Result is the outcome of a validation. A record is accepted iff it has no failures.
type Result struct {
	Accepted bool      `json:"accepted"`
	Failures []Failure `json:"failures"`
}

func newResult(failures []Failure) Result {
	if failures == nil {
		failures = []Failure{}
	}
	return Result{Accepted: len(failures) == 0, Failures: failures}
}

// Codes returns the failure codes, in order.
func (r Result) Codes() []string {
	codes := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		codes = append(codes, f.Code)
	}
	return codes
}

// FailuresOf returns the failures of the given kind, in order.
func (r Result) FailuresOf(kind FailureKind) []Failure {
	var out []Failure
	for _, f := range r.Failures {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
