package engine

import (
	"context"
	"time"

	"github.com/trezcool/masomo-guard/core/identity"
)

// Outcome of a validation.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "infrastructure_failure"
)

// AuditEvent is a security-relevant validation: an approval or rollback decision, a refused
// authorization, or a validation that could not complete.
type AuditEvent struct {
	RequestID string         `json:"request_id"`
	Time      time.Time      `json:"time"`
	Actor     identity.Actor `json:"actor"`
	IP        string         `json:"ip"`
	UserAgent string         `json:"user_agent"`
	RuleSet   string         `json:"rule_set"`
	Outcome   Outcome        `json:"outcome"`
	Failures  []Failure      `json:"failures,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// AuditSink records security-relevant events. The validation outcome never depends on it.
type AuditSink interface {
	Record(ctx context.Context, e AuditEvent) error
}

// Observer is told about every completed validation.
type Observer interface {
	Observe(key RuleSetKey, outcome Outcome, failures []Failure, elapsed time.Duration)
}

type nopSink struct{}

func (nopSink) Record(context.Context, AuditEvent) error { return nil }

type nopObserver struct{}

func (nopObserver) Observe(RuleSetKey, Outcome, []Failure, time.Duration) {}
