// Package auditsvc holds the audit sinks security-relevant validations are recorded to.
package auditsvc

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
)

// jsonSink writes one JSON document per event.
type jsonSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ engine.AuditSink = (*jsonSink)(nil)

// NewJSONSink writes the events to w as JSON lines.
func NewJSONSink(w io.Writer) engine.AuditSink {
	return &jsonSink{enc: json.NewEncoder(w)}
}

func (s *jsonSink) Record(_ context.Context, e engine.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(s.enc.Encode(e), "writing audit event")
}

// loggerSink forwards the events to the application logger (and so to rollbar).
type loggerSink struct {
	logger core.Logger
}

var _ engine.AuditSink = (*loggerSink)(nil)

func NewLoggerSink(logger core.Logger) engine.AuditSink {
	return &loggerSink{logger: logger}
}

func (s loggerSink) Record(_ context.Context, e engine.AuditEvent) error {
	extras := map[string]interface{}{
		"request_id": e.RequestID,
		"rule_set":   e.RuleSet,
		"outcome":    e.Outcome,
		"ip":         e.IP,
		"user_agent": e.UserAgent,
	}
	if len(e.Failures) > 0 {
		codes := make([]string, 0, len(e.Failures))
		for _, f := range e.Failures {
			codes = append(codes, f.Code)
		}
		extras["failures"] = codes
	}

	switch {
	case e.Outcome == engine.OutcomeError:
		s.logger.Error("audit: "+e.RuleSet+" could not be validated", errors.New(e.Error), extras, e.Actor)
	case hasKind(e.Failures, engine.NotAuthorized):
		s.logger.Warn("audit: "+e.RuleSet+" refused", extras, e.Actor)
	default:
		s.logger.Info("audit: "+e.RuleSet+" "+string(e.Outcome), extras, e.Actor)
	}
	return nil
}

func hasKind(failures []engine.Failure, kind engine.FailureKind) bool {
	for _, f := range failures {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Recorder keeps the events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []engine.AuditEvent
}

var _ engine.AuditSink = (*Recorder)(nil)

func (r *Recorder) Record(_ context.Context, e engine.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []engine.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.AuditEvent(nil), r.events...)
}

// tee records every event to each of its sinks.
type tee []engine.AuditSink

// Tee returns a sink recording to every sink. All sinks are tried; the first error is returned.
func Tee(sinks ...engine.AuditSink) engine.AuditSink {
	return tee(sinks)
}

func (t tee) Record(ctx context.Context, e engine.AuditEvent) error {
	var first error
	for _, s := range t {
		if err := s.Record(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
