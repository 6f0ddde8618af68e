// Package engine decides whether a candidate record is admissible: field rules, then
// cross-record rules against the referenced records, then escalation policies. Every stage runs
// and every failure is reported.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/identity"
)

// RequestContext says who is asking, from where, and when.
type RequestContext struct {
	RequestID string
	Actor     identity.Actor
	IP        string
	UserAgent string
	// Now is the reference time of date rules; zero means the validator's clock.
	Now time.Time
}

type Options struct {
	Registry *Registry
	Provider DataProvider
	Identity IdentityProvider
	Clock    core.Clock
	Audit    AuditSink
	Observer Observer
	Logger   core.Logger
	// Elevated roles may act on records they do not own.
	Elevated []string
}

// Validator is safe for concurrent use: it holds no per-call state.
type Validator struct {
	registry *Registry
	provider DataProvider
	identity IdentityProvider
	clock    core.Clock
	audit    AuditSink
	observer Observer
	logger   core.Logger
	elevated []string
}

func New(opts Options) (*Validator, error) {
	if opts.Registry == nil {
		return nil, errors.New("engine: a registry is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("engine: a data provider is required")
	}
	v := &Validator{
		registry: opts.Registry,
		provider: opts.Provider,
		identity: opts.Identity,
		clock:    opts.Clock,
		audit:    opts.Audit,
		observer: opts.Observer,
		logger:   opts.Logger,
		elevated: opts.Elevated,
	}
	if v.identity == nil {
		v.identity = identity.NewRoleProvider(opts.Elevated...)
	}
	if v.clock == nil {
		v.clock = core.SystemClock()
	}
	if v.audit == nil {
		v.audit = nopSink{}
	}
	if v.observer == nil {
		v.observer = nopObserver{}
	}
	if len(v.elevated) == 0 {
		v.elevated = identity.AdminRoles
	}
	return v, nil
}

func (v *Validator) Registry() *Registry { return v.registry }

// ValidateCandidate validates c.
func (v *Validator) ValidateCandidate(ctx context.Context, rc RequestContext, c Candidate) (Result, error) {
	return v.Validate(ctx, rc, c.Kind, c.Operation, c.Fields)
}

// Validate runs the rule set of (kind, op) against raw. Rule failures are returned in the
// Result; the error is ErrUnsupported (wrapped) for an unknown rule set, or an
// *InfrastructureError when a referenced record could not be read.
func (v *Validator) Validate(ctx context.Context, rc RequestContext, kind Kind, op Operation, raw map[string]interface{}) (Result, error) {
	start := time.Now()
	key := Key(kind, op)
	rs, ok := v.registry.Lookup(key)
	if !ok {
		return Result{}, errors.Wrapf(ErrUnsupported, "%s", key)
	}

	if rc.RequestID == "" {
		rc.RequestID = uuid.NewString()
	}
	if rc.Actor.IsAnonymous() {
		rc.Actor = v.identity.CurrentActor(ctx)
	}
	if rc.Now.IsZero() {
		rc.Now = v.clock.Now()
	}

	rec, failures := evaluateFields("", raw, rs.Fields, rs.Checks, rc.Now)

	if rs.NeedsContext() {
		fs, err := v.crossRecord(ctx, rc, rs, rec)
		if err != nil {
			v.fail(ctx, rc, rs, err, time.Since(start))
			return Result{}, err
		}
		failures = append(failures, fs...)
	}

	for i := range rs.Policies {
		failures = append(failures, rs.Policies[i].evaluate(rec)...)
	}

	res := newResult(failures)
	v.done(ctx, rc, rs, res, time.Since(start))
	return res, nil
}

func (v *Validator) crossRecord(ctx context.Context, rc RequestContext, rs *RuleSet, rec Record) ([]Failure, error) {
	scope := &Scope{
		Record:   rec,
		Resolver: NewResolver(v.provider),
		Provider: v.provider,
		Identity: v.identity,
		Actor:    rc.Actor,
		Elevated: v.elevated,
		Now:      rc.Now,
	}

	var failures []Failure
	for _, rule := range rs.Cross {
		fs, err := rule.Eval(ctx, scope)
		if err != nil {
			return nil, errors.Wrapf(infraError("evaluate", "", err), "rule %q", rule.Name)
		}
		failures = append(failures, fs...)
	}

	for _, field := range rs.itemFields() {
		items, _ := rec.Items(field)
		for _, item := range items {
			itemScope := *scope
			itemScope.Record = item
			for _, rule := range rs.ItemCross[field] {
				fs, err := rule.Eval(ctx, &itemScope)
				if err != nil {
					return nil, errors.Wrapf(infraError("evaluate", "", err), "rule %q on %s", rule.Name, item.Path(""))
				}
				failures = append(failures, fs...)
			}
		}
	}
	return failures, nil
}

func (v *Validator) done(ctx context.Context, rc RequestContext, rs *RuleSet, res Result, elapsed time.Duration) {
	outcome := OutcomeAccepted
	if !res.Accepted {
		outcome = OutcomeRejected
	}
	v.observer.Observe(rs.Key, outcome, res.Failures, elapsed)

	if rs.Audited || len(res.FailuresOf(NotAuthorized)) > 0 {
		v.record(ctx, AuditEvent{
			RequestID: rc.RequestID,
			Time:      rc.Now,
			Actor:     rc.Actor,
			IP:        rc.IP,
			UserAgent: rc.UserAgent,
			RuleSet:   rs.Key.String(),
			Outcome:   outcome,
			Failures:  res.Failures,
		})
	}

	if v.logger != nil {
		v.logger.Debug("validation completed", map[string]interface{}{
			"request_id": rc.RequestID,
			"rule_set":   rs.Key.String(),
			"accepted":   res.Accepted,
			"failures":   len(res.Failures),
			"elapsed":    elapsed.String(),
		})
	}
}

func (v *Validator) fail(ctx context.Context, rc RequestContext, rs *RuleSet, err error, elapsed time.Duration) {
	v.observer.Observe(rs.Key, OutcomeError, nil, elapsed)
	v.record(ctx, AuditEvent{
		RequestID: rc.RequestID,
		Time:      rc.Now,
		Actor:     rc.Actor,
		IP:        rc.IP,
		UserAgent: rc.UserAgent,
		RuleSet:   rs.Key.String(),
		Outcome:   OutcomeError,
		Error:     err.Error(),
	})
	if v.logger != nil {
		v.logger.Error("validation could not complete", err, rc.Actor, map[string]interface{}{
			"request_id": rc.RequestID,
			"rule_set":   rs.Key.String(),
		})
	}
}

func (v *Validator) record(ctx context.Context, e AuditEvent) {
	if err := v.audit.Record(ctx, e); err != nil && v.logger != nil {
		v.logger.Warn("recording audit event", err, map[string]interface{}{"request_id": e.RequestID})
	}
}
