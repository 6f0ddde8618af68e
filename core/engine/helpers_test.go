package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var testNow = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

// fakeProvider serves entities from memory and counts the calls it gets.
type fakeProvider struct {
	mu       sync.Mutex
	entities map[EntityKind][]Entity
	fetches  map[entityKey]int
	queries  int
	err      error
}

func newFakeProvider(entities ...Entity) *fakeProvider {
	p := &fakeProvider{entities: make(map[EntityKind][]Entity), fetches: make(map[entityKey]int)}
	for _, e := range entities {
		p.entities[e.Kind] = append(p.entities[e.Kind], e)
	}
	return p
}

func (p *fakeProvider) FetchEntity(_ context.Context, kind EntityKind, id int64) (Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches[entityKey{kind, id}]++
	if p.err != nil {
		return Entity{}, p.err
	}
	for _, e := range p.entities[kind] {
		if e.ID == id {
			return e, nil
		}
	}
	return Entity{}, ErrNotFound
}

func (p *fakeProvider) QueryExists(ctx context.Context, kind EntityKind, f Filter) (bool, error) {
	_, ok, err := p.QueryOne(ctx, kind, f)
	return ok, err
}

func (p *fakeProvider) QueryOne(_ context.Context, kind EntityKind, f Filter) (Entity, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries++
	if p.err != nil {
		return Entity{}, false, p.err
	}
	for _, e := range p.entities[kind] {
		if f.Matches(e) {
			return e, true, nil
		}
	}
	return Entity{}, false, nil
}

func (p *fakeProvider) fetchCount(kind EntityKind, id int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches[entityKey{kind, id}]
}

var errDBDown = errors.New("connection refused")

type recordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingSink) Record(_ context.Context, e AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[Outcome]int
}

func (o *countingObserver) Observe(_ RuleSetKey, outcome Outcome, _ []Failure, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[Outcome]int)
	}
	o.outcomes[outcome]++
}

func entity(kind EntityKind, id int64, attrs map[string]interface{}) Entity {
	return Entity{Kind: kind, ID: id, Attrs: attrs}
}

func failureFields(failures []Failure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.Field)
	}
	return out
}
