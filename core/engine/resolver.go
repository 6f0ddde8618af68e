package engine

import (
	"context"

	"github.com/pkg/errors"
)

type entityKey struct {
	kind EntityKind
	id   int64
}

type resolved struct {
	entity Entity
	found  bool
}

// Resolver fetches the entities referenced by a record. Each (kind, id) is fetched at most once;
// a Resolver lives for a single validation and must not be shared between validations.
type Resolver struct {
	provider DataProvider
	cache    map[entityKey]resolved
}

func NewResolver(provider DataProvider) *Resolver {
	return &Resolver{provider: provider, cache: make(map[entityKey]resolved)}
}

// Resolve returns the entity, or found=false when it does not exist. Whether a missing entity is
// a failure is up to the caller. Provider errors are returned as *InfrastructureError.
func (r *Resolver) Resolve(ctx context.Context, kind EntityKind, id int64) (Entity, bool, error) {
	key := entityKey{kind: kind, id: id}
	if res, ok := r.cache[key]; ok {
		return res.entity, res.found, nil
	}

	e, err := r.provider.FetchEntity(ctx, kind, id)
	switch {
	case errors.Is(err, ErrNotFound):
		r.cache[key] = resolved{}
		return Entity{}, false, nil
	case err != nil:
		return Entity{}, false, infraError("fetch", kind, err)
	}
	r.cache[key] = resolved{entity: e, found: true}
	return e, true, nil
}

// Len returns the number of distinct entities looked up so far.
func (r *Resolver) Len() int { return len(r.cache) }
