package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/masomo-guard/core/identity"
)

// Scope is what a cross-record rule may look at.
type Scope struct {
	Record   Record
	Resolver *Resolver
	Provider DataProvider
	Identity IdentityProvider
	Actor    identity.Actor
	Elevated []string
	Now      time.Time
}

// CrossRule is a named rule needing data from other records. A non-nil error aborts the
// validation and must be an *InfrastructureError.
type CrossRule struct {
	Name string
	Eval func(ctx context.Context, s *Scope) ([]Failure, error)
}

// Entity resolves the entity of the given kind whose id is held by field. ok is false when the
// field is absent or the entity does not exist.
func (s *Scope) Entity(ctx context.Context, kind EntityKind, field string) (Entity, bool, error) {
	id, ok := s.Record.Int(field)
	if !ok {
		return Entity{}, false, nil
	}
	return s.Resolver.Resolve(ctx, kind, id)
}

// Exists queries for an entity of kind matching f.
func (s *Scope) Exists(ctx context.Context, kind EntityKind, f Filter) (bool, error) {
	ok, err := s.Provider.QueryExists(ctx, kind, f)
	if err != nil {
		return false, infraError("query", kind, err)
	}
	return ok, nil
}

// One queries for the first entity of kind matching f.
func (s *Scope) One(ctx context.Context, kind EntityKind, f Filter) (Entity, bool, error) {
	e, ok, err := s.Provider.QueryOne(ctx, kind, f)
	if err != nil {
		return Entity{}, false, infraError("query", kind, err)
	}
	return e, ok, nil
}

// IsElevated reports whether the actor holds one of the elevated roles.
func (s *Scope) IsElevated() bool {
	return s.Identity != nil && s.Identity.HasAnyRole(s.Actor, s.Elevated)
}

// SelfID is the id of the record being updated, 0 on create.
func (s *Scope) SelfID() int64 {
	id, _ := s.Record.Int("id")
	return id
}

// Exists requires the id in field to reference an existing entity of kind.
func Exists(field string, kind EntityKind) CrossRule {
	return CrossRule{
		Name: field + " exists",
		Eval: func(ctx context.Context, s *Scope) ([]Failure, error) {
			if !s.Record.Has(field) {
				return nil, nil
			}
			_, found, err := s.Entity(ctx, kind, field)
			if err != nil || found {
				return nil, err
			}
			return []Failure{Fail(InconsistentReference, s.Record.Path(field), CodeExists)}, nil
		},
	}
}

// ExistsAs requires the id in idField to reference an existing entity whose kind is named by
// kindField, eg. an audit entry's (entity_type, entity_id).
func ExistsAs(kindField, idField string) CrossRule {
	return CrossRule{
		Name: idField + " exists as " + kindField,
		Eval: func(ctx context.Context, s *Scope) ([]Failure, error) {
			tag, ok := s.Record.String(kindField)
			if !ok || !s.Record.Has(idField) {
				return nil, nil
			}
			kind, ok := ParseEntityKind(tag)
			if !ok {
				return []Failure{Fail(InconsistentReference, s.Record.Path(kindField), CodeExists)}, nil
			}
			_, found, err := s.Entity(ctx, kind, idField)
			if err != nil || found {
				return nil, err
			}
			return []Failure{Fail(InconsistentReference, s.Record.Path(idField), CodeExists)}, nil
		},
	}
}

// StatusIn requires the entity referenced by field to have its status attribute in allowed.
// A missing entity is left to Exists.
func StatusIn(field string, kind EntityKind, allowed ...string) CrossRule {
	return CrossRule{
		Name: fmt.Sprintf("%s %s status in %s", field, kind, strings.Join(allowed, "|")),
		Eval: func(ctx context.Context, s *Scope) ([]Failure, error) {
			e, found, err := s.Entity(ctx, kind, field)
			if err != nil || !found {
				return nil, err
			}
			status, _ := e.String("status")
			if contains(allowed, status) {
				return nil, nil
			}
			return []Failure{InvalidStateFailure(s.Record.Path(field), kind, status, allowed...)}, nil
		},
	}
}

// StatusNotIn requires the entity referenced by field not to be in one of the forbidden
// states, eg. a paid fee can no longer be modified.
func StatusNotIn(field string, kind EntityKind, forbidden ...string) CrossRule {
	return CrossRule{
		Name: fmt.Sprintf("%s %s status not in %s", field, kind, strings.Join(forbidden, "|")),
		Eval: func(ctx context.Context, s *Scope) ([]Failure, error) {
			e, found, err := s.Entity(ctx, kind, field)
			if err != nil || !found {
				return nil, err
			}
			status, _ := e.String("status")
			if !contains(forbidden, status) {
				return nil, nil
			}
			f := Fail(InvalidState, s.Record.Path(field), CodeInvalidState, fmt.Sprintf("%s is %s", kind, status))
			return []Failure{f}, nil
		},
	}
}

// InvalidStateFailure reports an entity found in status current instead of one of expected.
func InvalidStateFailure(field string, kind EntityKind, current string, expected ...string) Failure {
	if current == "" {
		current = "unknown"
	}
	param := fmt.Sprintf("%s is %s, expected %s", kind, current, strings.Join(expected, " or "))
	return Fail(InvalidState, field, CodeInvalidState, param)
}

// Duplicate rejects a record when another entity of kind has the same values for all of the
// scope fields. The record's own id is excluded so an update does not collide with itself.
// Record fields and entity attributes share their names; an absent optional field matches
// NULL and an invalid one disables the rule.
func Duplicate(kind EntityKind, fields ...string) CrossRule {
	return CrossRule{
		Name: fmt.Sprintf("%s unique on %s", kind, strings.Join(fields, ",")),
		Eval: func(ctx context.Context, s *Scope) ([]Failure, error) {
			conds := make(map[string]interface{}, len(fields))
			for _, f := range fields {
				if s.Record.Invalid(f) {
					return nil, nil
				}
				v, _ := s.Record.Value(f)
				conds[f] = v
			}
			if v, _ := s.Record.Value(fields[0]); v == nil {
				return nil, nil
			}
			exists, err := s.Exists(ctx, kind, Where(conds).Excluding(s.SelfID()))
			if err != nil || !exists {
				return nil, err
			}
			return []Failure{Fail(DuplicateExists, s.Record.Path(fields[0]), CodeDuplicate, strings.Join(fields, ", "))}, nil
		},
	}
}

// Unique rejects a value of field already held by another entity of kind (excluding the record
// itself). column defaults to field.
func Unique(field string, kind EntityKind, column ...string) CrossRule {
	col := field
	if len(column) > 0 {
		col = column[0]
	}
	return CrossRule{
		Name: fmt.Sprintf("%s unique in %s.%s", field, kind, col),
		Eval: func(ctx context.Context, s *Scope) ([]Failure, error) {
			v, ok := s.Record.Value(field)
			if !ok {
				return nil, nil
			}
			f := Where(map[string]interface{}{col: v}).Excluding(s.SelfID())
			exists, err := s.Exists(ctx, kind, f)
			if err != nil || !exists {
				return nil, err
			}
			return []Failure{Fail(DuplicateExists, s.Record.Path(field), CodeTaken)}, nil
		},
	}
}

// OwnerOrElevated requires the actor to be the owner (attribute ownerAttr) of the entity
// referenced by field, or to hold an elevated role.
func OwnerOrElevated(field string, kind EntityKind, ownerAttr string) CrossRule {
	return CrossRule{
		Name: fmt.Sprintf("actor owns %s.%s or is elevated", kind, ownerAttr),
		Eval: func(ctx context.Context, s *Scope) ([]Failure, error) {
			e, found, err := s.Entity(ctx, kind, field)
			if err != nil || !found {
				return nil, err
			}
			if s.IsElevated() {
				return nil, nil
			}
			if owner, ok := e.Int(ownerAttr); ok && !s.Actor.IsAnonymous() && owner == s.Actor.ID {
				return nil, nil
			}
			return []Failure{NotAuthorizedFailure(s.Record.Path(field), s.Actor, kind, e.ID)}, nil
		},
	}
}

// NotAuthorizedFailure reports an actor acting on an entity they do not own.
func NotAuthorizedFailure(field string, actor identity.Actor, kind EntityKind, id int64) Failure {
	who := "anonymous actor"
	if !actor.IsAnonymous() {
		who = "actor " + strconv.FormatInt(actor.ID, 10)
	}
	f := Fail(NotAuthorized, field, CodeNotAuthorized, who)
	f.Message = fmt.Sprintf("%s (%s #%d)", f.Message, kind, id)
	return f
}

// ReferenceMatches requires the value of field to equal attribute attr of the entity referenced
// by idField, eg. the submitted class_id must be the student's class.
func ReferenceMatches(field, idField string, kind EntityKind, attr string) CrossRule {
	return CrossRule{
		Name: fmt.Sprintf("%s matches %s.%s", field, kind, attr),
		Eval: func(ctx context.Context, s *Scope) ([]Failure, error) {
			v, ok := s.Record.Value(field)
			if !ok {
				return nil, nil
			}
			e, found, err := s.Entity(ctx, kind, idField)
			if err != nil || !found {
				return nil, err
			}
			if e.Equal(attr, v) {
				return nil, nil
			}
			return []Failure{MismatchFailure(s.Record.Path(field), fmt.Sprintf("%s.%s", kind, attr), e.Attrs[attr], v)}, nil
		},
	}
}

// MismatchFailure reports a value disagreeing with the referenced record.
func MismatchFailure(field, reference string, expected, actual interface{}) Failure {
	f := Fail(InconsistentReference, field, CodeMismatch, reference)
	f.Message = fmt.Sprintf("%s (expected %v, got %v)", f.Message, display(expected), display(actual))
	return f
}

func display(v interface{}) interface{} {
	if v == nil {
		return "none"
	}
	if s, ok := text(normalizeBytes(v)); ok {
		return s
	}
	return v
}
