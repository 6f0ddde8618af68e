package school

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/masomo-guard/core/engine"
)

// suggestionRatio is the similarity above which an unknown field is assumed to be a typo.
const suggestionRatio = 0.7

func rollbackRuleSets(opts Options) []engine.RuleSet {
	return []engine.RuleSet{{
		Key:         engine.Key(engine.KindRollback, engine.OpRollback),
		Description: "Restore an entity to a previous version",
		Fields: []engine.FieldRule{
			engine.Required("entity_type", engine.Lower, "oneof=student teacher class fee attendance exam payroll"),
			engine.Required("entity_id", engine.Int, "gt=0"),
			engine.Required("version_id", engine.Int, "gt=0"),
			engine.Required("rollback_type", engine.Lower, "oneof=full selective"),
			engine.Optional("selective_fields", engine.Strings, "unique,dive,notblank"),
			engine.Required("reason", engine.String, "min=10,max=1000"),
			engine.Optional("risk_level", engine.Lower, "oneof=low medium high critical"),
			engine.Optional("requires_approval", engine.Bool),
			engine.Optional("approver_id", engine.Int, "gt=0"),
			engine.Optional("emergency_contact", engine.String, "phone"),
		},
		Checks: []engine.Check{
			engine.RequiredIf("selective_fields", "rollback_type", "selective"),
		},
		Cross: []engine.CrossRule{
			engine.ExistsAs("entity_type", "entity_id"),
			engine.Exists("version_id", engine.EntityVersion),
			versionOf(),
			versionRestorable(opts.RollbackMaxAge),
			selectiveFieldsInSnapshot(),
			engine.Exists("approver_id", engine.EntityUser),
			engine.StatusIn("approver_id", engine.EntityUser, "active"),
		},
		Audited: true,
	}}
}

// versionOf requires the version to be one of the entity's.
func versionOf() engine.CrossRule {
	return engine.CrossRule{
		Name: "version_id belongs to entity",
		Eval: func(ctx context.Context, s *engine.Scope) ([]engine.Failure, error) {
			kind, ok1 := s.Record.String("entity_type")
			id, ok2 := s.Record.Int("entity_id")
			if !ok1 || !ok2 {
				return nil, nil
			}
			v, found, err := s.Entity(ctx, engine.EntityVersion, "version_id")
			if err != nil || !found {
				return nil, err
			}
			if v.Equal("entity_type", kind) && v.Equal("entity_id", id) {
				return nil, nil
			}
			owner := fmt.Sprintf("%s #%d", kind, id)
			return []engine.Failure{engine.Fail(engine.InconsistentReference, s.Record.Path("version_id"), codeVersionMismatch, owner)}, nil
		},
	}
}

// versionRestorable rejects empty, current and expired versions.
func versionRestorable(maxAge time.Duration) engine.CrossRule {
	return engine.CrossRule{
		Name: "version_id restorable",
		Eval: func(ctx context.Context, s *engine.Scope) ([]engine.Failure, error) {
			v, found, err := s.Entity(ctx, engine.EntityVersion, "version_id")
			if err != nil || !found {
				return nil, err
			}
			field := s.Record.Path("version_id")

			var failures []engine.Failure
			if snap, ok := v.Map("snapshot"); !ok || len(snap) == 0 {
				failures = append(failures, engine.Fail(engine.InvalidState, field, codeSnapshotEmpty))
			}
			if current, _ := v.Bool("is_current"); current {
				failures = append(failures, engine.Fail(engine.InvalidState, field, codeCurrentVersion))
			}
			if created, ok := v.Time("created_at"); ok && s.Now.Sub(created) > maxAge {
				failures = append(failures, engine.Fail(engine.InvalidState, field, codeVersionTooOld, humanDays(maxAge)))
			}
			return failures, nil
		},
	}
}

// selectiveFieldsInSnapshot requires every field of a selective rollback to exist in the
// version's snapshot.
func selectiveFieldsInSnapshot() engine.CrossRule {
	return engine.CrossRule{
		Name: "selective_fields in snapshot",
		Eval: func(ctx context.Context, s *engine.Scope) ([]engine.Failure, error) {
			kind, _ := s.Record.String("rollback_type")
			fields, ok := s.Record.Strings("selective_fields")
			if kind != "selective" || !ok {
				return nil, nil
			}
			v, found, err := s.Entity(ctx, engine.EntityVersion, "version_id")
			if err != nil || !found {
				return nil, err
			}
			snap, ok := v.Map("snapshot")
			if !ok || len(snap) == 0 {
				return nil, nil // reported as snapshot_empty
			}

			keys := make([]string, 0, len(snap))
			for k := range snap {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			var unknown []string
			for _, f := range fields {
				if _, ok := snap[f]; ok {
					continue
				}
				if near := closest(f, keys); near != "" {
					unknown = append(unknown, fmt.Sprintf("%s (did you mean %s?)", f, near))
				} else {
					unknown = append(unknown, f)
				}
			}
			if len(unknown) == 0 {
				return nil, nil
			}
			f := engine.Fail(engine.InconsistentReference, s.Record.Path("selective_fields"), codeUnknownFields, strings.Join(unknown, ", "))
			return []engine.Failure{f}, nil
		},
	}
}

// closest returns the candidate most similar to name, or "" when none is similar enough.
func closest(name string, candidates []string) string {
	best, bestRatio := "", suggestionRatio
	for _, c := range candidates {
		ratio := difflib.NewMatcher(strings.Split(name, ""), strings.Split(c, "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = c, ratio
		}
	}
	return best
}

func humanDays(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
