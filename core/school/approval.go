package school

import (
	"context"

	"github.com/trezcool/masomo-guard/core/engine"
)

func approvalRuleSets() []engine.RuleSet {
	base := func(comments engine.FieldRule, extra ...engine.FieldRule) []engine.FieldRule {
		fields := []engine.FieldRule{
			engine.Required("approval_id", engine.Int, "gt=0"),
			comments,
			engine.Optional("priority", engine.Lower, "oneof=low normal high critical"),
			engine.Optional("approval_type", engine.Lower, "oneof=general academic financial administrative"),
			engine.Optional("verification_checklist", engine.Strings, "dive,notblank"),
		}
		return append(fields, extra...)
	}
	cross := []engine.CrossRule{
		engine.Exists("approval_id", engine.EntityApproval),
		engine.StatusIn("approval_id", engine.EntityApproval, "pending"),
		engine.OwnerOrElevated("approval_id", engine.EntityApproval, "assigned_to"),
	}

	return []engine.RuleSet{
		{
			Key:         engine.Key(engine.KindApproval, engine.OpApprove),
			Description: "Approve a pending request",
			Fields:      base(engine.Optional("comments", engine.String, "max=1000")),
			Cross:       cross,
			Audited:     true,
		},
		{
			Key:         engine.Key(engine.KindApproval, engine.OpReject),
			Description: "Reject a pending request",
			Fields:      base(engine.Required("comments", engine.String, "min=10,max=1000")),
			Cross:       cross,
			Audited:     true,
		},
		{
			Key:         engine.Key(engine.KindApproval, engine.OpDelegate),
			Description: "Hand a pending request over to another user",
			Fields: base(
				engine.Optional("comments", engine.String, "max=1000"),
				engine.Required("delegate_to", engine.Int, "gt=0"),
			),
			Cross: append(cross,
				engine.Exists("delegate_to", engine.EntityUser),
				engine.StatusIn("delegate_to", engine.EntityUser, "active"),
				delegateTarget(),
			),
			Audited: true,
		},
	}
}

// delegateTarget forbids delegating an approval to oneself or to its current assignee.
func delegateTarget() engine.CrossRule {
	return engine.CrossRule{
		Name: "delegate_to is someone else",
		Eval: func(ctx context.Context, s *engine.Scope) ([]engine.Failure, error) {
			target, ok := s.Record.Int("delegate_to")
			if !ok {
				return nil, nil
			}
			field := s.Record.Path("delegate_to")
			if !s.Actor.IsAnonymous() && target == s.Actor.ID {
				return []engine.Failure{engine.Fail(engine.InvalidState, field, codeDelegateTarget, "the acting user")}, nil
			}
			approval, found, err := s.Entity(ctx, engine.EntityApproval, "approval_id")
			if err != nil || !found {
				return nil, err
			}
			if assignee, ok := approval.Int("assigned_to"); ok && assignee == target {
				return []engine.Failure{engine.Fail(engine.InvalidState, field, codeDelegateTarget, "the current assignee")}, nil
			}
			return nil, nil
		},
	}
}
