package engine

import "strings"

// Kind is the type of candidate record.
type Kind string

const (
	KindStudent    Kind = "student"
	KindTeacher    Kind = "teacher"
	KindFee        Kind = "fee"
	KindAttendance Kind = "attendance"
	KindExam       Kind = "exam"
	KindPayroll    Kind = "payroll"
	KindAudit      Kind = "audit"
	KindApproval   Kind = "approval"
	KindRollback   Kind = "rollback"
)

// Operation is what the submitter wants to do with the candidate record.
type Operation string

const (
	OpCreate   Operation = "create"
	OpUpdate   Operation = "update"
	OpApprove  Operation = "approve"
	OpReject   Operation = "reject"
	OpDelegate Operation = "delegate"
	OpRollback Operation = "rollback"
	OpBulk     Operation = "bulk"
)

// RuleSetKey selects a rule set.
type RuleSetKey struct {
	Kind      Kind
	Operation Operation
}

func Key(kind Kind, op Operation) RuleSetKey {
	return RuleSetKey{Kind: kind, Operation: op}
}

func (k RuleSetKey) String() string {
	return string(k.Kind) + "." + string(k.Operation)
}

// ParseKey parses "kind.operation".
func ParseKey(s string) (RuleSetKey, bool) {
	kind, op, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || kind == "" || op == "" {
		return RuleSetKey{}, false
	}
	return Key(Kind(strings.ToLower(kind)), Operation(strings.ToLower(op))), true
}

// EntityKind is the type of a persisted record the rules may look up.
type EntityKind string

const (
	EntityStudent    EntityKind = "student"
	EntityTeacher    EntityKind = "teacher"
	EntityClass      EntityKind = "class"
	EntityUser       EntityKind = "user"
	EntityFee        EntityKind = "fee"
	EntityAttendance EntityKind = "attendance"
	EntityExam       EntityKind = "exam"
	EntityPayroll    EntityKind = "payroll"
	EntityApproval   EntityKind = "approval"
	EntityVersion    EntityKind = "version"
	EntityAudit      EntityKind = "audit"
)

var entityKinds = []EntityKind{
	EntityStudent, EntityTeacher, EntityClass, EntityUser, EntityFee, EntityAttendance,
	EntityExam, EntityPayroll, EntityApproval, EntityVersion, EntityAudit,
}

// EntityKinds lists every known EntityKind.
func EntityKinds() []EntityKind {
	out := make([]EntityKind, len(entityKinds))
	copy(out, entityKinds)
	return out
}

// ParseEntityKind maps a type tag (eg. an audit entry's entity_type) to its EntityKind.
func ParseEntityKind(s string) (EntityKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range entityKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
