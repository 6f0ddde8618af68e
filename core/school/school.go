// Package school declares the business rules of the school operations: what makes a student,
// teacher, fee, attendance mark, exam, payroll run, audit entry, approval decision or rollback
// request admissible.
package school

import (
	_ "embed"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/checksum"
	"github.com/trezcool/masomo-guard/core/engine"
	"github.com/trezcool/masomo-guard/core/identity"
)

//go:embed policies.yaml
var defaultPolicies []byte

// Options tune the rule sets.
type Options struct {
	// StudentIDOrder and TeacherIDOrder are the Verhoeff digit orders of the national ids of
	// students and teachers. The two registrations have always disagreed; see checksum.Order.
	StudentIDOrder checksum.Order
	TeacherIDOrder checksum.Order
	// ElevatedRoles may act on records assigned to someone else.
	ElevatedRoles []string
	// BulkMaxItems caps the number of marks of a bulk attendance.
	BulkMaxItems int
	// RollbackMaxAge is the age beyond which a version can no longer be rolled back to.
	RollbackMaxAge time.Duration
	// Policies are added to the embedded escalation policies.
	Policies engine.PolicyTable
}

func DefaultOptions() Options {
	return Options{
		StudentIDOrder: checksum.Reversed,
		TeacherIDOrder: checksum.AsProvided,
		ElevatedRoles:  identity.AdminRoles,
		BulkMaxItems:   200,
		RollbackMaxAge: 90 * 24 * time.Hour,
	}
}

// OptionsFromConfig reads the rules section of the configuration. An optional policy file is
// loaded on top of the embedded policies.
func OptionsFromConfig(conf *core.Config) (Options, error) {
	opts := DefaultOptions()
	var err error
	if opts.StudentIDOrder, err = checksum.ParseOrder(conf.Rules.StudentIDOrder); err != nil {
		return opts, errors.Wrap(err, "rules.studentIDOrder")
	}
	if opts.TeacherIDOrder, err = checksum.ParseOrder(conf.Rules.TeacherIDOrder); err != nil {
		return opts, errors.Wrap(err, "rules.teacherIDOrder")
	}
	for _, role := range conf.Rules.ElevatedRoles {
		if !identity.IsRole(role) {
			return opts, errors.Errorf("rules.elevatedRoles: unknown role %q", role)
		}
	}
	if len(conf.Rules.ElevatedRoles) > 0 {
		opts.ElevatedRoles = conf.Rules.ElevatedRoles
	}
	if conf.Rules.BulkMaxItems > 0 {
		opts.BulkMaxItems = conf.Rules.BulkMaxItems
	}
	if conf.Rules.RollbackMaxAge > 0 {
		opts.RollbackMaxAge = conf.Rules.RollbackMaxAge
	}
	if conf.Rules.PolicyFile != "" {
		if opts.Policies, err = engine.LoadPolicies(conf.Rules.PolicyFile); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// DefaultPolicies returns the embedded escalation policies.
func DefaultPolicies() (engine.PolicyTable, error) {
	return engine.ParsePolicies(defaultPolicies)
}

// NewRegistry builds the table of every school rule set.
func NewRegistry(opts Options) (*engine.Registry, error) {
	if opts.BulkMaxItems <= 0 {
		opts.BulkMaxItems = DefaultOptions().BulkMaxItems
	}
	if opts.RollbackMaxAge <= 0 {
		opts.RollbackMaxAge = DefaultOptions().RollbackMaxAge
	}

	reg := engine.NewRegistry()
	sets := [][]engine.RuleSet{
		studentRuleSets(opts),
		teacherRuleSets(opts),
		feeRuleSets(),
		attendanceRuleSets(opts),
		examRuleSets(),
		payrollRuleSets(),
		auditRuleSets(),
		approvalRuleSets(),
		rollbackRuleSets(opts),
	}
	for _, group := range sets {
		for _, rs := range group {
			if err := reg.Register(rs); err != nil {
				return nil, err
			}
		}
	}

	policies, err := DefaultPolicies()
	if err != nil {
		return nil, err
	}
	if err = reg.AddPolicyTable(policies.Merge(opts.Policies)); err != nil {
		return nil, errors.Wrap(err, "attaching escalation policies")
	}
	return reg, nil
}

// forUpdate prepends the id of the record being updated to fields.
func forUpdate(fields []engine.FieldRule) []engine.FieldRule {
	return append([]engine.FieldRule{engine.Required("id", engine.Int, "gt=0")}, fields...)
}
