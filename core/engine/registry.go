package engine

import (
	"sort"

	"github.com/pkg/errors"
)

// RuleSet holds every rule applying to one (kind, operation).
type RuleSet struct {
	Key         RuleSetKey
	Description string
	Fields      []FieldRule
	Checks      []Check
	Cross       []CrossRule
	// ItemCross holds the cross-record rules run against every item of a List field.
	ItemCross map[string][]CrossRule
	Policies  []Policy
	// Audited rule sets report every validation to the AuditSink (approvals, rollbacks).
	Audited bool
}

// NeedsContext reports whether the rule set reads other records.
func (rs *RuleSet) NeedsContext() bool {
	if len(rs.Cross) > 0 {
		return true
	}
	for _, rules := range rs.ItemCross {
		if len(rules) > 0 {
			return true
		}
	}
	return false
}

// RuleNames lists the names of the checks, cross-record rules and policies, in evaluation order.
func (rs *RuleSet) RuleNames() []string {
	var names []string
	for _, c := range rs.Checks {
		names = append(names, c.Name)
	}
	for _, c := range rs.Cross {
		names = append(names, c.Name)
	}
	for _, field := range rs.itemFields() {
		for _, c := range rs.ItemCross[field] {
			names = append(names, field+"[]: "+c.Name)
		}
	}
	for _, p := range rs.Policies {
		names = append(names, "policy "+p.Name)
	}
	return names
}

// itemFields returns the List fields having item cross-record rules, in declaration order.
func (rs *RuleSet) itemFields() []string {
	var fields []string
	for _, fr := range rs.Fields {
		if _, ok := rs.ItemCross[fr.Field]; ok && fr.Type == List {
			fields = append(fields, fr.Field)
		}
	}
	return fields
}

// Registry is the table of rule sets, built once at startup and read-only afterwards.
type Registry struct {
	sets map[RuleSetKey]*RuleSet
}

func NewRegistry() *Registry {
	return &Registry{sets: make(map[RuleSetKey]*RuleSet)}
}

// Register adds rs, compiling the checks of its policies.
func (reg *Registry) Register(rs RuleSet) error {
	if rs.Key.Kind == "" || rs.Key.Operation == "" {
		return errors.New("rule set without a key")
	}
	if _, ok := reg.sets[rs.Key]; ok {
		return errors.Errorf("rule set %s already registered", rs.Key)
	}
	policies := make([]Policy, len(rs.Policies))
	for i, p := range rs.Policies {
		p.Checks = append([]PolicyCheck(nil), p.Checks...)
		if err := p.compile(); err != nil {
			return errors.Wrapf(err, "rule set %s", rs.Key)
		}
		policies[i] = p
	}
	rs.Policies = policies
	reg.sets[rs.Key] = &rs
	return nil
}

// AddPolicies compiles and appends policies to the registered rule set key.
func (reg *Registry) AddPolicies(key RuleSetKey, policies ...Policy) error {
	rs, ok := reg.sets[key]
	if !ok {
		return errors.Wrapf(ErrUnsupported, "%s", key)
	}
	for _, p := range policies {
		p.Checks = append([]PolicyCheck(nil), p.Checks...)
		if err := p.compile(); err != nil {
			return errors.Wrapf(err, "rule set %s", key)
		}
		rs.Policies = append(rs.Policies, p)
	}
	return nil
}

// AddPolicyTable attaches every policy of table to its rule set.
func (reg *Registry) AddPolicyTable(table PolicyTable) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key, ok := ParseKey(k)
		if !ok {
			return errors.Errorf("invalid rule set key %q", k)
		}
		if err := reg.AddPolicies(key, table[k]...); err != nil {
			return err
		}
	}
	return nil
}

func (reg *Registry) Lookup(key RuleSetKey) (*RuleSet, bool) {
	rs, ok := reg.sets[key]
	return rs, ok
}

// Keys returns the registered keys, sorted.
func (reg *Registry) Keys() []RuleSetKey {
	keys := make([]RuleSetKey, 0, len(reg.sets))
	for k := range reg.sets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
