package engine

import (
	"os"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Policy adds requirements to a record when its Trigger field holds one of Values. Policies
// run last, on the sanitized record, and only ever add failures.
type Policy struct {
	Name    string        `yaml:"name"`
	Trigger string        `yaml:"trigger"`
	Values  []string      `yaml:"values"`
	Require []string      `yaml:"require"`
	Checks  []PolicyCheck `yaml:"checks"`
}

// PolicyCheck is a CEL boolean expression over `record`, the sanitized record as a map.
// The record fails the check when the expression is false (or cannot be evaluated).
type PolicyCheck struct {
	Name    string `yaml:"name"`
	Field   string `yaml:"field"`
	Expr    string `yaml:"expr"`
	Message string `yaml:"message"`

	prog cel.Program
}

// PolicyTable maps "kind.operation" to the policies of that rule set.
type PolicyTable map[string][]Policy

// ParsePolicies decodes a YAML policy table.
func ParsePolicies(data []byte) (PolicyTable, error) {
	var table PolicyTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrap(err, "decoding policies")
	}
	for key := range table {
		if _, ok := ParseKey(key); !ok {
			return nil, errors.Errorf("invalid rule set key %q", key)
		}
	}
	return table, nil
}

// LoadPolicies reads a YAML policy table from path.
func LoadPolicies(path string) (PolicyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return ParsePolicies(data)
}

// Merge appends the policies of other to t.
func (t PolicyTable) Merge(other PolicyTable) PolicyTable {
	out := make(PolicyTable, len(t)+len(other))
	for k, ps := range t {
		out[k] = append(out[k], ps...)
	}
	for k, ps := range other {
		out[k] = append(out[k], ps...)
	}
	return out
}

// For returns the policies of the rule set key.
func (t PolicyTable) For(key RuleSetKey) []Policy {
	return t[key.String()]
}

var (
	celEnvOnce sync.Once
	celEnv     *cel.Env
	celEnvErr  error
)

func policyEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(cel.Variable("record", cel.DynType))
	})
	return celEnv, celEnvErr
}

// compile prepares the CEL programs of p. It runs once, when the rule set is registered.
func (p *Policy) compile() error {
	if p.Name == "" {
		return errors.New("policy without a name")
	}
	if p.Trigger == "" || len(p.Values) == 0 {
		return errors.Errorf("policy %s: trigger and values are required", p.Name)
	}
	env, err := policyEnv()
	if err != nil {
		return errors.Wrap(err, "creating CEL environment")
	}
	for i := range p.Checks {
		c := &p.Checks[i]
		if c.Name == "" || c.Expr == "" {
			return errors.Errorf("policy %s: check #%d needs a name and an expression", p.Name, i)
		}
		ast, issues := env.Compile(c.Expr)
		if issues != nil && issues.Err() != nil {
			return errors.Wrapf(issues.Err(), "policy %s: compiling check %s", p.Name, c.Name)
		}
		prog, err := env.Program(ast, cel.CostLimit(100000))
		if err != nil {
			return errors.Wrapf(err, "policy %s: check %s", p.Name, c.Name)
		}
		c.prog = prog
	}
	return nil
}

// Triggered reports whether r holds one of the trigger values.
func (p *Policy) Triggered(r Record) bool {
	v, ok := r.Text(p.Trigger)
	return ok && contains(p.Values, strings.ToLower(v))
}

func (p *Policy) evaluate(r Record) []Failure {
	if !p.Triggered(r) {
		return nil
	}
	tv, _ := r.Text(p.Trigger)
	cause := r.Path(p.Trigger) + " is " + tv

	var failures []Failure
	for _, field := range p.Require {
		if r.Has(field) || r.Invalid(field) {
			continue
		}
		failures = append(failures, Fail(MissingConditionalField, r.Path(field), CodeEscalationRequired, cause))
	}

	var vars map[string]interface{}
	for _, c := range p.Checks {
		if c.Field != "" && r.Invalid(c.Field) {
			continue
		}
		if vars == nil {
			vars = map[string]interface{}{"record": r.ToMap()}
		}
		if c.holds(vars) {
			continue
		}
		field := ""
		if c.Field != "" {
			field = r.Path(c.Field)
		}
		msg := c.Message
		if msg == "" {
			msg = c.Name + " is required when " + cause
		}
		failures = append(failures, Failure{Field: field, Kind: MissingConditionalField, Code: c.Name, Message: msg})
	}
	return failures
}

func (c PolicyCheck) holds(vars map[string]interface{}) bool {
	if c.prog == nil {
		return false
	}
	out, _, err := c.prog.Eval(vars)
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
