package school

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
	"github.com/trezcool/masomo-guard/core/identity"
	testutil "github.com/trezcool/masomo-guard/tests"
)

var (
	testNow = testutil.Now

	principal = testutil.Principal
	assignee  = testutil.Assignee
	kamau     = testutil.Kamau
	otieno    = testutil.Otieno
)

func newValidator(t *testing.T, opts Options) *engine.Validator {
	t.Helper()
	reg, err := NewRegistry(opts)
	require.NoError(t, err)
	v, err := engine.New(engine.Options{
		Registry: reg,
		Provider: testutil.OpenDB(t),
		Clock:    core.FixedClock(testNow),
		Elevated: opts.ElevatedRoles,
	})
	require.NoError(t, err)
	return v
}

func payload(t *testing.T, s string) map[string]interface{} {
	return testutil.Payload(t, s)
}

type scenario struct {
	name  string
	actor identity.Actor
	raw   string
	codes []string
}

func run(t *testing.T, v *engine.Validator, kind engine.Kind, op engine.Operation, tests []scenario) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), engine.RequestContext{Actor: tt.actor}, kind, op, payload(t, tt.raw))
			require.NoError(t, err)
			if len(tt.codes) == 0 {
				require.True(t, res.Accepted, "%v", res.Failures)
				return
			}
			require.Equal(t, tt.codes, res.Codes(), "%v", res.Failures)
		})
	}
}

func validate(t *testing.T, v *engine.Validator, actor identity.Actor, kind engine.Kind, op engine.Operation, raw string) engine.Result {
	t.Helper()
	res, err := v.Validate(context.Background(), engine.RequestContext{Actor: actor}, kind, op, payload(t, raw))
	require.NoError(t, err)
	return res
}
