package metricsvc

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-guard/core"
	"github.com/trezcool/masomo-guard/core/engine"
)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector(core.MetricsConfig{Namespace: "test", Subsystem: "guard"}, prometheus.NewRegistry())
	fee := engine.Key(engine.KindFee, engine.OpCreate)

	c.Observe(fee, engine.OutcomeAccepted, nil, time.Millisecond)
	c.Observe(fee, engine.OutcomeRejected, []engine.Failure{
		{Kind: engine.ReconciliationMismatch},
		{Kind: engine.DuplicateExists},
		{Kind: engine.ReconciliationMismatch},
	}, 2*time.Millisecond)
	c.Observe(fee, engine.OutcomeError, nil, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.validations.WithLabelValues("fee.create", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.validations.WithLabelValues("fee.create", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.validations.WithLabelValues("fee.create", "infrastructure_failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.failures.WithLabelValues("fee.create", "ReconciliationMismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues("fee.create", "DuplicateExists")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(core.MetricsConfig{}, nil)
	c.Observe(engine.Key(engine.KindStudent, engine.OpCreate), engine.OutcomeAccepted, nil, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `masomo_guard_validations_total{outcome="accepted",rule_set="student.create"} 1`), rec.Body.String())
}
