package loadtest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(durationsMS []int, failed int, checksPass, checksFail int) *Snapshot {
	m := NewMetrics()
	for i, d := range durationsMS {
		m.AddRequest(time.Duration(d)*time.Millisecond, i < failed, 100)
	}
	for range checksPass {
		m.AddCheck(true)
	}
	for range checksFail {
		m.AddCheck(false)
	}
	return m.Snapshot()
}

func TestParseThreshold_Errors(t *testing.T) {
	tests := []struct {
		metric string
		expr   string
	}{
		{MetricDuration, "p95<200"},
		{MetricDuration, "p(101)<200"},
		{MetricDuration, "rate<0.1"},
		{MetricFailed, "p(95)<0.1"},
		{MetricChecks, "avg==1"},
		{"vus", "max<10"},
		{MetricDuration, "p(95) <"},
	}
	for _, tt := range tests {
		_, err := ParseThreshold(tt.metric, tt.expr)
		assert.Error(t, err, "%s %s", tt.metric, tt.expr)
	}
}

func TestThreshold_Evaluate(t *testing.T) {
	ms := make([]int, 100)
	for i := range ms {
		ms[i] = i + 1
	}
	snap := snapshotOf(ms, 2, 99, 1)

	tests := []struct {
		metric string
		expr   string
		pass   bool
	}{
		{MetricDuration, "p(95)<200", true},
		{MetricDuration, "p(95)<95", false},
		{MetricDuration, "p(99.9) >= 99", true},
		{MetricDuration, "avg==50.5", true},
		{MetricDuration, "max<=100", true},
		{MetricDuration, "min>1", false},
		{MetricDuration, "med<50", false},
		{MetricFailed, "rate<0.01", false},
		{MetricFailed, "rate<0.05", true},
		{MetricChecks, "rate==1.0", false},
		{MetricChecks, "rate!=1.0", true},
		{MetricRequests, "count>=100", true},
	}
	for _, tt := range tests {
		th, err := ParseThreshold(tt.metric, tt.expr)
		require.NoError(t, err, tt.expr)
		res := th.Evaluate(snap)
		assert.Equal(t, tt.pass, res.Passed, "%s %s observed %v", tt.metric, tt.expr, res.Observed)
	}
}

func TestParseThresholds_JoinsErrors(t *testing.T) {
	got, err := ParseThresholds([]ThresholdSpec{
		{Metric: MetricDuration, Expr: "p(95)<200"},
		{Metric: MetricFailed, Expr: "bogus"},
		{Metric: "nope", Expr: "rate<1"},
	})
	require.Error(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, err.Error(), "bogus")
	assert.Contains(t, err.Error(), "nope")
}

func TestReport_Err(t *testing.T) {
	r := Report{Scenario: "search", Thresholds: []ThresholdResult{
		{Metric: MetricDuration, Expr: "p(95)<200", Observed: 120, Passed: true},
		{Metric: MetricFailed, Expr: "rate<0.01", Observed: 0.2},
	}}
	assert.False(t, r.Passed())

	var te *ThresholdError
	require.True(t, errors.As(r.Err(), &te))
	require.Len(t, te.Failed, 1)
	assert.Equal(t, "search: thresholds crossed: http_req_failed rate<0.01 (observed 0.2)", te.Error())

	r.Thresholds = r.Thresholds[:1]
	assert.True(t, r.Passed())
	assert.NoError(t, r.Err())
}
