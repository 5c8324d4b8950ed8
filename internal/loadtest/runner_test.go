package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

func newTestRunner() *Runner {
	return NewRunner(RunnerOptions{
		Logger:      slog.New(slog.DiscardHandler),
		Tick:        5 * time.Millisecond,
		GracefulEnd: time.Second,
		Seed:        42,
	})
}

// apiStub serves the two API endpoints the HTTP scenarios hit.
type apiStub struct {
	mu     sync.Mutex
	paths  map[string]int
	status atomic.Int32
}

func newAPIStub(t *testing.T) (*apiStub, *httptest.Server) {
	t.Helper()
	stub := &apiStub{paths: map[string]int{}}
	stub.status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.paths[r.URL.Path+"?"+r.URL.RawQuery]++
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(stub.status.Load()))
		_, _ = w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func (s *apiStub) hits() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.paths))
	for k, v := range s.paths {
		out[k] = v
	}
	return out
}

func TestRunner_SearchScenario(t *testing.T) {
	stub, srv := newAPIStub(t)
	check, err := JSONMatches("status == 'success'")
	require.NoError(t, err)

	sc := SearchScenario(HTTPOptions{
		APIURL: srv.URL + "/",
		Stages: []Stage{{Duration: 100 * time.Millisecond, Target: 3}, {Duration: 150 * time.Millisecond, Target: 3}},
		Sleep:  5 * time.Millisecond,
		Checks: []Check{check},
	})
	report, err := newTestRunner().Run(context.Background(), sc)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, ScenarioSearch, report.Scenario)
	s := report.Summary
	assert.Positive(t, s.Requests)
	assert.Equal(t, s.Requests, s.Iterations)
	assert.Zero(t, s.Failed.Passes)
	assert.InDelta(t, 1.0, s.Checks.Rate, 1e-9)
	assert.Equal(t, 2*s.Requests, s.Checks.Passes)
	assert.Equal(t, 3, s.VUsMax)
	require.Len(t, report.Thresholds, 2)
	assert.True(t, report.Passed(), "%+v", report.Thresholds)

	for path := range stub.hits() {
		require.True(t, strings.HasPrefix(path, "/api/v1/movies?title="), path)
		term := strings.TrimPrefix(path, "/api/v1/movies?title=")
		assert.Contains(t, SearchTerms, term)
	}
}

func TestRunner_SeatMapFailuresCrossThreshold(t *testing.T) {
	stub, srv := newAPIStub(t)
	stub.status.Store(http.StatusInternalServerError)

	sc := SeatMapScenario(HTTPOptions{
		APIURL: srv.URL,
		Stages: []Stage{{Target: 2}, {Duration: 100 * time.Millisecond, Target: 2}},
		Sleep:  5 * time.Millisecond,
	}, 7)
	report, err := newTestRunner().Run(context.Background(), sc)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, report.Summary.Failed.Rate, 1e-9)
	assert.False(t, report.Passed())

	var te *ThresholdError
	require.True(t, errors.As(report.Err(), &te))
	assert.Equal(t, ScenarioSeatMap, te.Scenario)
	require.Len(t, te.Failed, 1)
	assert.Equal(t, MetricFailed, te.Failed[0].Metric)

	for path := range stub.hits() {
		assert.Equal(t, "/api/v1/screenings/7/seats?", path)
	}
}

func TestRunner_RampsDown(t *testing.T) {
	var peak, current atomic.Int32
	sc := Scenario{
		Name:   "ramp",
		Stages: []Stage{{Duration: 60 * time.Millisecond, Target: 4}, {Duration: 60 * time.Millisecond, Target: 0}},
		Sleep:  2 * time.Millisecond,
		Exec: func(ctx context.Context, vu *VU) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			current.Add(-1)
			return nil
		},
	}
	report, err := newTestRunner().Run(context.Background(), sc)
	require.NoError(t, err)
	assert.LessOrEqual(t, int(peak.Load()), 4)
	assert.LessOrEqual(t, report.Summary.VUsMax, 4)
	assert.Positive(t, report.Summary.Iterations)
	assert.Zero(t, current.Load(), "every VU stopped")
}

func TestRunner_SetupAndTeardown(t *testing.T) {
	var tornDown atomic.Bool
	sc := Scenario{
		Name:   "setup",
		Stages: []Stage{{Duration: 20 * time.Millisecond, Target: 1}},
		Setup: func(context.Context) (func(), error) {
			return func() { tornDown.Store(true) }, nil
		},
		Exec: func(context.Context, *VU) error { return nil },
	}
	_, err := newTestRunner().Run(context.Background(), sc)
	require.NoError(t, err)
	assert.True(t, tornDown.Load())

	sc.Setup = func(context.Context) (func(), error) { return nil, errors.New("no chrome") }
	_, err = newTestRunner().Run(context.Background(), sc)
	require.ErrorContains(t, err, "setup: no chrome")
}

func TestRunner_RejectsBadScenarios(t *testing.T) {
	r := newTestRunner()
	exec := func(context.Context, *VU) error { return nil }

	_, err := r.Run(context.Background(), Scenario{Name: "none", Stages: []Stage{{Duration: time.Second, Target: 1}}})
	require.Error(t, err)

	_, err = r.Run(context.Background(), Scenario{Name: "empty", Exec: exec})
	require.Error(t, err)

	_, err = r.Run(context.Background(), Scenario{
		Name:       "bad threshold",
		Stages:     []Stage{{Duration: time.Second, Target: 1}},
		Thresholds: []ThresholdSpec{{Metric: MetricDuration, Expr: "p95<1"}},
		Exec:       exec,
	})
	require.Error(t, err)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sc := Scenario{
		Name:   "long",
		Stages: []Stage{{Target: 2}, {Duration: time.Hour, Target: 2}},
		Exec: func(ctx context.Context, vu *VU) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	time.AfterFunc(30*time.Millisecond, cancel)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := newTestRunner().Run(ctx, sc)
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunner_RateLimited(t *testing.T) {
	_, srv := newAPIStub(t)
	r := NewRunner(RunnerOptions{
		Logger: slog.New(slog.DiscardHandler),
		Tick:   5 * time.Millisecond,
		RPS:    20,
	})
	sc := SeatMapScenario(HTTPOptions{
		APIURL: srv.URL,
		Stages: []Stage{{Target: 5}, {Duration: 300 * time.Millisecond, Target: 5}},
		Sleep:  time.Millisecond,
	}, 1)
	report, err := r.Run(context.Background(), sc)
	require.NoError(t, err)
	// 20 burst tokens plus 20/s over 0.3s, with slack for in-flight requests.
	assert.LessOrEqual(t, report.Summary.Requests, int64(40))
}

func TestWriteSummaries(t *testing.T) {
	report := Report{
		RunID:    "run-1",
		Scenario: ScenarioSearch,
		Elapsed:  1500 * time.Millisecond,
		Summary: Summary{
			Duration:     Trend{Min: 1, Avg: 12.5, Med: 10, Max: 1200, P90: 20, P95: 30, P99: 40},
			Requests:     10,
			Failed:       Rate{Passes: 1, Fails: 9, Rate: 0.1},
			Checks:       Rate{Passes: 9, Fails: 1, Rate: 0.9},
			Iterations:   10,
			DataReceived: 2500,
			VUsMax:       2,
		},
		Thresholds: []ThresholdResult{
			{Metric: MetricDuration, Expr: "p(95)<200", Observed: 30, Passed: true},
			{Metric: MetricFailed, Expr: "rate<0.01", Observed: 0.1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, report))
	out := buf.String()
	for _, want := range []string{
		"scenario: search (run run-1, 1.5s)",
		"checks..........................: 90.00% ✓ 9 ✗ 1",
		"data_received...................: 2.5 kB",
		"avg=12.50ms min=1.00ms med=10.00ms max=1.20s",
		"http_req_failed.................: 10.00%",
		"✓ http_req_duration p(95)<200 (observed 30)",
		"✗ http_req_failed rate<0.01 (observed 0.1)",
	} {
		assert.Contains(t, out, want)
	}

	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteJSON(path, []Report{report}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "run-1", decoded[0]["run_id"])
	metrics := decoded[0]["metrics"].(map[string]any)
	assert.InDelta(t, 30.0, metrics["http_req_duration"].(map[string]any)["p(95)"], 1e-9)
}
