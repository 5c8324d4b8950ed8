package loadtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultTick        = 100 * time.Millisecond
	defaultGracefulEnd = 30 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// Iteration is the body of one VU loop pass.
type Iteration func(ctx context.Context, vu *VU) error

// Scenario is one named load profile.
type Scenario struct {
	Name       string
	Stages     []Stage
	Sleep      time.Duration // pause between iterations
	Thresholds []ThresholdSpec
	Exec       Iteration

	// Setup runs once before the first VU starts. The returned teardown
	// runs after the last VU stops.
	Setup func(ctx context.Context) (teardown func(), err error)
}

// Report is the outcome of a run.
type Report struct {
	RunID      string            `json:"run_id"`
	Scenario   string            `json:"scenario"`
	Started    time.Time         `json:"started"`
	Elapsed    time.Duration     `json:"elapsed_ns"`
	Summary    Summary           `json:"metrics"`
	Thresholds []ThresholdResult `json:"thresholds"`
}

// Passed reports whether every threshold held.
func (r Report) Passed() bool {
	for _, t := range r.Thresholds {
		if !t.Passed {
			return false
		}
	}
	return true
}

// Err returns a *ThresholdError when any threshold was crossed.
func (r Report) Err() error {
	var failed []ThresholdResult
	for _, t := range r.Thresholds {
		if !t.Passed {
			failed = append(failed, t)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &ThresholdError{Scenario: r.Scenario, Failed: failed}
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Client *http.Client
	Logger *slog.Logger
	// RPS caps the request rate across all VUs; zero means unlimited.
	RPS float64
	// Tick is how often the VU count is adjusted to the stage target.
	Tick time.Duration
	// GracefulEnd bounds how long in-flight iterations may finish after
	// the last stage.
	GracefulEnd time.Duration
	Seed        uint64
}

// Runner executes scenarios.
type Runner struct {
	client      *http.Client
	logger      *slog.Logger
	rps         float64
	tick        time.Duration
	gracefulEnd time.Duration
	seed        uint64
}

// NewRunner constructs a Runner with defaults applied.
func NewRunner(opts RunnerOptions) *Runner {
	r := &Runner{
		client:      opts.Client,
		logger:      opts.Logger,
		rps:         opts.RPS,
		tick:        opts.Tick,
		gracefulEnd: opts.GracefulEnd,
		seed:        opts.Seed,
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.tick <= 0 {
		r.tick = defaultTick
	}
	if r.gracefulEnd <= 0 {
		r.gracefulEnd = defaultGracefulEnd
	}
	if r.seed == 0 {
		r.seed = uint64(time.Now().UnixNano())
	}
	return r
}

// Run drives the scenario through its stages and evaluates thresholds.
// The returned error covers setup and configuration problems only; check
// Report.Err for crossed thresholds.
func (r *Runner) Run(ctx context.Context, sc Scenario) (Report, error) {
	if sc.Exec == nil {
		return Report{}, fmt.Errorf("scenario %q has no iteration", sc.Name)
	}
	if TotalDuration(sc.Stages) <= 0 {
		return Report{}, fmt.Errorf("scenario %q has no stages", sc.Name)
	}
	thresholds, err := ParseThresholds(sc.Thresholds)
	if err != nil {
		return Report{}, err
	}

	if sc.Setup != nil {
		teardown, setupErr := sc.Setup(ctx)
		if setupErr != nil {
			return Report{}, fmt.Errorf("%s setup: %w", sc.Name, setupErr)
		}
		if teardown != nil {
			defer teardown()
		}
	}

	report := Report{RunID: uuid.NewString(), Scenario: sc.Name, Started: time.Now()}
	logger := r.logger.With("scenario", sc.Name, "run_id", report.RunID)
	logger.InfoContext(ctx, "load test starting",
		"duration", TotalDuration(sc.Stages), "max_vus", MaxTarget(sc.Stages))

	metrics := NewMetrics()
	r.drive(ctx, sc, metrics, logger)

	report.Elapsed = time.Since(report.Started)
	snap := metrics.Snapshot()
	report.Summary = snap.Summary()
	for _, t := range thresholds {
		report.Thresholds = append(report.Thresholds, t.Evaluate(snap))
	}
	logger.InfoContext(ctx, "load test finished",
		"elapsed", report.Elapsed, "requests", report.Summary.Requests, "passed", report.Passed())
	return report, nil
}

// drive keeps the running VU count at the stage target until the stages end.
func (r *Runner) drive(ctx context.Context, sc Scenario, metrics *Metrics, logger *slog.Logger) {
	// Iterations run on their own context so ramp-down and the end of the
	// last stage let in-flight requests finish.
	iterCtx, cancelIter := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelIter()
	stopIter := context.AfterFunc(ctx, cancelIter)
	defer stopIter()

	var limiter *rate.Limiter
	if r.rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.rps), max(1, int(r.rps)))
	}

	var g errgroup.Group
	var running []chan struct{}
	nextID := 1
	spawn := func() {
		stop := make(chan struct{})
		running = append(running, stop)
		vu := &VU{
			ID:      nextID,
			Rand:    rand.New(rand.NewPCG(r.seed, uint64(nextID))),
			client:  r.client,
			metrics: metrics,
			limiter: limiter,
		}
		nextID++
		g.Go(func() error {
			runVU(iterCtx, stop, sc, vu, logger)
			return nil
		})
	}

	start := time.Now()
	total := TotalDuration(sc.Stages)
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

loop:
	for {
		elapsed := time.Since(start)
		if elapsed >= total {
			break
		}
		target := TargetAt(sc.Stages, elapsed)
		for len(running) < target {
			spawn()
		}
		for len(running) > target {
			last := len(running) - 1
			close(running[last])
			running = running[:last]
		}
		metrics.ObserveVUs(len(running))

		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}

	for _, stop := range running {
		close(stop)
	}
	waitGraceful(&g, r.gracefulEnd, cancelIter, logger)
}

func waitGraceful(g *errgroup.Group, grace time.Duration, cancel context.CancelFunc, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		logger.Warn("iterations still running after graceful stop, interrupting", "grace", grace)
		cancel()
		<-done
	}
}

func runVU(ctx context.Context, stop <-chan struct{}, sc Scenario, vu *VU, logger *slog.Logger) {
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := sc.Exec(ctx, vu); err != nil && ctx.Err() == nil && !errors.Is(err, errCheckFailed) {
			logger.Debug("iteration failed", "vu", vu.ID, "iteration", vu.Iteration, "error", err)
		}
		if ctx.Err() != nil {
			return
		}
		vu.metrics.AddIteration()
		vu.Iteration++

		if sc.Sleep <= 0 {
			continue
		}
		timer := time.NewTimer(sc.Sleep)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
