package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/target/cinema-ui/config"
	"github.com/target/cinema-ui/internal/loadtest"
)

// quickFactor shrinks every stage for smoke runs.
const quickFactor = 0.1

type options struct {
	apiURL      string
	baseURL     string
	screening   int64
	summaryJSON string
	quick       bool
	stages      string
	check       string
	rps         float64
	sleep       time.Duration
	chromeURL   string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var defaults config.LoadTestConfig
	// Unset variables fall back to envDefault; parse errors only arise from malformed tags.
	_ = env.Parse(&defaults)

	opts := &options{}
	cmd := &cobra.Command{
		Use:   "cinema-loadtest",
		Short: "Load test the booking API and the cinema frontend",
		Long: `cinema-loadtest drives staged virtual users against the booking API
(search and seat map) and the frontend (headless Chrome), prints a summary
and exits with status 99 when a threshold is crossed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.apiURL, "api-url", defaults.APIURL, "Booking API origin (env API_URL)")
	pf.StringVar(&opts.baseURL, "base-url", defaults.BaseURL, "Frontend origin (env BASE_URL)")
	pf.Int64Var(&opts.screening, "screening", 1, "Screening id for the seat map scenario")
	pf.StringVar(&opts.summaryJSON, "summary-json", "", "Write the run summary as JSON to this file")
	pf.BoolVar(&opts.quick, "quick", false, "Shrink every stage to a tenth for smoke runs")
	pf.StringVar(&opts.stages, "stages", "", "Override stages, e.g. 10s:20,30s:50,10s:0")
	pf.StringVar(&opts.check, "check", "", "Extra JMESPath check on JSON responses, e.g. \"status == 'success'\"")
	pf.Float64Var(&opts.rps, "rps", 0, "Cap total requests per second (0 = unlimited)")
	pf.DurationVar(&opts.sleep, "sleep", 0, "Pause between iterations (default 1s for API scenarios)")
	pf.StringVar(&opts.chromeURL, "chrome-url", "", "Attach to a running Chrome DevTools URL instead of launching one")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every failed iteration")

	cmd.AddCommand(
		newScenarioCmd(opts, loadtest.ScenarioSearch, "Search movies by title", searchScenarios),
		newScenarioCmd(opts, loadtest.ScenarioSeatMap, "Fetch one screening's seat map", seatMapScenarios),
		newScenarioCmd(opts, loadtest.ScenarioBrowser, "Open the frontend in headless Chrome", browserScenarios),
		newScenarioCmd(opts, "all", "Run every scenario in turn", allScenarios),
	)
	return cmd
}

type scenarioBuilder func(*options) ([]loadtest.Scenario, error)

func newScenarioCmd(opts *options, name, short string, build scenarioBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scenarios, err := build(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, scenarios)
		},
	}
}

func (o *options) httpOptions() (loadtest.HTTPOptions, error) {
	h := loadtest.HTTPOptions{APIURL: o.apiURL, Sleep: o.sleep}
	if o.stages != "" {
		stages, err := loadtest.ParseStages(o.stages)
		if err != nil {
			return h, err
		}
		h.Stages = stages
	}
	if o.check != "" {
		c, err := loadtest.JSONMatches(o.check)
		if err != nil {
			return h, err
		}
		h.Checks = []loadtest.Check{c}
	}
	return h, nil
}

func (o *options) adjust(sc loadtest.Scenario) loadtest.Scenario {
	if o.quick {
		sc.Stages = loadtest.Scale(sc.Stages, quickFactor)
	}
	return sc
}

func searchScenarios(o *options) ([]loadtest.Scenario, error) {
	h, err := o.httpOptions()
	if err != nil {
		return nil, err
	}
	return []loadtest.Scenario{o.adjust(loadtest.SearchScenario(h))}, nil
}

func seatMapScenarios(o *options) ([]loadtest.Scenario, error) {
	h, err := o.httpOptions()
	if err != nil {
		return nil, err
	}
	return []loadtest.Scenario{o.adjust(loadtest.SeatMapScenario(h, o.screening))}, nil
}

func browserScenarios(o *options) ([]loadtest.Scenario, error) {
	b := loadtest.BrowserOptions{BaseURL: o.baseURL, ControlURL: o.chromeURL, Sleep: o.sleep}
	if o.stages != "" {
		stages, err := loadtest.ParseStages(o.stages)
		if err != nil {
			return nil, err
		}
		b.Duration = loadtest.TotalDuration(stages)
		b.VUs = loadtest.MaxTarget(stages)
	}
	return []loadtest.Scenario{o.adjust(loadtest.BrowserScenario(b))}, nil
}

func allScenarios(o *options) ([]loadtest.Scenario, error) {
	var out []loadtest.Scenario
	for _, build := range []scenarioBuilder{searchScenarios, seatMapScenarios, browserScenarios} {
		scs, err := build(o)
		if err != nil {
			return nil, err
		}
		out = append(out, scs...)
	}
	return out, nil
}

// run executes scenarios in order. Setup failures stop the run; crossed
// thresholds are collected and returned once every scenario finished.
func run(cmd *cobra.Command, o *options, scenarios []loadtest.Scenario) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	runner := loadtest.NewRunner(loadtest.RunnerOptions{
		Client: &http.Client{Timeout: 30 * time.Second},
		Logger: logger,
		RPS:    o.rps,
	})

	reports := make([]loadtest.Report, 0, len(scenarios))
	var crossed []error
	for _, sc := range scenarios {
		report, err := runner.Run(cmd.Context(), sc)
		if err != nil {
			return err
		}
		reports = append(reports, report)
		if err := loadtest.WriteText(cmd.OutOrStdout(), report); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if err := report.Err(); err != nil {
			crossed = append(crossed, err)
		}
	}

	if o.summaryJSON != "" {
		if err := loadtest.WriteJSON(o.summaryJSON, reports); err != nil {
			return err
		}
		logger.Info("summary written", "path", o.summaryJSON)
	}
	return errors.Join(crossed...)
}
