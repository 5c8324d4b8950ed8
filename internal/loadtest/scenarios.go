package loadtest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Scenario names.
const (
	ScenarioSearch  = "search"
	ScenarioSeatMap = "seatmap"
	ScenarioBrowser = "browser"
)

// SearchTerms are the titles the search scenario picks from.
var SearchTerms = []string{"Action", "Love", "2024", "Marvel", "Vietnam"}

// HTTPOptions configures the API scenarios.
type HTTPOptions struct {
	APIURL string
	// Stages overrides the scenario's default profile.
	Stages []Stage
	Sleep  time.Duration
	// Checks are extra assertions run after the status check.
	Checks []Check
}

func (o HTTPOptions) stages(def []Stage) []Stage {
	if len(o.Stages) > 0 {
		return o.Stages
	}
	return def
}

func (o HTTPOptions) sleep() time.Duration {
	if o.Sleep > 0 {
		return o.Sleep
	}
	return time.Second
}

func apiRoot(apiURL string) string {
	return strings.TrimRight(apiURL, "/") + "/api/v1"
}

// SearchScenario hammers the movie title search.
func SearchScenario(opts HTTPOptions) Scenario {
	root := apiRoot(opts.APIURL)
	checks := append([]Check{StatusIs(200)}, opts.Checks...)
	return Scenario{
		Name: ScenarioSearch,
		Stages: opts.stages([]Stage{
			{Duration: 10 * time.Second, Target: 20},
			{Duration: 30 * time.Second, Target: 50},
			{Duration: time.Minute, Target: 50},
			{Duration: 10 * time.Second, Target: 0},
		}),
		Sleep: opts.sleep(),
		Thresholds: []ThresholdSpec{
			{Metric: MetricDuration, Expr: "p(95)<200"},
			{Metric: MetricFailed, Expr: "rate<0.01"},
		},
		Exec: func(ctx context.Context, vu *VU) error {
			term := SearchTerms[vu.Rand.IntN(len(SearchTerms))]
			res, err := vu.Get(ctx, root+"/movies?title="+url.QueryEscape(term))
			return finish(ctx, vu, res, err, checks)
		},
	}
}

// SeatMapScenario repeatedly loads one screening's seats.
func SeatMapScenario(opts HTTPOptions, screeningID int64) Scenario {
	if screeningID <= 0 {
		screeningID = 1
	}
	target := fmt.Sprintf("%s/screenings/%d/seats", apiRoot(opts.APIURL), screeningID)
	checks := append([]Check{StatusIs(200), FasterThan(2 * time.Second)}, opts.Checks...)
	return Scenario{
		Name: ScenarioSeatMap,
		Stages: opts.stages([]Stage{
			{Duration: 10 * time.Second, Target: 10},
			{Duration: 30 * time.Second, Target: 50},
			{Duration: 30 * time.Second, Target: 50},
			{Duration: 10 * time.Second, Target: 0},
		}),
		Sleep: opts.sleep(),
		Thresholds: []ThresholdSpec{
			{Metric: MetricDuration, Expr: "p(95)<2000"},
			{Metric: MetricFailed, Expr: "rate<0.01"},
		},
		Exec: func(ctx context.Context, vu *VU) error {
			res, err := vu.Get(ctx, target)
			return finish(ctx, vu, res, err, checks)
		},
	}
}

// finish runs checks even on transport errors so they count as failures,
// unless the run itself was interrupted.
func finish(ctx context.Context, vu *VU, res *Response, err error, checks []Check) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !vu.RunChecks(res, checks) && err == nil {
		return errCheckFailed
	}
	return err
}
