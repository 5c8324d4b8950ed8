package loadtest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Metric names understood by thresholds.
const (
	MetricDuration   = "http_req_duration"
	MetricFailed     = "http_req_failed"
	MetricChecks     = "checks"
	MetricRequests   = "http_reqs"
	MetricIterations = "iterations"
)

var thresholdPattern = regexp.MustCompile(`^\s*(avg|min|max|med|count|rate|p\((\d+(?:\.\d+)?)\))\s*(<=|>=|==|!=|<|>)\s*(-?\d+(?:\.\d+)?)\s*$`)

// Threshold is a parsed pass/fail criterion such as "p(95)<200".
type Threshold struct {
	Metric string
	Expr   string

	agg   string
	pct   float64
	op    string
	value float64
}

// ParseThreshold parses a k6-style threshold expression for metric.
func ParseThreshold(metric, expr string) (Threshold, error) {
	m := thresholdPattern.FindStringSubmatch(expr)
	if m == nil {
		return Threshold{}, fmt.Errorf("threshold %q on %s: unrecognised expression", expr, metric)
	}
	t := Threshold{Metric: metric, Expr: strings.TrimSpace(expr), agg: m[1], op: m[3]}
	if m[2] != "" {
		t.agg = "p"
		t.pct, _ = strconv.ParseFloat(m[2], 64)
		if t.pct > 100 {
			return Threshold{}, fmt.Errorf("threshold %q on %s: percentile above 100", expr, metric)
		}
	}
	t.value, _ = strconv.ParseFloat(m[4], 64)

	if err := t.validAggregation(); err != nil {
		return Threshold{}, err
	}
	return t, nil
}

func (t Threshold) validAggregation() error {
	switch t.Metric {
	case MetricDuration:
		if t.agg == "rate" {
			return fmt.Errorf("threshold %q: %s is a trend, rate is not available", t.Expr, t.Metric)
		}
	case MetricFailed, MetricChecks:
		if t.agg != "rate" {
			return fmt.Errorf("threshold %q: %s only supports rate", t.Expr, t.Metric)
		}
	case MetricRequests, MetricIterations:
		if t.agg != "count" {
			return fmt.Errorf("threshold %q: %s only supports count", t.Expr, t.Metric)
		}
	default:
		return fmt.Errorf("threshold %q: unknown metric %q", t.Expr, t.Metric)
	}
	return nil
}

// observed extracts the aggregated value the threshold compares.
func (t Threshold) observed(s *Snapshot) float64 {
	sum := s.Summary()
	switch t.Metric {
	case MetricFailed:
		return sum.Failed.Rate
	case MetricChecks:
		return sum.Checks.Rate
	case MetricRequests:
		return float64(sum.Requests)
	case MetricIterations:
		return float64(sum.Iterations)
	}
	switch t.agg {
	case "avg":
		return sum.Duration.Avg
	case "min":
		return sum.Duration.Min
	case "max":
		return sum.Duration.Max
	case "med":
		return sum.Duration.Med
	case "count":
		return float64(sum.Requests)
	default:
		return s.Percentile(t.pct)
	}
}

// Evaluate compares the snapshot against the threshold.
func (t Threshold) Evaluate(s *Snapshot) ThresholdResult {
	v := t.observed(s)
	var ok bool
	switch t.op {
	case "<":
		ok = v < t.value
	case "<=":
		ok = v <= t.value
	case ">":
		ok = v > t.value
	case ">=":
		ok = v >= t.value
	case "==":
		ok = v == t.value
	case "!=":
		ok = v != t.value
	}
	return ThresholdResult{Metric: t.Metric, Expr: t.Expr, Observed: v, Passed: ok}
}

// ThresholdResult is the outcome of one threshold.
type ThresholdResult struct {
	Metric   string  `json:"metric"`
	Expr     string  `json:"expr"`
	Observed float64 `json:"observed"`
	Passed   bool    `json:"passed"`
}

// ParseThresholds parses specs in order, reporting every bad expression.
func ParseThresholds(specs []ThresholdSpec) ([]Threshold, error) {
	out := make([]Threshold, 0, len(specs))
	var errs []error
	for _, spec := range specs {
		t, err := ParseThreshold(spec.Metric, spec.Expr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, t)
	}
	return out, errors.Join(errs...)
}

// ThresholdSpec is an unparsed threshold.
type ThresholdSpec struct {
	Metric string
	Expr   string
}

// ThresholdError reports the thresholds a run crossed.
type ThresholdError struct {
	Scenario string
	Failed   []ThresholdResult
}

func (e *ThresholdError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = fmt.Sprintf("%s %s (observed %.4g)", f.Metric, f.Expr, f.Observed)
	}
	return fmt.Sprintf("%s: thresholds crossed: %s", e.Scenario, strings.Join(parts, "; "))
}
