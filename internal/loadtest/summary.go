package loadtest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const summaryLabelWidth = 32

// WriteText prints a k6-style end-of-test summary.
func WriteText(w io.Writer, r Report) error {
	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "\n  scenario: %s (run %s, %s)\n\n", r.Scenario, r.RunID, r.Elapsed.Round(time.Millisecond))

	row := func(name, value string) {
		dots := max(summaryLabelWidth-len(name), 3)
		fmt.Fprintf(&b, "     %s%s: %s\n", name, strings.Repeat(".", dots), value)
	}
	row(MetricChecks, fmt.Sprintf("%s ✓ %d ✗ %d", percent(s.Checks.Rate), s.Checks.Passes, s.Checks.Fails))
	row("data_received", humanBytes(s.DataReceived))
	d := s.Duration
	row(MetricDuration, fmt.Sprintf("avg=%s min=%s med=%s max=%s p(90)=%s p(95)=%s p(99)=%s",
		ms(d.Avg), ms(d.Min), ms(d.Med), ms(d.Max), ms(d.P90), ms(d.P95), ms(d.P99)))
	row(MetricFailed, fmt.Sprintf("%s ✓ %d ✗ %d", percent(s.Failed.Rate), s.Failed.Passes, s.Failed.Fails))
	row(MetricRequests, fmt.Sprint(s.Requests))
	row(MetricIterations, fmt.Sprint(s.Iterations))
	row("vus_max", fmt.Sprint(s.VUsMax))

	if len(r.Thresholds) > 0 {
		b.WriteString("\n  thresholds:\n")
		for _, t := range r.Thresholds {
			mark := "✓"
			if !t.Passed {
				mark = "✗"
			}
			fmt.Fprintf(&b, "     %s %s %s (observed %.4g)\n", mark, t.Metric, t.Expr, t.Observed)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes the reports to path as indented JSON.
func WriteJSON(path string, reports []Report) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

func ms(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.2fs", v/1000)
	}
	return fmt.Sprintf("%.2fms", v)
}

func humanBytes(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}
