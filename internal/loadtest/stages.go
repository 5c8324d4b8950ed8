package loadtest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Stage ramps the virtual-user count linearly to Target over Duration.
// A zero Duration jumps straight to Target.
type Stage struct {
	Duration time.Duration `json:"duration"`
	Target   int           `json:"target"`
}

// TotalDuration is the sum of all stage durations.
func TotalDuration(stages []Stage) time.Duration {
	var total time.Duration
	for _, s := range stages {
		total += s.Duration
	}
	return total
}

// TargetAt returns the number of VUs that should be running elapsed into
// the run. The first stage ramps from zero.
func TargetAt(stages []Stage, elapsed time.Duration) int {
	prev := 0
	for _, s := range stages {
		if s.Duration <= 0 {
			prev = s.Target
			continue
		}
		if elapsed < s.Duration {
			frac := float64(elapsed) / float64(s.Duration)
			return int(math.Round(float64(prev) + float64(s.Target-prev)*frac))
		}
		elapsed -= s.Duration
		prev = s.Target
	}
	return prev
}

// MaxTarget is the highest VU target across stages.
func MaxTarget(stages []Stage) int {
	peak := 0
	for _, s := range stages {
		peak = max(peak, s.Target)
	}
	return peak
}

// Scale multiplies every stage duration by factor, keeping targets.
func Scale(stages []Stage, factor float64) []Stage {
	out := make([]Stage, len(stages))
	for i, s := range stages {
		out[i] = Stage{Duration: time.Duration(float64(s.Duration) * factor), Target: s.Target}
	}
	return out
}

// ParseStages reads a comma-separated list of duration:target pairs,
// e.g. "10s:20,30s:50,10s:0".
func ParseStages(raw string) ([]Stage, error) {
	var stages []Stage
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		durStr, targetStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("stage %q: want duration:target", part)
		}
		d, err := time.ParseDuration(strings.TrimSpace(durStr))
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", part, err)
		}
		target, err := strconv.Atoi(strings.TrimSpace(targetStr))
		if err != nil {
			return nil, fmt.Errorf("stage %q: target: %w", part, err)
		}
		if d < 0 || target < 0 {
			return nil, fmt.Errorf("stage %q: negative values are not allowed", part)
		}
		stages = append(stages, Stage{Duration: d, Target: target})
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("no stages in %q", raw)
	}
	return stages, nil
}
