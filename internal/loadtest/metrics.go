package loadtest

import (
	"math"
	"slices"
	"sync"
	"time"
)

// Metrics accumulates samples from every VU of a run.
type Metrics struct {
	mu           sync.Mutex
	durations    []time.Duration
	failed       int64
	checkPasses  int64
	checkFails   int64
	iterations   int64
	dataReceived int64
	vusMax       int
}

// NewMetrics returns an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// AddRequest records one HTTP request. Failed requests count towards
// http_req_failed.
func (m *Metrics) AddRequest(d time.Duration, failed bool, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, d)
	if failed {
		m.failed++
	}
	m.dataReceived += bytes
}

// AddCheck records one check outcome.
func (m *Metrics) AddCheck(pass bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pass {
		m.checkPasses++
	} else {
		m.checkFails++
	}
}

// AddIteration counts a completed VU iteration.
func (m *Metrics) AddIteration() {
	m.mu.Lock()
	m.iterations++
	m.mu.Unlock()
}

// ObserveVUs tracks the peak number of concurrently running VUs.
func (m *Metrics) ObserveVUs(n int) {
	m.mu.Lock()
	m.vusMax = max(m.vusMax, n)
	m.mu.Unlock()
}

// Snapshot freezes the current samples for summarising.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms := make([]float64, len(m.durations))
	for i, d := range m.durations {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	slices.Sort(ms)
	return &Snapshot{
		sortedMS:     ms,
		failed:       m.failed,
		checkPasses:  m.checkPasses,
		checkFails:   m.checkFails,
		iterations:   m.iterations,
		dataReceived: m.dataReceived,
		vusMax:       m.vusMax,
	}
}

// Snapshot is an immutable view of a run's samples.
type Snapshot struct {
	sortedMS     []float64
	failed       int64
	checkPasses  int64
	checkFails   int64
	iterations   int64
	dataReceived int64
	vusMax       int
}

// Requests is the number of recorded HTTP requests.
func (s *Snapshot) Requests() int64 { return int64(len(s.sortedMS)) }

// Percentile returns the p-th percentile of request durations in
// milliseconds, interpolating between the closest ranks.
func (s *Snapshot) Percentile(p float64) float64 {
	n := len(s.sortedMS)
	if n == 0 {
		return 0
	}
	p = math.Min(math.Max(p, 0), 100)
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s.sortedMS[lo]
	}
	return s.sortedMS[lo] + (s.sortedMS[hi]-s.sortedMS[lo])*(rank-float64(lo))
}

// Summary aggregates the snapshot.
func (s *Snapshot) Summary() Summary {
	sum := Summary{
		Requests:     s.Requests(),
		Failed:       newRate(s.failed, s.Requests()-s.failed),
		Checks:       newRate(s.checkPasses, s.checkFails),
		Iterations:   s.iterations,
		DataReceived: s.dataReceived,
		VUsMax:       s.vusMax,
	}
	if n := len(s.sortedMS); n > 0 {
		total := 0.0
		for _, v := range s.sortedMS {
			total += v
		}
		sum.Duration = Trend{
			Min: s.sortedMS[0],
			Avg: total / float64(n),
			Med: s.Percentile(50),
			Max: s.sortedMS[n-1],
			P90: s.Percentile(90),
			P95: s.Percentile(95),
			P99: s.Percentile(99),
		}
	}
	return sum
}

// Trend summarises durations in milliseconds.
type Trend struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Med float64 `json:"med"`
	Max float64 `json:"max"`
	P90 float64 `json:"p(90)"`
	P95 float64 `json:"p(95)"`
	P99 float64 `json:"p(99)"`
}

// Rate is the share of "true" samples: failed requests for
// http_req_failed, passed checks for checks.
type Rate struct {
	Passes int64   `json:"passes"`
	Fails  int64   `json:"fails"`
	Rate   float64 `json:"rate"`
}

func newRate(passes, fails int64) Rate {
	r := Rate{Passes: passes, Fails: fails}
	if total := passes + fails; total > 0 {
		r.Rate = float64(passes) / float64(total)
	}
	return r
}

// Summary is the end-of-run metric set.
type Summary struct {
	Duration     Trend `json:"http_req_duration"`
	Requests     int64 `json:"http_reqs"`
	Failed       Rate  `json:"http_req_failed"`
	Checks       Rate  `json:"checks"`
	Iterations   int64 `json:"iterations"`
	DataReceived int64 `json:"data_received"`
	VUsMax       int   `json:"vus_max"`
}
