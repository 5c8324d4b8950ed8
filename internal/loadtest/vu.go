package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/time/rate"
)

// VU is one virtual user. Each VU runs its iterations sequentially.
type VU struct {
	ID        int
	Iteration int
	Rand      *rand.Rand

	client  *http.Client
	metrics *Metrics
	limiter *rate.Limiter
}

// Response is a completed request as seen by checks.
type Response struct {
	Status   int
	Body     []byte
	Duration time.Duration
}

// Get issues a GET against url and records it. Requests cut short by the
// run's own cancellation are not recorded.
func (vu *VU) Get(ctx context.Context, url string) (*Response, error) {
	if vu.limiter != nil {
		if err := vu.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := vu.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			vu.metrics.AddRequest(time.Since(start), true, 0)
		}
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() == nil {
			vu.metrics.AddRequest(elapsed, true, int64(len(body)))
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	vu.metrics.AddRequest(elapsed, res.StatusCode >= http.StatusBadRequest, int64(len(body)))
	return &Response{Status: res.StatusCode, Body: body, Duration: elapsed}, nil
}

// Check records a named check outcome and returns it.
func (vu *VU) Check(pass bool) bool {
	vu.metrics.AddCheck(pass)
	return pass
}

// Check is a named assertion on a response.
type Check struct {
	Name string
	Fn   func(*Response) bool
}

// StatusIs passes when the response has the given status.
func StatusIs(code int) Check {
	return Check{
		Name: fmt.Sprintf("status is %d", code),
		Fn:   func(r *Response) bool { return r != nil && r.Status == code },
	}
}

// FasterThan passes when the response took less than d.
func FasterThan(d time.Duration) Check {
	return Check{
		Name: "response time < " + d.String(),
		Fn:   func(r *Response) bool { return r != nil && r.Duration < d },
	}
}

// JSONMatches passes when the JMESPath expression evaluates to a truthy
// value against the decoded JSON body.
func JSONMatches(expr string) (Check, error) {
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return Check{}, fmt.Errorf("compile check %q: %w", expr, err)
	}
	return Check{
		Name: expr,
		Fn: func(r *Response) bool {
			if r == nil {
				return false
			}
			var data any
			if err := json.Unmarshal(r.Body, &data); err != nil {
				return false
			}
			v, err := compiled.Search(data)
			if err != nil {
				return false
			}
			return truthy(v)
		},
	}, nil
}

// truthy follows JMESPath truthiness: false, null and empty values fail.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// RunChecks evaluates every check against r.
func (vu *VU) RunChecks(r *Response, checks []Check) bool {
	all := true
	for _, c := range checks {
		if !vu.Check(c.Fn(r)) {
			all = false
		}
	}
	return all
}

var errCheckFailed = errors.New("check failed")
