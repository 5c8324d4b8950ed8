// Package apiclient is a typed client for the booking REST API (/api/v1).
//
// Responses are unwrapped from the API envelope
// {"status","data","message","errorCode","timestamp"}; failures surface as
// *errors.AppError values whose cause is a *StatusError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/observability/metrics"
)

const (
	defaultBaseURL = "http://localhost:8080/api/v1"
	defaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// Client calls the booking API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // overrides Timeout when set
	Logger     *slog.Logger
	Now        func() time.Time
}

// New creates a new API client.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{baseURL: baseURL, httpClient: hc, logger: logger, now: now}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// call describes one API request.
type call struct {
	endpoint string // stable name for logs and metrics
	method   string
	path     string
	query    url.Values
	body     any
	authed   bool
}

// envelope is the API's standard response wrapper.
type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorCode"`
	Errors    json.RawMessage `json:"errors"`
	Timestamp string          `json:"timestamp"`
}

// do sends the call, refreshing credentials once on 401, and decodes the result into out.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	var creds Credentials
	token := ""
	if cl.authed {
		creds = CredentialsFrom(ctx)
		if creds != nil {
			token = creds.AccessToken()
		}
	}

	status, body, err := c.send(ctx, cl, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && creds != nil {
		// Credentials record the refresh attempt; it is not counted here.
		fresh, rerr := creds.Refresh(ctx)
		if rerr != nil {
			c.logger.WarnContext(ctx, "token refresh after 401 failed", "endpoint", cl.endpoint, "error", rerr)
			return fmt.Errorf("%w: %w", ErrSessionExpired, rerr)
		}
		status, body, err = c.send(ctx, cl, fresh)
		if err != nil {
			return err
		}
	}

	return decodeResponse(cl.endpoint, status, body, out)
}

func (c *Client) send(ctx context.Context, cl call, token string) (int, []byte, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal %s request: %w", cl.endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", cl.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(cl.endpoint, 0, c.now().Sub(start))
		return 0, nil, transportError(cl.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordUpstreamRequest(cl.endpoint, resp.StatusCode, c.now().Sub(start))
	if err != nil {
		return 0, nil, transportError(cl.endpoint, err)
	}
	return resp.StatusCode, data, nil
}

func transportError(endpoint string, err error) error {
	if mapped := apperrors.MapContextError(err); mapped != err {
		return mapped
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Wrapf(err, apperrors.ErrCodeTimeout, "booking API %s timed out", endpoint)
	}
	return apperrors.Wrapf(err, apperrors.ErrCodeUpstream, "booking API %s unreachable", endpoint)
}

func decodeResponse(endpoint string, status int, body []byte, out any) error {
	if status < 200 || status >= 300 {
		return statusError(endpoint, status, body)
	}

	data, env := unwrapEnvelope(body)
	if env != nil && strings.EqualFold(env.Status, "error") {
		return statusError(endpoint, status, body)
	}
	if out == nil {
		return nil
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeUpstream, "failed to decode %s response", endpoint)
	}
	return nil
}

// unwrapEnvelope returns the payload of an enveloped body, or the body itself
// when it is not enveloped. Only "success" and "error" mark an envelope, so a
// bare screening with "status":"ACTIVE" is left alone.
func unwrapEnvelope(body []byte) (json.RawMessage, *envelope) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed, nil
	}
	switch strings.ToLower(env.Status) {
	case "success", "error":
		return env.Data, &env
	default:
		return trimmed, nil
	}
}

func statusError(endpoint string, status int, body []byte) error {
	se := &StatusError{Endpoint: endpoint, Status: status}

	if _, env := unwrapEnvelope(body); env != nil {
		se.Code = env.ErrorCode
		se.Message = env.Message
	} else if msg := plainMessage(body); msg != "" {
		se.Message = msg
	}
	if se.Message == "" {
		se.Message = http.StatusText(status)
	}
	return apperrors.FromUpstream(status, se.Code, se.Message, se)
}

// plainMessage extracts {"message": ...} from non-enveloped error bodies, or
// returns short plain-text bodies verbatim.
func plainMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		var m struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(trimmed, &m) == nil {
			if m.Message != "" {
				return m.Message
			}
			return m.Error
		}
		return ""
	}
	if len(trimmed) > 200 || bytes.ContainsAny(trimmed, "<>") {
		return ""
	}
	return string(trimmed)
}
