package loadtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	defaultBrowserVUs      = 10
	defaultBrowserDuration = 30 * time.Second
	defaultPageTimeout     = 30 * time.Second

	// headerSelector is the element every page renders once the shell loads.
	headerSelector = "header"
)

// BrowserOptions configures the headless-Chrome scenario.
type BrowserOptions struct {
	BaseURL  string
	VUs      int
	Duration time.Duration
	// ControlURL attaches to a running Chrome instead of launching one.
	ControlURL string
	// Bin overrides the Chrome binary the launcher starts.
	Bin         string
	PageTimeout time.Duration
	Sleep       time.Duration
}

// BrowserScenario opens the frontend in headless Chrome and checks that
// the page header becomes visible.
func BrowserScenario(opts BrowserOptions) Scenario {
	vus := opts.VUs
	if vus <= 0 {
		vus = defaultBrowserVUs
	}
	dur := opts.Duration
	if dur <= 0 {
		dur = defaultBrowserDuration
	}
	pageTimeout := opts.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = defaultPageTimeout
	}
	target := opts.BaseURL
	if target == "" {
		target = "http://localhost:3000"
	}

	var browser *rod.Browser
	return Scenario{
		Name:   ScenarioBrowser,
		Stages: []Stage{{Target: vus}, {Duration: dur, Target: vus}},
		Sleep:  opts.Sleep,
		Thresholds: []ThresholdSpec{
			{Metric: MetricChecks, Expr: "rate==1.0"},
		},
		Setup: func(ctx context.Context) (func(), error) {
			b, teardown, err := connectBrowser(ctx, opts)
			if err != nil {
				return nil, err
			}
			browser = b
			return teardown, nil
		},
		Exec: func(ctx context.Context, vu *VU) error {
			if browser == nil {
				return errors.New("browser not connected")
			}
			start := time.Now()
			visible, err := headerVisible(ctx, browser, target, pageTimeout)
			vu.metrics.AddRequest(time.Since(start), err != nil, 0)
			vu.Check(err == nil && visible)
			return err
		},
	}
}

func connectBrowser(ctx context.Context, opts BrowserOptions) (*rod.Browser, func(), error) {
	controlURL := opts.ControlURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(true)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}
	return browser, func() {
		_ = browser.Close()
		if l != nil {
			l.Cleanup()
		}
	}, nil
}

// headerVisible loads target in a fresh incognito page and reports whether
// the header element is visible.
func headerVisible(ctx context.Context, browser *rod.Browser, target string, timeout time.Duration) (bool, error) {
	incognito, err := browser.Incognito()
	if err != nil {
		return false, fmt.Errorf("incognito context: %w", err)
	}
	defer func() { _ = incognito.Close() }()

	page, err := incognito.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return false, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(timeout)
	if err := page.WaitLoad(); err != nil {
		return false, fmt.Errorf("wait load: %w", err)
	}
	el, err := page.Element(headerSelector)
	if err != nil {
		return false, fmt.Errorf("find %s: %w", headerSelector, err)
	}
	return el.Visible()
}
