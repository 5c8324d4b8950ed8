package config

import "time"

// AuthConfig groups session and token handling configuration.
type AuthConfig struct {
	// SessionTTL bounds the lifetime of a browser session record.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"168h"`

	// VerifyInterval is how long a verified session is trusted before the
	// access token is checked against the API again.
	VerifyInterval time.Duration `env:"AUTH_VERIFY_INTERVAL" envDefault:"5m"`

	// RestoreWait is how long a request waits on an outstanding session check
	// before the loading view is rendered instead.
	RestoreWait time.Duration `env:"AUTH_RESTORE_WAIT" envDefault:"300ms"`

	// RestorePoll is the refresh interval of the loading view.
	RestorePoll time.Duration `env:"AUTH_RESTORE_POLL" envDefault:"1s"`

	// RefreshThreshold is the remaining access token lifetime below which a
	// refresh is attempted.
	RefreshThreshold time.Duration `env:"AUTH_REFRESH_THRESHOLD" envDefault:"300s"`

	// RefreshInterval is the tick of the background session refresher.
	RefreshInterval time.Duration `env:"AUTH_REFRESH_INTERVAL" envDefault:"60s"`

	// RefreshConcurrency caps parallel refreshes per tick.
	RefreshConcurrency int `env:"AUTH_REFRESH_CONCURRENCY" envDefault:"4"`

	// LoginRate is the sustained login/register attempts per second per client.
	LoginRate float64 `env:"AUTH_LOGIN_RATE" envDefault:"1"`

	// LoginBurst is the number of attempts allowed in a burst.
	LoginBurst int `env:"AUTH_LOGIN_BURST" envDefault:"5"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL < time.Minute {
		a.SessionTTL = time.Minute
	}
	if a.VerifyInterval < 0 {
		a.VerifyInterval = 0
	}
	if a.RestoreWait < 0 {
		a.RestoreWait = 0
	}
	if a.RestorePoll < 100*time.Millisecond {
		a.RestorePoll = 100 * time.Millisecond
	}
	if a.RefreshThreshold < 0 {
		a.RefreshThreshold = 0
	}
	if a.RefreshInterval < time.Second {
		a.RefreshInterval = time.Second
	}
	if a.RefreshConcurrency < 1 {
		a.RefreshConcurrency = 1
	}
	if a.LoginRate <= 0 {
		a.LoginRate = 1
	}
	if a.LoginBurst < 1 {
		a.LoginBurst = 1
	}
}
