// Package gate decides, from the session status and the requested path,
// which route tree is mounted for a navigation.
//
// Exactly one of the loading view, the auth pages, or the application
// pages is selected for any (status, path) pair.
package gate

import (
	"net/url"
	"path"
	"strings"

	"github.com/target/cinema-ui/internal/domain/auth"
)

// Well-known paths.
const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
)

// RedirectParam carries the originally requested target to the login page.
const RedirectParam = "redirect_uri"

// Tree identifies the mounted route tree.
type Tree int

const (
	TreeLoading Tree = iota
	TreeAuth
	TreeApp
)

func (t Tree) String() string {
	switch t {
	case TreeLoading:
		return "loading"
	case TreeAuth:
		return "auth"
	case TreeApp:
		return "app"
	default:
		return "unknown"
	}
}

// View is a single renderable page.
type View int

const (
	ViewLoading View = iota
	ViewLogin
	ViewRegister
	ViewHome
	ViewMovieDetail
	ViewBooking
)

// Tree returns the route tree the view belongs to.
func (v View) Tree() Tree {
	switch v {
	case ViewLogin, ViewRegister:
		return TreeAuth
	case ViewHome, ViewMovieDetail, ViewBooking:
		return TreeApp
	default:
		return TreeLoading
	}
}

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewHome:
		return "home"
	case ViewMovieDetail:
		return "movie-detail"
	case ViewBooking:
		return "booking"
	default:
		return "unknown"
	}
}

// Decision is the outcome of gating one navigation. When Redirect is set
// the View is meaningless and the browser is sent to Redirect instead.
type Decision struct {
	View     View
	Params   map[string]string
	Redirect string
}

// IsRedirect reports whether the navigation must be redirected.
func (d Decision) IsRedirect() bool { return d.Redirect != "" }

// Param returns a named route parameter.
func (d Decision) Param(name string) string { return d.Params[name] }

// route is a path pattern; segments starting with ':' capture a parameter.
type route struct {
	segments []string
	view     View
}

var appRoutes = []route{
	{segments: nil, view: ViewHome},
	{segments: []string{"movie", ":id"}, view: ViewMovieDetail},
	{segments: []string{"movies", ":id"}, view: ViewMovieDetail},
	{segments: []string{"booking", ":movieId"}, view: ViewBooking},
}

// Resolve gates a navigation to target, a request URI such as
// "/booking/3?screening=5", for the given session status.
func Resolve(status auth.Status, target string) Decision {
	p, rawQuery := splitTarget(target)

	switch status {
	case auth.StatusAuthenticated:
		if p == PathLogin || p == PathRegister {
			return Decision{Redirect: PathHome}
		}
		if view, params, ok := matchApp(p); ok {
			return Decision{View: view, Params: params}
		}
		return Decision{Redirect: PathHome}

	case auth.StatusUnauthenticated:
		switch p {
		case PathLogin:
			return Decision{View: ViewLogin}
		case PathRegister:
			return Decision{View: ViewRegister}
		}
		return Decision{Redirect: LoginURL(p, rawQuery)}

	default:
		return Decision{View: ViewLoading}
	}
}

// LoginURL builds the login redirect preserving a non-root original target.
func LoginURL(p, rawQuery string) string {
	if p == "" || p == PathHome {
		return PathLogin
	}
	original := p
	if rawQuery != "" {
		original += "?" + rawQuery
	}
	return PathLogin + "?" + RedirectParam + "=" + url.QueryEscape(original)
}

// CleanPath normalizes a request path: rooted, no dot segments, no trailing slash.
func CleanPath(p string) string {
	if p == "" {
		return PathHome
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func splitTarget(target string) (string, string) {
	rawPath, rawQuery, _ := strings.Cut(target, "?")
	if u, err := url.PathUnescape(rawPath); err == nil {
		rawPath = u
	}
	return CleanPath(rawPath), rawQuery
}

func matchApp(p string) (View, map[string]string, bool) {
	var parts []string
	if trimmed := strings.Trim(p, "/"); trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	for _, r := range appRoutes {
		if len(r.segments) != len(parts) {
			continue
		}
		params := map[string]string{}
		matched := true
		for i, seg := range r.segments {
			if strings.HasPrefix(seg, ":") {
				params[seg[1:]] = parts[i]
				continue
			}
			if seg != parts[i] {
				matched = false
				break
			}
		}
		if matched {
			return r.view, params, true
		}
	}
	return 0, nil, false
}
