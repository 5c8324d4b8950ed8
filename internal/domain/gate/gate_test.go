package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/target/cinema-ui/internal/domain/auth"
)

func TestResolve_Checking(t *testing.T) {
	for _, p := range []string{"/", "/login", "/register", "/movie/1", "/nope", "/booking/2?screening=3"} {
		d := Resolve(auth.StatusChecking, p)
		assert.False(t, d.IsRedirect(), p)
		assert.Equal(t, ViewLoading, d.View, p)
		assert.Equal(t, TreeLoading, d.View.Tree(), p)
	}
}

func TestResolve_Unauthenticated(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		view     View
		redirect string
	}{
		{name: "login renders", target: "/login", view: ViewLogin},
		{name: "register renders", target: "/register", view: ViewRegister},
		{name: "trailing slash is ignored", target: "/login/", view: ViewLogin},
		{name: "root redirects without target", target: "/", redirect: "/login"},
		{name: "detail redirects with target", target: "/movie/5", redirect: "/login?redirect_uri=%2Fmovie%2F5"},
		{
			name:     "query is preserved",
			target:   "/booking/5?screening=9",
			redirect: "/login?redirect_uri=%2Fbooking%2F5%3Fscreening%3D9",
		},
		{name: "unknown path redirects", target: "/admin", redirect: "/login?redirect_uri=%2Fadmin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(auth.StatusUnauthenticated, tt.target)
			if tt.redirect != "" {
				assert.True(t, d.IsRedirect())
				assert.Equal(t, tt.redirect, d.Redirect)
				return
			}
			assert.False(t, d.IsRedirect())
			assert.Equal(t, tt.view, d.View)
			assert.Equal(t, TreeAuth, d.View.Tree())
		})
	}
}

func TestResolve_Authenticated(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		view     View
		params   map[string]string
		redirect string
	}{
		{name: "home", target: "/", view: ViewHome, params: map[string]string{}},
		{name: "movie detail", target: "/movie/12", view: ViewMovieDetail, params: map[string]string{"id": "12"}},
		{name: "movies alias", target: "/movies/12/", view: ViewMovieDetail, params: map[string]string{"id": "12"}},
		{
			name:   "booking with query",
			target: "/booking/4?screening=2",
			view:   ViewBooking,
			params: map[string]string{"movieId": "4"},
		},
		{name: "login redirects home", target: "/login", redirect: "/"},
		{name: "register redirects home", target: "/register?x=1", redirect: "/"},
		{name: "unmatched redirects home", target: "/does/not/exist", redirect: "/"},
		{name: "missing param redirects home", target: "/movie", redirect: "/"},
		{name: "dot segments are cleaned", target: "/booking/../movie/3", view: ViewMovieDetail, params: map[string]string{"id": "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(auth.StatusAuthenticated, tt.target)
			if tt.redirect != "" {
				assert.Equal(t, tt.redirect, d.Redirect)
				return
			}
			assert.False(t, d.IsRedirect())
			assert.Equal(t, tt.view, d.View)
			assert.Equal(t, TreeApp, d.View.Tree())
			assert.Equal(t, tt.params, d.Params)
		})
	}
}

// Every status/path pair selects exactly one tree or a redirect.
func TestResolve_ExactlyOneTree(t *testing.T) {
	paths := []string{"/", "/login", "/register", "/movie/1", "/booking/1", "/x", ""}
	statuses := []auth.Status{auth.StatusChecking, auth.StatusUnauthenticated, auth.StatusAuthenticated}

	for _, s := range statuses {
		for _, p := range paths {
			d := Resolve(s, p)
			if d.IsRedirect() {
				assert.NotEqual(t, auth.StatusChecking, s, "checking never redirects")
				continue
			}
			tree := d.View.Tree()
			switch s {
			case auth.StatusChecking:
				assert.Equal(t, TreeLoading, tree)
			case auth.StatusUnauthenticated:
				assert.Equal(t, TreeAuth, tree)
			case auth.StatusAuthenticated:
				assert.Equal(t, TreeApp, tree)
			}
		}
	}
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "/", CleanPath(""))
	assert.Equal(t, "/login", CleanPath("login/"))
	assert.Equal(t, "/a/b", CleanPath("/a//b/"))
}
