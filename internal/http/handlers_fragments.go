package httpx

import (
	"net/http"
	"strings"

	"github.com/target/cinema-ui/internal/domain/gate"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/http/ui/viewmodel"
	"github.com/target/cinema-ui/internal/service"
)

// Fragment template names.
const (
	tmplMovieGrid       = "movie-grid"
	tmplSeatMap         = "seat-map"
	tmplFragmentPending = "fragment-pending"
)

// fragmentSession gates a fragment request. It reports false after writing
// a response: a pending placeholder that polls again while the session is
// being restored, or a redirect to login for signed out requests.
func (h *UIHandlers) fragmentSession(w http.ResponseWriter, r *http.Request) bool {
	st := stateFromRequest(r)
	switch {
	case st.Status.IsAuthenticated():
		return true
	case st.Status.IsLoading():
		h.renderFragment(w, r, tmplFragmentPending, map[string]any{
			"RetryURL":   r.URL.RequestURI(),
			"PollMillis": h.restorePoll().Milliseconds(),
		})
		return false
	default:
		p, rawQuery, _ := strings.Cut(redirectPathForRequest(r), "?")
		redirect(w, r, gate.LoginURL(p, rawQuery))
		return false
	}
}

// MoviesFragment handles GET /fragments/movies: the movie grid of the home
// page, either search results or one catalog page.
func (h *UIHandlers) MoviesFragment(w http.ResponseWriter, r *http.Request) {
	if !h.fragmentSession(w, r) {
		return
	}
	q := r.URL.Query()
	query := service.HomeQuery{
		Page:   max(parseIntQuery(r, "page", 1), 1),
		Sort:   q.Get("sort"),
		Search: q.Get("q"),
	}

	home, err := h.Catalog.Home(h.authContext(r), query)
	if err != nil {
		h.logger().WarnContext(r.Context(), "movie grid unavailable", "page", query.Page, "error", err)
		h.renderFragment(w, r, tmplMovieGrid, map[string]any{
			"Error":        true,
			"ErrorMessage": ErrorMessage(err),
			"RetryURL":     moviesFragmentURL(query),
		})
		return
	}

	b := &TemplateDataBuilder{data: map[string]any{}, r: r}
	b.With("Movies", viewmodel.NewMovieCards(home.Movies)).
		With("Searching", home.Searching).
		With("Search", home.Search).
		With("Total", home.Total).
		WithPagination(PageLinks{
			Page:     home.Page,
			Pages:    home.Pages,
			HasPrev:  home.HasPrev(),
			HasNext:  home.HasNext(),
			BasePath: gate.PathHome,
		})
	h.renderFragment(w, r, tmplMovieGrid, b.Build())
}

// SeatsFragment handles GET /fragments/seats/{screeningId}.
func (h *UIHandlers) SeatsFragment(w http.ResponseWriter, r *http.Request) {
	if !h.fragmentSession(w, r) {
		return
	}
	// Malformed ids resolve to 0, which the catalog reports as not found.
	id, _ := parseID(r.PathValue("screeningId"))

	sm, err := h.Catalog.SeatMap(h.authContext(r), id)
	if err != nil {
		msg := ErrorMessage(err)
		if apperrors.GetCode(err) == apperrors.ErrCodeValidation {
			msg = errMsgNotBookable
		}
		h.logger().WarnContext(r.Context(), "seat map unavailable", "screening_id", id, "error", err)
		h.renderFragment(w, r, tmplSeatMap, map[string]any{
			"Error":        true,
			"ErrorMessage": msg,
		})
		return
	}
	h.renderFragment(w, r, tmplSeatMap, map[string]any{
		"SeatMap": viewmodel.NewSeatMap(sm.Screening, sm.Seats, h.Prices),
	})
}
