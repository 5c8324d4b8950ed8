package httpx

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/target/cinema-ui/internal/domain/gate"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/http/ui/viewmodel"
	"github.com/target/cinema-ui/internal/observability/metrics"
	"github.com/target/cinema-ui/internal/service"
)

const homeSkeletonCount = service.HomePageSize

// Gate serves every in-app navigation. The session status decides, through
// gate.Resolve, whether the loading screen, an auth page or an app page is
// shown, or where the browser is sent instead.
func (h *UIHandlers) Gate(w http.ResponseWriter, r *http.Request) {
	st := stateFromRequest(r)
	d := gate.Resolve(st.Status, r.URL.RequestURI())

	tree := "redirect"
	if !d.IsRedirect() {
		tree = d.View.Tree().String()
	}
	metrics.RecordGateDecision(st.Status.String(), tree)

	if d.IsRedirect() {
		redirect(w, r, d.Redirect)
		return
	}

	switch d.View {
	case gate.ViewLoading:
		h.loadingPage(w, r)
	case gate.ViewLogin:
		h.loginPage(w, r, authForm{Redirect: formRedirect(r)})
	case gate.ViewRegister:
		h.registerPage(w, r, authForm{Redirect: formRedirect(r)})
	case gate.ViewHome:
		h.homePage(w, r)
	case gate.ViewMovieDetail:
		h.movieDetailPage(w, r, d.Param("id"))
	case gate.ViewBooking:
		h.bookingPage(w, r, d.Param("movieId"))
	default:
		h.NotFound(w, r)
	}
}

// loadingPage is shown while a session is being restored. It polls the same
// URL: a meta refresh on full loads, an htmx trigger on partial ones.
func (h *UIHandlers) loadingPage(w http.ResponseWriter, r *http.Request) {
	poll := h.restorePoll()
	data := NewTemplateData(r, PageMeta{
		Title:       "Đang tải…",
		PageTitle:   "Đang tải…",
		CurrentPage: PageLoading,
	}).
		With("RetryURL", safeRedirectPath(r.URL.RequestURI())).
		With("PollMillis", poll.Milliseconds()).
		With("RefreshSeconds", int(math.Ceil(poll.Seconds()))).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

func (h *UIHandlers) homePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.HomeQuery{
		Page:   max(parseIntQuery(r, "page", 1), 1),
		Sort:   strings.TrimSpace(q.Get("sort")),
		Search: strings.TrimSpace(q.Get("q")),
	}

	data := NewTemplateData(r, PageMeta{
		Title:       "Phim đang chiếu",
		PageTitle:   "Phim đang chiếu",
		CurrentPage: PageHome,
	}).
		With("Search", query.Search).
		With("Sort", query.Sort).
		With("SearchTooShort", query.Search != "" && !query.SearchActive()).
		With("GridURL", moviesFragmentURL(query)).
		With("Skeletons", viewmodel.Skeletons(viewmodel.SkeletonGrid, homeSkeletonCount)).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

func (h *UIHandlers) movieDetailPage(w http.ResponseWriter, r *http.Request, rawID string) {
	id, ok := parseID(rawID)
	if !ok {
		h.NotFound(w, r)
		return
	}
	meta := PageMeta{Title: "Chi tiết phim", PageTitle: "Chi tiết phim", CurrentPage: PageMovieDetail}

	detail, err := h.Catalog.MovieDetail(h.authContext(r), id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			h.NotFound(w, r)
			return
		}
		h.logger().WarnContext(r.Context(), "movie detail unavailable", "movie_id", id, "error", err)
		h.renderPageError(w, r, meta, err, nil)
		return
	}

	meta.Title = detail.Movie.Title
	b := NewTemplateData(r, meta).
		With("Movie", detail.Movie).
		With("Screenings", viewmodel.NewScreeningLinks(id, detail.Screenings)).
		With("BookingURL", viewmodel.BookingURL(id, 0))
	if detail.ScreeningsErr != nil {
		b.With("ScreeningsError", ErrorMessage(detail.ScreeningsErr))
	}
	h.renderPage(w, r, http.StatusOK, b.Build())
}

func (h *UIHandlers) bookingPage(w http.ResponseWriter, r *http.Request, rawID string) {
	movieID, ok := parseID(rawID)
	if !ok {
		h.NotFound(w, r)
		return
	}
	screeningID := max(int64(parseIntQuery(r, "screening", 0)), 0)
	meta := PageMeta{Title: "Đặt vé", PageTitle: "Đặt vé", CurrentPage: PageBooking}

	booking, err := h.Catalog.Booking(h.authContext(r), movieID, screeningID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			h.NotFound(w, r)
			return
		}
		h.logger().WarnContext(r.Context(), "booking page unavailable", "movie_id", movieID, "error", err)
		h.renderPageError(w, r, meta, err, nil)
		return
	}

	meta.Title = "Đặt vé - " + booking.Movie.Title
	b := NewTemplateData(r, meta).
		With("Movie", booking.Movie).
		With("MovieURL", viewmodel.MovieURL(movieID)).
		With("Showtimes", showtimeOptions(movieID, booking.Showtimes)).
		With("Fallback", booking.Fallback).
		With("Prices", h.Prices)
	if booking.Selected != nil {
		b.With("Selected", booking.Selected).
			With("SeatsURL", PathSeatsFragment+strconv.FormatInt(booking.Selected.ID, 10))
	}
	h.renderPage(w, r, http.StatusOK, b.Build())
}

func showtimeOptions(movieID int64, showtimes []service.Showtime) []viewmodel.ShowtimeOption {
	opts := make([]viewmodel.ShowtimeOption, 0, len(showtimes))
	for _, st := range showtimes {
		opt := viewmodel.ShowtimeOption{Label: st.Label, Format: st.Format, Selected: st.Selected}
		if st.ScreeningID > 0 && st.Bookable {
			opt.URL = viewmodel.BookingURL(movieID, st.ScreeningID)
		}
		opts = append(opts, opt)
	}
	return opts
}

func moviesFragmentURL(q service.HomeQuery) string {
	v := url.Values{}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if len(v) == 0 {
		return PathMoviesFragment
	}
	return PathMoviesFragment + "?" + v.Encode()
}

// parseID accepts positive decimal ids only.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
