package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/target/cinema-ui/internal/domain/catalog"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/ports"
	"github.com/target/cinema-ui/internal/querycache"
)

const (
	// HomePageSize is the number of movies per home page.
	HomePageSize = 12
	// MinSearchLength is the query length a search needs to exceed to run.
	MinSearchLength = 2
)

// StaticShowtimes are offered when a movie has no scheduled screenings.
var StaticShowtimes = []string{"10:00", "13:00", "16:00", "19:00"}

// CatalogServiceOptions groups dependencies for CatalogService.
type CatalogServiceOptions struct {
	API   ports.CatalogAPI   // Required
	Cache *querycache.Client // Required

	SearchStaleTime time.Duration // zero keeps the cache default
	SeatsStaleTime  time.Duration

	Logger *slog.Logger
}

// CatalogService loads page data through the query cache. Authenticated
// endpoints use the credentials carried by ctx.
type CatalogService struct {
	api         ports.CatalogAPI
	cache       *querycache.Client
	searchStale []querycache.QueryOption
	seatsStale  []querycache.QueryOption
	logger      *slog.Logger
}

// NewCatalogService constructs a new CatalogService.
func NewCatalogService(opts CatalogServiceOptions) *CatalogService {
	if opts.API == nil {
		panic("CatalogAPI is required")
	}
	if opts.Cache == nil {
		panic("query cache is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &CatalogService{api: opts.API, cache: opts.Cache, logger: logger.With("component", "catalog")}
	if opts.SearchStaleTime > 0 {
		s.searchStale = []querycache.QueryOption{querycache.WithStaleTime(opts.SearchStaleTime)}
	}
	if opts.SeatsStaleTime > 0 {
		s.seatsStale = []querycache.QueryOption{querycache.WithStaleTime(opts.SeatsStaleTime)}
	}
	return s
}

// HomeQuery is the home page request. Page is one-based.
type HomeQuery struct {
	Page   int
	Sort   string
	Search string
}

// SearchActive reports whether the query is long enough to search.
func (q HomeQuery) SearchActive() bool {
	return utf8.RuneCountInString(strings.TrimSpace(q.Search)) > MinSearchLength
}

// HomeData is the movie grid of the home page.
type HomeData struct {
	Movies    []catalog.Movie
	Search    string
	Searching bool
	Page      int // one-based
	Pages     int
	Total     int64
}

// HasPrev reports whether a previous page exists.
func (d HomeData) HasPrev() bool { return !d.Searching && d.Page > 1 }

// HasNext reports whether another page follows.
func (d HomeData) HasNext() bool { return !d.Searching && d.Page < d.Pages }

// Home loads either search results or one page of the catalog.
func (s *CatalogService) Home(ctx context.Context, q HomeQuery) (HomeData, error) {
	if q.SearchActive() {
		term := strings.TrimSpace(q.Search)
		movies, err := querycache.Fetch(ctx, s.cache, querycache.MovieSearchKey(term),
			func(ctx context.Context) ([]catalog.Movie, error) { return s.api.SearchMovies(ctx, term) },
			s.searchStale...)
		if err != nil {
			return HomeData{}, fmt.Errorf("search movies: %w", err)
		}
		return HomeData{Movies: movies, Search: term, Searching: true, Page: 1, Pages: 1, Total: int64(len(movies))}, nil
	}

	page := max(q.Page, 1)
	query := catalog.MovieQuery{Page: page - 1, Size: HomePageSize, Sort: q.Sort}
	result, err := querycache.Fetch(ctx, s.cache, querycache.MovieListKey(query.Page, query.Size, query.Sort),
		func(ctx context.Context) (catalog.Page[catalog.Movie], error) { return s.api.ListMovies(ctx, query) })
	if err != nil {
		return HomeData{}, fmt.Errorf("list movies: %w", err)
	}
	return HomeData{
		Movies: result.Content,
		Search: strings.TrimSpace(q.Search),
		Page:   page,
		Pages:  max(result.TotalPages, 1),
		Total:  result.TotalElements,
	}, nil
}

// Movie loads a single movie.
func (s *CatalogService) Movie(ctx context.Context, id int64) (catalog.Movie, error) {
	if id <= 0 {
		return catalog.Movie{}, apperrors.NotFoundf("movie %d not found", id)
	}
	return querycache.Fetch(ctx, s.cache, querycache.MovieDetailKey(id),
		func(ctx context.Context) (catalog.Movie, error) { return s.api.GetMovie(ctx, id) })
}

// Screenings loads the screenings of a movie, ordered by start time.
func (s *CatalogService) Screenings(ctx context.Context, movieID int64) ([]catalog.Screening, error) {
	screenings, err := querycache.Fetch(ctx, s.cache, querycache.ScreeningsByMovieKey(movieID),
		func(ctx context.Context) ([]catalog.Screening, error) {
			list, err := s.api.ScreeningsByMovie(ctx, movieID)
			if err != nil {
				return nil, err
			}
			sorted := append([]catalog.Screening(nil), list...)
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start().Before(sorted[j].Start()) })
			return sorted, nil
		})
	if err != nil {
		return nil, err
	}
	return screenings, nil
}

// MovieDetailData is the movie detail page.
type MovieDetailData struct {
	Movie      catalog.Movie
	Screenings []catalog.Screening
	// ScreeningsErr is set when the movie loaded but its screenings did not.
	ScreeningsErr error
}

// MovieDetail loads the movie and its screenings concurrently. Only a movie
// failure fails the page.
func (s *CatalogService) MovieDetail(ctx context.Context, movieID int64) (MovieDetailData, error) {
	var (
		data MovieDetailData
		g    errgroup.Group
	)
	g.Go(func() error {
		m, err := s.Movie(ctx, movieID)
		data.Movie = m
		return err
	})
	g.Go(func() error {
		list, err := s.Screenings(ctx, movieID)
		data.Screenings, data.ScreeningsErr = list, err
		return nil
	})
	if err := g.Wait(); err != nil {
		return MovieDetailData{}, err
	}
	if data.ScreeningsErr != nil {
		s.logger.WarnContext(ctx, "screenings unavailable", "movie_id", movieID, "error", data.ScreeningsErr)
	}
	return data, nil
}

// Showtime is one selectable time on the booking page.
type Showtime struct {
	Label       string
	Format      string
	ScreeningID int64 // zero for static fallback times
	Selected    bool
	Bookable    bool
}

// BookingData is the booking page.
type BookingData struct {
	Movie     catalog.Movie
	Showtimes []Showtime
	Selected  *catalog.Screening
	// Fallback is true when the movie has no screenings and static times are shown.
	Fallback bool
}

// Booking loads the movie and the showtimes to pick from. screeningID
// selects a showtime; zero or an unknown id selects none.
func (s *CatalogService) Booking(ctx context.Context, movieID, screeningID int64) (BookingData, error) {
	detail, err := s.MovieDetail(ctx, movieID)
	if err != nil {
		return BookingData{}, err
	}

	data := BookingData{Movie: detail.Movie}
	if len(detail.Screenings) == 0 {
		data.Fallback = true
		for _, label := range StaticShowtimes {
			data.Showtimes = append(data.Showtimes, Showtime{Label: label})
		}
		return data, nil
	}

	for i := range detail.Screenings {
		sc := detail.Screenings[i]
		st := Showtime{
			Label:       sc.ShowTime(),
			Format:      sc.Format.Label(),
			ScreeningID: sc.ID,
			Bookable:    sc.Bookable(),
		}
		if sc.ID == screeningID && st.Bookable {
			st.Selected = true
			data.Selected = &detail.Screenings[i]
		}
		data.Showtimes = append(data.Showtimes, st)
	}
	return data, nil
}

// SeatMapData is the seat map fragment.
type SeatMapData struct {
	Screening catalog.Screening
	Seats     []catalog.Seat
}

// SeatMap loads a screening and its seats concurrently.
func (s *CatalogService) SeatMap(ctx context.Context, screeningID int64) (SeatMapData, error) {
	if screeningID <= 0 {
		return SeatMapData{}, apperrors.NotFoundf("screening %d not found", screeningID)
	}

	var data SeatMapData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sc, err := querycache.Fetch(gctx, s.cache, querycache.ScreeningDetailKey(screeningID),
			func(ctx context.Context) (catalog.Screening, error) { return s.api.GetScreening(ctx, screeningID) })
		data.Screening = sc
		return err
	})
	g.Go(func() error {
		seats, err := querycache.Fetch(gctx, s.cache, querycache.SeatsKey(screeningID),
			func(ctx context.Context) ([]catalog.Seat, error) { return s.api.SeatsByScreening(ctx, screeningID) },
			s.seatsStale...)
		data.Seats = seats
		return err
	})
	if err := g.Wait(); err != nil {
		return SeatMapData{}, err
	}
	if !data.Screening.Bookable() {
		return SeatMapData{}, apperrors.Validationf("screening %d is not open for booking", screeningID)
	}
	return data, nil
}
