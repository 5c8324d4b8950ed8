package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/target/cinema-ui/internal/domain/catalog"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// ListMovies returns a page of the movie catalog.
func (c *Client) ListMovies(ctx context.Context, q catalog.MovieQuery) (catalog.Page[catalog.Movie], error) {
	var out catalog.Page[catalog.Movie]
	err := c.do(ctx, call{
		endpoint: "movies.list",
		method:   http.MethodGet,
		path:     "/movies",
		query:    movieQueryValues(q),
	}, &out)
	return out, err
}

// GetMovie fetches a single movie.
func (c *Client) GetMovie(ctx context.Context, id int64) (catalog.Movie, error) {
	var out catalog.Movie
	err := c.do(ctx, call{endpoint: "movies.get", method: http.MethodGet, path: "/movies/" + strconv.FormatInt(id, 10)}, &out)
	return out, err
}

// SearchMovies returns the first page of movies matching query.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]catalog.Movie, error) {
	q := movieQueryValues(catalog.MovieQuery{Search: query, Size: maxPageSize})
	if query != "" {
		// older API builds filter on title instead of search
		q.Set("title", query)
	}
	var page catalog.Page[catalog.Movie]
	if err := c.do(ctx, call{endpoint: "movies.search", method: http.MethodGet, path: "/movies", query: q}, &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}

// ScreeningsByMovie lists the screenings of a movie.
func (c *Client) ScreeningsByMovie(ctx context.Context, movieID int64) ([]catalog.Screening, error) {
	var out []catalog.Screening
	err := c.do(ctx, call{
		endpoint: "screenings.by_movie",
		method:   http.MethodGet,
		path:     "/screenings/movie/" + strconv.FormatInt(movieID, 10),
		authed:   true,
	}, &out)
	return out, err
}

// GetScreening fetches a single screening.
func (c *Client) GetScreening(ctx context.Context, id int64) (catalog.Screening, error) {
	var out catalog.Screening
	err := c.do(ctx, call{
		endpoint: "screenings.get",
		method:   http.MethodGet,
		path:     "/screenings",
		query:    url.Values{"id": {strconv.FormatInt(id, 10)}},
		authed:   true,
	}, &out)
	return out, err
}

// SeatsByScreening lists the seats of a screening's auditorium.
func (c *Client) SeatsByScreening(ctx context.Context, screeningID int64) ([]catalog.Seat, error) {
	var out []catalog.Seat
	err := c.do(ctx, call{
		endpoint: "seats.by_screening",
		method:   http.MethodGet,
		path:     "/seats/screening/" + strconv.FormatInt(screeningID, 10),
		authed:   true,
	}, &out)
	return out, err
}

func movieQueryValues(q catalog.MovieQuery) url.Values {
	size := q.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := q.Page
	if page < 0 {
		page = 0
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("size", strconv.Itoa(size))
	setIf := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setIf("sort", q.Sort)
	setIf("search", q.Search)
	setIf("genre", q.Genre)
	setIf("status", q.Status)
	if q.YearFrom > 0 {
		v.Set("yearFrom", strconv.Itoa(q.YearFrom))
	}
	if q.YearTo > 0 {
		v.Set("yearTo", strconv.Itoa(q.YearTo))
	}
	return v
}
