package querycache

import (
	"strconv"
	"strings"
)

// KeySeparator joins key parts into the stored key.
const KeySeparator = ":"

// Key identifies a cached query. Parts are joined with KeySeparator; the
// first two parts name the resource ("movies", "detail").
type Key []string

func (k Key) String() string { return strings.Join(k, KeySeparator) }

// Resource is the metrics label for the key, e.g. "movies.detail".
func (k Key) Resource() string {
	switch len(k) {
	case 0:
		return "unknown"
	case 1:
		return k[0]
	default:
		return k[0] + "." + k[1]
	}
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// MovieListKey caches one page of the catalog.
func MovieListKey(page, size int, sort string) Key {
	return Key{"movies", "list", strconv.Itoa(page), strconv.Itoa(size), sort}
}

// MovieDetailKey caches a single movie.
func MovieDetailKey(movieID int64) Key { return Key{"movies", "detail", id(movieID)} }

// MovieSearchKey caches search results; queries differing only in case or
// surrounding whitespace share an entry.
func MovieSearchKey(query string) Key {
	return Key{"movies", "search", strings.ToLower(strings.TrimSpace(query))}
}

// ScreeningsByMovieKey caches the screenings of a movie.
func ScreeningsByMovieKey(movieID int64) Key { return Key{"screenings", "byMovie", id(movieID)} }

// ScreeningDetailKey caches a single screening.
func ScreeningDetailKey(screeningID int64) Key { return Key{"screenings", "detail", id(screeningID)} }

// SeatsKey caches the seat map of a screening.
func SeatsKey(screeningID int64) Key { return Key{"screenings", "seats", id(screeningID)} }
