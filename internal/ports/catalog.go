package ports

import (
	"context"

	"github.com/target/cinema-ui/internal/domain/catalog"
)

// CatalogAPI is the read-only catalog surface of the booking API.
// Calls use the credentials carried by ctx when the endpoint requires them.
type CatalogAPI interface {
	ListMovies(ctx context.Context, q catalog.MovieQuery) (catalog.Page[catalog.Movie], error)
	GetMovie(ctx context.Context, id int64) (catalog.Movie, error)
	SearchMovies(ctx context.Context, query string) ([]catalog.Movie, error)
	ScreeningsByMovie(ctx context.Context, movieID int64) ([]catalog.Screening, error)
	GetScreening(ctx context.Context, id int64) (catalog.Screening, error)
	SeatsByScreening(ctx context.Context, screeningID int64) ([]catalog.Seat, error)
}
