// Package mocks provides gomock implementations of the ports for service tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockCatalogAPI(ctrl)
//	api.EXPECT().GetMovie(gomock.Any(), int64(1)).Return(movie, nil)
package mocks

// AuthAPI: Login, Register, Refresh, GetUser, Profile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/target/cinema-ui/internal/ports AuthAPI

// CatalogAPI: ListMovies, GetMovie, SearchMovies, ScreeningsByMovie, GetScreening, SeatsByScreening
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=catalog_api_mock.go github.com/target/cinema-ui/internal/ports CatalogAPI
