package viewmodel

// Pagination drives the prev/next controls under the movie grid.
// Page is one-based.
type Pagination struct {
	Page    int
	Pages   int
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
}
