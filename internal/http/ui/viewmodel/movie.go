package viewmodel

import (
	"strconv"

	"github.com/target/cinema-ui/internal/domain/catalog"
)

// MovieCard is one entry of the movie grid.
type MovieCard struct {
	ID       int64
	Title    string
	Genres   []string
	Duration string
	Rated    string
	Language string
	URL      string
}

// NewMovieCards converts API movies to grid cards.
func NewMovieCards(movies []catalog.Movie) []MovieCard {
	cards := make([]MovieCard, 0, len(movies))
	for _, m := range movies {
		cards = append(cards, MovieCard{
			ID:       m.ID,
			Title:    m.Title,
			Genres:   m.GenreList(),
			Duration: m.Duration,
			Rated:    m.Rated,
			Language: m.Language,
			URL:      MovieURL(m.ID),
		})
	}
	return cards
}

// MovieURL is the detail page of a movie.
func MovieURL(id int64) string { return "/movie/" + strconv.FormatInt(id, 10) }

// BookingURL is the booking page of a movie, optionally with a screening selected.
func BookingURL(movieID, screeningID int64) string {
	u := "/booking/" + strconv.FormatInt(movieID, 10)
	if screeningID > 0 {
		u += "?screening=" + strconv.FormatInt(screeningID, 10)
	}
	return u
}

// ScreeningLink is a screening listed on the movie detail page.
type ScreeningLink struct {
	ID         int64
	Date       string
	Time       string
	Format     string
	Auditorium string
	Bookable   bool
	URL        string
}

// NewScreeningLinks lists screenings with their booking links, earliest first.
func NewScreeningLinks(movieID int64, screenings []catalog.Screening) []ScreeningLink {
	links := make([]ScreeningLink, 0, len(screenings))
	for _, sc := range screenings {
		date := ""
		if t := sc.Start(); !t.IsZero() {
			date = t.Format("02/01/2006")
		}
		links = append(links, ScreeningLink{
			ID:         sc.ID,
			Date:       date,
			Time:       sc.ShowTime(),
			Format:     sc.Format.Label(),
			Auditorium: sc.AuditoriumName,
			Bookable:   sc.Bookable(),
			URL:        BookingURL(movieID, sc.ID),
		})
	}
	return links
}

// ShowtimeOption is one time button on the booking page. URL is empty for
// times that cannot be selected.
type ShowtimeOption struct {
	Label    string
	Format   string
	Selected bool
	URL      string
}
