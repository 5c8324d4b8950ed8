// Package catalog holds the read-only booking catalog types served by the API:
// movies, screenings, seats, and the booking record shapes.
package catalog

import (
	"strings"
	"time"
)

// LocalDateTimeLayout is the zone-less timestamp format emitted by the API.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// LocalDateLayout is the date-only format emitted by the API.
const LocalDateLayout = "2006-01-02"

// Movie is a catalog entry.
type Movie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Director    string `json:"director"`
	Actors      string `json:"actors"`
	Genres      string `json:"genres"`
	ReleaseDate string `json:"releaseDate"`
	Duration    string `json:"duration"`
	Language    string `json:"language"`
	Rated       string `json:"rated"`
	Description string `json:"description"`
}

// GenreList splits the comma separated genre string.
func (m Movie) GenreList() []string {
	return splitList(m.Genres)
}

// ActorList splits the comma separated actor string.
func (m Movie) ActorList() []string {
	return splitList(m.Actors)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Page is a page of results. CurrentPage is zero-based.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	CurrentPage   int   `json:"currentPage"`
	PageSize      int   `json:"pageSize"`
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool { return p.CurrentPage+1 < p.TotalPages }

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.CurrentPage > 0 }

// MovieQuery filters the movie listing.
type MovieQuery struct {
	Page     int    // zero-based
	Size     int
	Sort     string // "field,ASC|DESC"
	Search   string
	Genre    string
	YearFrom int
	YearTo   int
	Status   string
}

// ScreeningFormat is the projection format of a screening.
type ScreeningFormat string

const (
	FormatIMAX   ScreeningFormat = "IMAX"
	FormatTwoD   ScreeningFormat = "TwoD"
	FormatThreeD ScreeningFormat = "ThreeD"
)

// Label is the human readable form.
func (f ScreeningFormat) Label() string {
	switch f {
	case FormatIMAX:
		return "IMAX"
	case FormatTwoD:
		return "2D"
	case FormatThreeD:
		return "3D"
	default:
		return string(f)
	}
}

// ScreeningStatus is the lifecycle status of a screening.
type ScreeningStatus string

const (
	ScreeningActive    ScreeningStatus = "ACTIVE"
	ScreeningCancelled ScreeningStatus = "CANCELLED"
	ScreeningFinished  ScreeningStatus = "FINISHED"
)

// Screening is one showing of a movie in an auditorium.
type Screening struct {
	ID             int64           `json:"id"`
	StartTime      string          `json:"startTime"`
	EndTime        string          `json:"endTime"`
	Format         ScreeningFormat `json:"format"`
	Status         ScreeningStatus `json:"status"`
	MovieID        int64           `json:"movieId"`
	MovieTitle     string          `json:"movieTitle"`
	AuditoriumID   int64           `json:"auditoriumId"`
	AuditoriumName string          `json:"auditoriumName"`
	Seats          []Seat          `json:"seats,omitempty"`
}

// Bookable reports whether seats can be viewed for booking.
func (s Screening) Bookable() bool { return s.Status == ScreeningActive || s.Status == "" }

// Start parses StartTime; the zero time is returned when it is malformed.
func (s Screening) Start() time.Time { return ParseLocalTime(s.StartTime) }

// ShowTime is the HH:MM label for the start of the screening.
func (s Screening) ShowTime() string {
	t := s.Start()
	if t.IsZero() {
		return s.StartTime
	}
	return t.Format("15:04")
}

// SeatType distinguishes regular seats from couple seats.
type SeatType string

const (
	SeatNormal   SeatType = "NORMAL"
	SeatSweetbox SeatType = "SWEETBOX"
)

// Seat is a physical seat in an auditorium.
type Seat struct {
	ID             int64    `json:"id"`
	RowLabel       string   `json:"rowLabel"`
	Number         int      `json:"number"`
	SeatType       SeatType `json:"seatType"`
	AuditoriumID   int64    `json:"auditoriumId"`
	AuditoriumName string   `json:"auditoriumName"`
}

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// PaymentStatus is the payment state attached to a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Booking is rendered only; the frontend never creates one.
type Booking struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"userId"`
	MovieID       int64         `json:"movieId"`
	ShowtimeID    int64         `json:"showtimeId"`
	SeatIDs       []int64       `json:"seatIds"`
	TotalAmount   float64       `json:"totalAmount"`
	Status        BookingStatus `json:"status"`
	BookingTime   string        `json:"bookingTime"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// ParseLocalTime parses an API local date-time, tolerating fractional seconds
// and date-only values. It returns the zero time on failure.
func ParseLocalTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{LocalDateTimeLayout, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04", LocalDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
