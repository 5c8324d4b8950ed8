package viewmodel

import (
	"sort"
	"strconv"

	"github.com/target/cinema-ui/internal/domain/catalog"
)

// SeatPrices are the per-type ticket prices in dong.
type SeatPrices struct {
	Normal   int64
	Sweetbox int64
}

// For returns the price of a seat type. Unknown types cost the normal price.
func (p SeatPrices) For(t catalog.SeatType) int64 {
	if t == catalog.SeatSweetbox {
		return p.Sweetbox
	}
	return p.Normal
}

// SeatCell is a single seat in the map.
type SeatCell struct {
	ID       int64
	Number   int
	Label    string
	Sweetbox bool
	Price    int64
}

// SeatRow is one labelled row of seats, ordered by number.
type SeatRow struct {
	Label string
	Seats []SeatCell
}

// SeatMap is the view model of partials/seat-map.tmpl.
type SeatMap struct {
	ScreeningID int64
	Auditorium  string
	ShowTime    string
	Format      string
	Rows        []SeatRow
	Prices      SeatPrices
	Normal      int
	Sweetbox    int
}

// NewSeatMap groups seats by row label. Rows and seats are sorted.
func NewSeatMap(sc catalog.Screening, seats []catalog.Seat, prices SeatPrices) SeatMap {
	byRow := map[string][]SeatCell{}
	sm := SeatMap{
		ScreeningID: sc.ID,
		Auditorium:  sc.AuditoriumName,
		ShowTime:    sc.ShowTime(),
		Format:      sc.Format.Label(),
		Prices:      prices,
	}
	for _, s := range seats {
		sweet := s.SeatType == catalog.SeatSweetbox
		if sweet {
			sm.Sweetbox++
		} else {
			sm.Normal++
		}
		byRow[s.RowLabel] = append(byRow[s.RowLabel], SeatCell{
			ID:       s.ID,
			Number:   s.Number,
			Label:    s.RowLabel + strconv.Itoa(s.Number),
			Sweetbox: sweet,
			Price:    prices.For(s.SeatType),
		})
		if sm.Auditorium == "" {
			sm.Auditorium = s.AuditoriumName
		}
	}

	labels := make([]string, 0, len(byRow))
	for l := range byRow {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		cells := byRow[l]
		sort.SliceStable(cells, func(i, j int) bool { return cells[i].Number < cells[j].Number })
		sm.Rows = append(sm.Rows, SeatRow{Label: l, Seats: cells})
	}
	return sm
}

// Empty reports whether the screening has no seats to show.
func (m SeatMap) Empty() bool { return len(m.Rows) == 0 }
