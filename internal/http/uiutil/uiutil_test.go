package uiutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "05/03/2026", FormatDate(time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC)))
	assert.Equal(t, "18:30 05/03/2026", FormatDateTime(time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC)))
}

func TestFormatAPIDate(t *testing.T) {
	assert.Equal(t, "14/10/2026", FormatAPIDate("2026-10-14"))
	assert.Equal(t, "14/10/2026", FormatAPIDate("2026-10-14T19:00:00"))
	assert.Equal(t, "soon", FormatAPIDate("soon"))
	assert.Equal(t, "", FormatAPIDate(""))
}

func TestFormatDuration(t *testing.T) {
	tests := map[string]string{
		"148":      "2 giờ 28 phút",
		"120":      "2 giờ",
		"45":       "45 phút",
		" 90 ":     "1 giờ 30 phút",
		"2h 28m":   "2h 28m",
		"":         "",
		"0":        "0",
		"148 phút": "148 phút",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in), "input %q", in)
	}
}
