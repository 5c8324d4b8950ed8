// Package uiutil formats catalog values for display in Vietnamese.
package uiutil

import (
	"strconv"
	"strings"
	"time"

	"github.com/target/cinema-ui/internal/domain/catalog"
)

const (
	DateLayout     = "02/01/2006"
	DateTimeLayout = "15:04 02/01/2006"
)

// FormatDate renders t as dd/mm/yyyy, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatDateTime renders t as hh:mm dd/mm/yyyy, or "" for the zero time.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}

// FormatAPIDate reformats an API date or date-time string as dd/mm/yyyy.
// Unparseable input is returned unchanged.
func FormatAPIDate(s string) string {
	t := catalog.ParseLocalTime(s)
	if t.IsZero() {
		return s
	}
	return FormatDate(t)
}

// FormatDuration renders a movie duration. Bare minute counts become
// "2 giờ 28 phút"; anything else is returned trimmed.
func FormatDuration(raw string) string {
	raw = strings.TrimSpace(raw)
	mins, err := strconv.Atoi(raw)
	if err != nil || mins <= 0 {
		return raw
	}
	h, m := mins/60, mins%60
	switch {
	case h == 0:
		return strconv.Itoa(m) + " phút"
	case m == 0:
		return strconv.Itoa(h) + " giờ"
	default:
		return strconv.Itoa(h) + " giờ " + strconv.Itoa(m) + " phút"
	}
}
