package util

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func digits(s string) string {
	s = strings.TrimSuffix(s, vndSuffix)
	return strings.ReplaceAll(s, ".", "")
}

func TestFormatVND_ZeroCases(t *testing.T) {
	var nilInt *int
	var nilFloat *float64

	cases := []any{nil, nilInt, nilFloat, "abc", "12abc", "1_000", math.NaN(), math.Inf(1), math.Inf(-1), "Infinity", []int{1}}
	for _, c := range cases {
		assert.Equal(t, ZeroVND, FormatVND(c), "%#v", c)
	}
}

func TestFormatVND_Numbers(t *testing.T) {
	got := FormatVND(1000000)
	assert.True(t, strings.HasSuffix(got, " ₫"), got)
	assert.Equal(t, "1000000", digits(got))
	assert.Equal(t, "1.000.000 ₫", got)

	assert.Equal(t, "0 ₫", FormatVND(0))
	assert.Equal(t, "950 ₫", FormatVND(int64(950)))
	assert.Equal(t, "90.000 ₫", FormatVND(uint(90000)))
}

func TestFormatVND_RoundsToWholeDong(t *testing.T) {
	assert.Equal(t, "1.235 ₫", FormatVND(1234.5))
	assert.Equal(t, "1.234 ₫", FormatVND(1234.49))
	assert.Equal(t, "0 ₫", FormatVND(-0.2))
}

func TestFormatVND_Strings(t *testing.T) {
	assert.Equal(t, "250.000 ₫", FormatVND("250000"))
	assert.Equal(t, "250.000 ₫", FormatVND("  250000 "))
	assert.Equal(t, "0 ₫", FormatVND(""))
	assert.Equal(t, "0 ₫", FormatVND("   "))
	assert.Equal(t, "1.000 ₫", FormatVND("1e3"))
	assert.Equal(t, "255 ₫", FormatVND("0xff"))
}

func TestFormatVND_Pointers(t *testing.T) {
	n := 120000
	assert.Equal(t, "120.000 ₫", FormatVND(&n))
	s := "42"
	assert.Equal(t, "42 ₫", FormatVND(&s))
}

func TestFormatVND_Negative(t *testing.T) {
	got := FormatVND(-5000)
	assert.True(t, strings.HasPrefix(got, "-"), got)
	assert.Equal(t, "-5000", digits(got))
}
