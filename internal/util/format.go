package util //nolint:revive // package name util hosts shared formatting helpers used across HTTP templates

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// vndSuffix is a no-break space followed by the dong sign, as vi-VN currency formatting emits it.
const vndSuffix = " ₫"

// ZeroVND is the rendering of absent or non-numeric amounts.
const ZeroVND = "0" + vndSuffix

var viPrinter = message.NewPrinter(language.Vietnamese)

// FormatVND formats an amount as Vietnamese dong with "." thousands grouping
// and no fraction digits. nil, nil pointers, non-numeric strings and
// non-finite numbers render as ZeroVND. It never panics.
func FormatVND(v any) string {
	f, ok := toNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return ZeroVND
	}
	f = math.Round(f)
	if f == 0 {
		f = 0 // drop negative zero
	}
	return viPrinter.Sprint(number.Decimal(f, number.MaxFractionDigits(0))) + vndSuffix
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case string:
		return parseNumberString(n)
	case json.Number:
		return parseNumberString(n.String())
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		return parseNumberString(rv.String())
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// parseNumberString follows string-to-number coercion rules of the browser:
// surrounding whitespace is ignored, the empty string is zero, and 0x/0o/0b
// integer literals are accepted.
func parseNumberString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if strings.Contains(s, "_") {
		return 0, false
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(u), true
		}
	}

	// ParseFloat also understands "Inf" and "NaN"; those are rejected by the caller.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
