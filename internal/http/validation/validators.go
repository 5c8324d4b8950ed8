// Package validation checks submitted form fields and produces Vietnamese
// messages keyed by field name.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
)

// Validator is a function that validates a string value and returns an error message if invalid.
type Validator func(v string) string

// Required validates that a field is not empty and does not exceed maxLen characters.
func Required(label string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return "Vui lòng nhập " + label + "."
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s không được vượt quá %d ký tự.", capitalize(label), maxLen)
		}
		return ""
	}
}

// RequiredRange validates that a field is not empty and is between minLen and maxLen characters.
func RequiredRange(label string, minLen, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return "Vui lòng nhập " + label + "."
		}
		n := utf8.RuneCountInString(v)
		if n < minLen || n > maxLen {
			return fmt.Sprintf("%s phải từ %d đến %d ký tự.", capitalize(label), minLen, maxLen)
		}
		return ""
	}
}

// MinLength validates that a non-empty value has at least minLen characters.
// Whitespace is significant, as it is for passwords.
func MinLength(label string, minLen int) Validator {
	return func(v string) string {
		if v == "" {
			return "Vui lòng nhập " + label + "."
		}
		if utf8.RuneCountInString(v) < minLen {
			return fmt.Sprintf("%s phải có ít nhất %d ký tự.", capitalize(label), minLen)
		}
		return ""
	}
}

// Email validates a bare email address.
func Email(label string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return "Vui lòng nhập " + label + "."
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v || !strings.Contains(v[strings.LastIndex(v, "@")+1:], ".") {
			return capitalize(label) + " không hợp lệ."
		}
		return ""
	}
}

// Phone validates an optional phone number, reading numbers without a
// country code as belonging to region (e.g. "VN").
func Phone(label, region string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		num, err := phonenumbers.Parse(v, region)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			return capitalize(label) + " không hợp lệ."
		}
		return ""
	}
}

// PastDate validates an optional yyyy-mm-dd date that is not after now().
func PastDate(label string, now func() time.Time) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return capitalize(label) + " không hợp lệ."
		}
		if d.After(now()) {
			return capitalize(label) + " không được ở tương lai."
		}
		return ""
	}
}

// Optional validates that an optional field does not exceed maxLen characters if provided.
func Optional(label string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s không được vượt quá %d ký tự.", capitalize(label), maxLen)
		}
		return ""
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}

// FieldValidator provides a fluent API for validating multiple fields.
type FieldValidator struct {
	errors map[string]string
}

// New creates a new FieldValidator instance.
func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate validates a field with one or more validators.
// It stops at the first error for each field.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	for _, v := range validators {
		if err := v(value); err != "" {
			fv.errors[field] = err
			break
		}
	}
	return fv
}

// Valid reports whether no field failed.
func (fv *FieldValidator) Valid() bool {
	return len(fv.errors) == 0
}

// Errors returns the accumulated validation errors.
func (fv *FieldValidator) Errors() map[string]string {
	return fv.errors
}
