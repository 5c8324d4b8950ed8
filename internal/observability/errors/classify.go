package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/target/cinema-ui/internal/errors"
)

// Classify returns a normalized error class suitable for metric labels and logs.
// Application errors are labelled by their code; context errors by their kind;
// anything else by the innermost concrete type in snake_case-ish form.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return string(apperrors.ErrCodeTimeout)
	case goerrors.Is(err, context.Canceled):
		return string(apperrors.ErrCodeCanceled)
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
