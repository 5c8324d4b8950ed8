package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/target/cinema-ui/internal/http/ui/viewmodel"
	"github.com/target/cinema-ui/internal/http/uiutil"
	"github.com/target/cinema-ui/internal/util"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

var viPrinter = message.NewPrinter(language.Vietnamese)

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":    deps.ContentTemplateFor,
		"slice":          func(nums ...int) []int { return nums },
		"add":            func(a, b int) int { return a + b },
		"sub":            func(a, b int) int { return a - b },
		"contains":       strings.Contains,
		"formatNumber":   FormatNumber,
		"formatVND":      util.FormatVND,
		"formatDate":     FormatDate,
		"formatDuration": uiutil.FormatDuration,
		"truncateText":   TruncateText,
		"breadcrumb":     Breadcrumb,
		"skeletons":      SkeletonCards,
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - output of our own html/template set; values already escaped
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// FormatNumber groups integer digits the Vietnamese way ("1.234.567").
// Non-integers are printed with fmt.
func FormatNumber(v any) string {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return viPrinter.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// FormatDate accepts a time.Time, *time.Time or API date string.
func FormatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return uiutil.FormatDate(t)
	case *time.Time:
		if t == nil {
			return ""
		}
		return uiutil.FormatDate(*t)
	case string:
		return uiutil.FormatAPIDate(t)
	default:
		return ""
	}
}

// Breadcrumb builds a trail from alternating label and target arguments:
// (breadcrumb "Trang chủ" "/" .Movie.Title ""). A trailing label without a
// target is allowed.
func Breadcrumb(pairs ...string) viewmodel.Breadcrumb {
	items := make([]viewmodel.BreadcrumbItem, 0, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		item := viewmodel.BreadcrumbItem{Label: pairs[i]}
		if i+1 < len(pairs) {
			item.To = pairs[i+1]
		}
		items = append(items, item)
	}
	return viewmodel.NewBreadcrumb(items...)
}

// SkeletonCards returns n placeholder cards of the named variant.
func SkeletonCards(variant string, n int) []viewmodel.SkeletonVariant {
	return viewmodel.Skeletons(viewmodel.SkeletonVariant(variant), n)
}

// TruncateText truncates a string to a maximum number of runes (not bytes),
// ending with an ellipsis when cut. maxLen may be any integer or float type.
func TruncateText(s string, maxLen any) string {
	n, ok := toIntSafe(maxLen)
	if !ok || n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return string(runes[:1])
	}
	return strings.TrimRight(string(runes[:n-1]), " ") + "…"
}

func toIntSafe(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	default:
		return 0, false
	}
}
