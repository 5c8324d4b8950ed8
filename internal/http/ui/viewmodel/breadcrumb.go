package viewmodel

// BreadcrumbItem is one step of a breadcrumb trail. To is optional.
type BreadcrumbItem struct {
	Label string
	To    string
}

// Crumb is a BreadcrumbItem with its rendering decided.
type Crumb struct {
	Label  string
	To     string
	IsLast bool
	// IsLink is true for non-final items that have a target.
	IsLink bool
}

// Breadcrumb is the view model of partials/breadcrumb.tmpl.
type Breadcrumb struct {
	Class string
	Items []Crumb
}

// NewBreadcrumb lays out items in order. The last item is always rendered as
// the current page, regardless of To.
func NewBreadcrumb(items ...BreadcrumbItem) Breadcrumb {
	crumbs := make([]Crumb, len(items))
	for i, it := range items {
		last := i == len(items)-1
		crumbs[i] = Crumb{
			Label:  it.Label,
			To:     it.To,
			IsLast: last,
			IsLink: !last && it.To != "",
		}
	}
	return Breadcrumb{Items: crumbs}
}

// WithClass returns a copy with an extra CSS class on the nav element.
func (b Breadcrumb) WithClass(class string) Breadcrumb {
	b.Class = class
	return b
}
