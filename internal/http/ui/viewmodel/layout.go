package viewmodel

// User is the signed-in user as shown in the navigation bar.
type User struct {
	ID          int64
	DisplayName string
	Email       string
	IsAdmin     bool
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	// HideHeader drops the navigation bar; the home page renders its own hero.
	HideHeader bool
	// Bare renders only the page body, without header, navigation or footer.
	Bare bool
	User *User
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}
