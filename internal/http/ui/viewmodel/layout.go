// Package viewmodel holds the typed data handed to templates.
package viewmodel

// User represents the authenticated user context exposed to templates.
type User struct {
	Name    string
	Email   string
	Role    string
	Initial string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CurrentPath     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
	Sidebar         Sidebar
}
