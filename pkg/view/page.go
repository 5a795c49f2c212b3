// Package view holds the data handed to the HTML templates.
package view

type User struct {
	ID    string
	Email string
	Role  string
}

func (u *User) IsSeller() bool { return u != nil && (u.Role == "seller" || u.Role == "admin") }
func (u *User) IsAdmin() bool  { return u != nil && u.Role == "admin" }

// Page is the layout envelope; Data carries the page-specific model.
type Page struct {
	Title     string
	SiteName  string
	Section   string
	User      *User
	Flash     *Flash
	RequestID string
	Data      any
}
