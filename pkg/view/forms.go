package view

// Form is a re-rendered form: submitted values plus field errors.
type Form[T any] struct {
	Values  T
	Errors  map[string]string
	Message string
}

type LoginForm struct {
	Email    string
	ReturnTo string
}

type RegisterForm struct {
	Email    string
	Name     string
	ReturnTo string
}

type ShopForm struct {
	Name         string
	Description  string
	LogoURL      string
	Currency     string
	AcceptsChat  bool
	ReturnPolicy string
}
