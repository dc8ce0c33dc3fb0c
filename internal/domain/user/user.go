package user

import (
	"net/mail"
	"strings"

	"github.com/swapcycle/swapcycle/internal/domain"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 6

// User is the profile returned by the auth endpoints.
type User struct {
	ID                int64  `json:"id" yaml:"id"`
	Email             string `json:"email" yaml:"email"`
	Username          string `json:"username" yaml:"username"`
	Name              string `json:"name" yaml:"name"`
	Surname           string `json:"surname" yaml:"surname"`
	Address           string `json:"address,omitempty" yaml:"address,omitempty"`
	PreferredCurrency string `json:"preferred_currency,omitempty" yaml:"preferred_currency,omitempty"`
	CreatedAt         string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// DisplayName returns "Name Surname", falling back to the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.Name + " " + u.Surname)
	if full == "" {
		return u.Username
	}
	return full
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return domain.NewFieldError("email", "is required")
	}
	if c.Password == "" {
		return domain.NewFieldError("password", "is required")
	}
	return nil
}

// Registration is the sign-up payload.
type Registration struct {
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Name      string   `json:"name"`
	Surname   string   `json:"surname"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	BirthDate string   `json:"birth_date,omitempty"`
}

// Validate checks the fields required by the backend.
func (r Registration) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return domain.NewFieldError("email", "is not a valid address")
	}
	required := []struct{ field, value string }{
		{"username", r.Username},
		{"name", r.Name},
		{"surname", r.Surname},
		{"address", r.Address},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return domain.NewFieldError(f.field, "is required")
		}
	}
	if len(r.Password) < MinPasswordLen {
		return domain.NewFieldError("password", "is too short")
	}
	return nil
}

// Auth is the result of a successful register or login: a bearer token and its user.
type Auth struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}
