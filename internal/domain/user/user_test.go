package user

import (
	"errors"
	"testing"

	"github.com/swapcycle/swapcycle/internal/domain"
)

func TestDisplayName(t *testing.T) {
	if got := (User{Name: "Ada", Surname: "Lovelace"}).DisplayName(); got != "Ada Lovelace" {
		t.Errorf("got %q", got)
	}
	if got := (User{Username: "ada"}).DisplayName(); got != "ada" {
		t.Errorf("got %q", got)
	}
}

func TestCredentials_Validate(t *testing.T) {
	if err := (Credentials{Email: "a@b.c", Password: "x"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Credentials{Password: "x"}).Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := (Credentials{Email: "a@b.c"}).Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRegistration_Validate(t *testing.T) {
	valid := Registration{
		Email: "ada@example.com", Username: "ada", Password: "secret1",
		Name: "Ada", Surname: "Lovelace", Address: "London",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *Registration)
		field  string
	}{
		{"bad email", func(r *Registration) { r.Email = "nope" }, "email"},
		{"missing username", func(r *Registration) { r.Username = "" }, "username"},
		{"missing address", func(r *Registration) { r.Address = " " }, "address"},
		{"short password", func(r *Registration) { r.Password = "abc" }, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			var fe *domain.FieldError
			if err := r.Validate(); !errors.As(err, &fe) || fe.Field != tc.field {
				t.Errorf("got %v, want field %q", err, tc.field)
			}
		})
	}
}
