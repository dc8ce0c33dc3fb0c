package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/swapcycle/swapcycle/internal/domain"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateAnonymous, StateAuthenticating, true},
		{StateAuthenticating, StateAuthenticated, true},
		{StateAuthenticating, StateAnonymous, true},
		{StateAuthenticated, StateAnonymous, true},
		{StateAnonymous, StateAuthenticated, true},
		{StateAuthenticated, StateAuthenticating, false},
	}
	for _, tc := range tests {
		got, err := Transition(tc.from, tc.to)
		if tc.ok {
			if err != nil || got != tc.to {
				t.Errorf("%s -> %s: got %s, %v", tc.from, tc.to, got, err)
			}
			continue
		}
		if !errors.Is(err, domain.ErrInvalidTransition) || got != tc.from {
			t.Errorf("%s -> %s: expected ErrInvalidTransition, got %s, %v", tc.from, tc.to, got, err)
		}
	}
}

func TestIsAuthenticated(t *testing.T) {
	if Anonymous().IsAuthenticated() {
		t.Error("anonymous session is authenticated")
	}
	if (Session{State: StateAuthenticated}).IsAuthenticated() {
		t.Error("session without token is authenticated")
	}
	if !(Session{State: StateAuthenticated, Token: "t"}).IsAuthenticated() {
		t.Error("expected authenticated")
	}
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestParseClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok := signed(t, jwt.MapClaims{"sub": 42, "exp": exp.Unix()})

	c, err := ParseClaims(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Subject != "42" {
		t.Errorf("Subject = %q", c.Subject)
	}
	if !c.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", c.ExpiresAt, exp)
	}
	if c.Expired(exp.Add(-time.Minute)) || !c.Expired(exp.Add(time.Minute)) {
		t.Error("Expired() wrong around expiry")
	}
}

func TestParseClaims_StringSubjectNoExpiry(t *testing.T) {
	c, err := ParseClaims(signed(t, jwt.MapClaims{"sub": "ada"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Subject != "ada" || !c.ExpiresAt.IsZero() {
		t.Errorf("got %+v", c)
	}
	if c.Expired(time.Now()) {
		t.Error("unknown expiry reported as expired")
	}
}

func TestParseClaims_Garbage(t *testing.T) {
	if _, err := ParseClaims("not-a-jwt"); err == nil {
		t.Fatal("expected error")
	}
}
