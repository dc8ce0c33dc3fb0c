// Package session models the signed-in user and the login state machine.
package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/user"
)

// State is the authentication state of the client.
type State string

// Session states.
const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

var transitions = map[State]map[State]struct{}{
	StateAnonymous: {
		StateAuthenticating: {},
		StateAuthenticated:  {},
		StateAnonymous:      {},
	},
	StateAuthenticating: {
		StateAuthenticated: {},
		StateAnonymous:     {},
	},
	StateAuthenticated: {
		StateAnonymous:     {},
		StateAuthenticated: {},
	},
}

// CanTransition reports whether from → to is allowed.
func CanTransition(from, to State) bool {
	_, ok := transitions[from][to]
	return ok
}

// Transition returns to or ErrInvalidTransition.
func Transition(from, to State) (State, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: session %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Session is the current user and bearer token.
type Session struct {
	State State      `json:"state" yaml:"-"`
	User  *user.User `json:"user,omitempty" yaml:"user,omitempty"`
	Token string     `json:"-" yaml:"token,omitempty"`
}

// Anonymous returns the signed-out session.
func Anonymous() Session {
	return Session{State: StateAnonymous}
}

// IsAuthenticated reports whether requests carry a token.
func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.Token != ""
}

// Claims are the unverified token claims used for display only.
// The backend is the sole authority on validity.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token expiry has passed at now.
// Unknown expiry is never expired.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims reads subject and expiry from a JWT without verifying its signature.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token claims: %w", err)
	}

	var c Claims
	switch sub := mc["sub"].(type) {
	case string:
		c.Subject = sub
	case float64:
		c.Subject = strconv.FormatInt(int64(sub), 10)
	}
	if exp, ok := mc["exp"].(float64); ok && exp > 0 {
		c.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return c, nil
}
