package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/swapcycle/swapcycle/internal/domain/user"
)

// AuthResult is the response of register and login.
type AuthResult = user.Auth

// AuthService wraps the /auth endpoints.
type AuthService struct {
	c *Client
}

// NewAuthService creates the auth service.
func NewAuthService(c *Client) *AuthService { return &AuthService{c: c} }

// Register creates an account and returns its first token.
func (s *AuthService) Register(ctx context.Context, r user.Registration) (AuthResult, error) {
	if err := r.Validate(); err != nil {
		return AuthResult{}, err
	}
	var out AuthResult
	if err := s.c.Do(ctx, http.MethodPost, "/auth/register", nil, r, &out); err != nil {
		return AuthResult{}, fmt.Errorf("register: %w", err)
	}
	return out, nil
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, cr user.Credentials) (AuthResult, error) {
	if err := cr.Validate(); err != nil {
		return AuthResult{}, err
	}
	var out AuthResult
	if err := s.c.Do(ctx, http.MethodPost, "/auth/login", nil, cr, &out); err != nil {
		return AuthResult{}, fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return AuthResult{}, fmt.Errorf("login: empty token in response")
	}
	return out, nil
}

// Profile returns the signed-in user.
func (s *AuthService) Profile(ctx context.Context) (user.User, error) {
	var out struct {
		User user.User `json:"user"`
	}
	if err := s.c.Do(ctx, http.MethodGet, "/auth/profile", nil, nil, &out); err != nil {
		return user.User{}, fmt.Errorf("profile: %w", err)
	}
	return out.User, nil
}
