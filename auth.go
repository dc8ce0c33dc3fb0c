package swapcycle

import (
	"context"
	"fmt"
	"time"
)

// AuthService manages the account and the persisted session.
type AuthService struct {
	sessions sessionUseCase
	profiles profileAPI
	obs      *observer
}

// Login exchanges credentials for a token and persists the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("auth.login", start, err) }()

	if err := s.sessions.Authenticate(ctx, email, password); err != nil {
		return s.sessions.Current(), fmt.Errorf("login: %w", err)
	}
	return s.sessions.Current(), nil
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, r Registration) (_ Session, err error) {
	start := time.Now()
	defer func() { s.obs.observe("auth.register", start, err) }()

	if err := s.sessions.Register(ctx, r); err != nil {
		return s.sessions.Current(), fmt.Errorf("register: %w", err)
	}
	return s.sessions.Current(), nil
}

// Logout clears the session locally. It never fails.
func (s *AuthService) Logout(ctx context.Context) {
	start := time.Now()
	s.sessions.Logout(ctx)
	s.obs.observe("auth.logout", start, nil)
}

// Current returns the latest session snapshot.
func (s *AuthService) Current() Session {
	return s.sessions.Current()
}

// Claims returns the unverified claims of the current token.
func (s *AuthService) Claims() (Claims, bool) {
	return s.sessions.Claims()
}

// Subscribe calls fn on every session change until unsubscribe is called.
func (s *AuthService) Subscribe(fn func(Session)) (unsubscribe func()) {
	return s.sessions.Subscribe(fn)
}

// Profile fetches the signed-in user from the backend and refreshes the
// stored copy.
func (s *AuthService) Profile(ctx context.Context) (_ User, err error) {
	start := time.Now()
	defer func() { s.obs.observe("auth.profile", start, err) }()

	if !s.sessions.Current().IsAuthenticated() {
		return User{}, fmt.Errorf("profile: %w", ErrUnauthorized)
	}
	u, err := s.profiles.Profile(ctx)
	if err != nil {
		return User{}, fmt.Errorf("profile: %w", err)
	}
	if err := s.sessions.Update(ctx, u); err != nil {
		return User{}, fmt.Errorf("profile: %w", err)
	}
	return u, nil
}
