// Package session owns the client's authentication state.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/user"
	"github.com/swapcycle/swapcycle/internal/logger"
	"github.com/swapcycle/swapcycle/internal/observable"
)

var errNotAuthenticated = fmt.Errorf("not authenticated: %w", domain.ErrUnauthorized)

// Store is the single source of truth for the current user and token.
// Storage failures are logged; in-memory transitions always happen.
type Store struct {
	persister Persister
	auth      Authenticator
	logger    *zap.Logger
	state     *observable.Value[domsession.Session]
}

// New creates an anonymous Store.
func New(persister Persister, auth Authenticator, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		persister: persister,
		auth:      auth,
		logger:    log,
		state:     observable.New(domsession.Anonymous()),
	}
}

// Current returns the latest snapshot.
func (s *Store) Current() domsession.Session { return s.state.Get() }

// Token returns the bearer token, or "" when not authenticated.
func (s *Store) Token() string {
	cur := s.state.Get()
	if !cur.IsAuthenticated() {
		return ""
	}
	return cur.Token
}

// Subscribe registers fn for every snapshot change.
func (s *Store) Subscribe(fn func(domsession.Session)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// Claims returns the unverified token claims of the current session.
func (s *Store) Claims() (domsession.Claims, bool) {
	tok := s.Token()
	if tok == "" {
		return domsession.Claims{}, false
	}
	c, err := domsession.ParseClaims(tok)
	if err != nil {
		return domsession.Claims{}, false
	}
	return c, true
}

// Restore loads the stored session at startup. A stored token yields authenticated.
func (s *Store) Restore(ctx context.Context) domsession.Session {
	if s.persister == nil {
		return s.state.Get()
	}
	stored, ok, err := s.persister.Load(ctx)
	if err != nil {
		s.log(ctx).Warn("session restore failed", zap.Error(err))
		return s.state.Get()
	}
	if !ok || stored.Token == "" {
		return s.state.Get()
	}

	stored.State = domsession.StateAuthenticated
	if c, cerr := domsession.ParseClaims(stored.Token); cerr == nil && c.Expired(time.Now()) {
		// The backend decides validity; an expired claim only gets logged.
		s.log(ctx).Info("restored token claims are expired", zap.Time("expires_at", c.ExpiresAt))
	}
	s.state.Set(stored)
	s.log(ctx).Info("session restored", zap.Int64("user_id", userID(stored.User)))
	return stored
}

// Authenticate logs in with credentials: anonymous → authenticating → authenticated.
// On failure the state returns to anonymous and the error is returned.
func (s *Store) Authenticate(ctx context.Context, email, password string) error {
	if err := s.begin(); err != nil {
		return err
	}
	res, err := s.auth.Login(ctx, user.Credentials{Email: email, Password: password})
	if err != nil {
		s.reset()
		return fmt.Errorf("authenticate: %w", err)
	}
	return s.Login(ctx, res.User, res.Token)
}

// Register creates an account and signs in with the returned token.
func (s *Store) Register(ctx context.Context, r user.Registration) error {
	if err := s.begin(); err != nil {
		return err
	}
	res, err := s.auth.Register(ctx, r)
	if err != nil {
		s.reset()
		return fmt.Errorf("register: %w", err)
	}
	return s.Login(ctx, res.User, res.Token)
}

// Login stores user and token and flips to authenticated.
func (s *Store) Login(ctx context.Context, u user.User, token string) error {
	if token == "" {
		s.reset()
		return fmt.Errorf("login: empty token")
	}

	var terr error
	next := s.state.Update(func(cur domsession.Session) domsession.Session {
		if _, terr = domsession.Transition(cur.State, domsession.StateAuthenticated); terr != nil {
			return cur
		}
		usr := u
		return domsession.Session{State: domsession.StateAuthenticated, User: &usr, Token: token}
	})
	if terr != nil {
		return terr
	}

	s.persist(ctx, next)
	s.log(ctx).Info("signed in", zap.Int64("user_id", u.ID))
	return nil
}

// Logout clears storage and flips to anonymous.
func (s *Store) Logout(ctx context.Context) {
	s.clear(ctx, "signed out")
}

// Unauthorized tears the session down after a 401. No-op when not signed in.
func (s *Store) Unauthorized(ctx context.Context) {
	if s.state.Get().State != domsession.StateAuthenticated {
		return
	}
	s.clear(ctx, "session rejected by backend")
}

// Update replaces the user while authenticated and persists it.
func (s *Store) Update(ctx context.Context, u user.User) error {
	var terr error
	next := s.state.Update(func(cur domsession.Session) domsession.Session {
		if !cur.IsAuthenticated() {
			terr = fmt.Errorf("update user: %w", errNotAuthenticated)
			return cur
		}
		usr := u
		cur.User = &usr
		return cur
	})
	if terr != nil {
		return terr
	}
	s.persist(ctx, next)
	return nil
}

func (s *Store) begin() error {
	var terr error
	s.state.Update(func(cur domsession.Session) domsession.Session {
		if _, terr = domsession.Transition(cur.State, domsession.StateAuthenticating); terr != nil {
			return cur
		}
		return domsession.Session{State: domsession.StateAuthenticating}
	})
	return terr
}

func (s *Store) reset() {
	s.state.Update(func(cur domsession.Session) domsession.Session {
		if cur.State == domsession.StateAuthenticating {
			return domsession.Anonymous()
		}
		return cur
	})
}

func (s *Store) clear(ctx context.Context, reason string) {
	prev := s.state.Get()
	s.state.Set(domsession.Anonymous())
	if s.persister != nil {
		if err := s.persister.Clear(ctx); err != nil {
			s.log(ctx).Warn("session clear failed", zap.Error(err))
		}
	}
	s.log(ctx).Info(reason, zap.Int64("user_id", userID(prev.User)))
}

func (s *Store) persist(ctx context.Context, sess domsession.Session) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, sess); err != nil {
		s.log(ctx).Warn("session save failed", zap.Error(err))
	}
}

func (s *Store) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

func userID(u *user.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
