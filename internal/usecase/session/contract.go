package session

import (
	"context"

	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/user"
)

// Persister stores the session between runs.
type Persister interface {
	Load(ctx context.Context) (domsession.Session, bool, error)
	Save(ctx context.Context, s domsession.Session) error
	Clear(ctx context.Context) error
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, c user.Credentials) (user.Auth, error)
	Register(ctx context.Context, r user.Registration) (user.Auth, error)
}
