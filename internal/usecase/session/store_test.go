package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/swapcycle/swapcycle/internal/domain"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/user"
)

// --- mocks ---

type mockPersister struct {
	mu      sync.Mutex
	stored  *domsession.Session
	loadErr error
	saveErr error
	saves   int
	clears  int
}

func (m *mockPersister) Load(context.Context) (domsession.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domsession.Session{}, false, m.loadErr
	}
	if m.stored == nil {
		return domsession.Anonymous(), false, nil
	}
	return *m.stored, true, nil
}

func (m *mockPersister) Save(_ context.Context, s domsession.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stored = &s
	return nil
}

func (m *mockPersister) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.stored = nil
	return nil
}

type mockAuth struct {
	loginFn    func(ctx context.Context, c user.Credentials) (user.Auth, error)
	registerFn func(ctx context.Context, r user.Registration) (user.Auth, error)
}

func (m *mockAuth) Login(ctx context.Context, c user.Credentials) (user.Auth, error) {
	return m.loginFn(ctx, c)
}

func (m *mockAuth) Register(ctx context.Context, r user.Registration) (user.Auth, error) {
	return m.registerFn(ctx, r)
}

func okAuth() *mockAuth {
	return &mockAuth{
		loginFn: func(_ context.Context, c user.Credentials) (user.Auth, error) {
			return user.Auth{Token: "tok", User: user.User{ID: 1, Email: c.Email}}, nil
		},
		registerFn: func(_ context.Context, r user.Registration) (user.Auth, error) {
			return user.Auth{Token: "new", User: user.User{ID: 2, Username: r.Username}}, nil
		},
	}
}

// --- tests ---

func TestRestore(t *testing.T) {
	p := &mockPersister{stored: &domsession.Session{Token: "saved", User: &user.User{ID: 5}}}
	s := New(p, okAuth(), nil)

	got := s.Restore(context.Background())
	if got.State != domsession.StateAuthenticated || s.Token() != "saved" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestRestore_NothingStoredOrError(t *testing.T) {
	s := New(&mockPersister{}, okAuth(), nil)
	if got := s.Restore(context.Background()); got.State != domsession.StateAnonymous {
		t.Errorf("empty storage: state = %q", got.State)
	}

	s = New(&mockPersister{loadErr: errors.New("disk")}, okAuth(), nil)
	if got := s.Restore(context.Background()); got.State != domsession.StateAnonymous {
		t.Errorf("load error: state = %q", got.State)
	}
}

func TestAuthenticate_Success(t *testing.T) {
	p := &mockPersister{}
	s := New(p, okAuth(), nil)

	var states []domsession.State
	s.Subscribe(func(sess domsession.Session) { states = append(states, sess.State) })

	if err := s.Authenticate(context.Background(), "ann@example.com", "pw"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	want := []domsession.State{domsession.StateAuthenticating, domsession.StateAuthenticated}
	if len(states) != 2 || states[0] != want[0] || states[1] != want[1] {
		t.Errorf("states = %v, want %v", states, want)
	}
	if p.stored == nil || p.stored.Token != "tok" {
		t.Errorf("session not persisted: %+v", p.stored)
	}
	if s.Current().User.Email != "ann@example.com" {
		t.Errorf("user = %+v", s.Current().User)
	}
}

func TestAuthenticate_FailureReturnsToAnonymous(t *testing.T) {
	auth := okAuth()
	auth.loginFn = func(context.Context, user.Credentials) (user.Auth, error) {
		return user.Auth{}, domain.ErrUnauthorized
	}
	s := New(&mockPersister{}, auth, nil)

	err := s.Authenticate(context.Background(), "ann@example.com", "bad")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if s.Current().State != domsession.StateAnonymous {
		t.Errorf("state = %q, want anonymous", s.Current().State)
	}
}

func TestAuthenticate_WhileAuthenticatingRejected(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	auth := okAuth()
	auth.loginFn = func(context.Context, user.Credentials) (user.Auth, error) {
		close(entered)
		<-release
		return user.Auth{Token: "tok", User: user.User{ID: 1}}, nil
	}
	s := New(nil, auth, nil)

	done := make(chan error, 1)
	go func() { done <- s.Authenticate(context.Background(), "a@b.c", "pw") }()
	<-entered

	if err := s.Authenticate(context.Background(), "a@b.c", "pw"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Authenticate: %v", err)
	}
}

func TestRegister(t *testing.T) {
	s := New(&mockPersister{}, okAuth(), nil)
	if err := s.Register(context.Background(), user.Registration{Username: "bob"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if s.Token() != "new" || s.Current().User.Username != "bob" {
		t.Errorf("unexpected session: %+v", s.Current())
	}
}

func TestLogoutAndUnauthorized(t *testing.T) {
	p := &mockPersister{}
	s := New(p, okAuth(), nil)
	ctx := context.Background()

	s.Unauthorized(ctx)
	if p.clears != 0 {
		t.Error("Unauthorized must be a no-op while anonymous")
	}

	if err := s.Login(ctx, user.User{ID: 1}, "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	s.Unauthorized(ctx)
	if s.Current().State != domsession.StateAnonymous || p.clears != 1 || p.stored != nil {
		t.Errorf("Unauthorized did not tear down: %+v, clears=%d", s.Current(), p.clears)
	}

	if err := s.Login(ctx, user.User{ID: 1}, "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	s.Logout(ctx)
	if s.Token() != "" || p.clears != 2 {
		t.Errorf("Logout did not clear: token=%q clears=%d", s.Token(), p.clears)
	}
}

func TestLogin_StorageFailureStillTransitions(t *testing.T) {
	p := &mockPersister{saveErr: errors.New("read-only fs")}
	s := New(p, okAuth(), nil)

	if err := s.Login(context.Background(), user.User{ID: 3}, "tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !s.Current().IsAuthenticated() {
		t.Error("in-memory state must be authenticated despite storage failure")
	}
}

func TestLogin_EmptyToken(t *testing.T) {
	s := New(nil, okAuth(), nil)
	if err := s.Login(context.Background(), user.User{ID: 3}, ""); err == nil {
		t.Fatal("expected error")
	}
	if s.Current().State != domsession.StateAnonymous {
		t.Errorf("state = %q", s.Current().State)
	}
}

func TestUpdate(t *testing.T) {
	p := &mockPersister{}
	s := New(p, okAuth(), nil)
	ctx := context.Background()

	if err := s.Update(ctx, user.User{ID: 1}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized while anonymous, got %v", err)
	}

	_ = s.Login(ctx, user.User{ID: 1, Name: "Old"}, "tok")
	if err := s.Update(ctx, user.User{ID: 1, Name: "New"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if s.Current().User.Name != "New" || p.stored.User.Name != "New" {
		t.Errorf("user not replaced: %+v / %+v", s.Current().User, p.stored.User)
	}
	if s.Token() != "tok" {
		t.Error("token must survive Update")
	}
}

func TestClaims(t *testing.T) {
	s := New(nil, okAuth(), nil)
	if _, ok := s.Claims(); ok {
		t.Error("anonymous session has no claims")
	}
	_ = s.Login(context.Background(), user.User{ID: 1}, "not-a-jwt")
	if _, ok := s.Claims(); ok {
		t.Error("opaque token has no claims")
	}
}
