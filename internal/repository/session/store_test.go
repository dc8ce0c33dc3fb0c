package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/swapcycle/swapcycle/internal/db"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/user"
)

// --- mocks ---

type mockStore struct {
	data   map[string][]byte
	ttl    map[string]time.Duration
	getErr error
	setErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	delete(m.ttl, key)
	return nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttl[key] = ttl
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	delete(m.ttl, key)
	return nil
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "7"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func authenticated(token string) domsession.Session {
	return domsession.Session{
		State: domsession.StateAuthenticated,
		User:  &user.User{ID: 7, Username: "ann", Email: "ann@example.com"},
		Token: token,
	}
}

// --- file store ---

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	s := NewFileStore(path)
	ctx := context.Background()

	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("empty Load = %v, %v", ok, err)
	}

	if err := s.Save(ctx, authenticated("tok")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if got.Token != "tok" || got.User == nil || got.User.Username != "ann" {
		t.Errorf("unexpected session: %+v", got)
	}
	if !got.IsAuthenticated() {
		t.Error("restored session must be authenticated")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Error("session must be gone after Clear")
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("token: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

// --- kv store ---

func TestKVStore_RoundTrip(t *testing.T) {
	m := newMockStore()
	s := NewKVStore(m, "swapcycle:")
	ctx := context.Background()

	if s.Key() != "swapcycle:session" {
		t.Fatalf("Key() = %q", s.Key())
	}
	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("empty Load = %v, %v", ok, err)
	}

	if err := s.Save(ctx, authenticated("opaque-token")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, hasTTL := m.ttl[s.Key()]; hasTTL {
		t.Error("opaque tokens must be stored without TTL")
	}

	got, ok, err := s.Load(ctx)
	if err != nil || !ok || got.Token != "opaque-token" {
		t.Fatalf("Load = %+v, %v, %v", got, ok, err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Error("session must be gone after Clear")
	}
}

func TestKVStore_TTLFromTokenExpiry(t *testing.T) {
	m := newMockStore()
	s := NewKVStore(m, "")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Save(context.Background(), authenticated(signed(t, now.Add(time.Hour)))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := m.ttl["session"]; got != time.Hour {
		t.Errorf("ttl = %v, want 1h", got)
	}

	if err := s.Save(context.Background(), authenticated(signed(t, now.Add(-time.Minute)))); err != nil {
		t.Fatalf("Save expired: %v", err)
	}
	if _, ok := m.data["session"]; ok {
		t.Error("expired token must not be stored")
	}
}

func TestKVStore_Errors(t *testing.T) {
	m := newMockStore()
	m.getErr = errors.New("conn refused")
	s := NewKVStore(m, "p:")

	if _, _, err := s.Load(context.Background()); err == nil {
		t.Error("expected Load error")
	}

	m.getErr = nil
	m.setErr = errors.New("readonly")
	if err := s.Save(context.Background(), authenticated("t")); err == nil {
		t.Error("expected Save error")
	}
}
