package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swapcycle/swapcycle/internal/db"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
)

// store is the consumer interface for session persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// KVStore keeps the session under <prefix>session in a key-value database.
// When the token carries an expiry the key expires with it.
type KVStore struct {
	store store
	key   string
	now   func() time.Time
}

// NewKVStore creates a KV-backed store.
func NewKVStore(s store, keyPrefix string) *KVStore {
	return &KVStore{store: s, key: keyPrefix + "session", now: time.Now}
}

// Key returns the database key holding the session.
func (s *KVStore) Key() string { return s.key }

// Load reads the stored session; ok=false when nothing is stored.
func (s *KVStore) Load(ctx context.Context) (domsession.Session, bool, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsession.Anonymous(), false, nil
		}
		return domsession.Session{}, false, fmt.Errorf("session GET %s: %w", s.key, err)
	}
	return decode(data)
}

// Save stores the session.
func (s *KVStore) Save(ctx context.Context, sess domsession.Session) error {
	now := s.now()
	data, err := encode(sess, now)
	if err != nil {
		return err
	}

	if claims, cerr := domsession.ParseClaims(sess.Token); cerr == nil && !claims.ExpiresAt.IsZero() {
		ttl := claims.ExpiresAt.Sub(now)
		if ttl < time.Second {
			return s.Clear(ctx)
		}
		if err := s.store.SetWithTTL(ctx, s.key, data, ttl); err != nil {
			return fmt.Errorf("session SET %s: %w", s.key, err)
		}
		return nil
	}

	if err := s.store.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("session SET %s: %w", s.key, err)
	}
	return nil
}

// Clear removes the stored session.
func (s *KVStore) Clear(ctx context.Context) error {
	if err := s.store.Del(ctx, s.key); err != nil {
		return fmt.Errorf("session DEL %s: %w", s.key, err)
	}
	return nil
}
