package catalog

import (
	"context"
	"time"

	"github.com/swapcycle/swapcycle/internal/db"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
)

type mockSource struct {
	cats      []listing.Category
	subs      []listing.Subcategory
	err       error
	catCalls  int
	subCalls  int
	lastTypes []filter.Type
}

func (m *mockSource) Categories(_ context.Context, typ filter.Type) ([]listing.Category, error) {
	m.catCalls++
	m.lastTypes = append(m.lastTypes, typ)
	return m.cats, m.err
}

func (m *mockSource) Subcategories(_ context.Context, typ filter.Type, _ int64) ([]listing.Subcategory, error) {
	m.subCalls++
	m.lastTypes = append(m.lastTypes, typ)
	return m.subs, m.err
}

// memStore is an in-memory store that records TTLs.
type memStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}
