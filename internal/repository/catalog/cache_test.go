package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
)

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "catalog_cache_total"}, []string{"result"})
}

func TestCategories_MissThenHit(t *testing.T) {
	src := &mockSource{cats: []listing.Category{{ID: 1, Name: "Bikes"}}}
	st := newMemStore()
	counter := newCounter()
	c := New(src, st, "swapcycle:", time.Minute, counter, nil)
	ctx := context.Background()

	for range 2 {
		cats, err := c.Categories(ctx, filter.TypeProducts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cats) != 1 || cats[0].Name != "Bikes" {
			t.Fatalf("cats = %+v", cats)
		}
	}

	if src.catCalls != 1 {
		t.Errorf("source calls = %d, want 1", src.catCalls)
	}
	if ttl := st.ttls["swapcycle:catalog:categories:products"]; ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("hits = %v, want 1", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("misses = %v, want 1", v)
	}
}

func TestCategories_EmptyTypeSharesAllKey(t *testing.T) {
	src := &mockSource{cats: []listing.Category{{ID: 1}}}
	c := New(src, newMemStore(), "", 0, nil, nil)
	ctx := context.Background()

	if _, err := c.Categories(ctx, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Categories(ctx, filter.TypeAll); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.catCalls != 1 {
		t.Errorf("source calls = %d, want 1", src.catCalls)
	}
}

func TestSubcategories_KeyedByCategory(t *testing.T) {
	src := &mockSource{subs: []listing.Subcategory{{ID: 51, Name: "Lighting"}}}
	c := New(src, newMemStore(), "", 0, nil, nil)
	ctx := context.Background()

	for _, id := range []int64{5, 5, 6} {
		if _, err := c.Subcategories(ctx, filter.TypeProducts, id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if src.subCalls != 2 {
		t.Errorf("source calls = %d, want 2", src.subCalls)
	}
}

func TestCategories_StoreDownFallsThrough(t *testing.T) {
	src := &mockSource{cats: []listing.Category{{ID: 2}}}
	st := newMemStore()
	st.getErr = errors.New("connection refused")
	st.setErr = errors.New("connection refused")
	c := New(src, st, "", 0, nil, nil)

	cats, err := c.Categories(context.Background(), filter.TypeServices)
	if err != nil {
		t.Fatalf("store errors must not surface: %v", err)
	}
	if len(cats) != 1 {
		t.Errorf("cats = %+v", cats)
	}
}

func TestCategories_SourceErrorNotCached(t *testing.T) {
	src := &mockSource{err: domain.ErrUnavailable}
	st := newMemStore()
	c := New(src, st, "", 0, nil, nil)

	_, err := c.Categories(context.Background(), filter.TypeProducts)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if len(st.data) != 0 {
		t.Errorf("cached %d entries after failure, want 0", len(st.data))
	}
}

func TestCategories_CorruptEntryRefetched(t *testing.T) {
	src := &mockSource{cats: []listing.Category{{ID: 3}}}
	st := newMemStore()
	st.data["catalog:categories:all"] = []byte("{not json")
	c := New(src, st, "", 0, nil, nil)

	cats, err := c.Categories(context.Background(), filter.TypeAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.catCalls != 1 || len(cats) != 1 {
		t.Errorf("calls = %d, cats = %+v", src.catCalls, cats)
	}
}
