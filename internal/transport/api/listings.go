package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
)

// ListQuery filters GET /products and GET /services.
type ListQuery struct {
	Page          *int
	PerPage       *int
	CategoryID    *int64
	SubcategoryID *int64
	UserID        *int64
	IsOnline      *bool
}

// OnlineQuery filters GET /services/online.
type OnlineQuery struct {
	Keyword    *string
	CategoryID *int64
	Page       *int
	PerPage    *int
}

// ListPage is one page of products or services.
type ListPage struct {
	Items       []listing.Item
	Total       int
	Pages       int
	CurrentPage int
}

// Listings wraps the CRUD endpoints shared by products and services.
type Listings struct {
	c    *Client
	kind listing.Kind
}

// Services adds the online services listing to the shared endpoints.
type Services struct {
	*Listings
}

// NewProducts creates the /products service.
func NewProducts(c *Client) *Listings {
	return &Listings{c: c, kind: listing.KindProduct}
}

// NewServices creates the /services service.
func NewServices(c *Client) *Services {
	return &Services{Listings: &Listings{c: c, kind: listing.KindService}}
}

// Kind returns the listing kind this service manages.
func (l *Listings) Kind() listing.Kind { return l.kind }

func (l *Listings) base() string { return "/" + l.kind.Plural() }

func (l *Listings) item(id int64) string {
	return l.base() + "/" + strconv.FormatInt(id, 10)
}

// List returns a page of listings.
func (l *Listings) List(ctx context.Context, lq ListQuery) (ListPage, error) {
	q := url.Values{}
	for _, err := range []error{
		addOptional(q, "page", lq.Page),
		addOptional(q, "per_page", lq.PerPage),
		addOptional(q, "category_id", lq.CategoryID),
		addOptional(q, "subcategory_id", lq.SubcategoryID),
		addOptional(q, "user_id", lq.UserID),
		addOptional(q, "is_online", lq.IsOnline),
	} {
		if err != nil {
			return ListPage{}, err
		}
	}
	return l.page(ctx, l.base(), q)
}

// Get returns one listing.
func (l *Listings) Get(ctx context.Context, id int64) (listing.Item, error) {
	raw := map[string]json.RawMessage{}
	if err := l.c.Do(ctx, http.MethodGet, l.item(id), nil, nil, &raw); err != nil {
		return listing.Item{}, fmt.Errorf("get %s %d: %w", l.kind, id, err)
	}
	return l.unwrap(raw)
}

// Create validates and stores a new listing.
func (l *Listings) Create(ctx context.Context, d listing.Draft) (listing.Item, error) {
	d.Kind = l.kind
	if err := d.Validate(); err != nil {
		return listing.Item{}, err
	}
	raw := map[string]json.RawMessage{}
	if err := l.c.Do(ctx, http.MethodPost, l.base(), nil, d, &raw); err != nil {
		return listing.Item{}, fmt.Errorf("create %s: %w", l.kind, err)
	}
	return l.unwrap(raw)
}

// Update validates and replaces a listing owned by the current user.
func (l *Listings) Update(ctx context.Context, id int64, d listing.Draft) (listing.Item, error) {
	d.Kind = l.kind
	if err := d.Validate(); err != nil {
		return listing.Item{}, err
	}
	raw := map[string]json.RawMessage{}
	if err := l.c.Do(ctx, http.MethodPut, l.item(id), nil, d, &raw); err != nil {
		return listing.Item{}, fmt.Errorf("update %s %d: %w", l.kind, id, err)
	}
	return l.unwrap(raw)
}

// Delete removes a listing owned by the current user.
func (l *Listings) Delete(ctx context.Context, id int64) error {
	if err := l.c.Do(ctx, http.MethodDelete, l.item(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", l.kind, id, err)
	}
	return nil
}

// Mine returns the current user's listings.
func (l *Listings) Mine(ctx context.Context) ([]listing.Item, error) {
	p, err := l.page(ctx, l.base()+"/user", nil)
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

// Categories returns the category tree for this kind.
func (l *Listings) Categories(ctx context.Context) ([]listing.Category, error) {
	var out struct {
		Categories []listing.Category `json:"categories"`
	}
	if err := l.c.Do(ctx, http.MethodGet, l.base()+"/categories", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s categories: %w", l.kind, err)
	}
	for i := range out.Categories {
		if out.Categories[i].Type == "" {
			out.Categories[i].Type = l.kind
		}
	}
	return out.Categories, nil
}

// Online returns services that can be delivered remotely.
func (s *Services) Online(ctx context.Context, oq OnlineQuery) (ListPage, error) {
	q := url.Values{}
	for _, err := range []error{
		addOptional(q, "keyword", oq.Keyword),
		addOptional(q, "category_id", oq.CategoryID),
		addOptional(q, "page", oq.Page),
		addOptional(q, "per_page", oq.PerPage),
	} {
		if err != nil {
			return ListPage{}, err
		}
	}
	return s.page(ctx, s.base()+"/online", q)
}

func (l *Listings) page(ctx context.Context, path string, q url.Values) (ListPage, error) {
	raw := map[string]json.RawMessage{}
	if err := l.c.Do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
		return ListPage{}, fmt.Errorf("list %s: %w", l.kind.Plural(), err)
	}

	var out ListPage
	if data, ok := raw[l.kind.Plural()]; ok {
		if err := json.Unmarshal(data, &out.Items); err != nil {
			return ListPage{}, fmt.Errorf("decode %s: %w: %w", l.kind.Plural(), domain.ErrBackend, err)
		}
	}
	for _, f := range []struct {
		key string
		dst *int
	}{{"total", &out.Total}, {"pages", &out.Pages}, {"current_page", &out.CurrentPage}} {
		if data, ok := raw[f.key]; ok {
			_ = json.Unmarshal(data, f.dst)
		}
	}
	if out.Total == 0 {
		out.Total = len(out.Items)
	}
	if out.Pages < 1 {
		out.Pages = 1
	}
	if out.CurrentPage < 1 {
		out.CurrentPage = 1
	}
	for i := range out.Items {
		out.Items[i].Type = l.kind
	}
	return out, nil
}

// unwrap reads {"product": {...}} / {"service": {...}}; a bare object is accepted too.
func (l *Listings) unwrap(raw map[string]json.RawMessage) (listing.Item, error) {
	var it listing.Item
	if data, ok := raw[string(l.kind)]; ok {
		if err := json.Unmarshal(data, &it); err != nil {
			return listing.Item{}, fmt.Errorf("decode %s: %w: %w", l.kind, domain.ErrBackend, err)
		}
	} else {
		data, err := json.Marshal(raw)
		if err != nil {
			return listing.Item{}, fmt.Errorf("decode %s: %w", l.kind, err)
		}
		if err := json.Unmarshal(data, &it); err != nil {
			return listing.Item{}, fmt.Errorf("decode %s: %w: %w", l.kind, domain.ErrBackend, err)
		}
	}
	it.Type = l.kind
	return it, nil
}
