package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/domain/search/params"
	"github.com/swapcycle/swapcycle/internal/domain/search/result"
)

// SearchService wraps the /search endpoints.
type SearchService struct {
	c *Client
}

// NewSearchService creates the search service.
func NewSearchService(c *Client) *SearchService { return &SearchService{c: c} }

// Search returns one page of mixed product and service results.
func (s *SearchService) Search(ctx context.Context, p params.Params) (result.Page, error) {
	q, err := searchQuery(p)
	if err != nil {
		return result.Page{}, err
	}
	var out result.Page
	if err := s.c.Do(ctx, http.MethodGet, "/search", q, nil, &out); err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}
	if out.Results == nil {
		out.Results = []listing.Item{}
	}
	return out, nil
}

// MapData returns the markers matching p. Pagination is never sent.
func (s *SearchService) MapData(ctx context.Context, p params.Params) ([]listing.Marker, error) {
	q, err := searchQuery(params.ForMap(p))
	if err != nil {
		return nil, err
	}
	var out struct {
		Markers []listing.Marker `json:"markers"`
	}
	if err := s.c.Do(ctx, http.MethodGet, "/search/map-data", q, nil, &out); err != nil {
		return nil, fmt.Errorf("map data: %w", err)
	}
	if out.Markers == nil {
		out.Markers = []listing.Marker{}
	}
	return out.Markers, nil
}

// Categories returns the categories usable as a search filter for typ.
func (s *SearchService) Categories(ctx context.Context, typ filter.Type) ([]listing.Category, error) {
	q := url.Values{}
	if typ != "" {
		if err := addParam(q, "type", string(typ)); err != nil {
			return nil, err
		}
	}
	var out struct {
		Categories []listing.Category `json:"categories"`
	}
	if err := s.c.Do(ctx, http.MethodGet, "/search/categories", q, nil, &out); err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}
	return out.Categories, nil
}

// Subcategories returns the children of categoryID.
func (s *SearchService) Subcategories(ctx context.Context, typ filter.Type, categoryID int64) ([]listing.Subcategory, error) {
	q := url.Values{}
	if typ != "" {
		if err := addParam(q, "type", string(typ)); err != nil {
			return nil, err
		}
	}
	if err := addParam(q, "category_id", categoryID); err != nil {
		return nil, err
	}
	var out struct {
		Subcategories []listing.Subcategory `json:"subcategories"`
	}
	if err := s.c.Do(ctx, http.MethodGet, "/search/subcategories", q, nil, &out); err != nil {
		return nil, fmt.Errorf("search subcategories: %w", err)
	}
	return out.Subcategories, nil
}

// HealthCheck probes the backend with the cheapest public read.
func (s *SearchService) HealthCheck(ctx context.Context) error {
	_, err := s.Categories(ctx, "")
	return err
}
