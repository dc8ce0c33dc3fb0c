package swapcycle

import (
	"context"
	"fmt"
	"time"

	"github.com/swapcycle/swapcycle/internal/domain"
)

// SearchService runs one-shot searches outside the browse session.
type SearchService struct {
	api searchAPI
	obs *observer
}

// Search returns a page of results. Build the query with BuildQuery.
func (s *SearchService) Search(ctx context.Context, q SearchQuery) (_ ResultPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search.search", start, err) }()

	page, err := s.api.Search(ctx, q)
	if err != nil {
		return ResultPage{}, fmt.Errorf("search: %w", err)
	}
	return page, nil
}

// MapData returns the markers inside the query's viewport. The query must be
// in bounds mode.
func (s *SearchService) MapData(ctx context.Context, q SearchQuery) (_ []Marker, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search.map_data", start, err) }()

	if q.Mode() != ModeBounds {
		return nil, fmt.Errorf("map data: %w", domain.NewFieldError("bounds", "required"))
	}
	markers, err := s.api.MapData(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("map data: %w", err)
	}
	return markers, nil
}

// Categories returns categories for a search type. TypeAll merges both kinds.
func (s *SearchService) Categories(ctx context.Context, typ FilterType) (_ []Category, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search.categories", start, err) }()

	cats, err := s.api.Categories(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return cats, nil
}

// Subcategories returns the children of a category.
func (s *SearchService) Subcategories(
	ctx context.Context, typ FilterType, categoryID int64,
) (_ []Subcategory, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search.subcategories", start, err) }()

	subs, err := s.api.Subcategories(ctx, typ, categoryID)
	if err != nil {
		return nil, fmt.Errorf("subcategories of %d: %w", categoryID, err)
	}
	return subs, nil
}
