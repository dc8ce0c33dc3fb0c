package swapcycle

import (
	"context"
	"fmt"
	"time"
)

// ListingService manages one kind of listing: products or services.
type ListingService struct {
	api listingAPI
	obs *observer
}

func (s *ListingService) op(name string) string {
	return string(s.api.Kind()) + "." + name
}

// Kind returns the listing kind this service manages.
func (s *ListingService) Kind() Kind { return s.api.Kind() }

// List returns a page of listings.
func (s *ListingService) List(ctx context.Context, q ListQuery) (_ ListPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe(s.op("list"), start, err) }()

	page, err := s.api.List(ctx, q)
	if err != nil {
		return ListPage{}, fmt.Errorf("list %s: %w", s.api.Kind().Plural(), err)
	}
	return page, nil
}

// Get returns one listing.
func (s *ListingService) Get(ctx context.Context, id int64) (_ Listing, err error) {
	start := time.Now()
	defer func() { s.obs.observe(s.op("get"), start, err) }()

	item, err := s.api.Get(ctx, id)
	if err != nil {
		return Listing{}, fmt.Errorf("get %s %d: %w", s.api.Kind(), id, err)
	}
	return item, nil
}

// Create publishes a new listing owned by the signed-in user.
func (s *ListingService) Create(ctx context.Context, d Draft) (_ Listing, err error) {
	start := time.Now()
	defer func() { s.obs.observe(s.op("create"), start, err) }()

	item, err := s.api.Create(ctx, d)
	if err != nil {
		return Listing{}, fmt.Errorf("create %s: %w", s.api.Kind(), err)
	}
	return item, nil
}

// Update replaces the editable fields of a listing.
func (s *ListingService) Update(ctx context.Context, id int64, d Draft) (_ Listing, err error) {
	start := time.Now()
	defer func() { s.obs.observe(s.op("update"), start, err) }()

	item, err := s.api.Update(ctx, id, d)
	if err != nil {
		return Listing{}, fmt.Errorf("update %s %d: %w", s.api.Kind(), id, err)
	}
	return item, nil
}

// Delete removes a listing.
func (s *ListingService) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { s.obs.observe(s.op("delete"), start, err) }()

	if err := s.api.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", s.api.Kind(), id, err)
	}
	return nil
}

// Mine returns the listings owned by the signed-in user.
func (s *ListingService) Mine(ctx context.Context) (_ []Listing, err error) {
	start := time.Now()
	defer func() { s.obs.observe(s.op("mine"), start, err) }()

	items, err := s.api.Mine(ctx)
	if err != nil {
		return nil, fmt.Errorf("my %s: %w", s.api.Kind().Plural(), err)
	}
	return items, nil
}

// Categories returns the category tree for this listing kind.
func (s *ListingService) Categories(ctx context.Context) (_ []Category, err error) {
	start := time.Now()
	defer func() { s.obs.observe(s.op("categories"), start, err) }()

	cats, err := s.api.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s categories: %w", s.api.Kind(), err)
	}
	return cats, nil
}

// ServiceListings adds the online services query to ListingService.
type ServiceListings struct {
	*ListingService
	online onlineAPI
}

// Online returns services that can be delivered remotely.
func (s *ServiceListings) Online(ctx context.Context, q OnlineQuery) (_ ListPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("service.online", start, err) }()

	page, err := s.online.Online(ctx, q)
	if err != nil {
		return ListPage{}, fmt.Errorf("online services: %w", err)
	}
	return page, nil
}
