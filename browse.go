package swapcycle

import (
	"context"
	"fmt"
	"time"
)

// BrowseService drives the interactive search: filters, results, map and
// selection combined into one Snapshot stream.
type BrowseService struct {
	svc browseUseCase
	obs *observer
}

// Start resolves the user location and runs the first search.
func (s *BrowseService) Start(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("browse.start", start, err) }()

	if err := s.svc.Start(ctx); err != nil {
		return fmt.Errorf("start browse: %w", err)
	}
	return nil
}

// Snapshot returns the current browse state.
func (s *BrowseService) Snapshot() Snapshot { return s.svc.Snapshot() }

// Subscribe calls fn on every state change until unsubscribe is called.
func (s *BrowseService) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.svc.Subscribe(fn)
}

// SetFilter changes one filter field and searches again when it changed.
// Changing anything but the page resets pagination.
func (s *BrowseService) SetFilter(ctx context.Context, key FilterKey, value string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("browse.set_filter", start, err) }()

	if err := s.svc.SetFilter(ctx, key, value); err != nil {
		return fmt.Errorf("set filter %s: %w", key, err)
	}
	return nil
}

// ApplyFilter sets several filter fields at once, keyed by query name.
func (s *BrowseService) ApplyFilter(ctx context.Context, values map[string]string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("browse.apply_filter", start, err) }()

	if err := s.svc.ApplyFilter(ctx, values); err != nil {
		return fmt.Errorf("apply filter: %w", err)
	}
	return nil
}

// Reset restores the default filter.
func (s *BrowseService) Reset(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("browse.reset", start, err) }()

	if err := s.svc.Reset(ctx); err != nil {
		return fmt.Errorf("reset filter: %w", err)
	}
	return nil
}

// Page moves to result page n.
func (s *BrowseService) Page(ctx context.Context, n int) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("browse.page", start, err) }()

	if err := s.svc.Page(ctx, n); err != nil {
		return fmt.Errorf("page %d: %w", n, err)
	}
	return nil
}

// BoundsChanged reports a new map viewport. Rapid calls are debounced.
func (s *BrowseService) BoundsChanged(b Bounds) { s.svc.BoundsChanged(b) }

// Hover highlights the marker of a result card.
func (s *BrowseService) Hover(id int64, kind Kind) { s.svc.Hover(id, kind) }

// Click selects a marker and returns the matching result, if loaded.
func (s *BrowseService) Click(id int64, kind Kind) (*Listing, error) {
	return s.svc.Click(id, kind)
}

// Select focuses a result card and its marker.
func (s *BrowseService) Select(id int64, kind Kind) (*Listing, error) {
	return s.svc.Select(id, kind)
}

// Retry repeats the last failed search.
func (s *BrowseService) Retry(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("browse.retry", start, err) }()

	return s.svc.Retry(ctx)
}
