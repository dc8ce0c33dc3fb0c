// Package browse wires the search page: filter edits and settled map
// viewports trigger a refresh, search state feeds the map, and marker clicks
// select the matching result.
package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/logger"
	"github.com/swapcycle/swapcycle/internal/observable"
	"github.com/swapcycle/swapcycle/internal/usecase/location"
	"github.com/swapcycle/swapcycle/internal/usecase/mapview"
	"github.com/swapcycle/swapcycle/internal/usecase/search"
)

// Snapshot is everything the search page renders.
type Snapshot struct {
	Filter   filter.Filter   `json:"filter"`
	Search   search.State    `json:"search"`
	Map      mapview.View    `json:"map"`
	Location location.Result `json:"location"`
	Bounds   *geo.Bounds     `json:"bounds,omitempty"`
	Selected *listing.Item   `json:"selected,omitempty"`
	Started  bool            `json:"started"`
}

// Service is the browse page controller. Refreshes triggered by the map
// run on the context passed to New.
type Service struct {
	filters  Filters
	searcher Searcher
	mapView  Map
	locator  Locator
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	state *observable.Value[Snapshot]

	mu     sync.Mutex
	bounds *geo.Bounds
	loc    location.Result
	unsubs []func()
	closed bool

	// renderMu orders map renders by search Seq.
	renderMu    sync.Mutex
	lastSeq     uint64
	lastMarkers []listing.Marker
}

// New wires the collaborators. Call Start before use.
func New(ctx context.Context, filters Filters, searcher Searcher, mapView Map, locator Locator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		filters:  filters,
		searcher: searcher,
		mapView:  mapView,
		locator:  locator,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
		state: observable.New(Snapshot{
			Filter: filters.Current(),
			Search: searcher.State(),
			Map:    mapView.View(),
		}),
	}

	mapView.OnMarkerClick(s.selectMarker)
	mapView.OnBoundsChange(func(b geo.Bounds) {
		if err := s.applyBounds(s.ctx, b); err != nil {
			s.logger.Debug("refresh after bounds change failed", zap.Error(err))
		}
	})
	s.unsubs = append(s.unsubs,
		searcher.Subscribe(s.onSearch),
		mapView.Subscribe(func(v mapview.View) {
			s.state.Update(func(snap Snapshot) Snapshot {
				snap.Map = v
				return snap
			})
		}),
	)
	return s
}

// Start resolves the user position, loads the map and runs the first search.
// A disabled map is not an error.
func (s *Service) Start(ctx context.Context) error {
	loc := s.locator.Resolve(ctx)
	s.mu.Lock()
	s.loc = loc
	s.mu.Unlock()

	if err := s.mapView.Load(ctx); err != nil && !errors.Is(err, domain.ErrMapDisabled) {
		logger.FromContextOr(ctx, s.logger).Warn("map unavailable", zap.Error(err))
	}
	s.mapView.Render(s.searcher.State().Markers, loc.Point())

	s.state.Update(func(snap Snapshot) Snapshot {
		snap.Location = loc
		snap.Started = true
		return snap
	})
	return s.refresh(ctx)
}

// Snapshot returns the current page state.
func (s *Service) Snapshot() Snapshot { return s.state.Get() }

// Subscribe registers fn for every page state change.
func (s *Service) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// SetFilter edits one filter field and refreshes when it changed.
func (s *Service) SetFilter(ctx context.Context, key filter.Key, value string) error {
	f, changed, err := s.filters.Set(key, value)
	return s.afterFilter(ctx, f, changed, err)
}

// ApplyFilter applies a submitted filter form.
func (s *Service) ApplyFilter(ctx context.Context, values map[string]string) error {
	f, changed, err := s.filters.Apply(values)
	return s.afterFilter(ctx, f, changed, err)
}

// Reset restores the default filter.
func (s *Service) Reset(ctx context.Context) error {
	f, changed := s.filters.Reset()
	return s.afterFilter(ctx, f, changed, nil)
}

// Page moves to result page n.
func (s *Service) Page(ctx context.Context, n int) error {
	f, changed, err := s.filters.Page(n)
	return s.afterFilter(ctx, f, changed, err)
}

// BoundsChanged reports a viewport change; the refresh follows once the
// viewport settles.
func (s *Service) BoundsChanged(b geo.Bounds) {
	s.mapView.ReportBounds(b)
}

// Hover pulses the pin of a hovered result.
func (s *Service) Hover(id int64, kind listing.Kind) {
	s.mapView.Hover(id, kind)
}

// Click opens the pin popup and selects the matching result.
func (s *Service) Click(id int64, kind listing.Kind) (*listing.Item, error) {
	if _, err := s.mapView.Click(id, kind); err != nil {
		return nil, fmt.Errorf("click marker: %w", err)
	}
	return s.Snapshot().Selected, nil
}

// Select selects a result directly, e.g. from the result list.
func (s *Service) Select(id int64, kind listing.Kind) (*listing.Item, error) {
	item, ok := findResult(s.searcher.State().Results, listing.Marker{ID: id, Type: kind})
	if !ok {
		return nil, fmt.Errorf("result %s %d: %w", kind, id, domain.ErrNotFound)
	}
	s.setSelected(&item)
	return &item, nil
}

// Retry re-runs the last search.
func (s *Service) Retry(ctx context.Context) error {
	if err := s.searcher.Retry(ctx); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

// Close detaches from the collaborators and closes the map.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	s.cancel()
	s.mapView.Close()
	for _, u := range unsubs {
		u()
	}
	closed := s.mapView.View()
	s.state.Update(func(snap Snapshot) Snapshot {
		snap.Map = closed
		return snap
	})
}

func (s *Service) afterFilter(ctx context.Context, f filter.Filter, changed bool, err error) error {
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.state.Update(func(snap Snapshot) Snapshot {
		snap.Filter = f
		return snap
	})
	return s.refresh(ctx)
}

func (s *Service) applyBounds(ctx context.Context, b geo.Bounds) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.bounds = &b
	s.mu.Unlock()

	s.state.Update(func(snap Snapshot) Snapshot {
		snap.Bounds = &b
		return snap
	})
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	req := search.Request{
		Filter:   s.filters.Current(),
		Location: s.loc.Point(),
		Bounds:   s.bounds,
	}
	s.mu.Unlock()

	return s.searcher.Refresh(ctx, req)
}

func (s *Service) onSearch(st search.State) {
	s.mu.Lock()
	user := s.loc.Point()
	s.mu.Unlock()

	// Notifications may arrive out of order; never go back in Seq.
	s.renderMu.Lock()
	if st.Seq < s.lastSeq {
		s.renderMu.Unlock()
		return
	}
	s.lastSeq = st.Seq
	if !sameMarkers(s.lastMarkers, st.Markers) {
		s.lastMarkers = st.Markers
		s.mapView.Render(st.Markers, user)
	}
	s.renderMu.Unlock()

	s.state.UpdateIf(func(snap Snapshot) (Snapshot, bool) {
		if st.Seq < snap.Search.Seq {
			return snap, false
		}
		snap.Search = st
		if snap.Selected != nil {
			if _, ok := findResult(st.Results, listing.MarkerFromItem(*snap.Selected)); !ok {
				snap.Selected = nil
			}
		}
		return snap, true
	})
}

func (s *Service) selectMarker(m listing.Marker) {
	item, ok := findResult(s.searcher.State().Results, m)
	if !ok {
		s.logger.Debug("clicked marker is not on the current result page",
			zap.Int64("id", m.ID), zap.String("type", string(m.Type)))
		return
	}
	s.setSelected(&item)
}

func (s *Service) setSelected(item *listing.Item) {
	s.state.Update(func(snap Snapshot) Snapshot {
		snap.Selected = item
		return snap
	})
}

func findResult(results []listing.Item, m listing.Marker) (listing.Item, bool) {
	for _, it := range results {
		if m.Matches(it) {
			return it, true
		}
	}
	return listing.Item{}, false
}

func sameMarkers(a, b []listing.Marker) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Type != b[i].Type ||
			!sameCoord(a[i].Latitude, b[i].Latitude) || !sameCoord(a[i].Longitude, b[i].Longitude) {
			return false
		}
	}
	return true
}

func sameCoord(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
