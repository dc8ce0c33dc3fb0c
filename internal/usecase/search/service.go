// Package search orchestrates result and marker queries and keeps only the
// latest response of each.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/domain/search/params"
	"github.com/swapcycle/swapcycle/internal/domain/search/result"
	"github.com/swapcycle/swapcycle/internal/logger"
	"github.com/swapcycle/swapcycle/internal/metrics"
	"github.com/swapcycle/swapcycle/internal/observable"
)

// Request is everything a refresh depends on. Nil Location or Bounds means unknown.
type Request struct {
	Filter   filter.Filter
	Location *geo.Location
	Bounds   *geo.Bounds
}

// Params builds the backend parameters for the request.
func (r Request) Params() params.Params {
	return params.Build(r.Filter, r.Location, r.Bounds)
}

func (r Request) hasBounds() bool { return r.Bounds != nil && r.Bounds.Valid() }

// State is the published search state.
type State struct {
	Results        []listing.Item    `json:"results"`
	Pagination     result.Pagination `json:"pagination"`
	Markers        []listing.Marker  `json:"markers"`
	Loading        bool              `json:"loading"`
	MarkersLoading bool              `json:"markers_loading"`
	Error          string            `json:"error,omitempty"`
	Mode           params.Mode       `json:"mode"`
	// Seq increases with every applied response.
	Seq uint64 `json:"seq"`
}

// Service runs searches and publishes the latest applied state.
type Service struct {
	backend Backend
	logger  *zap.Logger
	state   *observable.Value[State]

	searchTicket atomic.Uint64
	markerTicket atomic.Uint64

	mu   sync.Mutex
	last *Request
}

// New creates a search orchestrator.
func New(backend Backend, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		backend: backend,
		logger:  log,
		state: observable.New(State{
			Results:    []listing.Item{},
			Markers:    []listing.Marker{},
			Pagination: result.Pagination{Page: 1, Pages: 1},
			Mode:       params.ModeGlobal,
		}),
	}
}

// State returns the current snapshot.
func (s *Service) State() State { return s.state.Get() }

// Subscribe registers fn for every state change.
func (s *Service) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// Search performs a single query without touching the published state.
func (s *Service) Search(ctx context.Context, f filter.Filter, loc *geo.Location, b *geo.Bounds) (result.Page, error) {
	page, err := s.backend.Search(ctx, params.Build(f, loc, b))
	if err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}
	return page, nil
}

// MapData performs a single marker query without touching the published state.
func (s *Service) MapData(ctx context.Context, f filter.Filter, loc *geo.Location, b *geo.Bounds) ([]listing.Marker, error) {
	markers, err := s.backend.MapData(ctx, params.ForMap(params.Build(f, loc, b)))
	if err != nil {
		return nil, fmt.Errorf("map data: %w", err)
	}
	return markers, nil
}

// Refresh runs the search (and, when bounds are known, the marker query) and
// applies each response only if no newer refresh was issued meanwhile.
// The returned error is the search error, if any; it is also published.
func (s *Service) Refresh(ctx context.Context, req Request) error {
	req.Filter = req.Filter.Clone()
	s.mu.Lock()
	s.last = &req
	s.mu.Unlock()

	p := req.Params()
	ticket := s.searchTicket.Add(1)
	var mticket uint64
	withMarkers := req.hasBounds()
	if withMarkers {
		mticket = s.markerTicket.Add(1)
	}

	s.state.Update(func(st State) State {
		st.Loading = true
		st.MarkersLoading = withMarkers || st.MarkersLoading
		return st
	})

	var wg sync.WaitGroup
	if withMarkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refreshMarkers(ctx, params.ForMap(p), mticket)
		}()
	}

	err := s.refreshResults(ctx, p, ticket)
	wg.Wait()
	return err
}

// Retry re-issues the last refresh. It does nothing before the first Refresh.
func (s *Service) Retry(ctx context.Context) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return nil
	}
	return s.Refresh(ctx, *last)
}

// LastRequest returns the request of the latest refresh.
func (s *Service) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Request{}, false
	}
	return *s.last, true
}

func (s *Service) refreshResults(ctx context.Context, p params.Params, ticket uint64) error {
	log := logger.FromContextOr(ctx, s.logger)
	page, err := s.backend.Search(ctx, p)

	_, applied := s.state.UpdateIf(func(st State) (State, bool) {
		if ticket != s.searchTicket.Load() {
			return st, false
		}
		st.Loading = false
		st.Seq++
		st.Mode = p.Mode()
		if err != nil {
			st.Results = []listing.Item{}
			st.Error = userMessage(err)
			return st, true
		}
		st.Results = page.Results
		if st.Results == nil {
			st.Results = []listing.Item{}
		}
		st.Pagination = page.Pagination()
		st.Error = ""
		return st, true
	})

	switch {
	case !applied:
		metrics.SearchRefreshTotal.WithLabelValues("search", "stale").Inc()
		log.Debug("stale search response dropped", zap.Uint64("ticket", ticket))
	case err != nil:
		metrics.SearchRefreshTotal.WithLabelValues("search", "error").Inc()
		log.Warn("search failed", zap.Error(err))
	default:
		metrics.SearchRefreshTotal.WithLabelValues("search", "applied").Inc()
		log.Debug("search applied",
			zap.Uint64("ticket", ticket),
			zap.Int("results", len(page.Results)),
			zap.Int("total", page.Total),
			zap.String("mode", string(p.Mode())),
		)
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

func (s *Service) refreshMarkers(ctx context.Context, p params.Params, ticket uint64) {
	log := logger.FromContextOr(ctx, s.logger)
	markers, err := s.backend.MapData(ctx, p)

	_, applied := s.state.UpdateIf(func(st State) (State, bool) {
		if ticket != s.markerTicket.Load() {
			return st, false
		}
		st.MarkersLoading = false
		st.Seq++
		if err != nil || markers == nil {
			st.Markers = []listing.Marker{}
			return st, true
		}
		st.Markers = markers
		return st, true
	})

	switch {
	case !applied:
		metrics.SearchRefreshTotal.WithLabelValues("markers", "stale").Inc()
	case err != nil:
		metrics.SearchRefreshTotal.WithLabelValues("markers", "error").Inc()
		log.Warn("map data failed", zap.Error(err))
	default:
		metrics.SearchRefreshTotal.WithLabelValues("markers", "applied").Inc()
	}
}

// userMessage turns a failure into a short, non-fatal notice.
func userMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Search was cancelled."
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "Cannot reach SwapCycle right now. Please try again."
	case errors.Is(err, domain.ErrValidation):
		return "Some filters are invalid. Please check them and try again."
	case errors.Is(err, domain.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	default:
		return "Search failed. Please try again."
	}
}
