// Package location resolves the user position once per session, best effort.
package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/geo"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 8 * time.Second

// Fallback is the map centre used when the position is unknown (New York City).
var Fallback = geo.Location{Lat: 40.7128, Lng: -74.0060}

// Result is the resolved position. Known is false when Location is the fallback.
type Result struct {
	Location geo.Location `json:"location"`
	Known    bool         `json:"known"`
}

// Point returns the location for search purposes: nil when unknown, so
// searches run unbounded instead of around the fallback.
func (r Result) Point() *geo.Location {
	if !r.Known {
		return nil
	}
	l := r.Location
	return &l
}

// Service caches the first lookup for the process lifetime.
type Service struct {
	provider Provider
	fallback geo.Location
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	resolved bool
	result   Result
}

// New creates a Service. provider may be nil (position always unknown).
func New(provider Provider, fallback geo.Location, timeout time.Duration, logger *zap.Logger) *Service {
	if !fallback.Valid() || (fallback == geo.Location{}) {
		fallback = Fallback
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, fallback: fallback, timeout: timeout, logger: logger}
}

// Resolve returns the position, looking it up on first use. It never fails:
// errors and timeouts yield the fallback with Known=false. A lookup abandoned
// because ctx ended is not cached, so the next caller tries again.
func (s *Service) Resolve(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return s.result
	}

	loc, err := s.locate(ctx)
	if err == nil {
		s.result = Result{Location: loc, Known: true}
		s.resolved = true
		return s.result
	}

	fallback := Result{Location: s.fallback}
	if ctx.Err() != nil {
		s.logger.Debug("location lookup abandoned by caller", zap.Error(err))
		return fallback
	}
	s.logger.Info("location unavailable, using fallback",
		zap.Stringer("fallback", s.fallback), zap.Error(err))
	s.result = fallback
	s.resolved = true
	return s.result
}

// Cached returns the resolved position without triggering a lookup.
func (s *Service) Cached() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.resolved
}

// Fallback returns the configured fallback centre.
func (s *Service) Fallback() geo.Location { return s.fallback }

func (s *Service) locate(ctx context.Context) (geo.Location, error) {
	if s.provider == nil {
		return geo.Location{}, fmt.Errorf("%w: no provider", domain.ErrLocationUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type located struct {
		loc geo.Location
		err error
	}
	ch := make(chan located, 1)
	go func() {
		loc, err := s.provider.Locate(ctx)
		ch <- located{loc, err}
	}()

	select {
	case <-ctx.Done():
		return geo.Location{}, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return geo.Location{}, r.err
		}
		if !r.loc.Valid() {
			return geo.Location{}, fmt.Errorf("%w: invalid coordinates", domain.ErrLocationUnavailable)
		}
		return r.loc, nil
	}
}

// Static is a Provider that always returns the configured coordinate.
type Static struct {
	Location geo.Location
}

// Locate implements Provider.
func (p Static) Locate(context.Context) (geo.Location, error) {
	if !p.Location.Valid() {
		return geo.Location{}, fmt.Errorf("%w: static location out of range", domain.ErrLocationUnavailable)
	}
	return p.Location, nil
}
