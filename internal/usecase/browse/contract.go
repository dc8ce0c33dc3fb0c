package browse

import (
	"context"

	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/usecase/location"
	"github.com/swapcycle/swapcycle/internal/usecase/mapview"
	"github.com/swapcycle/swapcycle/internal/usecase/search"
)

// Filters owns the current filter.
type Filters interface {
	Current() filter.Filter
	Set(key filter.Key, value string) (filter.Filter, bool, error)
	Apply(values map[string]string) (filter.Filter, bool, error)
	Page(n int) (filter.Filter, bool, error)
	Reset() (filter.Filter, bool)
}

// Searcher runs refreshes and publishes search state.
type Searcher interface {
	Refresh(ctx context.Context, req search.Request) error
	Retry(ctx context.Context) error
	State() search.State
	Subscribe(fn func(search.State)) (unsubscribe func())
}

// Map is the map widget adapter.
type Map interface {
	Load(ctx context.Context) error
	Render(markers []listing.Marker, user *geo.Location) mapview.View
	Click(id int64, kind listing.Kind) (listing.Marker, error)
	Hover(id int64, kind listing.Kind)
	ReportBounds(b geo.Bounds)
	OnMarkerClick(fn func(listing.Marker))
	OnBoundsChange(fn func(geo.Bounds))
	View() mapview.View
	Subscribe(fn func(mapview.View)) (unsubscribe func())
	Close()
}

// Locator resolves the user position.
type Locator interface {
	Resolve(ctx context.Context) location.Result
}
