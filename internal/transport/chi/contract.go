package chi

import (
	"context"

	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/trade"
	"github.com/swapcycle/swapcycle/internal/domain/user"
	"github.com/swapcycle/swapcycle/internal/transport/api"
	"github.com/swapcycle/swapcycle/internal/usecase/browse"
	"github.com/swapcycle/swapcycle/internal/usecase/health"
)

// SessionStore is the local session the pages act on behalf of.
type SessionStore interface {
	Current() domsession.Session
	Authenticate(ctx context.Context, email, password string) error
	Register(ctx context.Context, r user.Registration) error
	Logout(ctx context.Context)
	Update(ctx context.Context, u user.User) error
}

// Profiles fetches the signed-in user.
type Profiles interface {
	Profile(ctx context.Context) (user.User, error)
}

// ListingService is the CRUD surface of products or services.
type ListingService interface {
	Kind() listing.Kind
	List(ctx context.Context, q api.ListQuery) (api.ListPage, error)
	Get(ctx context.Context, id int64) (listing.Item, error)
	Create(ctx context.Context, d listing.Draft) (listing.Item, error)
	Update(ctx context.Context, id int64, d listing.Draft) (listing.Item, error)
	Delete(ctx context.Context, id int64) error
	Mine(ctx context.Context) ([]listing.Item, error)
	Categories(ctx context.Context) ([]listing.Category, error)
}

// OnlineServices lists remotely deliverable services.
type OnlineServices interface {
	Online(ctx context.Context, q api.OnlineQuery) (api.ListPage, error)
}

// Catalog serves the filter category selects.
type Catalog interface {
	Categories(ctx context.Context, typ filter.Type) ([]listing.Category, error)
	Subcategories(ctx context.Context, typ filter.Type, categoryID int64) ([]listing.Subcategory, error)
}

// Trades manages trade proposals.
type Trades interface {
	List(ctx context.Context, box trade.Box) ([]trade.Trade, error)
	Propose(ctx context.Context, p trade.Proposal) (trade.Trade, error)
	Respond(ctx context.Context, t trade.Trade, userID int64, action trade.Action, message string) (trade.Trade, error)
}

// Browser is the live search page.
type Browser interface {
	Snapshot() browse.Snapshot
	Subscribe(fn func(browse.Snapshot)) (unsubscribe func())
	ApplyFilter(ctx context.Context, values map[string]string) error
	Reset(ctx context.Context) error
	Retry(ctx context.Context) error
	BoundsChanged(b geo.Bounds)
	Hover(id int64, kind listing.Kind)
	Click(id int64, kind listing.Kind) (*listing.Item, error)
	Select(id int64, kind listing.Kind) (*listing.Item, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
