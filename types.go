package swapcycle

import (
	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/domain/search/params"
	"github.com/swapcycle/swapcycle/internal/domain/search/result"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/trade"
	"github.com/swapcycle/swapcycle/internal/domain/user"
	"github.com/swapcycle/swapcycle/internal/transport/api"
	"github.com/swapcycle/swapcycle/internal/usecase/browse"
	"github.com/swapcycle/swapcycle/internal/usecase/mapview"
	"github.com/swapcycle/swapcycle/internal/usecase/search"
)

// Geography.
type (
	// Location is a WGS84 point in degrees.
	Location = geo.Location
	// Bounds is a map viewport.
	Bounds = geo.Bounds
)

// Listings.
type (
	Kind        = listing.Kind
	Listing     = listing.Item
	Draft       = listing.Draft
	Marker      = listing.Marker
	Category    = listing.Category
	Subcategory = listing.Subcategory
	ListQuery   = api.ListQuery
	OnlineQuery = api.OnlineQuery
	ListPage    = api.ListPage
)

// Listing kinds.
const (
	KindProduct = listing.KindProduct
	KindService = listing.KindService
)

// Users and sessions.
type (
	User         = user.User
	Registration = user.Registration
	Session      = domsession.Session
	SessionState = domsession.State
	Claims       = domsession.Claims
)

// Trades.
type (
	Trade       = trade.Trade
	TradeItem   = trade.Item
	TradeStatus = trade.Status
	TradeAction = trade.Action
	TradeBox    = trade.Box
	Proposal    = trade.Proposal
)

// Trade actions and boxes.
const (
	ActionAccept   = trade.ActionAccept
	ActionDecline  = trade.ActionDecline
	ActionCancel   = trade.ActionCancel
	ActionComplete = trade.ActionComplete

	BoxSent      = trade.BoxSent
	BoxReceived  = trade.BoxReceived
	BoxCompleted = trade.BoxCompleted
)

// Search and browse.
type (
	Filter      = filter.Filter
	FilterKey   = filter.Key
	FilterType  = filter.Type
	SearchQuery = params.Params
	SearchMode  = params.Mode
	ResultPage  = result.Page
	SearchState = search.State
	MapView     = mapview.View
	MapPin      = mapview.Pin
	Snapshot    = browse.Snapshot
)

// Search modes.
const (
	ModeBounds = params.ModeBounds
	ModeRadius = params.ModeRadius
	ModeGlobal = params.ModeGlobal
)

// Search type filters.
const (
	TypeAll      = filter.TypeAll
	TypeProducts = filter.TypeProducts
	TypeServices = filter.TypeServices
)

// FormatPrice renders an amount with its currency symbol and digit grouping.
func FormatPrice(amount float64, currency string) string {
	return listing.FormatPrice(amount, currency)
}

// BuildQuery turns a filter plus optional position and viewport into search
// parameters, choosing bounds, radius or global mode.
func BuildQuery(f Filter, position *Location, bounds *Bounds) SearchQuery {
	return params.Build(f, position, bounds)
}
