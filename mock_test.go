package swapcycle

import (
	"context"

	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/domain/search/params"
	"github.com/swapcycle/swapcycle/internal/domain/search/result"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/trade"
	"github.com/swapcycle/swapcycle/internal/domain/user"
	"github.com/swapcycle/swapcycle/internal/transport/api"
	browseuc "github.com/swapcycle/swapcycle/internal/usecase/browse"
)

// --- sessionUseCase mock ---

type mockSessions struct {
	current        domsession.Session
	authenticateFn func(ctx context.Context, email, password string) error
	registerFn     func(ctx context.Context, r user.Registration) error
	updateFn       func(ctx context.Context, u user.User) error
	logouts        int
}

func (m *mockSessions) Current() domsession.Session { return m.current }

func (m *mockSessions) Authenticate(ctx context.Context, email, password string) error {
	return m.authenticateFn(ctx, email, password)
}

func (m *mockSessions) Register(ctx context.Context, r user.Registration) error {
	return m.registerFn(ctx, r)
}

func (m *mockSessions) Logout(context.Context) {
	m.logouts++
	m.current = domsession.Anonymous()
}

func (m *mockSessions) Update(ctx context.Context, u user.User) error {
	return m.updateFn(ctx, u)
}

func (m *mockSessions) Subscribe(func(domsession.Session)) func() { return func() {} }

func (m *mockSessions) Claims() (domsession.Claims, bool) { return domsession.Claims{}, false }

func signedIn(id int64) domsession.Session {
	return domsession.Session{
		State: domsession.StateAuthenticated,
		Token: "tok",
		User:  &user.User{ID: id, Username: "ana"},
	}
}

// --- profileAPI mock ---

type mockProfiles struct {
	profileFn func(ctx context.Context) (user.User, error)
}

func (m *mockProfiles) Profile(ctx context.Context) (user.User, error) {
	return m.profileFn(ctx)
}

// --- listingAPI mock ---

type mockListings struct {
	kind         listing.Kind
	listFn       func(ctx context.Context, q api.ListQuery) (api.ListPage, error)
	getFn        func(ctx context.Context, id int64) (listing.Item, error)
	createFn     func(ctx context.Context, d listing.Draft) (listing.Item, error)
	updateFn     func(ctx context.Context, id int64, d listing.Draft) (listing.Item, error)
	deleteFn     func(ctx context.Context, id int64) error
	mineFn       func(ctx context.Context) ([]listing.Item, error)
	categoriesFn func(ctx context.Context) ([]listing.Category, error)
	onlineFn     func(ctx context.Context, q api.OnlineQuery) (api.ListPage, error)
}

func (m *mockListings) Kind() listing.Kind { return m.kind }

func (m *mockListings) List(ctx context.Context, q api.ListQuery) (api.ListPage, error) {
	return m.listFn(ctx, q)
}

func (m *mockListings) Get(ctx context.Context, id int64) (listing.Item, error) {
	return m.getFn(ctx, id)
}

func (m *mockListings) Create(ctx context.Context, d listing.Draft) (listing.Item, error) {
	return m.createFn(ctx, d)
}

func (m *mockListings) Update(ctx context.Context, id int64, d listing.Draft) (listing.Item, error) {
	return m.updateFn(ctx, id, d)
}

func (m *mockListings) Delete(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

func (m *mockListings) Mine(ctx context.Context) ([]listing.Item, error) {
	return m.mineFn(ctx)
}

func (m *mockListings) Categories(ctx context.Context) ([]listing.Category, error) {
	return m.categoriesFn(ctx)
}

func (m *mockListings) Online(ctx context.Context, q api.OnlineQuery) (api.ListPage, error) {
	return m.onlineFn(ctx, q)
}

// --- tradeAPI mock ---

type mockTrades struct {
	listFn    func(ctx context.Context, box trade.Box) ([]trade.Trade, error)
	proposeFn func(ctx context.Context, p trade.Proposal) (trade.Trade, error)
	respondFn func(ctx context.Context, t trade.Trade, userID int64, a trade.Action, msg string) (trade.Trade, error)
}

func (m *mockTrades) List(ctx context.Context, box trade.Box) ([]trade.Trade, error) {
	return m.listFn(ctx, box)
}

func (m *mockTrades) Propose(ctx context.Context, p trade.Proposal) (trade.Trade, error) {
	return m.proposeFn(ctx, p)
}

func (m *mockTrades) Respond(
	ctx context.Context, t trade.Trade, userID int64, a trade.Action, msg string,
) (trade.Trade, error) {
	return m.respondFn(ctx, t, userID, a, msg)
}

// --- searchAPI mock ---

type mockSearch struct {
	searchFn        func(ctx context.Context, p params.Params) (result.Page, error)
	mapDataFn       func(ctx context.Context, p params.Params) ([]listing.Marker, error)
	categoriesFn    func(ctx context.Context, typ filter.Type) ([]listing.Category, error)
	subcategoriesFn func(ctx context.Context, typ filter.Type, categoryID int64) ([]listing.Subcategory, error)
}

func (m *mockSearch) Search(ctx context.Context, p params.Params) (result.Page, error) {
	return m.searchFn(ctx, p)
}

func (m *mockSearch) MapData(ctx context.Context, p params.Params) ([]listing.Marker, error) {
	return m.mapDataFn(ctx, p)
}

func (m *mockSearch) Categories(ctx context.Context, typ filter.Type) ([]listing.Category, error) {
	return m.categoriesFn(ctx, typ)
}

func (m *mockSearch) Subcategories(
	ctx context.Context, typ filter.Type, categoryID int64,
) ([]listing.Subcategory, error) {
	return m.subcategoriesFn(ctx, typ, categoryID)
}

// --- browseUseCase mock ---

type mockBrowse struct {
	snapshot  browseuc.Snapshot
	setFn     func(ctx context.Context, key filter.Key, value string) error
	applyFn   func(ctx context.Context, values map[string]string) error
	pageFn    func(ctx context.Context, n int) error
	bounds    []geo.Bounds
	hovered   []listing.Marker
	selectFn  func(id int64, kind listing.Kind) (*listing.Item, error)
	startErr  error
	resets    int
	retries   int
	closeCall int
}

func (m *mockBrowse) Start(context.Context) error { return m.startErr }

func (m *mockBrowse) Snapshot() browseuc.Snapshot { return m.snapshot }

func (m *mockBrowse) Subscribe(func(browseuc.Snapshot)) func() { return func() {} }

func (m *mockBrowse) SetFilter(ctx context.Context, key filter.Key, value string) error {
	return m.setFn(ctx, key, value)
}

func (m *mockBrowse) ApplyFilter(ctx context.Context, values map[string]string) error {
	return m.applyFn(ctx, values)
}

func (m *mockBrowse) Reset(context.Context) error {
	m.resets++
	return nil
}

func (m *mockBrowse) Page(ctx context.Context, n int) error { return m.pageFn(ctx, n) }

func (m *mockBrowse) BoundsChanged(b geo.Bounds) { m.bounds = append(m.bounds, b) }

func (m *mockBrowse) Hover(id int64, kind listing.Kind) {
	m.hovered = append(m.hovered, listing.Marker{ID: id, Type: kind})
}

func (m *mockBrowse) Click(id int64, kind listing.Kind) (*listing.Item, error) {
	return m.selectFn(id, kind)
}

func (m *mockBrowse) Select(id int64, kind listing.Kind) (*listing.Item, error) {
	return m.selectFn(id, kind)
}

func (m *mockBrowse) Retry(context.Context) error {
	m.retries++
	return nil
}

func (m *mockBrowse) Close() { m.closeCall++ }
