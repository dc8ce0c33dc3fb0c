package chi

import (
	"context"
	"sync"

	"github.com/swapcycle/swapcycle/internal/domain"
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

type fakeSessions struct {
	mu      sync.Mutex
	sess    domsession.Session
	authErr error
	regErr  error
	updated *user.User
}

func anonymous() *fakeSessions {
	return &fakeSessions{sess: domsession.Session{State: domsession.StateAnonymous}}
}

func signedIn(u user.User) *fakeSessions {
	return &fakeSessions{sess: domsession.Session{State: domsession.StateAuthenticated, User: &u, Token: "tok"}}
}

func (f *fakeSessions) Current() domsession.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

func (f *fakeSessions) Authenticate(_ context.Context, email, _ string) error {
	if f.authErr != nil {
		return f.authErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = domsession.Session{State: domsession.StateAuthenticated, User: &user.User{ID: 1, Email: email}, Token: "tok"}
	return nil
}

func (f *fakeSessions) Register(_ context.Context, r user.Registration) error {
	if f.regErr != nil {
		return f.regErr
	}
	return f.Authenticate(context.Background(), r.Email, r.Password)
}

func (f *fakeSessions) Logout(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = domsession.Session{State: domsession.StateAnonymous}
}

func (f *fakeSessions) Update(_ context.Context, u user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = &u
	return nil
}

type fakeProfiles struct {
	u   user.User
	err error
}

func (f fakeProfiles) Profile(context.Context) (user.User, error) { return f.u, f.err }

type fakeListings struct {
	kind    listing.Kind
	items   map[int64]listing.Item
	mine    []listing.Item
	cats    []listing.Category
	created []listing.Draft
	deleted []int64
	err     error
	getErr  error
}

func newFakeListings(kind listing.Kind, items ...listing.Item) *fakeListings {
	f := &fakeListings{kind: kind, items: make(map[int64]listing.Item)}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeListings) Kind() listing.Kind { return f.kind }

func (f *fakeListings) List(context.Context, api.ListQuery) (api.ListPage, error) {
	return api.ListPage{}, f.err
}

func (f *fakeListings) Get(_ context.Context, id int64) (listing.Item, error) {
	if f.getErr != nil {
		return listing.Item{}, f.getErr
	}
	it, ok := f.items[id]
	if !ok {
		return listing.Item{}, domain.ErrNotFound
	}
	return it, nil
}

func (f *fakeListings) Create(_ context.Context, d listing.Draft) (listing.Item, error) {
	if err := d.Validate(); err != nil {
		return listing.Item{}, err
	}
	f.created = append(f.created, d)
	return listing.Item{ID: 99, Type: f.kind, Name: d.Name}, f.err
}

func (f *fakeListings) Update(_ context.Context, id int64, d listing.Draft) (listing.Item, error) {
	if err := d.Validate(); err != nil {
		return listing.Item{}, err
	}
	it := f.items[id]
	it.Name = d.Name
	f.items[id] = it
	return it, f.err
}

func (f *fakeListings) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeListings) Mine(context.Context) ([]listing.Item, error) { return f.mine, f.err }

func (f *fakeListings) Categories(context.Context) ([]listing.Category, error) { return f.cats, nil }

type fakeOnline struct {
	page api.ListPage
	got  api.OnlineQuery
}

func (f *fakeOnline) Online(_ context.Context, q api.OnlineQuery) (api.ListPage, error) {
	f.got = q
	return f.page, nil
}

type fakeCatalog struct {
	cats []listing.Category
	subs []listing.Subcategory
}

func (f fakeCatalog) Categories(context.Context, filter.Type) ([]listing.Category, error) {
	return f.cats, nil
}

func (f fakeCatalog) Subcategories(context.Context, filter.Type, int64) ([]listing.Subcategory, error) {
	return f.subs, nil
}

type fakeTrades struct {
	boxes     map[trade.Box][]trade.Trade
	proposed  []trade.Proposal
	responded []trade.Action
}

func (f *fakeTrades) List(_ context.Context, box trade.Box) ([]trade.Trade, error) {
	return f.boxes[box], nil
}

func (f *fakeTrades) Propose(_ context.Context, p trade.Proposal) (trade.Trade, error) {
	if err := p.Validate(); err != nil {
		return trade.Trade{}, err
	}
	f.proposed = append(f.proposed, p)
	return trade.Trade{ID: 7, Status: trade.StatusPending}, nil
}

func (f *fakeTrades) Respond(
	_ context.Context, t trade.Trade, userID int64, a trade.Action, _ string,
) (trade.Trade, error) {
	role, ok := t.RoleOf(userID)
	if !ok {
		return t, domain.ErrForbidden
	}
	next, err := trade.Next(t.Status, role, a)
	if err != nil {
		return t, err
	}
	f.responded = append(f.responded, a)
	t.Status = next
	return t, nil
}

type fakeBrowser struct {
	mu      sync.Mutex
	snap    browse.Snapshot
	subs    map[int]func(browse.Snapshot)
	nextSub int
	applied []map[string]string
	bounds  []geo.Bounds
	hovered []listing.Marker
	resets  int
	retries int
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		snap: browse.Snapshot{Filter: filter.Default(), Started: true},
		subs: make(map[int]func(browse.Snapshot)),
	}
}

func (f *fakeBrowser) Snapshot() browse.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeBrowser) publish(s browse.Snapshot) {
	f.mu.Lock()
	f.snap = s
	subs := make([]func(browse.Snapshot), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (f *fakeBrowser) Subscribe(fn func(browse.Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeBrowser) ApplyFilter(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, values)
	next, err := filter.Apply(f.snap.Filter, values)
	if err != nil {
		return err
	}
	f.snap.Filter = next
	return nil
}

func (f *fakeBrowser) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeBrowser) Retry(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries++
	return nil
}

func (f *fakeBrowser) BoundsChanged(b geo.Bounds) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bounds = append(f.bounds, b)
}

func (f *fakeBrowser) Hover(id int64, kind listing.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hovered = append(f.hovered, listing.Marker{ID: id, Type: kind})
}

func (f *fakeBrowser) Click(id int64, kind listing.Kind) (*listing.Item, error) {
	return f.Select(id, kind)
}

func (f *fakeBrowser) Select(id int64, kind listing.Kind) (*listing.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.snap.Search.Results {
		if it.ID == id && it.Type == kind {
			it := it
			return &it, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBrowser) counts() (bounds, hovered int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bounds), len(f.hovered)
}

type fakeHealth struct{ report health.Report }

func (f fakeHealth) Check(context.Context) health.Report { return f.report }
