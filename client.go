package swapcycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	dbValkey "github.com/swapcycle/swapcycle/internal/db/valkey"
	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/domain/search/params"
	"github.com/swapcycle/swapcycle/internal/domain/search/result"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/domain/trade"
	"github.com/swapcycle/swapcycle/internal/domain/user"
	catalogrepo "github.com/swapcycle/swapcycle/internal/repository/catalog"
	sessionrepo "github.com/swapcycle/swapcycle/internal/repository/session"
	"github.com/swapcycle/swapcycle/internal/transport/api"
	browseuc "github.com/swapcycle/swapcycle/internal/usecase/browse"
	filtersuc "github.com/swapcycle/swapcycle/internal/usecase/filters"
	healthuc "github.com/swapcycle/swapcycle/internal/usecase/health"
	locationuc "github.com/swapcycle/swapcycle/internal/usecase/location"
	mapviewuc "github.com/swapcycle/swapcycle/internal/usecase/mapview"
	searchuc "github.com/swapcycle/swapcycle/internal/usecase/search"
	sessionuc "github.com/swapcycle/swapcycle/internal/usecase/session"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultRadiusKm         = 10
	defaultPerPage          = 20
)

// Internal interfaces, swapped for mocks in tests.
type sessionUseCase interface {
	Current() domsession.Session
	Authenticate(ctx context.Context, email, password string) error
	Register(ctx context.Context, r user.Registration) error
	Logout(ctx context.Context)
	Update(ctx context.Context, u user.User) error
	Subscribe(fn func(domsession.Session)) (unsubscribe func())
	Claims() (domsession.Claims, bool)
}

type profileAPI interface {
	Profile(ctx context.Context) (user.User, error)
}

type listingAPI interface {
	Kind() listing.Kind
	List(ctx context.Context, q api.ListQuery) (api.ListPage, error)
	Get(ctx context.Context, id int64) (listing.Item, error)
	Create(ctx context.Context, d listing.Draft) (listing.Item, error)
	Update(ctx context.Context, id int64, d listing.Draft) (listing.Item, error)
	Delete(ctx context.Context, id int64) error
	Mine(ctx context.Context) ([]listing.Item, error)
	Categories(ctx context.Context) ([]listing.Category, error)
}

type onlineAPI interface {
	Online(ctx context.Context, q api.OnlineQuery) (api.ListPage, error)
}

type tradeAPI interface {
	List(ctx context.Context, box trade.Box) ([]trade.Trade, error)
	Propose(ctx context.Context, p trade.Proposal) (trade.Trade, error)
	Respond(ctx context.Context, t trade.Trade, userID int64, action trade.Action, message string) (trade.Trade, error)
}

type searchAPI interface {
	Search(ctx context.Context, p params.Params) (result.Page, error)
	MapData(ctx context.Context, p params.Params) ([]listing.Marker, error)
	Categories(ctx context.Context, typ filter.Type) ([]listing.Category, error)
	Subcategories(ctx context.Context, typ filter.Type, categoryID int64) ([]listing.Subcategory, error)
}

type browseUseCase interface {
	Start(ctx context.Context) error
	Snapshot() browseuc.Snapshot
	Subscribe(fn func(browseuc.Snapshot)) (unsubscribe func())
	SetFilter(ctx context.Context, key filter.Key, value string) error
	ApplyFilter(ctx context.Context, values map[string]string) error
	Reset(ctx context.Context) error
	Page(ctx context.Context, n int) error
	BoundsChanged(b geo.Bounds)
	Hover(id int64, kind listing.Kind)
	Click(id int64, kind listing.Kind) (*listing.Item, error)
	Select(id int64, kind listing.Kind) (*listing.Item, error)
	Retry(ctx context.Context) error
	Close()
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the SwapCycle SDK entry point.
type Client struct {
	sessions  sessionUseCase
	profiles  profileAPI
	products  listingAPI
	services  listingAPI
	online    onlineAPI
	trades    tradeAPI
	search    searchAPI
	browse    browseUseCase
	healthSvc healthUseCase
	obs       *observer

	closeOnce sync.Once
	closers   []func()
}

// New creates a Client and restores the stored session, if any.
// The provided context is used for the session store readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		radiusKm:     defaultRadiusKm,
		perPage:      defaultPerPage,
		readyTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	apiClient, err := api.New(api.Config{
		BaseURL:    cfg.baseURL,
		Timeout:    cfg.timeout,
		HTTPClient: cfg.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("swapcycle: %w", err)
	}

	c := &Client{obs: obs}
	persister, kv, err := c.createPersister(ctx, cfg)
	if err != nil {
		return nil, err
	}

	auth := api.NewAuthService(apiClient)
	sessions := sessionuc.New(persister, auth, nil)
	apiClient.SetTokenSource(sessions.Token)
	apiClient.OnUnauthorized(sessions.Unauthorized)
	sessions.Restore(ctx)

	c.wire(cfg, apiClient, sessions, auth, kv)
	return c, nil
}

// createPersister returns the session persister and, for Valkey, the store
// that also backs the category cache.
func (c *Client) createPersister(
	ctx context.Context, cfg *clientConfig,
) (sessionuc.Persister, *dbValkey.Store, error) {
	switch {
	case len(cfg.valkeyAddrs) > 0:
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.valkeyAddrs,
			Password: cfg.valkeyPass,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("swapcycle: create valkey store: %w", err)
		}
		if err := store.WaitForReady(ctx, cfg.readyTimeout); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("swapcycle: session store not ready: %w", err)
		}
		c.closers = append(c.closers, store.Close)
		return sessionrepo.NewKVStore(store, cfg.valkeyPrefix), store, nil
	case cfg.sessionFile != "":
		path, err := expandHome(cfg.sessionFile)
		if err != nil {
			return nil, nil, fmt.Errorf("swapcycle: session file: %w", err)
		}
		return sessionrepo.NewFileStore(path), nil, nil
	default:
		return &memoryPersister{}, nil, nil
	}
}

func (c *Client) wire(
	cfg *clientConfig, apiClient *api.Client, sessions *sessionuc.Store, auth *api.AuthService,
	kv *dbValkey.Store,
) {
	searchSvc := api.NewSearchService(apiClient)

	var pinger healthuc.StorePinger
	var catalog searchAPI = searchSvc
	if kv != nil {
		pinger = kv
		catalog = cachedSearch{
			searchAPI: searchSvc,
			cache:     catalogrepo.New(searchSvc, kv, cfg.valkeyPrefix, 0, nil, nil),
		}
	}
	services := api.NewServices(apiClient)

	filters := filtersuc.NewController(filter.Defaults{RadiusKm: cfg.radiusKm, PerPage: cfg.perPage})
	searcher := searchuc.New(searchSvc, nil)
	mapView := mapviewuc.New(mapviewuc.Config{
		APIKey:   cfg.mapKey,
		Fallback: cfg.fallback,
	}, mapviewuc.ScriptLoader{}, nil)

	var provider locationuc.Provider
	if cfg.position != nil {
		provider = locationuc.Static{Location: *cfg.position}
	}
	var fallback geo.Location
	if cfg.fallback != nil {
		fallback = *cfg.fallback
	}
	locator := locationuc.New(provider, fallback, 0, nil)

	// Map-driven refreshes outlive any single call; Close cancels them.
	bctx, cancel := context.WithCancel(context.Background())
	browser := browseuc.New(bctx, filters, searcher, mapView, locator, zap.NewNop())

	c.sessions = sessions
	c.profiles = auth
	c.products = api.NewProducts(apiClient)
	c.services = services
	c.online = services
	c.trades = api.NewTradeService(apiClient)
	c.search = catalog
	c.browse = browser
	c.healthSvc = healthuc.New(searchSvc, pinger)
	c.closers = append([]func(){browser.Close, cancel}, c.closers...)
}

// Close stops background refreshes and releases the session store.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		for _, fn := range c.closers {
			fn()
		}
	})
}

// Auth returns the account and session service.
func (c *Client) Auth() *AuthService {
	return &AuthService{sessions: c.sessions, profiles: c.profiles, obs: c.obs}
}

// Products returns the product listing service.
func (c *Client) Products() *ListingService {
	return &ListingService{api: c.products, obs: c.obs}
}

// Services returns the service listing service.
func (c *Client) Services() *ServiceListings {
	return &ServiceListings{
		ListingService: &ListingService{api: c.services, obs: c.obs},
		online:         c.online,
	}
}

// Trades returns the trade proposal service.
func (c *Client) Trades() *TradeService {
	return &TradeService{api: c.trades, sessions: c.sessions, obs: c.obs}
}

// Search returns the one-shot search service.
func (c *Client) Search() *SearchService {
	return &SearchService{api: c.search, obs: c.obs}
}

// Browse returns the live browse controller shared by the client.
func (c *Client) Browse() *BrowseService {
	return &BrowseService{svc: c.browse, obs: c.obs}
}

// cachedSearch serves categories through the Valkey cache.
type cachedSearch struct {
	searchAPI
	cache *catalogrepo.Cached
}

func (s cachedSearch) Categories(ctx context.Context, typ filter.Type) ([]listing.Category, error) {
	return s.cache.Categories(ctx, typ)
}

func (s cachedSearch) Subcategories(
	ctx context.Context, typ filter.Type, categoryID int64,
) ([]listing.Subcategory, error) {
	return s.cache.Subcategories(ctx, typ, categoryID)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// memoryPersister keeps the session for the process lifetime only.
type memoryPersister struct {
	mu   sync.Mutex
	sess *domsession.Session
}

func (m *memoryPersister) Load(context.Context) (domsession.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return domsession.Anonymous(), false, nil
	}
	return *m.sess, true, nil
}

func (m *memoryPersister) Save(_ context.Context, s domsession.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &s
	return nil
}

func (m *memoryPersister) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}
