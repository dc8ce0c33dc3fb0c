package swapcycle

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/swapcycle/swapcycle/internal/domain/geo"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	sessionFile  string
	valkeyAddrs  []string
	valkeyPass   string
	valkeyPrefix string
	readyTimeout time.Duration

	mapKey   string
	fallback *geo.Location
	position *geo.Location

	radiusKm float64
	perPage  int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithBaseURL sets the API root, e.g. "https://swapcycle.example/api".
// Defaults to http://localhost:5001/api.
func WithBaseURL(u string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = u
	})
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout sets the per-request timeout. Ignored with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithSessionFile keeps the session in a YAML file so that a login survives
// restarts. Without it (or WithValkey) the session lives in memory.
func WithSessionFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sessionFile = path
	})
}

// WithValkey keeps the session in Valkey under <keyPrefix>session.
func WithValkey(addr, password, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.valkeyAddrs = []string{addr}
		c.valkeyPass = password
		c.valkeyPrefix = keyPrefix
	})
}

// WithMapKey enables the map widget. Without a key the map stays disabled
// and browsing works on the result list alone.
func WithMapKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.mapKey = key
	})
}

// WithFallbackLocation sets the map centre used when the user position is
// unknown. Defaults to New York City.
func WithFallbackLocation(lat, lng float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.fallback = &geo.Location{Lat: lat, Lng: lng}
	})
}

// WithLocation fixes the user position used for radius searches.
// Without it the position is unknown and searches run unbounded.
func WithLocation(lat, lng float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.position = &geo.Location{Lat: lat, Lng: lng}
	})
}

// WithSearchDefaults sets the radius and page size restored by Reset.
// Defaults: 10 km, 20 per page.
func WithSearchDefaults(radiusKm float64, perPage int) Option {
	return optionFunc(func(c *clientConfig) {
		c.radiusKm = radiusKm
		c.perPage = perPage
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
