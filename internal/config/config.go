package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/swapcycle/swapcycle/internal/domain/geo"
)

// Session store drivers.
const (
	SessionDriverFile   = "file"
	SessionDriverValkey = "valkey"
)

// Location providers.
const (
	LocationProviderNone   = "none"
	LocationProviderStatic = "static"
	LocationProviderIPAPI  = "ipapi"
)

// DefaultAPIBaseURL is the backend used when api.base_url is empty.
const DefaultAPIBaseURL = "http://localhost:5001/api"

// Config holds the swapcycle shell configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	API      APIConfig      `yaml:"api"`
	Map      MapConfig      `yaml:"map"`
	Location LocationConfig `yaml:"location"`
	Search   SearchConfig   `yaml:"search"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds the view server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// APIConfig holds the backend client settings.
type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Timeout returns the request timeout.
func (c APIConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// MapConfig holds the map widget settings. An empty APIKey disables the map.
type MapConfig struct {
	APIKey           string  `yaml:"api_key"`
	DefaultZoom      int     `yaml:"default_zoom"`
	MaxZoom          int     `yaml:"max_zoom"`
	FallbackLat      float64 `yaml:"fallback_lat"`
	FallbackLng      float64 `yaml:"fallback_lng"`
	ViewportWidth    int     `yaml:"viewport_width"`
	ViewportHeight   int     `yaml:"viewport_height"`
	BoundsDebounceMS int     `yaml:"bounds_debounce_ms"`
	PulseMS          int     `yaml:"pulse_ms"`
}

// Fallback returns the map centre used when the user position is unknown.
func (c MapConfig) Fallback() geo.Location {
	return geo.Location{Lat: c.FallbackLat, Lng: c.FallbackLng}
}

// BoundsDebounce returns the viewport debounce interval.
func (c MapConfig) BoundsDebounce() time.Duration {
	return time.Duration(c.BoundsDebounceMS) * time.Millisecond
}

// Pulse returns the hover pulse duration.
func (c MapConfig) Pulse() time.Duration { return time.Duration(c.PulseMS) * time.Millisecond }

// LocationConfig holds the geolocation settings.
type LocationConfig struct {
	Provider   string  `yaml:"provider"` // none, static, ipapi (default: ipapi)
	Endpoint   string  `yaml:"endpoint"`
	TimeoutSec int     `yaml:"timeout_sec"`
	StaticLat  float64 `yaml:"static_lat"`
	StaticLng  float64 `yaml:"static_lng"`
}

// Timeout returns the lookup timeout.
func (c LocationConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// SearchConfig holds the filter defaults.
type SearchConfig struct {
	DefaultRadiusKm float64 `yaml:"default_radius_km"`
	PerPage         int     `yaml:"per_page"`
}

// SessionConfig holds the durable session store settings.
type SessionConfig struct {
	Driver           string   `yaml:"driver"` // file, valkey (default: file)
	Path             string   `yaml:"path"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	CatalogTTLSec    int      `yaml:"catalog_ttl_sec"` // valkey only: category cache TTL
}

// CatalogTTL returns the category cache TTL.
func (c SessionConfig) CatalogTTL() time.Duration { return time.Duration(c.CatalogTTLSec) * time.Second }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if any, is loaded first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.TimeoutSec <= 0 {
		c.API.TimeoutSec = 15
	}
	if c.Map.DefaultZoom <= 0 {
		c.Map.DefaultZoom = 12
	}
	if c.Map.MaxZoom <= 0 {
		c.Map.MaxZoom = 15
	}
	if c.Map.FallbackLat == 0 && c.Map.FallbackLng == 0 {
		c.Map.FallbackLat = 40.7128
		c.Map.FallbackLng = -74.0060
	}
	if c.Map.ViewportWidth <= 0 {
		c.Map.ViewportWidth = 800
	}
	if c.Map.ViewportHeight <= 0 {
		c.Map.ViewportHeight = 500
	}
	if c.Map.BoundsDebounceMS <= 0 {
		c.Map.BoundsDebounceMS = 300
	}
	if c.Map.PulseMS <= 0 {
		c.Map.PulseMS = 2000
	}
	if c.Location.Provider == "" {
		c.Location.Provider = LocationProviderIPAPI
	}
	if c.Location.TimeoutSec <= 0 {
		c.Location.TimeoutSec = 8
	}
	if c.Search.DefaultRadiusKm <= 0 {
		c.Search.DefaultRadiusKm = 10
	}
	if c.Search.PerPage <= 0 {
		c.Search.PerPage = 20
	}
	if c.Session.Driver == "" {
		c.Session.Driver = SessionDriverFile
	}
	if c.Session.Path == "" {
		c.Session.Path = defaultSessionPath()
	}
	if c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = "swapcycle:"
	}
	if c.Session.ReadinessTimeout <= 0 {
		c.Session.ReadinessTimeout = 10
	}
	if c.Session.CatalogTTLSec <= 0 {
		c.Session.CatalogTTLSec = 600
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.Map.MaxZoom < c.Map.DefaultZoom {
		return fmt.Errorf("map.max_zoom (%d) must not be below map.default_zoom (%d)",
			c.Map.MaxZoom, c.Map.DefaultZoom)
	}
	if !c.Map.Fallback().Valid() {
		return fmt.Errorf("map fallback %v is not a valid coordinate", c.Map.Fallback())
	}
	switch c.Location.Provider {
	case LocationProviderNone, LocationProviderIPAPI:
	case LocationProviderStatic:
		if !geo.ValidateCoordinates(c.Location.StaticLat, c.Location.StaticLng) {
			return fmt.Errorf("location.static_lat/static_lng must be a valid coordinate")
		}
	default:
		return fmt.Errorf("location.provider must be \"none\", \"static\" or \"ipapi\", got %q", c.Location.Provider)
	}
	if c.Search.PerPage > 100 {
		return fmt.Errorf("search.per_page must be at most 100, got %d", c.Search.PerPage)
	}
	switch c.Session.Driver {
	case SessionDriverFile:
	case SessionDriverValkey:
		if len(c.Session.Addrs) == 0 {
			return fmt.Errorf("session.addrs is required for the valkey driver")
		}
	default:
		return fmt.Errorf("session.driver must be \"file\" or \"valkey\", got %q", c.Session.Driver)
	}
	return nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "swapcycle", "session.yaml")
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
