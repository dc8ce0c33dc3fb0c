package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/config"
	dbValkey "github.com/swapcycle/swapcycle/internal/db/valkey"
	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	logpkg "github.com/swapcycle/swapcycle/internal/logger"
	"github.com/swapcycle/swapcycle/internal/metrics"
	catalogrepo "github.com/swapcycle/swapcycle/internal/repository/catalog"
	sessionrepo "github.com/swapcycle/swapcycle/internal/repository/session"
	"github.com/swapcycle/swapcycle/internal/transport/api"
	chiTransport "github.com/swapcycle/swapcycle/internal/transport/chi"
	"github.com/swapcycle/swapcycle/internal/transport/geolocation"
	browseuc "github.com/swapcycle/swapcycle/internal/usecase/browse"
	filtersuc "github.com/swapcycle/swapcycle/internal/usecase/filters"
	healthuc "github.com/swapcycle/swapcycle/internal/usecase/health"
	locationuc "github.com/swapcycle/swapcycle/internal/usecase/location"
	mapviewuc "github.com/swapcycle/swapcycle/internal/usecase/mapview"
	searchuc "github.com/swapcycle/swapcycle/internal/usecase/search"
	sessionuc "github.com/swapcycle/swapcycle/internal/usecase/session"
	"github.com/swapcycle/swapcycle/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting SwapCycle view server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.String("session_driver", cfg.Session.Driver),
		zap.String("location_provider", cfg.Location.Provider),
		zap.Bool("map_enabled", cfg.Map.APIKey != ""),
	)

	metrics.RegisterAPIMetrics()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	client, err := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	// Session persistence
	persister, kv := buildPersister(ctx, cfg.Session, logger)
	var storePinger healthuc.StorePinger
	if kv != nil {
		defer kv.Close()
		storePinger = kv
	}

	auth := api.NewAuthService(client)
	sessions := sessionuc.New(persister, auth, logger)
	client.SetTokenSource(sessions.Token)
	client.OnUnauthorized(sessions.Unauthorized)
	restored := sessions.Restore(ctx)
	logger.Info("Session restored", zap.String("state", string(restored.State)))

	// Browse page: filters -> search -> map
	searchAPI := api.NewSearchService(client)
	filters := filtersuc.NewController(filter.Defaults{
		RadiusKm: cfg.Search.DefaultRadiusKm,
		PerPage:  cfg.Search.PerPage,
	})
	searcher := searchuc.New(searchAPI, logger)

	fallback := cfg.Map.Fallback()
	mapView := mapviewuc.New(mapviewuc.Config{
		APIKey:         cfg.Map.APIKey,
		DefaultZoom:    cfg.Map.DefaultZoom,
		MaxZoom:        cfg.Map.MaxZoom,
		Fallback:       &fallback,
		Width:          cfg.Map.ViewportWidth,
		Height:         cfg.Map.ViewportHeight,
		BoundsDebounce: cfg.Map.BoundsDebounce(),
		Pulse:          cfg.Map.Pulse(),
	}, mapviewuc.ScriptLoader{}, logger)

	locator := locationuc.New(buildLocationProvider(cfg.Location, logger), fallback, cfg.Location.Timeout(), logger)

	browser := browseuc.New(ctx, filters, searcher, mapView, locator, logger)
	defer browser.Close()
	go func() {
		if err := browser.Start(ctx); err != nil {
			logger.Warn("Initial search failed", zap.Error(err))
		}
	}()

	hub := chiTransport.NewHub(browser, cfg.HTTP.AllowedOrigins, logger)
	defer hub.Close()

	var catalog chiTransport.Catalog = searchAPI
	if kv != nil {
		catalog = catalogrepo.New(searchAPI, kv, cfg.Session.KeyPrefix, cfg.Session.CatalogTTL(),
			metrics.CatalogCacheTotal, logger)
	}

	healthSvc := healthuc.New(searchAPI, storePinger)
	services := api.NewServices(client)

	server, err := chiTransport.NewServer(chiTransport.Deps{
		Sessions:       sessions,
		Profiles:       auth,
		Products:       api.NewProducts(client),
		Services:       services,
		Online:         services,
		Catalog:        catalog,
		Trades:         api.NewTradeService(client),
		Browser:        browser,
		Health:         healthSvc,
		Hub:            hub,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MapEnabled:     cfg.Map.APIKey != "",
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("Failed to create view server", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	stop()

	logger.Info("Server stopped gracefully")
}

// buildPersister picks the session store. The returned Valkey store is nil for
// the file driver; it also backs the category cache.
func buildPersister(
	ctx context.Context, cfg config.SessionConfig, logger *zap.Logger,
) (sessionuc.Persister, *dbValkey.Store) {
	switch cfg.Driver {
	case config.SessionDriverValkey:
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create session store", zap.Error(err))
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Session store not ready", zap.Error(err))
		}
		logger.Info("Connected to session store", zap.Strings("addrs", cfg.Addrs))
		return sessionrepo.NewKVStore(store, cfg.KeyPrefix), store
	default:
		logger.Info("Using file session store", zap.String("path", cfg.Path))
		return sessionrepo.NewFileStore(cfg.Path), nil
	}
}

// buildLocationProvider returns nil for "none": the position stays unknown.
func buildLocationProvider(cfg config.LocationConfig, logger *zap.Logger) locationuc.Provider {
	switch cfg.Provider {
	case config.LocationProviderNone:
		return nil
	case config.LocationProviderStatic:
		return locationuc.Static{Location: geo.Location{Lat: cfg.StaticLat, Lng: cfg.StaticLng}}
	default:
		return geolocation.NewIPAPI(cfg.Endpoint, &http.Client{Timeout: cfg.Timeout()}, logger)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
