package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	domsession "github.com/swapcycle/swapcycle/internal/domain/session"
	"github.com/swapcycle/swapcycle/internal/logger"
	"github.com/swapcycle/swapcycle/internal/usecase/health"
)

// Deps are the collaborators of the view server.
type Deps struct {
	Sessions       SessionStore
	Profiles       Profiles
	Products       ListingService
	Services       ListingService
	Online         OnlineServices
	Catalog        Catalog
	Trades         Trades
	Browser        Browser
	Health         HealthChecker
	Hub            *Hub
	AllowedOrigins []string
	MapEnabled     bool
	Logger         *zap.Logger
}

// Server renders the SwapCycle pages.
type Server struct {
	sessions       SessionStore
	profiles       Profiles
	listings       map[listing.Kind]ListingService
	online         OnlineServices
	catalog        Catalog
	trades         Trades
	browser        Browser
	health         HealthChecker
	hub            *Hub
	allowedOrigins []string
	mapEnabled     bool
	templates      *templates
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates the view server.
func NewServer(d Deps) (*Server, error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	origins := make([]string, 0, len(d.AllowedOrigins))
	for _, o := range d.AllowedOrigins {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return &Server{
		sessions: d.Sessions,
		profiles: d.Profiles,
		listings: map[listing.Kind]ListingService{
			listing.KindProduct: d.Products,
			listing.KindService: d.Services,
		},
		online:         d.Online,
		catalog:        d.Catalog,
		trades:         d.Trades,
		browser:        d.Browser,
		health:         d.Health,
		hub:            d.Hub,
		allowedOrigins: origins,
		mapEnabled:     d.MapEnabled,
		templates:      tpl,
		logger:         log,
		errorHandlers:  defaultErrorHandlers(),
	}, nil
}

// Routes mounts every page and endpoint on r.
func (s *Server) Routes(r chi.Router) {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	r.Get("/", s.landing)
	r.Get("/login", s.loginForm)
	r.Post("/login", s.login)
	r.Get("/register", s.registerForm)
	r.Post("/register", s.register)
	r.Post("/logout", s.logout)
	r.Get("/logout", s.logout)

	r.Get("/search", s.searchPage)
	r.Post("/search/retry", s.retrySearch)
	r.Get("/products/{id}", s.listingPage)
	r.Get("/services/{id}", s.listingPage)
	r.Get("/services/online", s.onlineServices)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(s.sessions))
		r.Get("/listings", s.myListings)
		r.Get("/listings/new/{kind}", s.newListingForm)
		r.Post("/listings/new/{kind}", s.createListing)
		r.Get("/listings/{kind}/{id}/edit", s.editListingForm)
		r.Post("/listings/{kind}/{id}/edit", s.updateListing)
		r.Post("/listings/{kind}/{id}/delete", s.deleteListing)
		r.Get("/trades", s.tradesPage)
		r.Post("/trades", s.proposeTrade)
		r.Post("/trades/{id}/{action}", s.respondTrade)
		r.Get("/profile", s.profilePage)
	})

	r.Group(func(r chi.Router) {
		r.Use(c.Handler)
		r.Get("/api/state", s.state)
		r.Get("/api/markers", s.markers)
		r.Get("/api/subcategories", s.subcategories)
		if s.hub != nil {
			r.Get("/ws", s.hub.ServeWS)
		}
	})

	r.Get("/health", s.healthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

// Handler returns a router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

type page struct {
	Title      string
	Session    domsession.Session
	Flash      *flash
	MapEnabled bool
	Data       any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	s.renderWithFlash(w, r, status, name, title, data, nil)
}

func (s *Server) renderWithFlash(
	w http.ResponseWriter, r *http.Request, status int, name, title string, data any, f *flash,
) {
	if pending := popFlash(w, r); f == nil {
		f = pending
	}
	p := page{
		Title:      title,
		Session:    s.sessions.Current(),
		Flash:      f,
		MapEnabled: s.mapEnabled,
		Data:       data,
	}
	if err := s.templates.execute(w, status, name, p); err != nil {
		logger.FromContextOr(r.Context(), s.logger).Error("render page", zap.String("page", name), zap.Error(err))
	}
}

const sessionExpired = "Your session has expired. Please sign in again."

// renderError shows a failed operation. An expired session on a signed-in
// page goes back to the login page; public pages show the error in place.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	if errors.Is(err, domain.ErrUnauthorized) {
		log.Info("session rejected by backend", zap.Error(err), zap.Bool("protected", isProtected(r)))
		if isProtected(r) {
			setFlash(w, flashError, sessionExpired)
			http.Redirect(w, r, loginURL(r), http.StatusSeeOther)
			return
		}
		v := errorView{Status: http.StatusUnauthorized, Message: sessionExpired}
		s.renderWithFlash(w, r, v.Status, "error", "Error", v, &flash{Level: flashError, Message: v.Message})
		return
	}
	v := s.viewFor(err)
	if v.Status >= http.StatusInternalServerError {
		log.Error("page error", zap.Error(err))
	} else {
		log.Warn("page error", zap.Error(err))
	}
	s.renderWithFlash(w, r, v.Status, "error", "Error", v, &flash{Level: flashError, Message: v.Message})
}

// redirectWithError reports a failed form action on the page it came from.
func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, to string, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		s.renderError(w, r, err)
		return
	}
	logger.FromContextOr(r.Context(), s.logger).Warn("action failed", zap.Error(err))
	setFlash(w, flashError, s.viewFor(err).Message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type jsonError struct {
	Message string `json:"message"`
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	v := s.viewFor(err)
	logger.FromContextOr(r.Context(), s.logger).Warn("api error", zap.Error(err))
	writeJSON(w, v.Status, jsonError{Message: v.Message})
}
