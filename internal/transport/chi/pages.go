package chi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/domain/user"
	"github.com/swapcycle/swapcycle/internal/logger"
	"github.com/swapcycle/swapcycle/internal/transport/api"
	"github.com/swapcycle/swapcycle/internal/usecase/browse"
)

func (s *Server) landing(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "landing", "SwapCycle", nil)
}

type searchView struct {
	Snapshot      browse.Snapshot
	Categories    []listing.Category
	Subcategories []listing.Subcategory
	Query         url.Values
	Types         []filter.Type
}

// searchPage applies the filters present in the query string, then renders the
// latest browse snapshot. Filter keys absent from the query keep their value.
func (s *Server) searchPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOr(ctx, s.logger)
	q := r.URL.Query()

	var f *flash
	var err error
	if q.Has("reset") {
		err = s.browser.Reset(ctx)
	} else if values := filterValues(q); len(values) > 0 {
		err = s.browser.ApplyFilter(ctx, values)
	}
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		f = &flash{Level: flashError, Message: s.viewFor(err).Message}
	} else if err != nil {
		log.Debug("search refresh failed", zap.Error(err))
	}

	snap := s.browser.Snapshot()
	view := searchView{
		Snapshot: snap,
		Query:    filterQuery(snap.Filter),
		Types:    []filter.Type{filter.TypeAll, filter.TypeProducts, filter.TypeServices},
	}

	cats, err := s.catalog.Categories(ctx, snap.Filter.Type)
	if err != nil {
		log.Warn("load categories", zap.Error(err))
	}
	view.Categories = cats
	if id := snap.Filter.CategoryID; id != nil {
		view.Subcategories = s.subcategoriesOf(r, cats, snap.Filter.Type, *id)
	}

	s.renderWithFlash(w, r, http.StatusOK, "search", "Search", view, f)
}

func (s *Server) subcategoriesOf(r *http.Request, cats []listing.Category, typ filter.Type, id int64) []listing.Subcategory {
	if c, ok := listing.FindCategory(cats, id); ok && len(c.Subcategories) > 0 {
		return c.Subcategories
	}
	subs, err := s.catalog.Subcategories(r.Context(), typ, id)
	if err != nil {
		logger.FromContextOr(r.Context(), s.logger).Warn("load subcategories", zap.Error(err))
		return nil
	}
	return subs
}

func (s *Server) retrySearch(w http.ResponseWriter, r *http.Request) {
	if err := s.browser.Retry(r.Context()); err != nil {
		logger.FromContextOr(r.Context(), s.logger).Debug("retry failed", zap.Error(err))
	}
	http.Redirect(w, r, "/search", http.StatusSeeOther)
}

// filterValues picks the filter keys present in q.
func filterValues(q url.Values) map[string]string {
	values := make(map[string]string)
	for _, k := range filter.Keys {
		if q.Has(string(k)) {
			values[string(k)] = q.Get(string(k))
		}
	}
	return values
}

// filterQuery encodes f for pagination links, without the page itself.
func filterQuery(f filter.Filter) url.Values {
	q := url.Values{}
	for _, k := range filter.Keys {
		if k == filter.KeyPage {
			continue
		}
		if v := f.Get(k); v != "" {
			q.Set(string(k), v)
		}
	}
	return q
}

type listingView struct {
	Item     listing.Item
	Own      bool
	MyItems  []listing.Item
	CanTrade bool
}

func (s *Server) listingPage(w http.ResponseWriter, r *http.Request) {
	kind := listing.KindProduct
	if strings.HasPrefix(r.URL.Path, "/services/") {
		kind = listing.KindService
	}
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	item, err := s.listings[kind].Get(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if item.Type == "" {
		item.Type = kind
	}

	view := listingView{Item: item}
	sess := s.sessions.Current()
	if sess.IsAuthenticated() && sess.User != nil {
		view.Own = sess.User.ID == item.UserID
		if !view.Own && item.Available() {
			view.MyItems = s.mine(r)
			view.CanTrade = len(view.MyItems) > 0
		}
	}
	s.render(w, r, http.StatusOK, "listing", item.Name, view)
}

// mine lists the user's products and services. Failures yield what loaded.
func (s *Server) mine(r *http.Request) []listing.Item {
	var out []listing.Item
	for _, kind := range []listing.Kind{listing.KindProduct, listing.KindService} {
		items, err := s.listings[kind].Mine(r.Context())
		if err != nil {
			logger.FromContextOr(r.Context(), s.logger).Warn("load my listings",
				zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		for _, it := range items {
			if it.Type == "" {
				it.Type = kind
			}
			out = append(out, it)
		}
	}
	return out
}

type onlineView struct {
	Page       api.ListPage
	Keyword    string
	CategoryID *int64
	Categories []listing.Category
	Query      url.Values
}

func (s *Server) onlineServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	oq := api.OnlineQuery{}
	view := onlineView{Query: url.Values{}}

	if kw := strings.TrimSpace(q.Get("keyword")); kw != "" {
		oq.Keyword = &kw
		view.Keyword = kw
		view.Query.Set("keyword", kw)
	}
	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			s.renderError(w, r, domain.NewFieldError("category_id", "must be a positive integer"))
			return
		}
		oq.CategoryID = &id
		view.CategoryID = &id
		view.Query.Set("category_id", v)
	}
	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.renderError(w, r, domain.NewFieldError("page", "must be a positive integer"))
			return
		}
		page = n
	}
	oq.Page = &page

	result, err := s.online.Online(r.Context(), oq)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if result.CurrentPage < 1 {
		result.CurrentPage = page
	}
	if result.Pages < 1 {
		result.Pages = 1
	}
	view.Page = result

	cats, err := s.listings[listing.KindService].Categories(r.Context())
	if err != nil {
		logger.FromContextOr(r.Context(), s.logger).Warn("load service categories", zap.Error(err))
	}
	view.Categories = cats

	s.render(w, r, http.StatusOK, "online", "Online services", view)
}

func (s *Server) profilePage(w http.ResponseWriter, r *http.Request) {
	u, err := s.profiles.Profile(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.renderError(w, r, err)
			return
		}
		// The stored profile is still good enough to show.
		sess := s.sessions.Current()
		if sess.User == nil {
			s.renderError(w, r, err)
			return
		}
		s.renderWithFlash(w, r, http.StatusOK, "profile", "Profile", *sess.User,
			&flash{Level: flashError, Message: s.viewFor(err).Message})
		return
	}
	if err := s.sessions.Update(r.Context(), u); err != nil {
		logger.FromContextOr(r.Context(), s.logger).Warn("refresh stored profile", zap.Error(err))
	}
	s.render(w, r, http.StatusOK, "profile", "Profile", u)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewFieldError("id", "must be a positive integer")
	}
	return id, nil
}

func currentUser(s SessionStore) (user.User, bool) {
	sess := s.Current()
	if !sess.IsAuthenticated() || sess.User == nil {
		return user.User{}, false
	}
	return *sess.User, true
}
