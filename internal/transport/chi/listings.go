package chi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/logger"
)

type myListingsView struct {
	Products []listing.Item
	Services []listing.Item
}

func (s *Server) myListings(w http.ResponseWriter, r *http.Request) {
	var view myListingsView
	for _, kind := range []listing.Kind{listing.KindProduct, listing.KindService} {
		items, err := s.listings[kind].Mine(r.Context())
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		if kind == listing.KindProduct {
			view.Products = items
		} else {
			view.Services = items
		}
	}
	s.render(w, r, http.StatusOK, "my_listings", "My listings", view)
}

type listingFormView struct {
	Kind       listing.Kind
	ID         int64
	Draft      listing.Draft
	Categories []listing.Category
	Conditions []string
	Currencies []string
	Action     string
}

func (s *Server) kindParam(r *http.Request) (listing.Kind, ListingService, error) {
	kind, err := listing.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", nil, err
	}
	return kind, s.listings[kind], nil
}

func (s *Server) formView(r *http.Request, kind listing.Kind, id int64, d listing.Draft) listingFormView {
	cats, err := s.listings[kind].Categories(r.Context())
	if err != nil {
		logger.FromContextOr(r.Context(), s.logger).Warn("load categories", zap.Error(err))
	}
	action := "/listings/new/" + string(kind)
	if id > 0 {
		action = fmt.Sprintf("/listings/%s/%d/edit", kind, id)
	}
	return listingFormView{
		Kind:       kind,
		ID:         id,
		Draft:      d,
		Categories: cats,
		Conditions: listing.Conditions,
		Currencies: listing.Currencies,
		Action:     action,
	}
}

func (s *Server) newListingForm(w http.ResponseWriter, r *http.Request) {
	kind, _, err := s.kindParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	d := listing.Draft{Kind: kind, Currency: listing.DefaultCurrency, Quantity: 1, Condition: "good"}
	if u, ok := currentUser(s.sessions); ok && u.PreferredCurrency != "" {
		d.Currency = u.PreferredCurrency
	}
	s.render(w, r, http.StatusOK, "listing_form", "New "+strings.ToLower(kind.Label()), s.formView(r, kind, 0, d))
}

func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	kind, svc, err := s.kindParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	d, err := draftFromForm(r, kind)
	if err == nil {
		_, err = svc.Create(r.Context(), d)
	}
	if err != nil {
		s.renderFormError(w, r, kind, 0, d, err)
		return
	}
	setFlash(w, flashSuccess, kind.Label()+" created.")
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

func (s *Server) editListingForm(w http.ResponseWriter, r *http.Request) {
	kind, item, ok := s.ownedListing(w, r)
	if !ok {
		return
	}
	view := s.formView(r, kind, item.ID, draftFromItem(item))
	for _, c := range view.Categories {
		if c.Name == item.Category {
			view.Draft.CategoryID = c.ID
			for _, sc := range c.Subcategories {
				if sc.Name == item.Subcategory {
					id := sc.ID
					view.Draft.SubcategoryID = &id
				}
			}
		}
	}
	s.render(w, r, http.StatusOK, "listing_form", "Edit "+item.Name, view)
}

func (s *Server) updateListing(w http.ResponseWriter, r *http.Request) {
	kind, item, ok := s.ownedListing(w, r)
	if !ok {
		return
	}
	d, err := draftFromForm(r, kind)
	if err == nil {
		_, err = s.listings[kind].Update(r.Context(), item.ID, d)
	}
	if err != nil {
		s.renderFormError(w, r, kind, item.ID, d, err)
		return
	}
	setFlash(w, flashSuccess, kind.Label()+" updated.")
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

func (s *Server) deleteListing(w http.ResponseWriter, r *http.Request) {
	kind, item, ok := s.ownedListing(w, r)
	if !ok {
		return
	}
	if err := s.listings[kind].Delete(r.Context(), item.ID); err != nil {
		s.redirectWithError(w, r, "/listings", err)
		return
	}
	setFlash(w, flashSuccess, fmt.Sprintf("%q deleted.", item.Name))
	http.Redirect(w, r, "/listings", http.StatusSeeOther)
}

// ownedListing loads the listing in the URL and checks the session user owns it.
func (s *Server) ownedListing(w http.ResponseWriter, r *http.Request) (listing.Kind, listing.Item, bool) {
	kind, svc, err := s.kindParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return "", listing.Item{}, false
	}
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err)
		return "", listing.Item{}, false
	}
	item, err := svc.Get(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return "", listing.Item{}, false
	}
	u, _ := currentUser(s.sessions)
	if item.UserID != u.ID {
		s.renderError(w, r, fmt.Errorf("%s %d: %w", kind, id, domain.ErrForbidden))
		return "", listing.Item{}, false
	}
	if item.Type == "" {
		item.Type = kind
	}
	return kind, item, true
}

func (s *Server) renderFormError(
	w http.ResponseWriter, r *http.Request, kind listing.Kind, id int64, d listing.Draft, err error,
) {
	if errors.Is(err, domain.ErrUnauthorized) {
		s.renderError(w, r, err)
		return
	}
	v := s.viewFor(err)
	logger.FromContextOr(r.Context(), s.logger).Info("listing form rejected", zap.Error(err))
	title := "New " + strings.ToLower(kind.Label())
	if id > 0 {
		title = "Edit " + d.Name
	}
	s.renderWithFlash(w, r, v.Status, "listing_form", title, s.formView(r, kind, id, d),
		&flash{Level: flashError, Message: v.Message})
}

// draftFromForm reads a listing form. The draft is returned even on error so
// the form can be shown again with the user's input.
func draftFromForm(r *http.Request, kind listing.Kind) (listing.Draft, error) {
	d := listing.Draft{Kind: kind}
	if err := r.ParseForm(); err != nil {
		return d, domain.NewFieldError("form", "could not be read")
	}
	f := r.PostForm
	d.Name = strings.TrimSpace(f.Get("name"))
	d.Description = strings.TrimSpace(f.Get("description"))
	d.Currency = strings.ToUpper(strings.TrimSpace(f.Get("currency")))
	d.Condition = f.Get("condition")
	d.Address = strings.TrimSpace(f.Get("address"))
	d.IsOnline = f.Get("is_online") == "on" || f.Get("is_online") == "true"
	d.Images = splitLines(f.Get("images"))

	var errs []error
	var err error
	if d.EstimatedValue, err = parseFloatField(f, "estimated_value"); err != nil {
		errs = append(errs, err)
	}
	if v := f.Get("category_id"); v != "" {
		if d.CategoryID, err = strconv.ParseInt(v, 10, 64); err != nil {
			errs = append(errs, domain.NewFieldError("category_id", "must be a number"))
		}
	}
	if v := f.Get("subcategory_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, domain.NewFieldError("subcategory_id", "must be a number"))
		} else {
			d.SubcategoryID = &id
		}
	}
	if v := f.Get("quantity"); v != "" {
		if d.Quantity, err = strconv.Atoi(v); err != nil {
			errs = append(errs, domain.NewFieldError("quantity", "must be a whole number"))
		}
	}
	if lat, lng := f.Get("latitude"), f.Get("longitude"); lat != "" || lng != "" {
		la, errLat := strconv.ParseFloat(lat, 64)
		ln, errLng := strconv.ParseFloat(lng, 64)
		if errLat != nil || errLng != nil {
			errs = append(errs, domain.NewFieldError("latitude", "latitude and longitude must be numbers"))
		} else {
			d.Latitude, d.Longitude = &la, &ln
		}
	}
	if len(errs) > 0 {
		return d, errs[0]
	}
	return d, nil
}

func parseFloatField(f url.Values, name string) (float64, error) {
	v := strings.TrimSpace(f.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, domain.NewFieldError(name, "must be a number")
	}
	return n, nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' }) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func draftFromItem(it listing.Item) listing.Draft {
	return listing.Draft{
		Kind:           it.Type,
		Name:           it.Name,
		Description:    it.Description,
		EstimatedValue: it.EstimatedValue,
		Currency:       it.Currency,
		Condition:      it.Condition,
		Quantity:       it.Quantity,
		IsOnline:       it.IsOnline,
		Address:        it.Address,
		Latitude:       it.Latitude,
		Longitude:      it.Longitude,
		Images:         it.Images,
	}
}
