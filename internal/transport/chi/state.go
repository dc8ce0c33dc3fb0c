package chi

import (
	"net/http"
	"strconv"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/usecase/mapview"
)

func (s *Server) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.browser.Snapshot())
}

type markersResponse struct {
	Markers []listing.Marker `json:"markers"`
	Pins    []mapview.Pin    `json:"pins"`
	Loading bool             `json:"loading"`
}

func (s *Server) markers(w http.ResponseWriter, _ *http.Request) {
	snap := s.browser.Snapshot()
	resp := markersResponse{
		Markers: snap.Search.Markers,
		Pins:    snap.Map.Pins,
		Loading: snap.Search.MarkersLoading,
	}
	if resp.Markers == nil {
		resp.Markers = []listing.Marker{}
	}
	if resp.Pins == nil {
		resp.Pins = []mapview.Pin{}
	}
	writeJSON(w, http.StatusOK, resp)
}

type subcategoriesResponse struct {
	Subcategories []listing.Subcategory `json:"subcategories"`
}

// subcategories feeds the dependent select of the filter form.
func (s *Server) subcategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := filter.Type(q.Get("type"))
	if typ == "" {
		typ = filter.TypeAll
	}
	if !typ.IsValid() {
		s.writeJSONError(w, r, domain.NewFieldError("type", "must be all, products or services"))
		return
	}
	id, err := strconv.ParseInt(q.Get("category_id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeJSONError(w, r, domain.NewFieldError("category_id", "must be a positive integer"))
		return
	}
	cats, err := s.catalog.Categories(r.Context(), typ)
	if err != nil {
		s.writeJSONError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subcategoriesResponse{Subcategories: s.subcategoriesOf(r, cats, typ, id)})
}
