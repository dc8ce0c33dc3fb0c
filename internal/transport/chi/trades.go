package chi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/trade"
)

type tradeRow struct {
	Trade   trade.Trade
	Role    trade.Role
	Actions []trade.Action
}

type tradesView struct {
	Box    trade.Box
	Boxes  []trade.Box
	Trades []tradeRow
}

func (s *Server) tradesPage(w http.ResponseWriter, r *http.Request) {
	box, err := trade.ParseBox(r.URL.Query().Get("box"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	list, err := s.trades.List(r.Context(), box)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	u, _ := currentUser(s.sessions)
	view := tradesView{
		Box:   box,
		Boxes: []trade.Box{trade.BoxSent, trade.BoxReceived, trade.BoxCompleted},
	}
	for _, t := range list {
		role, _ := t.RoleOf(u.ID)
		view.Trades = append(view.Trades, tradeRow{Trade: t, Role: role, Actions: t.AvailableActions(u.ID)})
	}
	s.render(w, r, http.StatusOK, "trades", "Trades", view)
}

// proposeTrade reads "kind:id" references for both sides of the trade.
func (s *Server) proposeTrade(w http.ResponseWriter, r *http.Request) {
	back := "/trades"
	if next := r.FormValue("next"); next != "" {
		back = safeNext(next)
	}
	offered, err := parseItemRef("offered", r.FormValue("offered"))
	if err != nil {
		s.redirectWithError(w, r, back, err)
		return
	}
	requested, err := parseItemRef("requested", r.FormValue("requested"))
	if err != nil {
		s.redirectWithError(w, r, back, err)
		return
	}
	p := trade.Proposal{
		Offered:   offered,
		Requested: requested,
		Message:   strings.TrimSpace(r.FormValue("message")),
	}
	if _, err := s.trades.Propose(r.Context(), p); err != nil {
		s.redirectWithError(w, r, back, err)
		return
	}
	setFlash(w, flashSuccess, "Trade proposed.")
	http.Redirect(w, r, "/trades?box=sent", http.StatusSeeOther)
}

func (s *Server) respondTrade(w http.ResponseWriter, r *http.Request) {
	back := "/trades?box=" + string(trade.BoxReceived)
	if b, err := trade.ParseBox(r.FormValue("box")); err == nil {
		back = "/trades?box=" + string(b)
	}
	id, err := pathID(r)
	if err != nil {
		s.redirectWithError(w, r, back, err)
		return
	}
	action, err := trade.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		s.redirectWithError(w, r, back, err)
		return
	}
	t, err := s.findTrade(r, id)
	if err != nil {
		s.redirectWithError(w, r, back, err)
		return
	}
	u, _ := currentUser(s.sessions)
	if _, err := s.trades.Respond(r.Context(), t, u.ID, action, strings.TrimSpace(r.FormValue("message"))); err != nil {
		s.redirectWithError(w, r, back, err)
		return
	}
	setFlash(w, flashSuccess, fmt.Sprintf("Trade #%d: %s done.", id, action))
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// findTrade looks the trade up in the user's sent and received boxes.
func (s *Server) findTrade(r *http.Request, id int64) (trade.Trade, error) {
	for _, box := range []trade.Box{trade.BoxReceived, trade.BoxSent} {
		list, err := s.trades.List(r.Context(), box)
		if err != nil {
			return trade.Trade{}, err
		}
		for _, t := range list {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return trade.Trade{}, fmt.Errorf("trade %d: %w", id, domain.ErrNotFound)
}

func parseItemRef(field, ref string) (trade.Item, error) {
	kind, rawID, ok := strings.Cut(ref, ":")
	if !ok {
		return trade.Item{}, domain.NewFieldError(field, "must be a listing reference")
	}
	k, err := listing.ParseKind(kind)
	if err != nil {
		return trade.Item{}, domain.NewFieldError(field, "must be a product or service")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return trade.Item{}, domain.NewFieldError(field, "must reference a listing id")
	}
	return trade.Item{Type: k, ID: id}, nil
}
