package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/trade"
)

// TradeService wraps the /trades endpoints.
type TradeService struct {
	c *Client
}

// NewTradeService creates the trade service.
func NewTradeService(c *Client) *TradeService { return &TradeService{c: c} }

// List returns the trades in box for the current user.
func (s *TradeService) List(ctx context.Context, box trade.Box) ([]trade.Trade, error) {
	q := url.Values{}
	if err := addParam(q, "box", string(box)); err != nil {
		return nil, err
	}
	var out struct {
		Trades []trade.Trade `json:"trades"`
	}
	if err := s.c.Do(ctx, http.MethodGet, "/trades", q, nil, &out); err != nil {
		return nil, fmt.Errorf("list %s trades: %w", box, err)
	}
	return out.Trades, nil
}

// Propose sends a new trade proposal.
func (s *TradeService) Propose(ctx context.Context, p trade.Proposal) (trade.Trade, error) {
	if err := p.Validate(); err != nil {
		return trade.Trade{}, err
	}
	var out struct {
		Trade trade.Trade `json:"trade"`
	}
	if err := s.c.Do(ctx, http.MethodPost, "/trades", nil, p.Body(), &out); err != nil {
		return trade.Trade{}, fmt.Errorf("propose trade: %w", err)
	}
	return out.Trade, nil
}

// Respond applies action to t on behalf of userID. The transition is checked
// locally first so impossible actions never reach the backend.
func (s *TradeService) Respond(
	ctx context.Context, t trade.Trade, userID int64, action trade.Action, message string,
) (trade.Trade, error) {
	role, ok := t.RoleOf(userID)
	if !ok {
		return trade.Trade{}, fmt.Errorf("trade %d: %w", t.ID, domain.ErrForbidden)
	}
	next, err := trade.Next(t.Status, role, action)
	if err != nil {
		return trade.Trade{}, err
	}

	body := struct {
		Action  trade.Action `json:"action"`
		Message string       `json:"message,omitempty"`
	}{Action: action, Message: message}

	var out struct {
		Trade *trade.Trade `json:"trade"`
	}
	path := "/trades/" + strconv.FormatInt(t.ID, 10)
	if err := s.c.Do(ctx, http.MethodPut, path, nil, body, &out); err != nil {
		return trade.Trade{}, fmt.Errorf("%s trade %d: %w", action, t.ID, err)
	}
	if out.Trade != nil {
		return *out.Trade, nil
	}
	t.Status = next
	t.ResponseMessage = message
	return t, nil
}
