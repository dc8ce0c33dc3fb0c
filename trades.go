package swapcycle

import (
	"context"
	"fmt"
	"time"
)

// TradeService proposes and answers trades for the signed-in user.
type TradeService struct {
	api      tradeAPI
	sessions sessionUseCase
	obs      *observer
}

// List returns the trades in a box.
func (s *TradeService) List(ctx context.Context, box TradeBox) (_ []Trade, err error) {
	start := time.Now()
	defer func() { s.obs.observe("trade.list", start, err) }()

	trades, err := s.api.List(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("list %s trades: %w", box, err)
	}
	return trades, nil
}

// Propose offers one of the user's listings in exchange for another.
func (s *TradeService) Propose(ctx context.Context, p Proposal) (_ Trade, err error) {
	start := time.Now()
	defer func() { s.obs.observe("trade.propose", start, err) }()

	if err := p.Validate(); err != nil {
		return Trade{}, fmt.Errorf("propose trade: %w", err)
	}
	t, err := s.api.Propose(ctx, p)
	if err != nil {
		return Trade{}, fmt.Errorf("propose trade: %w", err)
	}
	return t, nil
}

// Respond applies action to t as the signed-in user. Actions the user's role
// does not allow in the trade's current status fail with ErrInvalidTransition
// without a backend call.
func (s *TradeService) Respond(
	ctx context.Context, t Trade, action TradeAction, message string,
) (_ Trade, err error) {
	start := time.Now()
	defer func() { s.obs.observe("trade.respond", start, err) }()

	uid, err := s.userID()
	if err != nil {
		return Trade{}, fmt.Errorf("respond to trade %d: %w", t.ID, err)
	}
	out, err := s.api.Respond(ctx, t, uid, action, message)
	if err != nil {
		return Trade{}, fmt.Errorf("respond to trade %d: %w", t.ID, err)
	}
	return out, nil
}

// Actions lists what the signed-in user may do with t. Empty when signed out.
func (s *TradeService) Actions(t Trade) []TradeAction {
	uid, err := s.userID()
	if err != nil {
		return nil
	}
	return t.AvailableActions(uid)
}

func (s *TradeService) userID() (int64, error) {
	cur := s.sessions.Current()
	if !cur.IsAuthenticated() || cur.User == nil {
		return 0, ErrUnauthorized
	}
	return cur.User.ID, nil
}
