// Package trade models barter proposals between two listings.
package trade

import (
	"fmt"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
)

// Status is the lifecycle state of a trade proposal.
type Status string

// Trade statuses.
const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Action is a user intent that moves a trade to another status.
type Action string

// Trade actions.
const (
	ActionAccept   Action = "accept"
	ActionDecline  Action = "decline"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// Box selects a trade list on the trades page.
type Box string

// Trade boxes.
const (
	BoxSent      Box = "sent"
	BoxReceived  Box = "received"
	BoxCompleted Box = "completed"
)

// ParseBox validates a box name; empty means sent.
func ParseBox(s string) (Box, error) {
	switch Box(s) {
	case "", BoxSent:
		return BoxSent, nil
	case BoxReceived, BoxCompleted:
		return Box(s), nil
	default:
		return "", domain.NewFieldError("box", "must be sent, received or completed")
	}
}

// Role is the side of a trade the current user is on.
type Role string

// Trade roles.
const (
	RoleProposer Role = "proposer"
	RoleReceiver Role = "receiver"
)

type rule struct {
	from Status
	role Role
}

var actions = map[Action]struct {
	to    Status
	allow []rule
}{
	ActionAccept:   {StatusAccepted, []rule{{StatusPending, RoleReceiver}}},
	ActionDecline:  {StatusDeclined, []rule{{StatusPending, RoleReceiver}}},
	ActionCancel:   {StatusCancelled, []rule{{StatusPending, RoleProposer}}},
	ActionComplete: {StatusCompleted, []rule{{StatusAccepted, RoleProposer}, {StatusAccepted, RoleReceiver}}},
}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := actions[a]; !ok {
		return "", domain.NewFieldError("action", "unknown trade action")
	}
	return a, nil
}

// Next returns the status an action leads to, or ErrInvalidTransition when the
// current status or the user's role does not allow it.
func Next(current Status, role Role, a Action) (Status, error) {
	def, ok := actions[a]
	if !ok {
		return current, domain.NewFieldError("action", "unknown trade action")
	}
	for _, r := range def.allow {
		if r.from == current && r.role == role {
			return def.to, nil
		}
	}
	return current, fmt.Errorf("%w: %s on %s trade as %s", domain.ErrInvalidTransition, a, current, role)
}

// IsFinal reports whether no further action is possible.
func (s Status) IsFinal() bool {
	return s == StatusDeclined || s == StatusCancelled || s == StatusCompleted
}

// Item is one side of a trade.
type Item struct {
	Type  listing.Kind `json:"type"`
	ID    int64        `json:"id"`
	Name  string       `json:"name,omitempty"`
	Value *float64     `json:"value,omitempty"`
}

// Trade is a proposal exchanging one listing for another.
type Trade struct {
	ID              int64  `json:"id"`
	ProposerID      int64  `json:"proposer_id"`
	ReceiverID      int64  `json:"receiver_id"`
	OfferedItem     *Item  `json:"offered_item"`
	RequestedItem   *Item  `json:"requested_item"`
	Status          Status `json:"status"`
	ProposalMessage string `json:"proposal_message,omitempty"`
	ResponseMessage string `json:"response_message,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// RoleOf returns the role of userID in the trade.
func (t Trade) RoleOf(userID int64) (Role, bool) {
	switch userID {
	case t.ProposerID:
		return RoleProposer, true
	case t.ReceiverID:
		return RoleReceiver, true
	default:
		return "", false
	}
}

// AvailableActions lists what userID may do with the trade right now.
func (t Trade) AvailableActions(userID int64) []Action {
	role, ok := t.RoleOf(userID)
	if !ok {
		return nil
	}
	var out []Action
	for _, a := range []Action{ActionAccept, ActionDecline, ActionCancel, ActionComplete} {
		if _, err := Next(t.Status, role, a); err == nil {
			out = append(out, a)
		}
	}
	return out
}

// Proposal is the payload for POST /trades. Exactly one offered and one
// requested listing are encoded, as product or service ids.
type Proposal struct {
	Offered   Item   `json:"-"`
	Requested Item   `json:"-"`
	Message   string `json:"proposal_message,omitempty"`
}

// Validate checks both sides reference a listing and differ from each other.
func (p Proposal) Validate() error {
	if !p.Offered.Type.IsValid() || p.Offered.ID <= 0 {
		return domain.NewFieldError("offered_item", "exactly one offered item is required")
	}
	if !p.Requested.Type.IsValid() || p.Requested.ID <= 0 {
		return domain.NewFieldError("requested_item", "exactly one requested item is required")
	}
	if p.Offered.Type == p.Requested.Type && p.Offered.ID == p.Requested.ID {
		return domain.NewFieldError("requested_item", "cannot trade a listing for itself")
	}
	return nil
}

// Body returns the backend payload with the *_product_id / *_service_id keys.
func (p Proposal) Body() map[string]any {
	body := map[string]any{
		"offered_" + string(p.Offered.Type) + "_id":     p.Offered.ID,
		"requested_" + string(p.Requested.Type) + "_id": p.Requested.ID,
	}
	if p.Message != "" {
		body["proposal_message"] = p.Message
	}
	return body
}
