package listing

import (
	"slices"
	"strings"

	"github.com/swapcycle/swapcycle/internal/domain"
)

// Draft is the create/update payload for a product or service.
type Draft struct {
	Kind           Kind     `json:"-"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	EstimatedValue float64  `json:"estimated_value"`
	Currency       string   `json:"currency,omitempty"`
	CategoryID     int64    `json:"category_id"`
	SubcategoryID  *int64   `json:"subcategory_id,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	Quantity       int      `json:"quantity,omitempty"`
	IsOnline       bool     `json:"is_online"`
	Address        string   `json:"address,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Images         []string `json:"images,omitempty"`
}

// Validate checks the fields the backend requires before sending the draft.
func (d *Draft) Validate() error {
	if !d.Kind.IsValid() {
		return domain.NewFieldError("type", "must be product or service")
	}
	if strings.TrimSpace(d.Name) == "" {
		return domain.NewFieldError("name", "is required")
	}
	if d.EstimatedValue <= 0 {
		return domain.NewFieldError("estimated_value", "must be positive")
	}
	if d.CategoryID <= 0 {
		return domain.NewFieldError("category_id", "is required")
	}
	if d.Currency != "" && !slices.Contains(Currencies, strings.ToUpper(d.Currency)) {
		return domain.NewFieldError("currency", "is not supported")
	}

	switch d.Kind {
	case KindProduct:
		if !slices.Contains(Conditions, d.Condition) {
			return domain.NewFieldError("condition", "must be one of "+strings.Join(Conditions, ", "))
		}
		if d.Quantity < 0 {
			return domain.NewFieldError("quantity", "must not be negative")
		}
		if strings.TrimSpace(d.Address) == "" {
			return domain.NewFieldError("address", "is required")
		}
		d.IsOnline = false
	case KindService:
		if !d.IsOnline && strings.TrimSpace(d.Address) == "" {
			return domain.NewFieldError("address", "is required for in-person services")
		}
		d.Condition = ""
		d.Quantity = 0
	}

	if (d.Latitude == nil) != (d.Longitude == nil) {
		return domain.NewFieldError("latitude", "latitude and longitude must be set together")
	}
	if d.Latitude != nil {
		if _, ok := coordinates(d.Latitude, d.Longitude); !ok {
			return domain.NewFieldError("latitude", "coordinates out of range")
		}
	}
	return nil
}
