// Package listing holds the product and service records exchanged on SwapCycle.
package listing

import (
	"strings"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/geo"
)

// Kind tags a listing as a product or a service.
type Kind string

// Listing kinds as reported by the backend in the "type" field.
const (
	KindProduct Kind = "product"
	KindService Kind = "service"
)

// IsValid reports whether the kind is known.
func (k Kind) IsValid() bool {
	return k == KindProduct || k == KindService
}

// Label returns the human readable kind name.
func (k Kind) Label() string {
	switch k {
	case KindProduct:
		return "Product"
	case KindService:
		return "Service"
	default:
		return "Listing"
	}
}

// Plural returns the resource path segment for the kind ("products", "services").
func (k Kind) Plural() string { return string(k) + "s" }

// ParseKind accepts both singular and plural forms.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product", "products":
		return KindProduct, nil
	case "service", "services":
		return KindService, nil
	default:
		return "", domain.NewFieldError("type", "must be product or service")
	}
}

// Product conditions accepted by the backend.
var Conditions = []string{"new", "like-new", "good", "fair", "poor"}

// Item is a product or service view record. Search results, listing pages and
// "my listings" all decode into it; Type tells which fields are meaningful.
type Item struct {
	ID                 int64    `json:"id"`
	Type               Kind     `json:"type"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	EstimatedValue     float64  `json:"estimated_value"`
	Currency           string   `json:"currency,omitempty"`
	Condition          string   `json:"condition,omitempty"`
	Quantity           int      `json:"quantity,omitempty"`
	IsOnline           bool     `json:"is_online,omitempty"`
	Address            string   `json:"address,omitempty"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Images             []string `json:"images,omitempty"`
	AvailabilityStatus string   `json:"availability_status,omitempty"`
	Category           string   `json:"category,omitempty"`
	Subcategory        string   `json:"subcategory,omitempty"`
	UserID             int64    `json:"user_id"`
	CreatedAt          string   `json:"created_at,omitempty"`
	Distance           *float64 `json:"distance,omitempty"`
}

// Location returns the item coordinates when both are present and valid.
func (i Item) Location() (geo.Location, bool) {
	return coordinates(i.Latitude, i.Longitude)
}

// Available reports whether the listing can be traded right now.
func (i Item) Available() bool {
	return i.AvailabilityStatus == "" || i.AvailabilityStatus == "available"
}

// Price returns the formatted estimated value.
func (i Item) Price() string {
	return FormatPrice(i.EstimatedValue, i.Currency)
}

// Marker is the map projection of a listing returned by the map-data query.
type Marker struct {
	ID        int64    `json:"id"`
	Type      Kind     `json:"type"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency,omitempty"`
	Category  string   `json:"category,omitempty"`
}

// Location returns the marker coordinates when both are present and valid.
func (m Marker) Location() (geo.Location, bool) {
	return coordinates(m.Latitude, m.Longitude)
}

// MarkerFromItem projects a result item onto a marker.
func MarkerFromItem(i Item) Marker {
	return Marker{
		ID:        i.ID,
		Type:      i.Type,
		Name:      i.Name,
		Latitude:  i.Latitude,
		Longitude: i.Longitude,
		Price:     i.EstimatedValue,
		Currency:  i.Currency,
		Category:  i.Category,
	}
}

// Matches reports whether the marker refers to the given item.
func (m Marker) Matches(i Item) bool {
	return m.ID == i.ID && m.Type == i.Type
}

// Subcategory is a second-level category.
type Subcategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a top-level product or service category.
type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Type          Kind          `json:"type,omitempty"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

// FindCategory returns the category with the given id.
func FindCategory(cats []Category, id int64) (Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// A 0,0 pair is treated as unset.
func coordinates(lat, lng *float64) (geo.Location, bool) {
	if lat == nil || lng == nil {
		return geo.Location{}, false
	}
	if *lat == 0 && *lng == 0 {
		return geo.Location{}, false
	}
	l := geo.Location{Lat: *lat, Lng: *lng}
	if !l.Valid() {
		return geo.Location{}, false
	}
	return l, true
}
