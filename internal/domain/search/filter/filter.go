// Package filter holds the search filter and its normalisation rules.
// All operations are pure; the current filter is owned by the caller.
package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/swapcycle/swapcycle/internal/domain"
)

// Filter defaults.
const (
	DefaultRadiusKm = 10
	DefaultPerPage  = 20
	MaxPerPage      = 100
	MaxKeywordLen   = 200
)

// Type restricts the search to products, services or both.
type Type string

// Type values as sent to the backend.
const (
	TypeAll      Type = "all"
	TypeProducts Type = "products"
	TypeServices Type = "services"
)

// IsValid reports whether the type is known.
func (t Type) IsValid() bool {
	return t == TypeAll || t == TypeProducts || t == TypeServices
}

// Key names a filter field as it appears in forms and query strings.
type Key string

// Filter keys.
const (
	KeyKeyword       Key = "keyword"
	KeyType          Key = "type"
	KeyCategoryID    Key = "category_id"
	KeySubcategoryID Key = "subcategory_id"
	KeyMinPrice      Key = "min_price"
	KeyMaxPrice      Key = "max_price"
	KeyRadius        Key = "radius"
	KeyPage          Key = "page"
	KeyPerPage       Key = "per_page"
)

// Keys lists every settable key in form order.
var Keys = []Key{
	KeyKeyword, KeyType, KeyCategoryID, KeySubcategoryID,
	KeyMinPrice, KeyMaxPrice, KeyRadius, KeyPage, KeyPerPage,
}

// Filter is the search filter edited by the user. Nil pointers are "empty".
type Filter struct {
	Keyword       string   `json:"keyword"`
	Type          Type     `json:"type"`
	CategoryID    *int64   `json:"category_id"`
	SubcategoryID *int64   `json:"subcategory_id"`
	MinPrice      *float64 `json:"min_price"`
	MaxPrice      *float64 `json:"max_price"`
	RadiusKm      float64  `json:"radius"`
	Page          int      `json:"page"`
	PerPage       int      `json:"per_page"`
}

// Defaults configures the values Reset restores.
type Defaults struct {
	RadiusKm float64
	PerPage  int
}

// Default returns the filter with built-in defaults.
func Default() Filter {
	return Defaults{}.Filter()
}

// Filter returns the default filter for these settings; zero fields fall back to
// the package defaults.
func (d Defaults) Filter() Filter {
	radius := d.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	perPage := d.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Filter{
		Type:     TypeAll,
		RadiusKm: radius,
		Page:     1,
		PerPage:  perPage,
	}
}

// Equal reports whether two filters hold the same values.
func (f Filter) Equal(o Filter) bool {
	return f.Keyword == o.Keyword &&
		f.Type == o.Type &&
		eqPtr(f.CategoryID, o.CategoryID) &&
		eqPtr(f.SubcategoryID, o.SubcategoryID) &&
		eqPtr(f.MinPrice, o.MinPrice) &&
		eqPtr(f.MaxPrice, o.MaxPrice) &&
		f.RadiusKm == o.RadiusKm &&
		f.Page == o.Page &&
		f.PerPage == o.PerPage
}

// Clone returns a deep copy so callers never share pointer fields.
func (f Filter) Clone() Filter {
	f.CategoryID = clonePtr(f.CategoryID)
	f.SubcategoryID = clonePtr(f.SubcategoryID)
	f.MinPrice = clonePtr(f.MinPrice)
	f.MaxPrice = clonePtr(f.MaxPrice)
	return f
}

// Get returns the form value of a key ("" for empty optional fields).
func (f Filter) Get(key Key) string {
	switch key {
	case KeyKeyword:
		return f.Keyword
	case KeyType:
		return string(f.Type)
	case KeyCategoryID:
		return formatInt(f.CategoryID)
	case KeySubcategoryID:
		return formatInt(f.SubcategoryID)
	case KeyMinPrice:
		return formatFloat(f.MinPrice)
	case KeyMaxPrice:
		return formatFloat(f.MaxPrice)
	case KeyRadius:
		return strconv.FormatFloat(f.RadiusKm, 'f', -1, 64)
	case KeyPage:
		return strconv.Itoa(f.Page)
	case KeyPerPage:
		return strconv.Itoa(f.PerPage)
	default:
		return ""
	}
}

// Set applies a single form edit and returns the normalised filter.
//
// Setting type clears category and subcategory. Setting category clears
// subcategory. Setting anything other than page resets page to 1.
// On error f is returned unchanged.
func Set(f Filter, key Key, value string) (Filter, error) {
	next := f.Clone()
	value = strings.TrimSpace(value)

	switch key {
	case KeyKeyword:
		if len(value) > MaxKeywordLen {
			return f, domain.NewFieldError(string(key), "too long")
		}
		next.Keyword = value
	case KeyType:
		t := Type(strings.ToLower(value))
		if t == "" {
			t = TypeAll
		}
		if !t.IsValid() {
			return f, domain.NewFieldError(string(key), "must be all, products or services")
		}
		next.Type = t
		next.CategoryID = nil
		next.SubcategoryID = nil
	case KeyCategoryID:
		id, err := parseID(key, value)
		if err != nil {
			return f, err
		}
		next.CategoryID = id
		next.SubcategoryID = nil
	case KeySubcategoryID:
		id, err := parseID(key, value)
		if err != nil {
			return f, err
		}
		next.SubcategoryID = id
	case KeyMinPrice:
		p, err := parsePrice(key, value)
		if err != nil {
			return f, err
		}
		next.MinPrice = p
	case KeyMaxPrice:
		p, err := parsePrice(key, value)
		if err != nil {
			return f, err
		}
		next.MaxPrice = p
	case KeyRadius:
		r, err := strconv.ParseFloat(value, 64)
		if err != nil || r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
			return f, domain.NewFieldError(string(key), "must be a positive number")
		}
		next.RadiusKm = r
	case KeyPage:
		p, err := strconv.Atoi(value)
		if err != nil || p < 1 {
			return f, domain.NewFieldError(string(key), "must be an integer >= 1")
		}
		next.Page = p
		return next, nil
	case KeyPerPage:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > MaxPerPage {
			return f, domain.NewFieldError(string(key), "must be between 1 and 100")
		}
		next.PerPage = n
	default:
		return f, domain.NewFieldError(string(key), "unknown filter")
	}

	next.Page = 1
	return next, nil
}

// SetPage moves to a page without touching any other field.
func SetPage(f Filter, page int) (Filter, error) {
	return Set(f, KeyPage, strconv.Itoa(page))
}

// Apply runs Set for every present key of values in Keys order, so that a
// submitted form produces the same filter as the equivalent sequence of edits.
// Keys whose value equals the one in f are skipped, so a stale category left in
// a form does not survive a type change.
func Apply(f Filter, values map[string]string) (Filter, error) {
	next := f
	for _, key := range Keys {
		v, ok := values[string(key)]
		if !ok || strings.TrimSpace(v) == f.Get(key) {
			continue
		}
		var err error
		next, err = Set(next, key, v)
		if err != nil {
			return f, err
		}
	}
	return next, nil
}

func parseID(key Key, value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.NewFieldError(string(key), "must be a positive integer")
	}
	return &id, nil
}

func parsePrice(key Key, value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	p, err := strconv.ParseFloat(value, 64)
	if err != nil || p < 0 || math.IsInf(p, 0) || math.IsNaN(p) {
		return nil, domain.NewFieldError(string(key), "must be a non-negative number")
	}
	return &p, nil
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
