// Package params turns a filter plus location context into backend query parameters.
package params

import (
	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
)

// Mode is the location constraint applied to a search.
type Mode string

// Location modes, mutually exclusive.
const (
	ModeBounds Mode = "bounds"
	ModeRadius Mode = "radius"
	ModeGlobal Mode = "global"
)

// Params are the query parameters of GET /search and GET /search/map-data.
// Nil fields are omitted from the request.
type Params struct {
	Keyword       *string      `json:"keyword,omitempty"`
	Type          *filter.Type `json:"type,omitempty"`
	CategoryID    *int64       `json:"category_id,omitempty"`
	SubcategoryID *int64       `json:"subcategory_id,omitempty"`
	MinPrice      *float64     `json:"min_price,omitempty"`
	MaxPrice      *float64     `json:"max_price,omitempty"`

	North *float64 `json:"north,omitempty"`
	South *float64 `json:"south,omitempty"`
	East  *float64 `json:"east,omitempty"`
	West  *float64 `json:"west,omitempty"`

	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
	Radius *float64 `json:"radius,omitempty"`

	Page    *int `json:"page,omitempty"`
	PerPage *int `json:"per_page,omitempty"`
}

// Build applies the location policy in priority order:
// bounds (map was interacted with) → point + radius → unbounded.
// A nil location means the user position is unknown.
func Build(f filter.Filter, location *geo.Location, bounds *geo.Bounds) Params {
	var p Params

	if f.Keyword != "" {
		p.Keyword = ptr(f.Keyword)
	}
	if f.Type != "" && f.Type != filter.TypeAll {
		p.Type = ptr(f.Type)
	}
	p.CategoryID = clone(f.CategoryID)
	p.SubcategoryID = clone(f.SubcategoryID)
	p.MinPrice = clone(f.MinPrice)
	p.MaxPrice = clone(f.MaxPrice)

	switch {
	case bounds != nil && bounds.Valid():
		p.North = ptr(bounds.North)
		p.South = ptr(bounds.South)
		p.East = ptr(bounds.East)
		p.West = ptr(bounds.West)
	case location != nil && location.Valid():
		p.Lat = ptr(location.Lat)
		p.Lng = ptr(location.Lng)
		if f.RadiusKm > 0 {
			p.Radius = ptr(f.RadiusKm)
		}
	}

	if f.Page > 0 {
		p.Page = ptr(f.Page)
	}
	if f.PerPage > 0 {
		p.PerPage = ptr(f.PerPage)
	}
	return p
}

// ForMap drops pagination so the map-data query returns every matching marker.
func ForMap(p Params) Params {
	p.Page = nil
	p.PerPage = nil
	return p
}

// Mode reports which location constraint the params carry.
func (p Params) Mode() Mode {
	switch {
	case p.North != nil:
		return ModeBounds
	case p.Lat != nil:
		return ModeRadius
	default:
		return ModeGlobal
	}
}

func ptr[T any](v T) *T { return &v }

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
