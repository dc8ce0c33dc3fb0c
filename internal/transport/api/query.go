package api

import (
	"fmt"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/swapcycle/swapcycle/internal/domain/search/params"
)

// addParam styles one query parameter the way generated OpenAPI clients do
// (form style, exploded) and merges it into q.
func addParam(q url.Values, name string, value any) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("style query param %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return fmt.Errorf("parse query param %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return nil
}

// addOptional adds the parameter only when v is non-nil.
func addOptional[T any](q url.Values, name string, v *T) error {
	if v == nil {
		return nil
	}
	return addParam(q, name, *v)
}

// searchQuery renders search params; nil fields are omitted.
func searchQuery(p params.Params) (url.Values, error) {
	q := url.Values{}
	var typ *string
	if p.Type != nil {
		s := string(*p.Type)
		typ = &s
	}

	steps := []func() error{
		func() error { return addOptional(q, "keyword", p.Keyword) },
		func() error { return addOptional(q, "type", typ) },
		func() error { return addOptional(q, "category_id", p.CategoryID) },
		func() error { return addOptional(q, "subcategory_id", p.SubcategoryID) },
		func() error { return addOptional(q, "min_price", p.MinPrice) },
		func() error { return addOptional(q, "max_price", p.MaxPrice) },
		func() error { return addOptional(q, "north", p.North) },
		func() error { return addOptional(q, "south", p.South) },
		func() error { return addOptional(q, "east", p.East) },
		func() error { return addOptional(q, "west", p.West) },
		func() error { return addOptional(q, "lat", p.Lat) },
		func() error { return addOptional(q, "lng", p.Lng) },
		func() error { return addOptional(q, "radius", p.Radius) },
		func() error { return addOptional(q, "page", p.Page) },
		func() error { return addOptional(q, "per_page", p.PerPage) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return q, nil
}
