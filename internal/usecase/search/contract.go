package search

import (
	"context"

	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/params"
	"github.com/swapcycle/swapcycle/internal/domain/search/result"
)

// Backend runs search and map-data queries.
type Backend interface {
	Search(ctx context.Context, p params.Params) (result.Page, error)
	MapData(ctx context.Context, p params.Params) ([]listing.Marker, error)
}
