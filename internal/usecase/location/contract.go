package location

import (
	"context"

	"github.com/swapcycle/swapcycle/internal/domain/geo"
)

// Provider resolves the current user position.
type Provider interface {
	Locate(ctx context.Context) (geo.Location, error)
}
