// Package geolocation resolves the user position from an IP geolocation service.
package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/geo"
)

// DefaultEndpoint is the public ipapi.co lookup for the caller's address.
const DefaultEndpoint = "https://ipapi.co/json/"

// IPAPI looks up the approximate position of the machine's public IP.
type IPAPI struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewIPAPI creates the provider. An empty endpoint uses DefaultEndpoint.
func NewIPAPI(endpoint string, client *http.Client, logger *zap.Logger) *IPAPI {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IPAPI{endpoint: endpoint, client: client, logger: logger}
}

// response accepts both ipapi.co (latitude/longitude) and ip-api.com (lat/lon) shapes.
type response struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	City      string   `json:"city"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
	Status    string   `json:"status"`
	Message   string   `json:"message"`
}

// Locate returns the current position or an error wrapping ErrLocationUnavailable.
func (p *IPAPI) Locate(ctx context.Context) (geo.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, http.NoBody)
	if err != nil {
		return geo.Location{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return geo.Location{}, fmt.Errorf("%w: status %d: %s",
			domain.ErrLocationUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return geo.Location{}, fmt.Errorf("%w: decode: %w", domain.ErrLocationUnavailable, err)
	}
	if r.Error || r.Status == "fail" {
		return geo.Location{}, fmt.Errorf("%w: %s%s", domain.ErrLocationUnavailable, r.Reason, r.Message)
	}

	lat, lng := r.Latitude, r.Longitude
	if lat == nil || lng == nil {
		lat, lng = r.Lat, r.Lon
	}
	if lat == nil || lng == nil {
		return geo.Location{}, fmt.Errorf("%w: response has no coordinates", domain.ErrLocationUnavailable)
	}
	loc := geo.Location{Lat: *lat, Lng: *lng}
	if !loc.Valid() {
		return geo.Location{}, fmt.Errorf("%w: coordinates out of range", domain.ErrLocationUnavailable)
	}

	p.logger.Debug("located via ip lookup", zap.String("city", r.City), zap.Stringer("location", loc))
	return loc, nil
}
