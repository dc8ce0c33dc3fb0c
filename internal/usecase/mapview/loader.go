package mapview

import (
	"context"
	"fmt"
	"net/url"

	"github.com/swapcycle/swapcycle/internal/domain"
)

// DefaultScriptURL is the Google Maps JavaScript API endpoint.
const DefaultScriptURL = "https://maps.googleapis.com/maps/api/js"

// ScriptLoader builds the script URL the browser loads the widget from.
type ScriptLoader struct {
	BaseURL string
}

// Load returns the widget script URL for key.
func (l ScriptLoader) Load(ctx context.Context, apiKey string) (Widget, error) {
	if err := ctx.Err(); err != nil {
		return Widget{}, err
	}
	if apiKey == "" {
		return Widget{}, domain.ErrMapDisabled
	}
	base := l.BaseURL
	if base == "" {
		base = DefaultScriptURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return Widget{}, fmt.Errorf("parse map script url: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return Widget{ScriptURL: u.String()}, nil
}
