package mapview

import "context"

// Loader fetches the map widget for an API key.
type Loader interface {
	Load(ctx context.Context, apiKey string) (Widget, error)
}

// Widget describes the loaded map library as the page should include it.
type Widget struct {
	ScriptURL string `json:"script_url"`
}
