package mapview

import (
	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
)

// Pin colours per listing kind.
const (
	ProductColor = "#007BFF"
	ServiceColor = "#28A745"
)

// Icon is the round pin glyph.
type Icon struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// IconFor returns the pin icon of a listing kind.
func IconFor(k listing.Kind) Icon {
	if k == listing.KindProduct {
		return Icon{Label: "P", Color: ProductColor}
	}
	return Icon{Label: "S", Color: ServiceColor}
}

// Pin is one rendered marker.
type Pin struct {
	ID       int64        `json:"id"`
	Type     listing.Kind `json:"type"`
	Title    string       `json:"title"`
	Position geo.Location `json:"position"`
	Icon     Icon         `json:"icon"`
	Pulsing  bool         `json:"pulsing"`
}

// Popup is the info window of a clicked pin.
type Popup struct {
	ID        int64        `json:"id"`
	Type      listing.Kind `json:"type"`
	Name      string       `json:"name"`
	TypeLabel string       `json:"type_label"`
	Category  string       `json:"category,omitempty"`
	Price     string       `json:"price"`
	Position  geo.Location `json:"position"`
}

// Camera is the visible map area.
type Camera struct {
	Center geo.Location `json:"center"`
	Zoom   int          `json:"zoom"`
	// Fit is set when the camera was fitted to the pins.
	Fit *geo.Bounds `json:"fit,omitempty"`
}

// View is the published map state.
type View struct {
	Enabled bool   `json:"enabled"`
	Loaded  bool   `json:"loaded"`
	Widget  Widget `json:"widget"`
	Pins    []Pin  `json:"pins"`
	Camera  Camera `json:"camera"`
	Popup   *Popup `json:"popup,omitempty"`
	Closed  bool   `json:"closed,omitempty"`
}
