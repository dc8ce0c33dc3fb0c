// Package mapview keeps the state of the browse map widget: pins, camera,
// popup and hover pulses, and debounces viewport changes.
package mapview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/geo"
	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/observable"
)

// Defaults.
const (
	DefaultZoom           = 12
	DefaultMaxZoom        = 15
	DefaultWidth          = 800
	DefaultHeight         = 500
	DefaultBoundsDebounce = 300 * time.Millisecond
	DefaultPulse          = 2 * time.Second
)

// DefaultFallback is the centre used when the user location is unknown.
var DefaultFallback = geo.Location{Lat: 40.7128, Lng: -74.0060}

// Config holds the map settings. Zero values fall back to the defaults.
type Config struct {
	APIKey         string
	DefaultZoom    int
	MaxZoom        int
	Fallback       *geo.Location
	Width          int
	Height         int
	BoundsDebounce time.Duration
	Pulse          time.Duration
}

func (c *Config) applyDefaults() {
	if c.DefaultZoom <= 0 {
		c.DefaultZoom = DefaultZoom
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = DefaultMaxZoom
	}
	if c.Fallback == nil {
		fb := DefaultFallback
		c.Fallback = &fb
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.BoundsDebounce <= 0 {
		c.BoundsDebounce = DefaultBoundsDebounce
	}
	if c.Pulse <= 0 {
		c.Pulse = DefaultPulse
	}
}

type pinKey struct {
	id   int64
	kind listing.Kind
}

// Adapter drives one map widget.
type Adapter struct {
	cfg    Config
	loader Loader
	logger *zap.Logger
	view   *observable.Value[View]

	loadOnce sync.Once
	loadErr  error

	mu             sync.Mutex
	markers        map[pinKey]listing.Marker
	pulses         map[pinKey]*time.Timer
	debounce       *time.Timer
	pending        *geo.Bounds
	onMarkerClick  func(listing.Marker)
	onBoundsChange func(geo.Bounds)
	closed         bool
}

// New creates an adapter. A nil loader uses ScriptLoader.
func New(cfg Config, loader Loader, log *zap.Logger) *Adapter {
	cfg.applyDefaults()
	if loader == nil {
		loader = ScriptLoader{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		cfg:    cfg,
		loader: loader,
		logger: log,
		view: observable.New(View{
			Enabled: cfg.APIKey != "",
			Pins:    []Pin{},
			Camera:  Camera{Center: *cfg.Fallback, Zoom: cfg.DefaultZoom},
		}),
		markers: make(map[pinKey]listing.Marker),
		pulses:  make(map[pinKey]*time.Timer),
	}
}

// OnMarkerClick registers the pin click callback.
func (a *Adapter) OnMarkerClick(fn func(listing.Marker)) {
	a.mu.Lock()
	a.onMarkerClick = fn
	a.mu.Unlock()
}

// OnBoundsChange registers the debounced viewport callback.
func (a *Adapter) OnBoundsChange(fn func(geo.Bounds)) {
	a.mu.Lock()
	a.onBoundsChange = fn
	a.mu.Unlock()
}

// View returns the current snapshot.
func (a *Adapter) View() View { return a.view.Get() }

// Subscribe registers fn for every view change.
func (a *Adapter) Subscribe(fn func(View)) (unsubscribe func()) {
	return a.view.Subscribe(fn)
}

// Load loads the widget once per adapter. Without an API key it returns
// ErrMapDisabled and the map stays disabled; later calls return the same result.
func (a *Adapter) Load(ctx context.Context) error {
	a.loadOnce.Do(func() {
		if a.cfg.APIKey == "" {
			a.loadErr = domain.ErrMapDisabled
			a.logger.Info("map disabled: no api key configured")
			return
		}
		w, err := a.loader.Load(ctx, a.cfg.APIKey)
		if err != nil {
			a.loadErr = fmt.Errorf("load map widget: %w", err)
			a.logger.Warn("map widget load failed", zap.Error(err))
			a.view.Update(func(v View) View {
				v.Enabled = false
				return v
			})
			return
		}
		a.view.Update(func(v View) View {
			v.Loaded = true
			v.Widget = w
			return v
		})
	})
	return a.loadErr
}

// Render replaces the pins. Markers without usable coordinates are skipped.
// With no pins the camera centres on user (or the fallback) at the default
// zoom; otherwise it fits every pin, capped at the maximum zoom.
func (a *Adapter) Render(markers []listing.Marker, user *geo.Location) View {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return a.view.Get()
	}
	for k, t := range a.pulses {
		t.Stop()
		delete(a.pulses, k)
	}
	a.markers = make(map[pinKey]listing.Marker, len(markers))

	pins := make([]Pin, 0, len(markers))
	var ext geo.Extender
	for _, m := range markers {
		loc, ok := m.Location()
		if !ok {
			continue
		}
		a.markers[pinKey{m.ID, m.Type}] = m
		pins = append(pins, Pin{
			ID:       m.ID,
			Type:     m.Type,
			Title:    m.Name,
			Position: loc,
			Icon:     IconFor(m.Type),
		})
		ext.Extend(loc)
	}
	a.mu.Unlock()

	camera := a.camera(ext, user)
	skipped := len(markers) - len(pins)
	if skipped > 0 {
		a.logger.Debug("markers without coordinates skipped", zap.Int("count", skipped))
	}

	return a.view.Update(func(v View) View {
		v.Pins = pins
		v.Camera = camera
		if v.Popup != nil && !containsPin(pins, v.Popup.ID, v.Popup.Type) {
			v.Popup = nil
		}
		return v
	})
}

func (a *Adapter) camera(ext geo.Extender, user *geo.Location) Camera {
	if ext.IsEmpty() {
		center := *a.cfg.Fallback
		if user != nil && user.Valid() {
			center = *user
		}
		return Camera{Center: center, Zoom: a.cfg.DefaultZoom}
	}
	b := ext.Bounds()
	return Camera{
		Center: b.Center(),
		Zoom:   FitZoom(b, a.cfg.Width, a.cfg.Height, a.cfg.MaxZoom),
		Fit:    &b,
	}
}

// Click opens the popup of a pin and invokes the click callback.
func (a *Adapter) Click(id int64, kind listing.Kind) (listing.Marker, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return listing.Marker{}, errors.New("map closed")
	}
	m, ok := a.markers[pinKey{id, kind}]
	fn := a.onMarkerClick
	a.mu.Unlock()
	if !ok {
		return listing.Marker{}, fmt.Errorf("marker %s %d: %w", kind, id, domain.ErrNotFound)
	}

	if fn != nil {
		fn(m)
	}
	loc, _ := m.Location()
	a.view.Update(func(v View) View {
		v.Popup = &Popup{
			ID:        m.ID,
			Type:      m.Type,
			Name:      m.Name,
			TypeLabel: m.Type.Label(),
			Category:  m.Category,
			Price:     listing.FormatPrice(m.Price, m.Currency),
			Position:  loc,
		}
		return v
	})
	return m, nil
}

// ClosePopup closes the info window.
func (a *Adapter) ClosePopup() {
	a.view.UpdateIf(func(v View) (View, bool) {
		if v.Popup == nil {
			return v, false
		}
		v.Popup = nil
		return v, true
	})
}

// Hover pulses the pin of the given listing for the pulse duration.
// Unknown pins are ignored.
func (a *Adapter) Hover(id int64, kind listing.Kind) {
	key := pinKey{id, kind}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if _, ok := a.markers[key]; !ok {
		a.mu.Unlock()
		return
	}
	if t, ok := a.pulses[key]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(a.cfg.Pulse, func() {
		a.mu.Lock()
		if a.pulses[key] != timer {
			a.mu.Unlock()
			return
		}
		delete(a.pulses, key)
		a.mu.Unlock()
		a.setPulse(key, false)
	})
	a.pulses[key] = timer
	a.mu.Unlock()

	a.setPulse(key, true)
}

func (a *Adapter) setPulse(key pinKey, on bool) {
	a.view.UpdateIf(func(v View) (View, bool) {
		for i, p := range v.Pins {
			if p.ID == key.id && p.Type == key.kind {
				if p.Pulsing == on {
					return v, false
				}
				pins := append([]Pin(nil), v.Pins...)
				pins[i].Pulsing = on
				v.Pins = pins
				return v, true
			}
		}
		return v, false
	})
}

// ReportBounds records a viewport change. The bounds callback fires once the
// viewport has been stable for the debounce interval, with the last bounds.
func (a *Adapter) ReportBounds(b geo.Bounds) {
	if !b.Valid() {
		a.logger.Debug("invalid map bounds dropped",
			zap.Float64("north", b.North), zap.Float64("south", b.South),
			zap.Float64("east", b.East), zap.Float64("west", b.West))
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = &b
	if a.debounce != nil {
		a.debounce.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(a.cfg.BoundsDebounce, func() {
		a.mu.Lock()
		if a.debounce != timer || a.pending == nil || a.closed {
			a.mu.Unlock()
			return
		}
		bounds := *a.pending
		a.pending = nil
		a.debounce = nil
		fn := a.onBoundsChange
		a.mu.Unlock()

		if fn != nil {
			fn(bounds)
		}
	})
	a.debounce = timer
}

// Close stops pending timers, closes the popup and drops the callbacks.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.debounce != nil {
		a.debounce.Stop()
		a.debounce = nil
	}
	a.pending = nil
	for k, t := range a.pulses {
		t.Stop()
		delete(a.pulses, k)
	}
	a.onMarkerClick = nil
	a.onBoundsChange = nil
	a.mu.Unlock()

	a.view.Update(func(v View) View {
		v.Popup = nil
		v.Closed = true
		pins := make([]Pin, len(v.Pins))
		for i, p := range v.Pins {
			p.Pulsing = false
			pins[i] = p
		}
		v.Pins = pins
		return v
	})
}

func containsPin(pins []Pin, id int64, kind listing.Kind) bool {
	for _, p := range pins {
		if p.ID == id && p.Type == kind {
			return true
		}
	}
	return false
}
