// Package filters owns the current search filter and publishes every change.
package filters

import (
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
	"github.com/swapcycle/swapcycle/internal/observable"
)

// Controller applies filter edits. It performs no I/O.
type Controller struct {
	defaults filter.Defaults
	state    *observable.Value[filter.Filter]
}

// NewController creates a controller holding the default filter.
func NewController(defaults filter.Defaults) *Controller {
	return &Controller{
		defaults: defaults,
		state:    observable.New(defaults.Filter()),
	}
}

// Current returns a copy of the current filter.
func (c *Controller) Current() filter.Filter { return c.state.Get().Clone() }

// Set applies one edit. Invalid input leaves the filter unchanged.
// changed is false when the edit produced an identical filter.
func (c *Controller) Set(key filter.Key, value string) (f filter.Filter, changed bool, err error) {
	return c.apply(func(cur filter.Filter) (filter.Filter, error) {
		return filter.Set(cur, key, value)
	})
}

// Apply applies a submitted form.
func (c *Controller) Apply(values map[string]string) (filter.Filter, bool, error) {
	return c.apply(func(cur filter.Filter) (filter.Filter, error) {
		return filter.Apply(cur, values)
	})
}

// Page moves to page n.
func (c *Controller) Page(n int) (filter.Filter, bool, error) {
	return c.apply(func(cur filter.Filter) (filter.Filter, error) {
		return filter.SetPage(cur, n)
	})
}

// Reset restores the configured defaults.
func (c *Controller) Reset() (filter.Filter, bool) {
	f, changed, _ := c.apply(func(filter.Filter) (filter.Filter, error) {
		return c.defaults.Filter(), nil
	})
	return f, changed
}

// Subscribe registers fn for every change.
func (c *Controller) Subscribe(fn func(filter.Filter)) (unsubscribe func()) {
	return c.state.Subscribe(fn)
}

func (c *Controller) apply(fn func(filter.Filter) (filter.Filter, error)) (filter.Filter, bool, error) {
	var err error
	out, changed := c.state.UpdateIf(func(cur filter.Filter) (filter.Filter, bool) {
		next, ferr := fn(cur.Clone())
		if ferr != nil {
			err = ferr
			return cur, false
		}
		return next, !next.Equal(cur)
	})
	return out.Clone(), changed, err
}
