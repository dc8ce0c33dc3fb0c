package filters

import (
	"errors"
	"testing"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
)

func TestController_SetPublishes(t *testing.T) {
	c := NewController(filter.Defaults{RadiusKm: 25, PerPage: 12})
	var published []filter.Filter
	c.Subscribe(func(f filter.Filter) { published = append(published, f) })

	f, changed, err := c.Set(filter.KeyKeyword, "bike")
	if err != nil || !changed {
		t.Fatalf("Set = %v, %v", changed, err)
	}
	if f.Keyword != "bike" || f.RadiusKm != 25 || f.PerPage != 12 {
		t.Errorf("unexpected filter: %+v", f)
	}
	if len(published) != 1 {
		t.Errorf("published %d snapshots, want 1", len(published))
	}

	if _, changed, _ := c.Set(filter.KeyKeyword, "bike"); changed {
		t.Error("identical edit must not publish")
	}
	if len(published) != 1 {
		t.Errorf("published %d snapshots, want 1", len(published))
	}
}

func TestController_InvalidLeavesUnchanged(t *testing.T) {
	c := NewController(filter.Defaults{})
	_, _, _ = c.Set(filter.KeyCategoryID, "5")
	before := c.Current()

	_, changed, err := c.Set(filter.KeyMinPrice, "-3")
	if !errors.Is(err, domain.ErrValidation) || changed {
		t.Fatalf("Set = %v, %v", changed, err)
	}
	if !c.Current().Equal(before) {
		t.Errorf("filter changed on invalid input: %+v", c.Current())
	}
}

func TestController_PageAndReset(t *testing.T) {
	c := NewController(filter.Defaults{})
	_, _, _ = c.Set(filter.KeyType, "services")
	f, _, err := c.Page(3)
	if err != nil || f.Page != 3 {
		t.Fatalf("Page = %+v, %v", f, err)
	}
	if _, _, err := c.Page(0); err == nil {
		t.Error("page 0 must be rejected")
	}

	f, changed := c.Reset()
	if !changed || !f.Equal(filter.Default()) {
		t.Errorf("Reset = %+v, changed=%v", f, changed)
	}
	if _, changed := c.Reset(); changed {
		t.Error("second Reset must not publish")
	}
}

func TestController_Apply(t *testing.T) {
	c := NewController(filter.Defaults{})
	f, changed, err := c.Apply(map[string]string{"keyword": "lamp", "type": "products", "max_price": "50"})
	if err != nil || !changed {
		t.Fatalf("Apply = %v, %v", changed, err)
	}
	if f.Type != filter.TypeProducts || f.MaxPrice == nil || *f.MaxPrice != 50 {
		t.Errorf("unexpected filter: %+v", f)
	}
}

func TestController_CurrentIsCopy(t *testing.T) {
	c := NewController(filter.Defaults{})
	_, _, _ = c.Set(filter.KeyCategoryID, "4")
	f := c.Current()
	*f.CategoryID = 99
	if *c.Current().CategoryID != 4 {
		t.Error("Current must return a deep copy")
	}
}
