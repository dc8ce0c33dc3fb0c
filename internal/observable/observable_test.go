package observable

import (
	"sync"
	"testing"
)

func TestValue_SetNotifiesInOrder(t *testing.T) {
	v := New(0)
	var got []string

	v.Subscribe(func(n int) { got = append(got, "a") })
	v.Subscribe(func(n int) { got = append(got, "b") })

	v.Set(1)
	if v.Get() != 1 {
		t.Fatalf("Get() = %d, want 1", v.Get())
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("notification order = %v", got)
	}
}

func TestValue_Update(t *testing.T) {
	v := New(10)
	var seen int
	v.Subscribe(func(n int) { seen = n })

	out := v.Update(func(n int) int { return n + 5 })
	if out != 15 || seen != 15 {
		t.Errorf("Update() = %d, seen %d", out, seen)
	}
}

func TestValue_UpdateIf(t *testing.T) {
	v := New(1)
	calls := 0
	v.Subscribe(func(int) { calls++ })

	if got, changed := v.UpdateIf(func(n int) (int, bool) { return n, false }); changed || got != 1 {
		t.Errorf("UpdateIf unchanged = %d, %v", got, changed)
	}
	if got, changed := v.UpdateIf(func(n int) (int, bool) { return n * 3, true }); !changed || got != 3 {
		t.Errorf("UpdateIf changed = %d, %v", got, changed)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestValue_Unsubscribe(t *testing.T) {
	v := New("")
	calls := 0
	unsub := v.Subscribe(func(string) { calls++ })

	v.Set("x")
	unsub()
	unsub()
	v.Set("y")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if v.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", v.Subscribers())
	}
}

func TestValue_SubscriberMaySetFromCallback(t *testing.T) {
	v := New(0)
	v.Subscribe(func(n int) {
		if n == 1 {
			v.Set(2)
		}
	})
	v.Set(1)
	if v.Get() != 2 {
		t.Errorf("Get() = %d, want 2", v.Get())
	}
}

func TestValue_Concurrent(t *testing.T) {
	v := New(0)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()
	if v.Get() != 50 {
		t.Errorf("Get() = %d, want 50", v.Get())
	}
}
