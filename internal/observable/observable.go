// Package observable holds a single value and notifies subscribers on change.
package observable

import "sync"

// Value is a concurrency-safe observable holder. Subscribers are called
// synchronously, in subscription order, after each change.
type Value[T any] struct {
	mu     sync.RWMutex
	v      T
	nextID int
	subs   map[int]func(T)
	order  []int
}

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.v
}

// Set replaces the value and notifies subscribers.
func (o *Value[T]) Set(v T) {
	o.Update(func(T) T { return v })
}

// Update applies fn to the current value under the lock and notifies
// subscribers with the result. Returns the new value.
func (o *Value[T]) Update(fn func(T) T) T {
	v, _ := o.UpdateIf(func(cur T) (T, bool) { return fn(cur), true })
	return v
}

// UpdateIf applies fn under the lock; the value is stored and subscribers are
// notified only when fn reports a change.
func (o *Value[T]) UpdateIf(fn func(T) (T, bool)) (T, bool) {
	o.mu.Lock()
	next, changed := fn(o.v)
	if !changed {
		v := o.v
		o.mu.Unlock()
		return v, false
	}
	o.v = next
	subs := o.snapshot()
	o.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next, true
}

// Subscribe registers fn and returns a function that removes it.
func (o *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.order = append(o.order, id)
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			for i, v := range o.order {
				if v == id {
					o.order = append(o.order[:i:i], o.order[i+1:]...)
					break
				}
			}
			o.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscribers.
func (o *Value[T]) Subscribers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

func (o *Value[T]) snapshot() []func(T) {
	out := make([]func(T), 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.subs[id])
	}
	return out
}
