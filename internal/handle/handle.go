// Package handle provides an owner/observer pair for state that is reached
// from long-lived callbacks.
//
// An Owner is the single strong reference to a value. Any number of Refs may
// observe it; a Ref never keeps the value alive. Once the owner is released
// (explicitly, or by being collected) every Ref resolves to absent and
// Map becomes a no-op.
//
// Access through Map is serialized by one mutex per owner. A callback that
// calls Map on the same owner from inside Map deadlocks; that is a
// programming error, not a supported pattern.
package handle

import (
	"sync"
	"weak"
)

type cell[T any] struct {
	mu    sync.Mutex
	value *T
}

// Owner holds a value exclusively.
type Owner[T any] struct {
	cell *cell[T]
}

// Ref is a non-owning observer of an Owner's value. The zero Ref is always
// absent.
type Ref[T any] struct {
	ptr weak.Pointer[cell[T]]
}

// New takes ownership of value.
func New[T any](value *T) *Owner[T] {
	return &Owner[T]{cell: &cell[T]{value: value}}
}

// Borrow returns a Ref observing o.
func (o *Owner[T]) Borrow() Ref[T] {
	return Ref[T]{ptr: weak.Make(o.cell)}
}

// Release drops the owned value. Refs resolve to absent from this point on,
// including Refs currently blocked in Map waiting for the lock. It returns
// the value so the caller can finish tearing it down, or nil if the owner
// was already released.
func (o *Owner[T]) Release() *T {
	o.cell.mu.Lock()
	defer o.cell.mu.Unlock()
	v := o.cell.value
	o.cell.value = nil
	return v
}

// Alive reports whether the owner still holds its value.
func (o *Owner[T]) Alive() bool {
	o.cell.mu.Lock()
	defer o.cell.mu.Unlock()
	return o.cell.value != nil
}

// Do runs fn on the value if it is still owned and reports whether it ran.
func (r Ref[T]) Do(fn func(*T)) bool {
	_, ok := Map(r, func(v *T) struct{} {
		fn(v)
		return struct{}{}
	})
	return ok
}

// Alive reports whether the observed value is still owned.
func (r Ref[T]) Alive() bool {
	c := r.ptr.Value()
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value != nil
}

// Map applies fn to the observed value and returns its result. If the owner
// is gone it returns the zero R and false without calling fn.
func Map[T, R any](r Ref[T], fn func(*T) R) (R, bool) {
	var zero R
	c := r.ptr.Value()
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil {
		return zero, false
	}
	return fn(c.value), true
}
