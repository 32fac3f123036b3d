package grove

import "slices"

// EntityStore is the interface for optional ECS integration.
// When set on a Registry, lifecycle and pointer events are forwarded to it.
type EntityStore interface {
	EmitEvent(event EntityEvent)
}

// EntityEvent carries lifecycle and interaction data for observers and the
// ECS bridge.
type EntityEvent struct {
	Type EventType
	ID   string
	// Tag is set for EventTagged and EventUntagged.
	Tag string
	// Pointer fields (valid for pointer events), in world coordinates of the
	// camera the entity is drawn with.
	X, Y   float64
	Button MouseButton
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	remove func()
}

// Remove unregisters this callback so it no longer fires. Safe to call more
// than once and on the zero handle.
func (h CallbackHandle) Remove() {
	if h.remove != nil {
		h.remove()
	}
}

type observer[T any] struct {
	id uint32
	fn func(T)
}

// observers is an ordered callback list. Callbacks run synchronously in
// registration order.
type observers[T any] struct {
	list   []observer[T]
	nextID uint32
}

func (o *observers[T]) add(fn func(T)) CallbackHandle {
	o.nextID++
	id := o.nextID
	o.list = append(o.list, observer[T]{id: id, fn: fn})
	return CallbackHandle{remove: func() { o.remove(id) }}
}

// remove drops the entry from the slice to avoid nil iteration waste.
func (o *observers[T]) remove(id uint32) {
	for i := range o.list {
		if o.list[i].id == id {
			o.list = slices.Delete(o.list, i, i+1)
			return
		}
	}
}

// emit calls every observer. Observers may deregister themselves or others
// while being called.
func (o *observers[T]) emit(v T) {
	if len(o.list) == 0 {
		return
	}
	for _, ob := range slices.Clone(o.list) {
		if !o.has(ob.id) {
			continue
		}
		ob.fn(v)
	}
}

func (o *observers[T]) has(id uint32) bool {
	for i := range o.list {
		if o.list[i].id == id {
			return true
		}
	}
	return false
}

func (o *observers[T]) len() int { return len(o.list) }
