package grove

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Registry maps identifiers to entities and tags to identifier lists. It is
// the only owner of those indexes: entities enter through Add or Create and
// leave through Destroy, which keeps every tag bucket limited to live ids.
//
// A Registry is not safe for concurrent use; the engine drives it from a
// single goroutine.
type Registry struct {
	entities map[string]Entity
	order    []string            // ids in creation order
	tags     map[string][]string // tag -> ids in insertion order
	seq      uint64

	store     EntityStore
	created   observers[Entity]
	destroyed observers[Entity]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]Entity),
		tags:     make(map[string][]string),
	}
}

// Create registers a plain spatial entity with the given id and tags.
// An empty id is replaced with a generated UUID.
func (r *Registry) Create(id string, tags ...string) (*Thing, error) {
	t := NewThing(id, tags...)
	if err := r.Add(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Add registers e. It fails with ErrDuplicateIdentifier if the id is taken,
// leaving the existing entity untouched.
func (r *Registry) Add(e Entity) error {
	t := e.thing()
	if t.retired {
		return fmt.Errorf("grove: add %q: %w", t.id, ErrDestroyed)
	}
	if t.id == "" {
		t.id = uuid.NewString()
	}
	if _, ok := r.entities[t.id]; ok {
		return fmt.Errorf("grove: add %q: %w", t.id, ErrDuplicateIdentifier)
	}
	if t.alive {
		return fmt.Errorf("grove: add %q: already registered: %w", t.id, ErrDuplicateIdentifier)
	}
	if t.node == nil {
		t.node = NewNode(t.id)
	} else if t.node.Name == "" {
		t.node.Name = t.id
	}

	r.seq++
	t.seq = r.seq
	t.alive = true
	r.entities[t.id] = e
	r.order = append(r.order, t.id)
	for _, tag := range t.tags {
		r.tags[tag] = append(r.tags[tag], t.id)
	}

	r.created.emit(e)
	r.emit(EntityEvent{Type: EventCreated, ID: t.id})
	return nil
}

// Destroy removes the entity from every index and runs its teardown hook.
// Destroying an unknown id is a no-op. The primary camera refuses with
// ErrPrimaryCamera.
func (r *Registry) Destroy(id string) error {
	e, ok := r.entities[id]
	if !ok {
		return nil
	}
	if v, ok := e.(destroyVeto); ok {
		if err := v.vetoDestroy(); err != nil {
			return fmt.Errorf("grove: destroy %q: %w", id, err)
		}
	}

	t := e.thing()
	delete(r.entities, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	for _, tag := range t.tags {
		r.removeFromBucket(tag, id)
	}
	t.alive = false
	t.retired = true

	if td, ok := e.(Teardown); ok {
		td.OnDestroy()
	}
	t.node.Dispose()

	r.destroyed.emit(e)
	r.emit(EntityEvent{Type: EventDestroyed, ID: id})
	return nil
}

// Get returns the entity with the given id. A miss is not an error.
func (r *Registry) Get(id string) (Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Lookup returns the entity with the given id if it exists and has type T.
func Lookup[T Entity](r *Registry, id string) (T, bool) {
	var zero T
	e, ok := r.entities[id]
	if !ok {
		return zero, false
	}
	v, ok := e.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.entities[id]
	return ok
}

// ByTag returns the entities carrying tag in insertion order. The result is
// empty (never nil) for unused tags and is owned by the caller.
func (r *Registry) ByTag(tag string) []Entity {
	ids := r.tags[tag]
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.entities[id])
	}
	return out
}

// IDsByTag returns the ids carrying tag in insertion order.
func (r *Registry) IDsByTag(tag string) []string {
	return slices.Clone(r.tags[tag])
}

// AddTags adds tags to a live entity. Tags it already carries are skipped.
// Returns false if id is unknown.
func (r *Registry) AddTags(id string, tags ...string) bool {
	e, ok := r.entities[id]
	if !ok {
		return false
	}
	t := e.thing()
	for _, tag := range tags {
		if t.addTag(tag) {
			r.tags[tag] = append(r.tags[tag], id)
			r.emit(EntityEvent{Type: EventTagged, ID: id, Tag: tag})
		}
	}
	return true
}

// RemoveTags removes tags from a live entity. Returns false if id is unknown.
func (r *Registry) RemoveTags(id string, tags ...string) bool {
	e, ok := r.entities[id]
	if !ok {
		return false
	}
	t := e.thing()
	for _, tag := range tags {
		if t.removeTag(tag) {
			r.removeFromBucket(tag, id)
			r.emit(EntityEvent{Type: EventUntagged, ID: id, Tag: tag})
		}
	}
	return true
}

// Each calls fn for every entity in creation order. Entities destroyed by fn
// during the walk are skipped.
func (r *Registry) Each(fn func(Entity)) {
	for _, id := range slices.Clone(r.order) {
		if e, ok := r.entities[id]; ok {
			fn(e)
		}
	}
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

// OnCreate registers a callback invoked after an entity is added.
func (r *Registry) OnCreate(fn func(Entity)) CallbackHandle {
	return r.created.add(fn)
}

// OnDestroy registers a callback invoked after an entity is destroyed.
func (r *Registry) OnDestroy(fn func(Entity)) CallbackHandle {
	return r.destroyed.add(fn)
}

// SetEntityStore sets the optional ECS bridge.
func (r *Registry) SetEntityStore(store EntityStore) {
	r.store = store
}

func (r *Registry) emit(ev EntityEvent) {
	if r.store != nil {
		r.store.EmitEvent(ev)
	}
}

func (r *Registry) removeFromBucket(tag, id string) {
	ids := r.tags[tag]
	i := slices.Index(ids, id)
	if i < 0 {
		return
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		delete(r.tags, tag)
		return
	}
	r.tags[tag] = ids
}
