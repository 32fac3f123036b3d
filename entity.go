package grove

import "slices"

// Entity is anything the Registry can index: an identifier, a tag set and a
// spatial Node. Concrete types satisfy it by embedding Thing.
type Entity interface {
	ID() string
	Tags() []string
	HasTag(tag string) bool
	Node() *Node
	thing() *Thing
}

// Teardown is implemented by entities that release per-type state (a light
// slot, a render target) when the registry destroys them.
type Teardown interface {
	OnDestroy()
}

// destroyVeto lets an entity refuse destruction. The primary camera uses it.
type destroyVeto interface {
	vetoDestroy() error
}

// Thing is the embeddable base of every entity. The zero value is not usable;
// build one with MakeThing or NewThing.
type Thing struct {
	id   string
	tags []string
	node *Node

	seq     uint64 // creation order, assigned by the registry
	alive   bool
	retired bool
}

// MakeThing returns a Thing value for embedding in a concrete entity type.
// Duplicate tags are dropped. An empty id is replaced by a generated one
// when the entity is registered.
func MakeThing(id string, tags ...string) Thing {
	t := Thing{id: id, node: NewNode(id)}
	for _, tag := range tags {
		t.addTag(tag)
	}
	return t
}

// NewThing returns a plain spatial entity.
func NewThing(id string, tags ...string) *Thing {
	t := MakeThing(id, tags...)
	return &t
}

// ID returns the unique identifier.
func (t *Thing) ID() string { return t.id }

// Tags returns the tags in the order they were added. The returned slice
// MUST NOT be mutated by the caller.
func (t *Thing) Tags() []string { return t.tags }

// HasTag reports whether the entity carries tag.
func (t *Thing) HasTag(tag string) bool { return slices.Contains(t.tags, tag) }

// Node returns the entity's transform node.
func (t *Thing) Node() *Node { return t.node }

// Alive reports whether the entity is currently registered.
func (t *Thing) Alive() bool { return t.alive }

func (t *Thing) thing() *Thing { return t }

func (t *Thing) addTag(tag string) bool {
	if tag == "" || slices.Contains(t.tags, tag) {
		return false
	}
	t.tags = append(t.tags, tag)
	return true
}

func (t *Thing) removeTag(tag string) bool {
	i := slices.Index(t.tags, tag)
	if i < 0 {
		return false
	}
	t.tags = slices.Delete(t.tags, i, i+1)
	return true
}
