package ecs

import (
	"github.com/phanxgames/grove"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EntityEventType is the Donburi event type for grove entity events.
// Subscribe to this in your ECS systems to receive lifecycle and pointer
// events.
var EntityEventType = events.NewEventType[grove.EntityEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are published to EntityEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) grove.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event grove.EntityEvent) {
	EntityEventType.Publish(s.world, event)
}
