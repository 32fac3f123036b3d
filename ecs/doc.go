// Package ecs provides ECS adapters for grove's entity event stream.
//
// The primary adapter is [NewDonburiStore], which bridges grove entity events
// (created, destroyed, tagged, pointer and click) into a [Donburi] world as
// typed events. Subscribe to [EntityEventType] in your ECS systems to receive
// them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	engine.Registry().SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
