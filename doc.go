// Package grove is a retained-mode 2D scene engine for [Ebitengine].
//
// Grove keeps a registry of identified, tagged entities, each owning a
// [Node] in a transform hierarchy. Cameras render the entities they select
// by tag into offscreen targets; secondary camera textures can be drawn back
// into other cameras, and the primary camera is composited onto the window
// every frame. Up to [MaxLights] point lights feed the lit shader.
//
// # Quick start
//
//	e, err := grove.NewEngine(grove.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	box, _ := e.NewVisual("box")
//	box.Size = grove.Vec2{X: 80, Y: 40}
//	box.Color = grove.Color{R: 0.3, G: 0.7, B: 1, A: 1}
//	box.Node().SetLocalPosition(grove.Vec2{X: 100, Y: 50})
//
//	grove.Run(e, grove.DefaultRunConfig())
//
// For full control, implement [ebiten.Game] yourself and call [Engine.Frame]
// once per tick, for example with [WrapScreen] of the image passed to Draw.
//
// # Transforms
//
// A [Node] has a local position, a rotation in degrees and a uniform scale.
// World values compose through the parent chain and can be read or written
// directly; re-parenting keeps the world pose.
//
//	child.Node().SetParent(parent.Node())
//	child.Node().SetWorldPosition(grove.Vec2{X: 110, Y: 60})
//
// # Cameras
//
// [Engine.NewCamera] creates a camera with its own target. A visual is drawn
// by every camera carrying its camera-tag; the primary camera carries
// [MainCameraTag]. A [CameraView] draws a camera's finished texture into
// another camera, and an [Overlay] draws onto the window above everything.
//
// ECS integration (via [Donburi] adapter in grove/ecs) forwards registry and
// pointer events into a Donburi world.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package grove
