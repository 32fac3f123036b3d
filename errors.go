package grove

import "errors"

var (
	// ErrDuplicateIdentifier is returned when an entity is created with an id
	// that is already present in the registry.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrCapacityExceeded is returned when a light is created while the light
	// aggregator already holds MaxLights lights.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrCycle is returned when re-parenting would make a node its own ancestor.
	ErrCycle = errors.New("parent would create a cycle")

	// ErrPrimaryCamera is returned when destroying the primary camera.
	ErrPrimaryCamera = errors.New("primary camera cannot be destroyed")

	// ErrNoPrimaryCamera is returned by operations that need a primary camera
	// before one has been created.
	ErrNoPrimaryCamera = errors.New("no primary camera")

	// ErrInvalidResolution is returned for non-positive camera dimensions.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrDestroyed is returned when a destroyed entity is registered again.
	ErrDestroyed = errors.New("entity was destroyed")
)

var (
	// ErrQueueFull is returned when the asset loader queue has no free slot.
	ErrQueueFull = errors.New("asset queue full")

	// ErrLoaderClosed is returned when requesting from a closed asset loader.
	ErrLoaderClosed = errors.New("asset loader closed")
)
