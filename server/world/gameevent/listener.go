package gameevent

import (
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// DeliveryMode controls when a Listener is notified of an event.
type DeliveryMode uint8

const (
	// Immediate listeners are notified as soon as they are found.
	Immediate DeliveryMode = iota
	// ByDistance listeners are notified after all listeners in range were
	// found, closest to the event first.
	ByDistance
)

// String ...
func (m DeliveryMode) String() string {
	if m == ByDistance {
		return "by_distance"
	}
	return "immediate"
}

// Listener reacts to events posted within its radius. Implementations must be
// comparable, as listeners are unregistered by equality. Pointer types are
// typically used.
type Listener interface {
	// Source returns the PositionSource of the Listener.
	Source() PositionSource
	// Radius returns the distance in blocks from its position within which
	// the Listener receives events.
	Radius() int
	// DeliveryMode returns when the Listener is notified.
	DeliveryMode() DeliveryMode
	// HandleGameEvent is called when an event is posted in range of the
	// Listener. pos is the position of the event. It returns true if the
	// Listener reacted to the event.
	HandleGameEvent(l Level, ev *Event, ctx Context, pos mgl64.Vec3) bool
}

// Level is the world that events are posted in.
type Level interface {
	// LoadedChunk returns the chunk at pos if it is loaded. It never loads or
	// generates a chunk.
	LoadedChunk(pos world.ChunkPos) (Chunk, bool)
	// EntityPosition returns the position of the entity with the UUID passed,
	// if it is in the world.
	EntityPosition(id uuid.UUID) (mgl64.Vec3, bool)
}

// Chunk is a chunk column holding a listener registry per section.
type Chunk interface {
	// ListenerRegistry returns the registry of the section at height
	// sectionY, if any listener was registered in it.
	ListenerRegistry(sectionY int32) (Registry, bool)
}

// Visitor is called for every Listener in range of an event, with the
// position the Listener resolved to.
type Visitor func(l Listener, pos mgl64.Vec3)

// Registry holds the listeners of a single section.
type Registry interface {
	// Register adds a Listener to the Registry.
	Register(l Listener)
	// Unregister removes a Listener from the Registry.
	Unregister(l Listener)
	// Visit calls visitor for every Listener within its radius of pos and
	// returns true if any Listener was visited.
	Visit(ev *Event, pos mgl64.Vec3, ctx Context, visitor Visitor) bool
	// Empty reports if the Registry holds no listeners.
	Empty() bool
}
