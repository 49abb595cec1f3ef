// Package gameevent dispatches game events to nearby listeners. Listeners are
// registered per 16x16x16 section of the world. Posting an event visits every
// section within the radius of the event in loaded chunks and notifies the
// listeners within their own radius of the event.
package gameevent

import (
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Event is a kind of game event, such as an entity taking a step or a block
// being changed.
type Event struct {
	// Name is the unique name of the event, such as 'minecraft:step'.
	Name string
	// NotificationRadius is the distance in blocks up to which sections are
	// searched for listeners when the event is posted.
	NotificationRadius int
}

// String ...
func (e *Event) String() string {
	return e.Name
}

// newEvent returns a vanilla Event with the default notification radius.
func newEvent(name string) *Event {
	return &Event{Name: name, NotificationRadius: 16}
}

// Vanilla events.
var (
	BlockActivate   = newEvent("minecraft:block_activate")
	BlockAttach     = newEvent("minecraft:block_attach")
	BlockChange     = newEvent("minecraft:block_change")
	BlockClose      = newEvent("minecraft:block_close")
	BlockDestroy    = newEvent("minecraft:block_destroy")
	BlockOpen       = newEvent("minecraft:block_open")
	BlockPlace      = newEvent("minecraft:block_place")
	ContainerClose  = newEvent("minecraft:container_close")
	ContainerOpen   = newEvent("minecraft:container_open")
	EntityDie       = newEvent("minecraft:entity_die")
	EntityPlace     = newEvent("minecraft:entity_place")
	Explode         = newEvent("minecraft:explode")
	ProjectileLand  = newEvent("minecraft:projectile_land")
	Step            = newEvent("minecraft:step")
	Swim            = newEvent("minecraft:swim")
	LightningStrike = newEvent("minecraft:lightning_strike")
	InstrumentPlay  = &Event{Name: "minecraft:instrument_play", NotificationRadius: 32}
)

// Entity is an entity that caused an event.
type Entity interface {
	UUID() uuid.UUID
	Position() mgl64.Vec3
}

// Context holds optional details on what caused an event.
type Context struct {
	// SourceEntity is the entity that caused the event. It is nil if the
	// event was not caused by an entity.
	SourceEntity Entity
	// AffectedState is the block state affected by the event, if any.
	AffectedState world.Block
}
