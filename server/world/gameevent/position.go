package gameevent

import (
	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// PositionSource resolves the current position of a listener. A source may
// fail to resolve, for example when the entity it tracks is no longer in the
// world.
type PositionSource interface {
	Position(l Level) (mgl64.Vec3, bool)
}

// BlockPositionSource is a PositionSource at the centre of a fixed block.
type BlockPositionSource struct {
	Pos cube.Pos
}

// Position ...
func (s BlockPositionSource) Position(Level) (mgl64.Vec3, bool) {
	return s.Pos.Vec3Centre(), true
}

// EntityPositionSource is a PositionSource following an entity. It holds the
// UUID of the entity rather than the entity itself and resolves its position
// through the Level, so that it fails to resolve once the entity is removed.
type EntityPositionSource struct {
	Entity uuid.UUID
	// YOffset is added to the Y coordinate of the position of the entity.
	YOffset float64
}

// Position ...
func (s EntityPositionSource) Position(l Level) (mgl64.Vec3, bool) {
	pos, ok := l.EntityPosition(s.Entity)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return pos.Add(mgl64.Vec3{0, s.YOffset}), true
}
