package level

import (
	"github.com/dm-vev/adamant-poi/server/world/chunk"
	"github.com/dm-vev/adamant-poi/server/world/gameevent"
)

// Column is a chunk loaded in a Level, along with the game event listener
// registries of its sections.
type Column struct {
	*chunk.Chunk

	// registries holds a registry for every section with listeners. Empty
	// registries are removed.
	registries map[int32]*gameevent.EuclideanRegistry
}

func newColumn(c *chunk.Chunk) *Column {
	return &Column{Chunk: c, registries: make(map[int32]*gameevent.EuclideanRegistry)}
}

// ListenerRegistry returns the game event listener registry of the section
// at height sectionY, if it has any listeners.
func (c *Column) ListenerRegistry(sectionY int32) (gameevent.Registry, bool) {
	r, ok := c.registries[sectionY]
	if !ok {
		return nil, false
	}
	return r, true
}
