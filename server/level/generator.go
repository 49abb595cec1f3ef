package level

import (
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/chunk"
)

// Generator fills chunks with blocks when they are first loaded.
type Generator interface {
	// GenerateChunk generates the chunk at pos into c.
	GenerateChunk(pos world.ChunkPos, c *chunk.Chunk)
}

// NopGenerator is a Generator that leaves chunks empty.
type NopGenerator struct{}

// GenerateChunk ...
func (NopGenerator) GenerateChunk(world.ChunkPos, *chunk.Chunk) {}

// Flat is a Generator that fills every chunk with the same layers of blocks,
// starting at the bottom of the world.
type Flat struct {
	// Layers holds the blocks of each layer, bottom first.
	Layers []world.Block
}

// GenerateChunk ...
func (f Flat) GenerateChunk(_ world.ChunkPos, c *chunk.Chunk) {
	minY := int16(c.Range()[0])
	for i, b := range f.Layers {
		rid := world.RegisterBlock(b)
		y := minY + int16(i)
		for x := uint8(0); x < 16; x++ {
			for z := uint8(0); z < 16; z++ {
				c.SetBlock(x, y, z, rid)
			}
		}
	}
}
