package chunk

import "github.com/dm-vev/adamant-poi/server/block/cube"

// Chunk is a segment in the world with a size of 16x16xN blocks, where N
// depends on the height Range of the world. A chunk is made up of one
// SubChunk per 16 blocks of height.
type Chunk struct {
	r   cube.Range
	air uint32
	sub []*SubChunk
}

// New initialises a new chunk filled with air and returns it.
func New(air uint32, r cube.Range) *Chunk {
	n := (r.Height() >> 4) + 1
	sub := make([]*SubChunk, n)
	for i := range sub {
		sub[i] = NewSubChunk(air)
	}
	return &Chunk{r: r, air: air, sub: sub}
}

// Range returns the cube.Range of the Chunk as passed to New.
func (chunk *Chunk) Range() cube.Range {
	return chunk.r
}

// Sub returns the SubChunks of the Chunk, ordered from bottom to top.
func (chunk *Chunk) Sub() []*SubChunk {
	return chunk.sub
}

// SubChunk finds the SubChunk holding the block at height y.
func (chunk *Chunk) SubChunk(y int16) *SubChunk {
	return chunk.sub[chunk.SubIndex(y)]
}

// SubIndex returns the index of the SubChunk holding height y.
func (chunk *Chunk) SubIndex(y int16) int16 {
	return (y - int16(chunk.r[0])) >> 4
}

// SubY returns the section Y coordinate of the SubChunk at index.
func (chunk *Chunk) SubY(index int16) int16 {
	return index + int16(chunk.r[0]>>4)
}

// Block returns the runtime ID of the block at a given x, y and z in a chunk.
// If no block is present there, the air runtime ID is returned.
func (chunk *Chunk) Block(x uint8, y int16, z uint8) uint32 {
	if int(y) < chunk.r[0] || int(y) > chunk.r[1] {
		return chunk.air
	}
	return chunk.SubChunk(y).Block(x, uint8(y), z)
}

// SetBlock sets the runtime ID of a block at a given x, y and z in a chunk.
// Positions outside the Range of the Chunk are ignored.
func (chunk *Chunk) SetBlock(x uint8, y int16, z uint8, rid uint32) {
	if int(y) < chunk.r[0] || int(y) > chunk.r[1] {
		return
	}
	chunk.SubChunk(y).SetBlock(x, uint8(y), z, rid)
}

// Compact compacts the palettes of all SubChunks in the Chunk.
func (chunk *Chunk) Compact() {
	for _, sub := range chunk.sub {
		sub.Compact()
	}
}
