package chunk

// SubChunk is a cube of blocks located in a chunk. It has a size of 16x16x16
// blocks and forms one of the sections of a Chunk. Blocks are stored as
// indices into a palette of runtime IDs.
type SubChunk struct {
	air     uint32
	palette []uint32
	// indices is nil as long as the palette holds a single entry and every
	// block in the SubChunk is equal.
	indices *[4096]uint16
}

// NewSubChunk creates a new sub chunk filled with the air runtime ID passed.
func NewSubChunk(air uint32) *SubChunk {
	return &SubChunk{air: air, palette: []uint32{air}}
}

// Empty checks if the SubChunk is considered empty. This is the case if the
// SubChunk holds nothing but air.
func (sub *SubChunk) Empty() bool {
	return len(sub.palette) == 1 && sub.palette[0] == sub.air
}

// Block returns the runtime ID of the block at the given x, y and z. These
// values are relative to the SubChunk and must be in the range 0-15.
func (sub *SubChunk) Block(x, y, z byte) uint32 {
	if sub.indices == nil {
		return sub.palette[0]
	}
	return sub.palette[sub.indices[index(x, y, z)]]
}

// SetBlock sets the runtime ID of the block at the given x, y and z.
func (sub *SubChunk) SetBlock(x, y, z byte, rid uint32) {
	i := sub.paletteIndex(rid)
	if sub.indices == nil {
		if i == 0 {
			return
		}
		sub.indices = new([4096]uint16)
	}
	sub.indices[index(x, y, z)] = i
}

// Palette returns the runtime IDs that may be present in the SubChunk. Entries
// may remain in the palette after the last block using them was overwritten,
// until Compact is called. The slice returned must not be modified.
func (sub *SubChunk) Palette() []uint32 {
	return sub.palette
}

// MaybeHas reports if any runtime ID in the palette of the SubChunk satisfies
// f. A false result guarantees that no block in the SubChunk does, so callers
// can skip scanning the 4096 blocks one by one.
func (sub *SubChunk) MaybeHas(f func(rid uint32) bool) bool {
	for _, rid := range sub.palette {
		if f(rid) {
			return true
		}
	}
	return false
}

// Compact removes runtime IDs from the palette that are no longer used by any
// block in the SubChunk.
func (sub *SubChunk) Compact() {
	if sub.indices == nil {
		return
	}
	used := make([]bool, len(sub.palette))
	for _, i := range sub.indices {
		used[i] = true
	}
	remap := make([]uint16, len(sub.palette))
	palette := sub.palette[:0:0]
	for i, rid := range sub.palette {
		if used[i] {
			remap[i] = uint16(len(palette))
			palette = append(palette, rid)
		}
	}
	if len(palette) == 1 {
		sub.palette, sub.indices = palette, nil
		return
	}
	for i, v := range sub.indices {
		sub.indices[i] = remap[v]
	}
	sub.palette = palette
}

// paletteIndex returns the index of rid in the palette, adding it if it was
// not yet present.
func (sub *SubChunk) paletteIndex(rid uint32) uint16 {
	for i, v := range sub.palette {
		if v == rid {
			return uint16(i)
		}
	}
	sub.palette = append(sub.palette, rid)
	return uint16(len(sub.palette) - 1)
}

func index(x, y, z byte) uint16 {
	return uint16(x&0xf)<<8 | uint16(z&0xf)<<4 | uint16(y&0xf)
}
