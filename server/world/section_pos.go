package world

import (
	"fmt"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"golang.org/x/exp/constraints"
)

// ChunkPos holds the position of a chunk. The type is provided as a utility
// struct for keeping track of a chunk's position. Chunks do not themselves
// keep track of that. Chunk positions are different from block positions in
// the way that increasing the X/Z by one means increasing the absolute value
// on the X/Z axis in terms of blocks by 16.
type ChunkPos [2]int32

// String implements fmt.Stringer using a slice-like representation.
func (p ChunkPos) String() string {
	return fmt.Sprintf("(%v,%v)", p[0], p[1])
}

// X returns the X coordinate of the chunk position.
func (p ChunkPos) X() int32 {
	return p[0]
}

// Z returns the Z coordinate of the chunk position.
func (p ChunkPos) Z() int32 {
	return p[1]
}

// ChunkPosOf returns the position of the chunk that holds the block position
// passed.
func ChunkPosOf(pos cube.Pos) ChunkPos {
	return ChunkPos{BlockToSection(pos[0]), BlockToSection(pos[2])}
}

// SectionPos holds the position of a 16x16x16 section of the world, in
// section coordinates: {x, y, z}.
type SectionPos [3]int32

// String implements fmt.Stringer using a slice-like representation.
func (p SectionPos) String() string {
	return fmt.Sprintf("(%v,%v,%v)", p[0], p[1], p[2])
}

// X returns the X coordinate of the section position.
func (p SectionPos) X() int32 {
	return p[0]
}

// Y returns the Y coordinate of the section position.
func (p SectionPos) Y() int32 {
	return p[1]
}

// Z returns the Z coordinate of the section position.
func (p SectionPos) Z() int32 {
	return p[2]
}

// Chunk returns the position of the chunk column that the section is part of.
func (p SectionPos) Chunk() ChunkPos {
	return ChunkPos{p[0], p[2]}
}

// MinBlock returns the block position with the lowest coordinates that is
// still part of the section.
func (p SectionPos) MinBlock() cube.Pos {
	return cube.Pos{int(p[0]) << 4, int(p[1]) << 4, int(p[2]) << 4}
}

// Key packs the section position into a SectionKey.
func (p SectionPos) Key() SectionKey {
	return SectionKey(uint64(p[0])&sectionXMask |
		(uint64(p[2])&sectionZMask)<<sectionZShift |
		(uint64(p[1])&sectionYMask)<<sectionYShift)
}

// SectionPosOf returns the position of the section holding the block position
// passed.
func SectionPosOf(pos cube.Pos) SectionPos {
	return SectionPos{BlockToSection(pos[0]), BlockToSection(pos[1]), BlockToSection(pos[2])}
}

// SectionPosIn returns the position of the section at height y in the chunk
// column passed.
func SectionPosIn(c ChunkPos, y int32) SectionPos {
	return SectionPos{c[0], y, c[1]}
}

// BlockToSection converts a block coordinate to the coordinate of the section
// holding it. Negative coordinates are rounded down.
func BlockToSection[T constraints.Integer](v T) int32 {
	return int32(v >> 4)
}

// SectionLocal returns the coordinate of a block relative to the section
// holding it, in the range 0-15.
func SectionLocal(v int) uint8 {
	return uint8(v & 0xf)
}

// SectionRange returns the lowest and highest section Y coordinate (both
// inclusive) covered by the block Range passed.
func SectionRange(r cube.Range) (minY, maxY int32) {
	return BlockToSection(r.Min()), BlockToSection(r.Max())
}

const (
	sectionXBits = 22
	sectionZBits = 22
	sectionYBits = 64 - sectionXBits - sectionZBits

	sectionZShift = sectionXBits
	sectionYShift = sectionXBits + sectionZBits

	sectionXMask = 1<<sectionXBits - 1
	sectionZMask = 1<<sectionZBits - 1
	sectionYMask = 1<<sectionYBits - 1
)

// SectionKey is a SectionPos packed into 64 bits: X occupies the lowest 22
// bits, Z the next 22 bits and Y the remaining 20 bits. All three are stored
// as two's complement and sign extended when unpacked.
type SectionKey int64

// SectionKeyOf returns the SectionKey of the section holding the block
// position passed.
func SectionKeyOf(pos cube.Pos) SectionKey {
	return SectionPosOf(pos).Key()
}

// X returns the section X coordinate stored in the key.
func (k SectionKey) X() int32 {
	return int32(int64(k) << (64 - sectionXBits) >> (64 - sectionXBits))
}

// Z returns the section Z coordinate stored in the key.
func (k SectionKey) Z() int32 {
	return int32(int64(k) << (64 - sectionYShift) >> (64 - sectionZBits))
}

// Y returns the section Y coordinate stored in the key.
func (k SectionKey) Y() int32 {
	return int32(int64(k) >> sectionYShift)
}

// Pos unpacks the key into a SectionPos.
func (k SectionKey) Pos() SectionPos {
	return SectionPos{k.X(), k.Y(), k.Z()}
}

// Chunk returns the position of the chunk column that the section is part of.
func (k SectionKey) Chunk() ChunkPos {
	return ChunkPos{k.X(), k.Z()}
}

// Offset returns the key of the section offset by dx, dy and dz sections.
func (k SectionKey) Offset(dx, dy, dz int32) SectionKey {
	return SectionPos{k.X() + dx, k.Y() + dy, k.Z() + dz}.Key()
}

// String implements fmt.Stringer by printing the unpacked position.
func (k SectionKey) String() string {
	return k.Pos().String()
}
