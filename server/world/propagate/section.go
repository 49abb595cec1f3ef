package propagate

import (
	"math"

	"github.com/dm-vev/adamant-poi/server/world"
)

// Source is the pseudo node through which every section receives the level of
// its own source. It never collides with a section key in the world's height
// range.
const Source int64 = math.MaxInt64

// SectionLevels stores the levels of sections tracked by a SectionTracker and
// supplies the level each section receives from its own source.
type SectionLevels interface {
	Level(key world.SectionKey) int
	SetLevel(key world.SectionKey, level int)
	LevelFromSource(key world.SectionKey) int
}

// SectionTracker propagates levels between sections. Every section is
// connected to the 26 sections surrounding it, and receives one level more
// than each neighbour. In addition, each section receives the level returned
// by SectionLevels.LevelFromSource.
type SectionTracker struct {
	g      *Graph
	levels SectionLevels
}

// NewSectionTracker creates a SectionTracker with levelCount levels, storing
// levels in the SectionLevels passed.
func NewSectionTracker(levelCount, queueCapacity, computedCapacity int, levels SectionLevels) *SectionTracker {
	if levels == nil {
		panic("propagate: section tracker requires levels")
	}
	t := &SectionTracker{levels: levels}
	t.g = NewGraph(levelCount, queueCapacity, computedCapacity, t)
	return t
}

// Update notifies the tracker that the source level of the section at key
// changed to level. decreasing must only be true if the new level is lower
// than the previous one.
func (t *SectionTracker) Update(key world.SectionKey, level int, decreasing bool) {
	t.g.CheckEdge(Source, int64(key), level, decreasing)
}

// RunUpdates processes at most maxSteps queued sections and returns the
// number of steps left.
func (t *SectionTracker) RunUpdates(maxSteps int) int {
	return t.g.RunUpdates(maxSteps)
}

// RunAllUpdates processes queued sections until the tracker reaches a fixed
// point.
func (t *SectionTracker) RunAllUpdates() {
	for t.g.HasWork() {
		t.g.RunUpdates(math.MaxInt32)
	}
}

// HasWork reports if any sections are still queued.
func (t *SectionTracker) HasWork() bool {
	return t.g.HasWork()
}

// QueueSize returns the number of sections with a pending level.
func (t *SectionTracker) QueueSize() int {
	return t.g.QueueSize()
}

// IsSource ...
func (t *SectionTracker) IsSource(node int64) bool {
	return node == Source
}

// Level ...
func (t *SectionTracker) Level(node int64) int {
	if node == Source {
		return 0
	}
	return t.levels.Level(world.SectionKey(node))
}

// SetLevel ...
func (t *SectionTracker) SetLevel(node int64, level int) {
	t.levels.SetLevel(world.SectionKey(node), level)
}

// LevelFromNeighbor ...
func (t *SectionTracker) LevelFromNeighbor(from, to int64, level int) int {
	if from == Source {
		return t.levels.LevelFromSource(world.SectionKey(to))
	}
	return level + 1
}

// ComputedLevel ...
func (t *SectionTracker) ComputedLevel(node, excluded int64, maxLevel int) int {
	level := maxLevel
	key := world.SectionKey(node)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				neighbour := int64(key.Offset(dx, dy, dz))
				if neighbour == node {
					neighbour = Source
				}
				if neighbour == excluded {
					continue
				}
				if l := t.LevelFromNeighbor(neighbour, node, t.Level(neighbour)); l < level {
					level = l
				}
				if level == 0 {
					return level
				}
			}
		}
	}
	return level
}

// CheckNeighborsAfterUpdate ...
func (t *SectionTracker) CheckNeighborsAfterUpdate(node int64, level int, decreasing bool) {
	key := world.SectionKey(node)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				if neighbour := int64(key.Offset(dx, dy, dz)); neighbour != node {
					t.g.CheckNeighbor(node, neighbour, level, decreasing)
				}
			}
		}
	}
}
