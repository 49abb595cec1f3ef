package poi

import (
	"github.com/brentp/intintmap"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/propagate"
)

const (
	// distanceLevels is the amount of distinct distance levels tracked. Level
	// distanceLevels itself means a section is too far from any village
	// center to be tracked.
	distanceLevels = 7
	// maxStoredLevel is the highest level stored in the level map. Sections
	// with a higher level are absent from it.
	maxStoredLevel = distanceLevels - 1
	// trackerLevels is the level count of the propagation graph. Its highest
	// level, distanceLevels, is the one unreached sections are raised to.
	trackerLevels = distanceLevels + 1
)

// distanceTracker tracks the distance in sections from every section to the
// closest village center.
type distanceTracker struct {
	m       *Manager
	levels  *intintmap.Map
	tracker *propagate.SectionTracker
}

func newDistanceTracker(m *Manager) *distanceTracker {
	d := &distanceTracker{m: m, levels: intintmap.New(512, 0.6)}
	d.tracker = propagate.NewSectionTracker(trackerLevels, 16, 256, d)
	return d
}

// Level ...
func (d *distanceTracker) Level(key world.SectionKey) int {
	if l, ok := d.levels.Get(int64(key)); ok {
		return int(l)
	}
	return distanceLevels
}

// SetLevel ...
func (d *distanceTracker) SetLevel(key world.SectionKey, level int) {
	if level > maxStoredLevel {
		d.levels.Del(int64(key))
		return
	}
	d.levels.Put(int64(key), int64(level))
}

// LevelFromSource returns 0 for village centers: sections holding a taken
// POI of a village type. Any other section does not act as a source.
func (d *distanceTracker) LevelFromSource(key world.SectionKey) int {
	if d.m.villageCenter(key) {
		return 0
	}
	return distanceLevels
}

// update restarts propagation from the section at key after its records
// changed.
func (d *distanceTracker) update(key world.SectionKey) {
	d.tracker.Update(key, d.LevelFromSource(key), false)
}

func (d *distanceTracker) runAllUpdates() {
	d.tracker.RunAllUpdates()
}
