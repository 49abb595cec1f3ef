// Package poi keeps track of points of interest in a world: block positions
// hosting a POI Type, such as beds, bells and villager job sites. Records are
// stored per 16x16x16 section and persisted through a sectionstore.Provider.
package poi

import (
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/sectionstore"
)

// Config holds the settings of a Manager.
type Config struct {
	// Log is the Logger used by the Manager. If nil, slog.Default() is used.
	Log *slog.Logger
	// Provider persists POI sections. If nil, sections are kept in memory
	// only.
	Provider sectionstore.Provider
	// Range is the height range of the world.
	Range cube.Range
	// Types holds the POI types that may be found in the world. If nil,
	// DefaultTypes() is used.
	Types *Types
	// Metrics, if set, records section column loads and saves.
	Metrics *sectionstore.Metrics
}

// New creates a Manager using the fields of the Config.
func (conf Config) New() *Manager {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Types == nil {
		conf.Types = DefaultTypes()
	}
	if conf.Range == (cube.Range{}) {
		panic("poi: manager requires height range")
	}
	m := &Manager{conf: conf, loadedChunks: make(map[world.ChunkPos]struct{})}
	m.distance = newDistanceTracker(m)
	m.store = sectionstore.Config[*Section]{
		Log:      conf.Log,
		Provider: conf.Provider,
		Codec:    sectionCodec{log: conf.Log, types: conf.Types},
		Range:    conf.Range,
		OnLoad:   m.distance.update,
		OnDirty:  m.distance.update,
		Metrics:  conf.Metrics,
	}.New()
	return m
}

// Manager is a spatial index of the POI records of a world. Queries read
// sections lazily from the Provider; sections that fail to load are treated as
// holding no records.
//
// Manager is not safe for concurrent use. It is owned by the goroutine ticking
// the world.
type Manager struct {
	conf     Config
	store    *sectionstore.Storage[*Section]
	distance *distanceTracker

	// loadedChunks holds every chunk loaded by EnsureLoadedAndValid.
	loadedChunks map[world.ChunkPos]struct{}
}

// ChunkLoader loads chunks of a world, so that their POI sections are checked
// against their blocks.
type ChunkLoader interface {
	LoadChunk(pos world.ChunkPos)
}

// Blocks is a 16x16x16 section of blocks, as found in a chunk.
type Blocks interface {
	// Block returns the runtime ID of the block at the position relative to
	// the section.
	Block(x, y, z byte) uint32
	// MaybeHas reports if any block in the section may satisfy f. It may
	// return false positives but never false negatives.
	MaybeHas(f func(rid uint32) bool) bool
}

// Types returns the POI types known to the Manager.
func (m *Manager) Types() *Types {
	return m.conf.Types
}

// Add adds a POI of the Type passed at pos. If a POI already exists at pos,
// the call is ignored.
func (m *Manager) Add(pos cube.Pos, typ *Type) {
	sec, err := m.store.GetOrCreate(world.SectionKeyOf(pos))
	if err != nil {
		m.conf.Log.Error("Failed adding POI.", "pos", pos, "type", typ, "err", err)
		return
	}
	sec.Add(pos, typ)
}

// Remove removes the POI at pos, if any.
func (m *Manager) Remove(pos cube.Pos) {
	if sec, ok := m.store.GetOrLoad(world.SectionKeyOf(pos)); ok {
		sec.Remove(pos)
	}
}

// Release returns a ticket previously taken with Take to the POI at pos. It
// returns false if no ticket of the POI was taken. Release panics if no POI
// exists at pos, as every ticket taken must belong to a POI.
func (m *Manager) Release(pos cube.Pos) bool {
	err := fmt.Errorf("release %v: %w", pos, ErrNoRecord)
	if sec, ok := m.store.GetOrLoad(world.SectionKeyOf(pos)); ok {
		var released bool
		if released, err = sec.Release(pos); err == nil {
			return released
		}
	}
	m.conf.Log.Error("POI never registered.", "pos", pos)
	panic(fmt.Errorf("poi: %w", err))
}

// Exists checks if a POI with a Type satisfying pred exists at pos.
func (m *Manager) Exists(pos cube.Pos, pred Predicate) bool {
	sec, ok := m.store.GetOrLoad(world.SectionKeyOf(pos))
	return ok && sec.Exists(pos, pred)
}

// Type returns the Type of the POI at pos.
func (m *Manager) Type(pos cube.Pos) (*Type, bool) {
	sec, ok := m.store.GetOrLoad(world.SectionKeyOf(pos))
	if !ok {
		return nil, false
	}
	return sec.Type(pos)
}

// FreeTickets returns the amount of free tickets of the POI at pos, or 0 if no
// POI exists there.
func (m *Manager) FreeTickets(pos cube.Pos) int {
	sec, ok := m.store.GetOrLoad(world.SectionKeyOf(pos))
	if !ok {
		return 0
	}
	return sec.FreeTickets(pos)
}

// Count returns the amount of POIs matching pred and occupancy within
// distance blocks of pos.
func (m *Manager) Count(pred Predicate, pos cube.Pos, distance int, occupancy Occupancy) int {
	n := 0
	for range m.InRange(pred, pos, distance, occupancy) {
		n++
	}
	return n
}

// InChunk returns the records in every section of the chunk column at pos
// that match pred and occupancy.
func (m *Manager) InChunk(pred Predicate, pos world.ChunkPos, occupancy Occupancy) iter.Seq[*Record] {
	minY, maxY := world.SectionRange(m.conf.Range)
	return func(yield func(*Record) bool) {
		for y := minY; y <= maxY; y++ {
			sec, ok := m.store.GetOrLoad(world.SectionPosIn(pos, y).Key())
			if !ok {
				continue
			}
			for r := range sec.Records(pred, occupancy) {
				if !yield(r) {
					return
				}
			}
		}
	}
}

// InSquare returns the records matching pred and occupancy whose X and Z
// coordinates lie at most distance blocks away from those of pos. The full
// height of the world is searched.
func (m *Manager) InSquare(pred Predicate, pos cube.Pos, distance int, occupancy Occupancy) iter.Seq[*Record] {
	radius := world.BlockToSection(distance) + 1
	centre := world.ChunkPosOf(pos)
	return func(yield func(*Record) bool) {
		for cz := centre[1] - radius; cz <= centre[1]+radius; cz++ {
			for cx := centre[0] - radius; cx <= centre[0]+radius; cx++ {
				for r := range m.InChunk(pred, world.ChunkPos{cx, cz}, occupancy) {
					p := r.Pos()
					if abs(p[0]-pos[0]) > distance || abs(p[2]-pos[2]) > distance {
						continue
					}
					if !yield(r) {
						return
					}
				}
			}
		}
	}
}

// InRange returns the records matching pred and occupancy that are at most
// distance blocks away from pos.
func (m *Manager) InRange(pred Predicate, pos cube.Pos, distance int, occupancy Occupancy) iter.Seq[*Record] {
	maxDistSqr := distance * distance
	return func(yield func(*Record) bool) {
		for r := range m.InSquare(pred, pos, distance, occupancy) {
			if r.Pos().DistSqr(pos) <= maxDistSqr && !yield(r) {
				return
			}
		}
	}
}

// FindAll returns the positions of every POI within distance of pos whose
// Type satisfies pred and whose position satisfies posPred.
func (m *Manager) FindAll(pred Predicate, posPred func(cube.Pos) bool, pos cube.Pos, distance int, occupancy Occupancy) iter.Seq[cube.Pos] {
	return func(yield func(cube.Pos) bool) {
		for r := range m.InRange(pred, pos, distance, occupancy) {
			if posPred(r.Pos()) && !yield(r.Pos()) {
				return
			}
		}
	}
}

// FindAllClosestFirstWithType returns the records within distance of pos that
// match pred, posPred and occupancy, sorted by their distance to pos.
func (m *Manager) FindAllClosestFirstWithType(pred Predicate, posPred func(cube.Pos) bool, pos cube.Pos, distance int, occupancy Occupancy) []*Record {
	var records []*Record
	for r := range m.InRange(pred, pos, distance, occupancy) {
		if posPred(r.Pos()) {
			records = append(records, r)
		}
	}
	slices.SortStableFunc(records, func(a, b *Record) int {
		return a.Pos().DistSqr(pos) - b.Pos().DistSqr(pos)
	})
	return records
}

// Find returns the position of the first POI found within distance of pos
// matching pred, posPred and occupancy.
func (m *Manager) Find(pred Predicate, posPred func(cube.Pos) bool, pos cube.Pos, distance int, occupancy Occupancy) (cube.Pos, bool) {
	for p := range m.FindAll(pred, posPred, pos, distance, occupancy) {
		return p, true
	}
	return cube.Pos{}, false
}

// FindClosest returns the position of the POI closest to pos, within distance,
// matching pred and occupancy.
func (m *Manager) FindClosest(pred Predicate, pos cube.Pos, distance int, occupancy Occupancy) (cube.Pos, bool) {
	return m.FindClosestMatching(pred, func(cube.Pos) bool { return true }, pos, distance, occupancy)
}

// FindClosestMatching returns the position of the POI closest to pos, within
// distance, matching pred, posPred and occupancy.
func (m *Manager) FindClosestMatching(pred Predicate, posPred func(cube.Pos) bool, pos cube.Pos, distance int, occupancy Occupancy) (cube.Pos, bool) {
	r, ok := m.closest(pred, posPred, pos, distance, occupancy)
	if !ok {
		return cube.Pos{}, false
	}
	return r.Pos(), true
}

// FindClosestWithType returns the record closest to pos, within distance,
// matching pred and occupancy.
func (m *Manager) FindClosestWithType(pred Predicate, pos cube.Pos, distance int, occupancy Occupancy) (*Record, bool) {
	return m.closest(pred, func(cube.Pos) bool { return true }, pos, distance, occupancy)
}

func (m *Manager) closest(pred Predicate, posPred func(cube.Pos) bool, pos cube.Pos, distance int, occupancy Occupancy) (*Record, bool) {
	var (
		best     *Record
		bestDist int
	)
	for r := range m.InRange(pred, pos, distance, occupancy) {
		if !posPred(r.Pos()) {
			continue
		}
		if d := r.Pos().DistSqr(pos); best == nil || d < bestDist {
			best, bestDist = r, d
		}
	}
	return best, best != nil
}

// Take claims a ticket of the first POI within distance of pos that has a
// free ticket and matches both typePred and pred. The position of the POI is
// returned. The ticket must be given back using Release.
func (m *Manager) Take(typePred Predicate, pred func(t *Type, pos cube.Pos) bool, pos cube.Pos, distance int) (cube.Pos, bool) {
	for r := range m.InRange(typePred, pos, distance, HasSpace) {
		if !pred(r.Type(), r.Pos()) {
			continue
		}
		r.acquireTicket()
		return r.Pos(), true
	}
	return cube.Pos{}, false
}

// Random returns the position of a POI within distance of pos matching pred,
// posPred and occupancy. Every candidate within range is shuffled using rng
// and the first one satisfying posPred is returned.
func (m *Manager) Random(pred Predicate, posPred func(cube.Pos) bool, occupancy Occupancy, pos cube.Pos, distance int, rng *rand.Rand) (cube.Pos, bool) {
	candidates := slices.Collect(m.InRange(pred, pos, distance, occupancy))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, r := range candidates {
		if posPred(r.Pos()) {
			return r.Pos(), true
		}
	}
	return cube.Pos{}, false
}

// SectionsToVillage returns the distance in sections from the section at pos
// to the closest village center, after processing all pending distance
// updates. 7 or more means no village center is close.
func (m *Manager) SectionsToVillage(pos world.SectionPos) int {
	m.distance.runAllUpdates()
	return m.distance.Level(pos.Key())
}

// villageCenter checks if the loaded section at key holds a taken POI of a
// village type.
func (m *Manager) villageCenter(key world.SectionKey) bool {
	sec, ok := m.store.Get(key)
	if !ok {
		return false
	}
	for range sec.Records(Tagged(TagVillage), IsOccupied) {
		return true
	}
	return false
}

// CheckConsistencyWithBlocks checks the POI section at pos against the blocks
// passed. An existing section that was not yet validated has its records
// rebuilt from the blocks. If no section exists, one is created if any block
// may host a POI.
func (m *Manager) CheckConsistencyWithBlocks(pos world.SectionPos, blocks Blocks) {
	key := pos.Key()
	if sec, ok := m.store.GetOrLoad(key); ok {
		sec.Refresh(func(add func(cube.Pos, *Type)) {
			if blocks.MaybeHas(m.conf.Types.HasPoi) {
				m.scanBlocks(pos, blocks, add)
			}
		})
		return
	}
	if !blocks.MaybeHas(m.conf.Types.HasPoi) {
		return
	}
	sec, err := m.store.GetOrCreate(key)
	if err != nil {
		m.conf.Log.Error("Failed creating POI section.", "section", pos, "err", err)
		return
	}
	m.scanBlocks(pos, blocks, func(p cube.Pos, typ *Type) { sec.Add(p, typ) })
}

func (m *Manager) scanBlocks(pos world.SectionPos, blocks Blocks, add func(cube.Pos, *Type)) {
	base := pos.MinBlock()
	for z := byte(0); z < 16; z++ {
		for y := byte(0); y < 16; y++ {
			for x := byte(0); x < 16; x++ {
				if typ, ok := m.conf.Types.ForState(blocks.Block(x, y, z)); ok {
					add(base.Add(cube.Pos{int(x), int(y), int(z)}), typ)
				}
			}
		}
	}
}

// EnsureLoadedAndValid loads every chunk within radius blocks of pos holding a
// POI section that is missing or was not yet validated, so that its records
// are checked against its blocks. Each chunk is loaded at most once.
func (m *Manager) EnsureLoadedAndValid(loader ChunkLoader, pos cube.Pos, radius int) {
	r := world.BlockToSection(radius)
	centre := world.ChunkPosOf(pos)
	minY, maxY := world.SectionRange(m.conf.Range)
	for cx := centre[0] - r; cx <= centre[0]+r; cx++ {
		for cz := centre[1] - r; cz <= centre[1]+r; cz++ {
			chunk := world.ChunkPos{cx, cz}
			for y := minY; y <= maxY; y++ {
				if sec, ok := m.store.GetOrLoad(world.SectionPosIn(chunk, y).Key()); ok && sec.Valid() {
					continue
				}
				if _, loaded := m.loadedChunks[chunk]; !loaded {
					m.loadedChunks[chunk] = struct{}{}
					loader.LoadChunk(chunk)
				}
				break
			}
		}
	}
}

// Tick writes dirty sections to the Provider for as long as shouldKeepTicking
// returns true, after which all pending distance updates are processed.
func (m *Manager) Tick(shouldKeepTicking func() bool) {
	m.store.Tick(shouldKeepTicking)
	m.distance.runAllUpdates()
}

// HasWork reports if any section is waiting to be written.
func (m *Manager) HasWork() bool {
	return m.store.HasWork()
}

// PendingWrites returns the amount of POI sections waiting to be written.
func (m *Manager) PendingWrites() int {
	return m.store.DirtyLen()
}

// UnloadChunk writes the POI sections of the chunk column at pos if they
// changed and drops them from memory.
func (m *Manager) UnloadChunk(pos world.ChunkPos) error {
	return m.store.Unload(pos)
}

// Flush writes every changed POI section to the Provider.
func (m *Manager) Flush() error {
	return m.store.Flush()
}

// Close flushes the Manager and closes its Provider.
func (m *Manager) Close() error {
	return m.store.Close()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
