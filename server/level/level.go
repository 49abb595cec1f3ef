// Package level implements an in-memory world that ties chunks, points of
// interest and game event dispatch together. All state of a Level is owned by
// a single goroutine and accessed through transactions passed to Level.Exec.
package level

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/chunk"
	"github.com/dm-vev/adamant-poi/server/world/gameevent"
	"github.com/dm-vev/adamant-poi/server/world/poi"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Level is a world of chunks with points of interest and game event
// listeners. A Level is safe for concurrent use through Exec; the Tx passed
// to an ExecFunc is only valid until the function returns.
type Level struct {
	conf Config
	air  uint32

	queue        chan transaction
	queueClosing chan struct{}
	queueing     sync.WaitGroup

	o       sync.Once
	closing chan struct{}
	running sync.WaitGroup

	tps         atomic.Uint64
	currentTick atomic.Int64
	poiBacklog  atomic.Int64

	chunks    map[world.ChunkPos]*Column
	entities  map[uuid.UUID]mgl64.Vec3
	listeners map[gameevent.Listener]world.SectionPos

	pois   *poi.Manager
	events *gameevent.Dispatcher
}

// ExecFunc is a function that performs a synchronised transaction on a Level.
type ExecFunc func(tx *Tx)

// Exec performs a synchronised transaction f on a Level. Exec returns a channel
// that is closed once the transaction is complete. Exec must not be called
// from within a transaction and waited on there.
func (l *Level) Exec(f ExecFunc) <-chan struct{} {
	c := make(chan struct{})
	l.queue <- normalTransaction{c: c, f: f}
	return c
}

// handleTransactions continuously reads transactions from the queue and runs
// them.
func (l *Level) handleTransactions() {
	for {
		select {
		case tx := <-l.queue:
			tx.Run(l)
		case <-l.queueClosing:
			l.queueing.Done()
			return
		}
	}
}

// Range returns the height range of the Level.
func (l *Level) Range() cube.Range {
	return l.conf.Range
}

// TPS returns the average ticks per second of the Level, measured over the
// last tpsSampleSize ticks. It is zero until enough ticks were sampled.
func (l *Level) TPS() float64 {
	return math.Float64frombits(l.tps.Load())
}

// POIBacklog returns the amount of POI sections that were still waiting to be
// written at the end of the last tick.
func (l *Level) POIBacklog() int {
	return int(l.poiBacklog.Load())
}

// CurrentTick returns the amount of ticks performed by the Level.
func (l *Level) CurrentTick() int64 {
	return l.currentTick.Load()
}

// LoadedChunk returns the chunk at pos if it is loaded. It is called by the
// game event dispatcher from within a transaction.
func (l *Level) LoadedChunk(pos world.ChunkPos) (gameevent.Chunk, bool) {
	c, ok := l.chunks[pos]
	if !ok {
		return nil, false
	}
	return c, true
}

// EntityPosition returns the position of the entity with the UUID passed, if
// it is in the Level. It is called from within a transaction.
func (l *Level) EntityPosition(id uuid.UUID) (mgl64.Vec3, bool) {
	pos, ok := l.entities[id]
	return pos, ok
}

// LoadChunk loads the chunk at pos if it is not yet loaded. It is called by
// the POI manager from within a transaction.
func (l *Level) LoadChunk(pos world.ChunkPos) {
	l.chunk(pos)
}

// chunk returns the chunk at pos, loading it if needed. The blocks of a newly
// loaded chunk are generated and every section is checked against the POIs
// stored for it.
func (l *Level) chunk(pos world.ChunkPos) *Column {
	if c, ok := l.chunks[pos]; ok {
		return c
	}
	c := newColumn(chunk.New(l.air, l.conf.Range))
	l.conf.Generator.GenerateChunk(pos, c.Chunk)
	l.chunks[pos] = c
	for i, sub := range c.Sub() {
		l.pois.CheckConsistencyWithBlocks(world.SectionPosIn(pos, int32(c.SubY(int16(i)))), sub)
	}
	return c
}

// unloadChunk removes the chunk at pos from memory along with its listeners,
// after writing its POI sections.
func (l *Level) unloadChunk(pos world.ChunkPos) error {
	if _, ok := l.chunks[pos]; !ok {
		return nil
	}
	for li, sp := range l.listeners {
		if sp.Chunk() == pos {
			delete(l.listeners, li)
		}
	}
	delete(l.chunks, pos)
	return l.pois.UnloadChunk(pos)
}

func (l *Level) block(pos cube.Pos) world.Block {
	if pos.OutOfBounds(l.conf.Range) {
		return world.Air
	}
	c := l.chunk(world.ChunkPosOf(pos))
	rid := c.Block(uint8(pos[0]&0xf), int16(pos[1]), uint8(pos[2]&0xf))
	b, ok := world.BlockByRuntimeID(rid)
	if !ok {
		return world.Air
	}
	return b
}

// setBlock places b at pos. POIs are added or removed if the POI type hosted
// by the block changes, and a block change event is posted.
func (l *Level) setBlock(pos cube.Pos, b world.Block) {
	if pos.OutOfBounds(l.conf.Range) {
		return
	}
	if b == nil {
		b = world.Air
	}
	rid := world.RegisterBlock(b)
	c := l.chunk(world.ChunkPosOf(pos))
	x, y, z := uint8(pos[0]&0xf), int16(pos[1]), uint8(pos[2]&0xf)
	before := c.Block(x, y, z)
	if before == rid {
		return
	}
	c.SetBlock(x, y, z, rid)

	oldType, hadPoi := l.conf.Types.ForState(before)
	newType, hasPoi := l.conf.Types.ForState(rid)
	if oldType != newType {
		if hadPoi {
			l.pois.Remove(pos)
		}
		if hasPoi {
			l.pois.Add(pos, newType)
		}
	}
	l.events.Post(gameevent.BlockChange, pos.Vec3Centre(), gameevent.Context{AffectedState: b})
}

// registerListener adds a game event listener to the registry of the section
// its position resolves to.
func (l *Level) registerListener(li gameevent.Listener) bool {
	pos, ok := li.Source().Position(l)
	if !ok {
		return false
	}
	sp := world.SectionPosOf(cube.PosFromVec3(pos))
	if old, ok := l.listeners[li]; ok {
		if old == sp {
			return true
		}
		l.unregisterListener(li)
	}
	c := l.chunk(sp.Chunk())
	reg, ok := c.registries[sp.Y()]
	if !ok {
		reg = gameevent.NewEuclideanRegistry(l, sp.Y(), func(y int32) {
			delete(c.registries, y)
		}, l.conf.Debugger)
		c.registries[sp.Y()] = reg
	}
	reg.Register(li)
	l.listeners[li] = sp
	return true
}

// unregisterListener removes a listener added using registerListener.
func (l *Level) unregisterListener(li gameevent.Listener) {
	sp, ok := l.listeners[li]
	if !ok {
		return
	}
	delete(l.listeners, li)
	if c, ok := l.chunks[sp.Chunk()]; ok {
		if reg, ok := c.registries[sp.Y()]; ok {
			reg.Unregister(li)
		}
	}
}

// Close stops ticking the Level and writes all POI sections to the Provider
// before closing it.
func (l *Level) Close() error {
	var err error
	l.o.Do(func() { err = l.close() })
	return err
}

func (l *Level) close() error {
	close(l.closing)
	l.running.Wait()

	var err error
	<-l.Exec(func(tx *Tx) {
		if l.conf.ReadOnly {
			return
		}
		l.conf.Log.Debug("Saving POI sections to disk...")
		err = l.pois.Flush()
	})

	close(l.queueClosing)
	l.queueing.Wait()

	l.conf.Log.Debug("Closing provider...")
	return errors.Join(err, l.conf.Provider.Close())
}
