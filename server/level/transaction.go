package level

import (
	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/internal/txguard"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/gameevent"
	"github.com/dm-vev/adamant-poi/server/world/poi"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// transaction is a type that may be added to the transaction queue of a Level.
// Its Run method is called when the transaction is taken out of the queue.
type transaction interface {
	Run(l *Level)
}

// normalTransaction is a transaction that runs an ExecFunc and closes c once
// it returns.
type normalTransaction struct {
	c chan struct{}
	f ExecFunc
}

// Run runs the transaction on the Level passed.
func (t normalTransaction) Run(l *Level) {
	tx := &Tx{l: l}
	t.f(tx)
	tx.closed = true
	close(t.c)
}

// Tx represents a synchronised transaction performed on a Level. A Tx must not
// be used after the ExecFunc it was passed to returns.
type Tx struct {
	closed bool
	l      *Level
}

// Level returns the Level the Tx is performed on.
func (tx *Tx) Level() *Level {
	return tx.level()
}

// Range returns the height range of the Level.
func (tx *Tx) Range() cube.Range {
	return tx.level().conf.Range
}

// Block returns the block at pos, loading its chunk if needed.
func (tx *Tx) Block(pos cube.Pos) world.Block {
	return tx.level().block(pos)
}

// SetBlock places b at pos. Placing or breaking a block that hosts a POI
// updates the POIs of the Level.
func (tx *Tx) SetBlock(pos cube.Pos, b world.Block) {
	tx.level().setBlock(pos, b)
}

// POI returns the POI manager of the Level.
func (tx *Tx) POI() *poi.Manager {
	return tx.level().pois
}

// LoadChunk loads the chunk at pos if it is not yet loaded.
func (tx *Tx) LoadChunk(pos world.ChunkPos) {
	tx.level().chunk(pos)
}

// ChunkLoaded reports if the chunk at pos is loaded.
func (tx *Tx) ChunkLoaded(pos world.ChunkPos) bool {
	_, ok := tx.level().chunks[pos]
	return ok
}

// UnloadChunk writes the POI sections of the chunk at pos and removes the
// chunk and its listeners from memory.
func (tx *Tx) UnloadChunk(pos world.ChunkPos) error {
	return tx.level().unloadChunk(pos)
}

// PostEvent posts a game event at pos and returns true if any listener was
// notified.
func (tx *Tx) PostEvent(ev *gameevent.Event, pos mgl64.Vec3, ctx gameevent.Context) bool {
	return tx.level().events.Post(ev, pos, ctx)
}

// RegisterListener registers a game event listener in the section its
// position resolves to. If the listener was already registered in another
// section, it is moved. False is returned if the position did not resolve.
func (tx *Tx) RegisterListener(li gameevent.Listener) bool {
	return tx.level().registerListener(li)
}

// UnregisterListener removes a listener added using RegisterListener.
func (tx *Tx) UnregisterListener(li gameevent.Listener) {
	tx.level().unregisterListener(li)
}

// AddEntity adds an entity to the Level at its current position, so that
// listeners following it resolve to a position.
func (tx *Tx) AddEntity(e gameevent.Entity) {
	tx.level().entities[e.UUID()] = e.Position()
}

// MoveEntity moves an entity added using AddEntity to pos, posting a step
// event with the entity as its source.
func (tx *Tx) MoveEntity(e gameevent.Entity, pos mgl64.Vec3) {
	l := tx.level()
	if _, ok := l.entities[e.UUID()]; !ok {
		return
	}
	l.entities[e.UUID()] = pos
	l.events.Post(gameevent.Step, pos, gameevent.Context{SourceEntity: e})
}

// RemoveEntity removes the entity with the UUID passed. Listeners following
// the entity no longer resolve to a position.
func (tx *Tx) RemoveEntity(id uuid.UUID) {
	delete(tx.level().entities, id)
}

func (tx *Tx) level() *Level {
	if tx.closed {
		panic(txguard.ClosedPanicMessage)
	}
	return tx.l
}
