package level

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/internal/txguard"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/gameevent"
	"github.com/dm-vev/adamant-poi/server/world/poi"
	"github.com/dm-vev/adamant-poi/server/world/sectionstore"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	stone = world.BlockState{Name: "minecraft:stone"}
	bed   = world.BlockState{Name: "minecraft:bed", Properties: map[string]any{"direction": 0, "head_piece_bit": true, "occupied_bit": false}}
	bell  = world.BlockState{Name: "minecraft:bell", Properties: map[string]any{"direction": 0, "toggle_bit": false}}
)

func newTestLevel(t *testing.T, conf Config) *Level {
	t.Helper()
	conf.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	conf.TickInterval = -1
	l := conf.New()
	t.Cleanup(func() { _ = l.Close() })
	return l
}

type testEntity struct {
	id  uuid.UUID
	pos mgl64.Vec3
}

func (e testEntity) UUID() uuid.UUID      { return e.id }
func (e testEntity) Position() mgl64.Vec3 { return e.pos }

type recordingListener struct {
	source gameevent.PositionSource
	events []*gameevent.Event
	ctxs   []gameevent.Context
}

func (r *recordingListener) Source() gameevent.PositionSource { return r.source }
func (r *recordingListener) Radius() int                      { return 8 }
func (r *recordingListener) DeliveryMode() gameevent.DeliveryMode {
	return gameevent.ByDistance
}

func (r *recordingListener) HandleGameEvent(_ gameevent.Level, ev *gameevent.Event, ctx gameevent.Context, _ mgl64.Vec3) bool {
	r.events = append(r.events, ev)
	r.ctxs = append(r.ctxs, ctx)
	return true
}

func TestLevelSetBlockUpdatesPOIs(t *testing.T) {
	l := newTestLevel(t, Config{})
	pos := cube.Pos{5, 70, -3}
	<-l.Exec(func(tx *Tx) {
		tx.SetBlock(pos, bed)
		if typ, ok := tx.POI().Type(pos); !ok || typ.Name != "minecraft:home" {
			t.Fatalf("expected home POI after placing a bed, got %v", typ)
		}
		if b := tx.Block(pos); b.(world.BlockState).Name != "minecraft:bed" {
			t.Fatalf("expected bed to be placed, got %v", b)
		}

		tx.SetBlock(pos, bell)
		if typ, ok := tx.POI().Type(pos); !ok || typ.Name != "minecraft:meeting" {
			t.Fatalf("expected meeting POI after replacing the bed with a bell, got %v", typ)
		}

		tx.SetBlock(pos, stone)
		if tx.POI().Exists(pos, poi.AnyType()) {
			t.Fatalf("expected POI to be removed after placing stone")
		}
	})
}

func TestLevelSetBlockPostsEvent(t *testing.T) {
	l := newTestLevel(t, Config{})
	li := &recordingListener{source: gameevent.BlockPositionSource{Pos: cube.Pos{0, 64, 0}}}
	<-l.Exec(func(tx *Tx) {
		if !tx.RegisterListener(li) {
			t.Fatalf("expected listener to be registered")
		}
		tx.SetBlock(cube.Pos{3, 64, 3}, stone)
		tx.SetBlock(cube.Pos{3, 64, 3}, stone)
		tx.SetBlock(cube.Pos{30, 64, 30}, stone)
	})
	if len(li.events) != 1 || li.events[0] != gameevent.BlockChange {
		t.Fatalf("expected one block change event, got %v", li.events)
	}
	if b, ok := li.ctxs[0].AffectedState.(world.BlockState); !ok || b.Name != stone.Name {
		t.Fatalf("expected affected state %v, got %v", stone, li.ctxs[0].AffectedState)
	}

	<-l.Exec(func(tx *Tx) {
		tx.UnregisterListener(li)
		c := tx.Level().chunks[world.ChunkPos{0, 0}]
		if len(c.registries) != 0 {
			t.Fatalf("expected empty registry to be removed from its chunk")
		}
		tx.SetBlock(cube.Pos{3, 64, 3}, bell)
	})
	if len(li.events) != 1 {
		t.Fatalf("expected unregistered listener not to be notified, got %v", li.events)
	}
}

func TestLevelEntityListener(t *testing.T) {
	l := newTestLevel(t, Config{})
	e := testEntity{id: uuid.New(), pos: mgl64.Vec3{8, 64, 8}}
	li := &recordingListener{source: gameevent.EntityPositionSource{Entity: e.id}}
	<-l.Exec(func(tx *Tx) {
		if tx.RegisterListener(li) {
			t.Fatalf("expected listener of absent entity not to be registered")
		}
		tx.AddEntity(e)
		if !tx.RegisterListener(li) {
			t.Fatalf("expected listener of present entity to be registered")
		}
		tx.MoveEntity(e, mgl64.Vec3{9, 64, 8})
		if len(li.events) != 1 || li.events[0] != gameevent.Step {
			t.Fatalf("expected step event, got %v", li.events)
		}
		tx.RemoveEntity(e.id)
		if tx.PostEvent(gameevent.Step, mgl64.Vec3{9, 64, 8}, gameevent.Context{}) {
			t.Fatalf("expected listener of removed entity to be skipped")
		}
	})
}

func TestLevelChunkLoadChecksPOIs(t *testing.T) {
	l := newTestLevel(t, Config{Generator: Flat{Layers: []world.Block{stone, bell}}})
	<-l.Exec(func(tx *Tx) {
		tx.POI().EnsureLoadedAndValid(tx.Level(), cube.Pos{0, 0, 0}, 16)
		for x := int32(-1); x <= 1; x++ {
			for z := int32(-1); z <= 1; z++ {
				if !tx.ChunkLoaded(world.ChunkPos{x, z}) {
					t.Fatalf("expected chunk %v to be loaded", world.ChunkPos{x, z})
				}
			}
		}
		n := 0
		for range tx.POI().InChunk(poi.AnyType(), world.ChunkPos{0, 0}, poi.Any) {
			n++
		}
		if n != 256 {
			t.Fatalf("expected a meeting POI for every bell in the chunk, got %v", n)
		}
		if !tx.POI().Exists(cube.Pos{3, -63, 7}, poi.Tagged(poi.TagVillage)) {
			t.Fatalf("expected bell at the second layer to host a POI")
		}
	})
}

func TestLevelTickAndClosePersistPOIs(t *testing.T) {
	p := sectionstore.NewMemProvider()
	conf := Config{Provider: p, Log: slog.New(slog.NewTextHandler(io.Discard, nil)), TickInterval: -1}
	l := conf.New()
	pos := cube.Pos{1, 1, 1}
	<-l.Exec(func(tx *Tx) {
		tx.SetBlock(pos, bed)
	})
	<-l.Exec(ticker{}.tick)
	if l.CurrentTick() != 1 {
		t.Fatalf("expected one tick, got %v", l.CurrentTick())
	}
	if l.POIBacklog() != 0 {
		t.Fatalf("expected no POI backlog after writing, got %v", l.POIBacklog())
	}
	<-l.Exec(func(tx *Tx) {
		if tx.POI().HasWork() {
			t.Fatalf("expected tick to write the dirty POI section")
		}
	})
	if err := l.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if p.Writes() == 0 {
		t.Fatalf("expected POI sections to be written")
	}

	l = newTestLevel(t, Config{Provider: p})
	<-l.Exec(func(tx *Tx) {
		if typ, ok := tx.POI().Type(pos); !ok || typ.Name != "minecraft:home" {
			t.Fatalf("expected POI to be read back, got %v", typ)
		}
	})
}

func TestLevelTxAfterFinish(t *testing.T) {
	l := newTestLevel(t, Config{})
	var stale *Tx
	<-l.Exec(func(tx *Tx) {
		stale = tx
	})
	defer func() {
		if r := recover(); r != txguard.ClosedPanicMessage {
			t.Fatalf("expected finished transaction to panic with %q, got %v", txguard.ClosedPanicMessage, r)
		}
	}()
	stale.Block(cube.Pos{})
	t.Fatalf("expected use of finished transaction to panic")
}

func TestTPSSampler(t *testing.T) {
	var s tpsSampler
	if _, ok := s.add(0); ok {
		t.Fatalf("expected zero durations to be ignored")
	}
	for i := 0; i < tpsSampleSize-1; i++ {
		if _, ok := s.add(100 * time.Millisecond); ok {
			t.Fatalf("expected no sample before %v ticks, got one after %v", tpsSampleSize, i+1)
		}
	}
	tps, ok := s.add(100 * time.Millisecond)
	if !ok || tps != 10 {
		t.Fatalf("expected 10 TPS after a full sample, got %v (%v)", tps, ok)
	}
	if s.n != 0 || s.sum != 0 {
		t.Fatalf("expected sampler to reset after a full sample")
	}
}

func TestLevelTickRecordsPOIBacklog(t *testing.T) {
	l := newTestLevel(t, Config{ReadOnly: true})
	<-l.Exec(func(tx *Tx) {
		tx.SetBlock(cube.Pos{1, 1, 1}, bed)
		tx.SetBlock(cube.Pos{40, 1, 1}, bed)
	})
	<-l.Exec(ticker{}.tick)
	if got := l.POIBacklog(); got != 2 {
		t.Fatalf("expected 2 unwritten POI sections on a read-only level, got %v", got)
	}
}
