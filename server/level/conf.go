package level

import (
	"log/slog"
	"time"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/gameevent"
	"github.com/dm-vev/adamant-poi/server/world/poi"
	"github.com/dm-vev/adamant-poi/server/world/sectionstore"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Config holds the settings of a Level. The zero value is usable; defaults
// are applied by New.
type Config struct {
	// Log is the Logger used by the Level and everything it owns. If nil,
	// slog.Default() is used.
	Log *slog.Logger
	// Range is the height range of the Level. The zero value is replaced by
	// [-64, 319].
	Range cube.Range
	// Generator fills newly loaded chunks with blocks. If nil, chunks are
	// left empty.
	Generator Generator
	// Provider persists the POI sections of the Level. If nil, POIs are kept
	// in memory only.
	Provider sectionstore.Provider
	// Types holds the POI types found in the Level. If nil,
	// poi.DefaultTypes() is used.
	Types *poi.Types
	// Metrics, if set, records reads and writes of POI sections.
	Metrics *sectionstore.Metrics
	// Debugger receives information on game event listeners and posted
	// events. If nil, nothing is reported.
	Debugger gameevent.Debugger
	// TickInterval is the duration of a single tick. The zero value is
	// replaced by 50ms, or 20 ticks per second. If negative, the Level is not
	// ticked automatically.
	TickInterval time.Duration
	// SaveBudget is the time spent writing POI sections during every tick.
	// The zero value is replaced by 5ms.
	SaveBudget time.Duration
	// ReadOnly prevents POI sections from being written when the Level is
	// closed.
	ReadOnly bool
}

func (conf Config) withDefaults() Config {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Range == (cube.Range{}) {
		conf.Range = cube.Range{-64, 319}
	}
	if conf.Generator == nil {
		conf.Generator = NopGenerator{}
	}
	if conf.Provider == nil {
		conf.Provider = sectionstore.NopProvider{}
	}
	if conf.Types == nil {
		conf.Types = poi.DefaultTypes()
	}
	if conf.Debugger == nil {
		conf.Debugger = gameevent.NopDebugger{}
	}
	if conf.TickInterval == 0 {
		conf.TickInterval = time.Second / 20
	}
	if conf.SaveBudget <= 0 {
		conf.SaveBudget = 5 * time.Millisecond
	}
	return conf
}

// New creates a Level using the fields of the Config and starts ticking it.
// The Level must be closed using Level.Close.
func (conf Config) New() *Level {
	conf = conf.withDefaults()
	air, _ := world.BlockRuntimeID(world.Air)
	l := &Level{
		conf:         conf,
		air:          air,
		queue:        make(chan transaction, 128),
		queueClosing: make(chan struct{}),
		closing:      make(chan struct{}),
		chunks:       make(map[world.ChunkPos]*Column),
		entities:     make(map[uuid.UUID]mgl64.Vec3),
		listeners:    make(map[gameevent.Listener]world.SectionPos),
	}
	l.pois = poi.Config{
		Log:      conf.Log,
		Provider: conf.Provider,
		Range:    conf.Range,
		Types:    conf.Types,
		Metrics:  conf.Metrics,
	}.New()
	l.events = gameevent.NewDispatcher(l, conf.Debugger)

	l.queueing.Add(1)
	go l.handleTransactions()
	if conf.TickInterval > 0 {
		l.running.Add(1)
		go ticker{interval: conf.TickInterval}.tickLoop(l)
	}
	return l
}
