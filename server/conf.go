package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/level"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/gameevent"
	"github.com/dm-vev/adamant-poi/server/world/poi"
	"github.com/dm-vev/adamant-poi/server/world/sectiondb"
	"github.com/dm-vev/adamant-poi/server/world/sectionstore"
	"github.com/pelletier/go-toml"
)

// Config contains options for building a level.Level. Config may be created
// from a UserConfig by calling UserConfig.Config. The zero value is usable.
type Config struct {
	// Log is the Logger to use for the Level and everything it owns. If nil,
	// slog.Default() is used.
	Log *slog.Logger
	// Range is the height range of the Level. The zero value is replaced by
	// [-64, 319].
	Range cube.Range
	// Generator fills newly loaded chunks. If nil, chunks are left empty.
	Generator level.Generator
	// Provider persists POI sections. If nil, POIs are kept in memory only.
	Provider sectionstore.Provider
	// Types holds the POI types known to the Level. If nil, poi.DefaultTypes()
	// is used.
	Types *poi.Types
	// Metrics records reads and writes of POI sections. If nil, a new Metrics
	// is created.
	Metrics *sectionstore.Metrics
	// DebugEvents controls if registered game event listeners and posted game
	// events are logged at debug level.
	DebugEvents bool
	// TicksPerSecond is the amount of times per second the Level is ticked.
	// The zero value is replaced by 20.
	TicksPerSecond int
	// SaveBudget is the time spent writing POI sections every tick. The zero
	// value is replaced by 5ms.
	SaveBudget time.Duration
	// ReadOnly prevents POI sections from being written to the Provider.
	ReadOnly bool
}

func (conf Config) withDefaults() Config {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Metrics == nil {
		conf.Metrics = sectionstore.NewMetrics()
	}
	if conf.TicksPerSecond <= 0 {
		conf.TicksPerSecond = 20
	}
	return conf
}

// New creates a level.Level using the fields of the Config. The Level starts
// ticking immediately and must be closed using Level.Close.
func (conf Config) New() *level.Level {
	conf = conf.withDefaults()

	var debugger gameevent.Debugger = gameevent.NopDebugger{}
	if conf.DebugEvents {
		debugger = gameevent.LogDebugger{Log: conf.Log}
	}
	l := level.Config{
		Log:          conf.Log,
		Range:        conf.Range,
		Generator:    conf.Generator,
		Provider:     conf.Provider,
		Types:        conf.Types,
		Metrics:      conf.Metrics,
		Debugger:     debugger,
		TickInterval: time.Second / time.Duration(conf.TicksPerSecond),
		SaveBudget:   conf.SaveBudget,
		ReadOnly:     conf.ReadOnly,
	}.New()
	conf.Log.Info("Level started.", "range", l.Range(), "tps", conf.TicksPerSecond)
	return l
}

// UserConfig is the user configuration of a level. It may be serialised to
// and from TOML and can be converted to a Config by calling
// UserConfig.Config().
type UserConfig struct {
	Level struct {
		// MinY and MaxY are the lowest and highest block Y coordinates of the
		// level.
		MinY, MaxY int
		// TicksPerSecond is the amount of times per second the level is
		// ticked.
		TicksPerSecond int
		// FlatLayers holds the block names of each layer of the flat
		// generator, bottom first. If empty, chunks are left empty.
		FlatLayers []string
		// DebugEvents controls if game events are logged at debug level.
		DebugEvents bool
	}
	POI struct {
		// SaveData controls whether POI sections are saved and loaded. If
		// true, the LevelDB provider is used. If false, POIs are kept in
		// memory only.
		SaveData bool
		// Folder is the folder that POI data resides in.
		Folder string
		// ReadOnly opens the Folder without ever writing to it.
		ReadOnly bool
		// SaveBudgetMillis is the time in milliseconds spent writing POI
		// sections every tick.
		SaveBudgetMillis int
		// TypesFile is the path to a YAML file holding POI types that are
		// registered in addition to the vanilla ones. It is ignored if empty
		// or missing.
		TypesFile string
	}
}

// Config converts a UserConfig to a Config, so that it may be used for
// creating a Level. An error is returned if opening the data provider or
// loading POI types failed.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	if uc.Level.MinY > uc.Level.MaxY {
		return Config{}, fmt.Errorf("invalid level range [%v, %v]", uc.Level.MinY, uc.Level.MaxY)
	}
	conf := Config{
		Log:            log,
		Range:          cube.Range{uc.Level.MinY, uc.Level.MaxY},
		DebugEvents:    uc.Level.DebugEvents,
		TicksPerSecond: uc.Level.TicksPerSecond,
		SaveBudget:     time.Duration(uc.POI.SaveBudgetMillis) * time.Millisecond,
		ReadOnly:       uc.POI.ReadOnly,
		Types:          poi.DefaultTypes(),
	}
	if len(uc.Level.FlatLayers) > 0 {
		layers := make([]world.Block, 0, len(uc.Level.FlatLayers))
		for _, name := range uc.Level.FlatLayers {
			name = strings.TrimSpace(name)
			if name == "" {
				return conf, errors.New("flat layer without block name")
			}
			layers = append(layers, world.BlockState{Name: name})
		}
		conf.Generator = level.Flat{Layers: layers}
	}
	if file := strings.TrimSpace(uc.POI.TypesFile); file != "" {
		if err := conf.Types.LoadTypes(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return conf, fmt.Errorf("load poi types: %w", err)
		}
	}
	if uc.POI.SaveData {
		db, err := sectiondb.Config{Log: log, ReadOnly: uc.POI.ReadOnly}.Open(uc.POI.Folder)
		if err != nil {
			return conf, fmt.Errorf("create poi provider: %w", err)
		}
		conf.Provider = db
	}
	return conf, nil
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Level.MinY, c.Level.MaxY = -64, 319
	c.Level.TicksPerSecond = 20
	c.Level.FlatLayers = []string{"minecraft:bedrock", "minecraft:dirt", "minecraft:dirt", "minecraft:grass_block"}
	c.POI.SaveData = true
	c.POI.Folder = "poi"
	c.POI.SaveBudgetMillis = 5
	c.POI.TypesFile = "poi_types.yaml"
	return c
}

// LoadUserConfig reads the UserConfig at path. If the file does not exist,
// it is created with the values of DefaultConfig.
func LoadUserConfig(path string) (UserConfig, error) {
	c := DefaultConfig()
	contents, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := writeUserConfig(path, c); err != nil {
			return c, err
		}
		return c, nil
	}
	if err := toml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func writeUserConfig(path string, c UserConfig) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	encoded, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
