package server

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/level"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/poi"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadUserConfigWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "level.toml")
	c, err := LoadUserConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
	def := DefaultConfig()
	if c.Level.MinY != def.Level.MinY || c.Level.MaxY != def.Level.MaxY || c.POI.Folder != def.POI.Folder {
		t.Fatalf("expected default config, got %+v", c)
	}

	c, err = LoadUserConfig(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if len(c.Level.FlatLayers) != len(def.Level.FlatLayers) || c.POI.SaveBudgetMillis != def.POI.SaveBudgetMillis {
		t.Fatalf("expected written config to match defaults, got %+v", c)
	}
}

func TestLoadUserConfigReadsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.toml")
	c := DefaultConfig()
	c.Level.MaxY = 255
	c.POI.ReadOnly = true
	if err := writeUserConfig(path, c); err != nil {
		t.Fatalf("write config: %v", err)
	}
	got, err := LoadUserConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if got.Level.MaxY != 255 || !got.POI.ReadOnly {
		t.Fatalf("expected max y 255 and read-only, got %v and %v", got.Level.MaxY, got.POI.ReadOnly)
	}
}

func TestLoadUserConfigRejectsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.toml")
	if err := os.WriteFile(path, []byte("[Level\nMinY = "), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadUserConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestUserConfigInvalidRange(t *testing.T) {
	c := DefaultConfig()
	c.Level.MinY, c.Level.MaxY = 10, -10
	c.POI.SaveData = false
	if _, err := c.Config(discardLogger()); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestUserConfigFlatLayers(t *testing.T) {
	c := DefaultConfig()
	c.POI.SaveData = false
	c.POI.TypesFile = ""
	conf, err := c.Config(discardLogger())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	flat, ok := conf.Generator.(level.Flat)
	if !ok {
		t.Fatalf("expected flat generator, got %T", conf.Generator)
	}
	if len(flat.Layers) != 4 {
		t.Fatalf("expected 4 layers, got %v", len(flat.Layers))
	}
	if conf.Range != (cube.Range{-64, 319}) {
		t.Fatalf("expected range [-64, 319], got %v", conf.Range)
	}

	c.Level.FlatLayers = []string{"minecraft:stone", " "}
	if _, err := c.Config(discardLogger()); err == nil {
		t.Fatalf("expected error for empty layer name")
	}
}

func TestUserConfigPersistsPOIs(t *testing.T) {
	dir := t.TempDir()
	typesFile := filepath.Join(dir, "poi_types.yaml")
	table := `types:
  - name: test:signal_post
    max_tickets: 2
    valid_range: 1
    tags: [minecraft:village]
    blocks:
      - name: test:signal_post
`
	if err := os.WriteFile(typesFile, []byte(table), 0644); err != nil {
		t.Fatalf("write types: %v", err)
	}

	c := DefaultConfig()
	c.Level.FlatLayers = nil
	c.POI.Folder = filepath.Join(dir, "poi")
	c.POI.TypesFile = typesFile

	pos := cube.Pos{3, 64, 9}
	post := world.BlockState{Name: "test:signal_post"}

	conf, err := c.Config(discardLogger())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if _, ok := conf.Types.ByName("test:signal_post"); !ok {
		t.Fatalf("expected custom poi type to be registered")
	}
	l := conf.New()
	<-l.Exec(func(tx *level.Tx) {
		tx.SetBlock(pos, post)
	})
	if err := l.Close(); err != nil {
		t.Fatalf("close level: %v", err)
	}

	conf, err = c.Config(discardLogger())
	if err != nil {
		t.Fatalf("reopen config: %v", err)
	}
	l = conf.New()
	defer func() { _ = l.Close() }()
	var (
		name    string
		tickets int
	)
	<-l.Exec(func(tx *level.Tx) {
		if typ, ok := tx.POI().Type(pos); ok {
			name = typ.Name
		}
		tickets = tx.POI().FreeTickets(pos)
	})
	if name != "test:signal_post" {
		t.Fatalf("expected persisted poi of type test:signal_post, got %q", name)
	}
	if tickets != 2 {
		t.Fatalf("expected 2 free tickets, got %v", tickets)
	}
}

func TestUserConfigMissingTypesFile(t *testing.T) {
	c := DefaultConfig()
	c.POI.SaveData = false
	c.POI.TypesFile = filepath.Join(t.TempDir(), "missing.yaml")
	conf, err := c.Config(discardLogger())
	if err != nil {
		t.Fatalf("expected missing types file to be ignored, got %v", err)
	}
	if len(conf.Types.All()) != len(poi.DefaultTypes().All()) {
		t.Fatalf("expected only vanilla types")
	}
}
