package sectiondb

import (
	"errors"
	"testing"

	"github.com/dm-vev/adamant-poi/server/world"
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Config{}.Open(dir)
	if err != nil {
		t.Fatalf("failed opening db: %v", err)
	}
	return db
}

func TestDBColumnRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	pos := world.ChunkPos{-3, 7}
	if err := db.StoreColumn(pos, map[int32][]byte{-4: []byte("bottom"), 2: []byte("middle")}); err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	db = openTestDB(t, dir)
	t.Cleanup(func() { _ = db.Close() })
	sections, err := db.LoadColumn(pos)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if string(sections[-4]) != "bottom" || string(sections[2]) != "middle" || len(sections) != 2 {
		t.Fatalf("unexpected sections read back: %q", sections)
	}

	var seen []world.ChunkPos
	if err := db.Columns(func(p world.ChunkPos, _ map[int32][]byte) error {
		seen = append(seen, p)
		return nil
	}); err != nil {
		t.Fatalf("unexpected iteration error: %v", err)
	}
	if len(seen) != 1 || seen[0] != pos {
		t.Fatalf("expected iteration to yield %v, got %v", pos, seen)
	}
}

func TestDBMissingAndDeletedColumn(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	pos := world.ChunkPos{1, 1}
	sections, err := db.LoadColumn(pos)
	if err != nil || len(sections) != 0 {
		t.Fatalf("expected missing column to be empty without error, got %v (%v)", sections, err)
	}
	_ = db.StoreColumn(pos, map[int32][]byte{0: []byte("x")})
	if err := db.StoreColumn(pos, nil); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if sections, _ := db.LoadColumn(pos); len(sections) != 0 {
		t.Fatalf("expected deleted column to be empty, got %v", sections)
	}
}

func TestDBDetectsCorruption(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	pos := world.ChunkPos{0, 0}
	value := db.encodeColumn(map[int32][]byte{0: []byte("payload")})
	value[len(value)-1] ^= 0xff
	if err := db.ldb.Put(key(pos), value, nil); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if _, err := db.LoadColumn(pos); !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
}
