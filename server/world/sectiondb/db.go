// Package sectiondb implements a sectionstore.Provider on top of LevelDB.
// Every chunk column is stored under a single key; its value holds the
// section payloads of the column, compressed with zstd and prefixed with an
// xxhash checksum of the compressed data.
package sectiondb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"
	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/klauspost/compress/zstd"
)

// ErrChecksum is returned when a stored column does not match its checksum.
var ErrChecksum = errors.New("sectiondb: column checksum mismatch")

// tag is appended to the chunk position to form the key of a column, so that
// the database may be shared with other per-chunk records.
const tag byte = 'P'

// Config holds the settings of a DB.
type Config struct {
	// Log is the Logger used by the DB. If nil, slog.Default() is used.
	Log *slog.Logger
	// ReadOnly opens the database without write access. Calls to StoreColumn
	// then return an error.
	ReadOnly bool
	// Compression sets the zstd encoder level used for new columns. The zero
	// value uses zstd.SpeedDefault.
	Compression zstd.EncoderLevel
}

// DB implements a sectionstore.Provider backed by a LevelDB database.
type DB struct {
	conf Config
	ldb  *leveldb.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open creates a new DB reading from and writing to the directory passed. If
// the directory does not exist yet, it is created.
func (conf Config) Open(dir string) (*DB, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Compression == 0 {
		conf.Compression = zstd.SpeedDefault
	}
	if !conf.ReadOnly {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	ldb, err := leveldb.OpenFile(dir, &opt.Options{
		Compression: opt.NoCompression,
		BlockSize:   16 * opt.KiB,
		ReadOnly:    conf.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(conf.Compression))
	if err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &DB{conf: conf, ldb: ldb, enc: enc, dec: dec}, nil
}

// LoadColumn reads the sections stored for the chunk column at pos.
func (db *DB) LoadColumn(pos world.ChunkPos) (map[int32][]byte, error) {
	value, err := db.ldb.Get(key(pos), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read column %v: %w", pos, err)
	}
	sections, err := db.decodeColumn(value)
	if err != nil {
		return nil, fmt.Errorf("decode column %v: %w", pos, err)
	}
	return sections, nil
}

// StoreColumn writes the sections of the chunk column at pos, removing the
// column if sections is empty.
func (db *DB) StoreColumn(pos world.ChunkPos, sections map[int32][]byte) error {
	if db.conf.ReadOnly {
		return fmt.Errorf("store column %v: database opened read-only", pos)
	}
	if len(sections) == 0 {
		if err := db.ldb.Delete(key(pos), nil); err != nil {
			return fmt.Errorf("delete column %v: %w", pos, err)
		}
		return nil
	}
	if err := db.ldb.Put(key(pos), db.encodeColumn(sections), nil); err != nil {
		return fmt.Errorf("write column %v: %w", pos, err)
	}
	return nil
}

// Columns calls f for every column stored in the DB, in key order. Iteration
// stops at the first error returned by f or encountered while decoding.
func (db *DB) Columns(f func(pos world.ChunkPos, sections map[int32][]byte) error) error {
	it := db.ldb.NewIterator(util.BytesPrefix(nil), nil)
	defer it.Release()
	for it.Next() {
		k := it.Key()
		if len(k) != 9 || k[8] != tag {
			continue
		}
		pos := world.ChunkPos{int32(binary.LittleEndian.Uint32(k)), int32(binary.LittleEndian.Uint32(k[4:]))}
		sections, err := db.decodeColumn(it.Value())
		if err != nil {
			return fmt.Errorf("decode column %v: %w", pos, err)
		}
		if err := f(pos, sections); err != nil {
			return err
		}
	}
	return it.Error()
}

// Close closes the underlying LevelDB database.
func (db *DB) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		db.conf.Log.Error("Failed closing zstd encoder.", "err", err)
	}
	return db.ldb.Close()
}

// encodeColumn frames the sections of a column as a count followed by
// (y, length, payload) entries, compresses the result and prefixes it with its
// checksum.
func (db *DB) encodeColumn(sections map[int32][]byte) []byte {
	size := 4
	for _, payload := range sections {
		size += 8 + len(payload)
	}
	raw := make([]byte, 4, size)
	binary.LittleEndian.PutUint32(raw, uint32(len(sections)))
	for y, payload := range sections {
		raw = binary.LittleEndian.AppendUint32(raw, uint32(y))
		raw = binary.LittleEndian.AppendUint32(raw, uint32(len(payload)))
		raw = append(raw, payload...)
	}
	out := make([]byte, 8, 8+len(raw)/2)
	out = db.enc.EncodeAll(raw, out)
	binary.LittleEndian.PutUint64(out, xxhash.Sum64(out[8:]))
	return out
}

func (db *DB) decodeColumn(value []byte) (map[int32][]byte, error) {
	if len(value) < 8 {
		return nil, fmt.Errorf("column of %d bytes is too short", len(value))
	}
	if binary.LittleEndian.Uint64(value) != xxhash.Sum64(value[8:]) {
		return nil, ErrChecksum
	}
	raw, err := db.dec.DecodeAll(value[8:], nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if len(raw) < 4 {
		return nil, errors.New("missing section count")
	}
	n := binary.LittleEndian.Uint32(raw)
	raw = raw[4:]
	sections := make(map[int32][]byte, n)
	for i := uint32(0); i < n; i++ {
		if len(raw) < 8 {
			return nil, fmt.Errorf("section %d: unexpected end of column", i)
		}
		y := int32(binary.LittleEndian.Uint32(raw))
		l := binary.LittleEndian.Uint32(raw[4:])
		raw = raw[8:]
		if uint32(len(raw)) < l {
			return nil, fmt.Errorf("section %d: payload of %d bytes exceeds column", i, l)
		}
		sections[y] = raw[:l:l]
		raw = raw[l:]
	}
	return sections, nil
}

func key(pos world.ChunkPos) []byte {
	k := make([]byte, 9)
	binary.LittleEndian.PutUint32(k, uint32(pos[0]))
	binary.LittleEndian.PutUint32(k[4:], uint32(pos[1]))
	k[8] = tag
	return k
}
