package sectionstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/dm-vev/adamant-poi/server/block/cube"
	"github.com/dm-vev/adamant-poi/server/world"
)

// ErrOutsideRange is returned when creating a section whose Y coordinate lies
// outside the height range of the world.
var ErrOutsideRange = errors.New("sectionstore: section outside world height range")

// Codec creates, decodes and encodes sections of type S. Each section receives
// a setDirty function that it must call whenever its contents change.
type Codec[S any] interface {
	New(setDirty func()) S
	Decode(data []byte, setDirty func()) (S, error)
	Encode(s S) ([]byte, error)
}

// Config holds the settings of a Storage.
type Config[S any] struct {
	// Log is the Logger used to report read and write failures. If nil,
	// slog.Default() is used.
	Log *slog.Logger
	// Provider persists sections. If nil, NopProvider is used and nothing is
	// ever written.
	Provider Provider
	// Codec converts sections from and to their persisted form. Codec must be
	// set.
	Codec Codec[S]
	// Range is the height range of the world. Sections outside of it are never
	// loaded or created.
	Range cube.Range
	// OnLoad is called for every section present in a column read from the
	// Provider.
	OnLoad func(key world.SectionKey)
	// OnDirty is called after a section was marked dirty.
	OnDirty func(key world.SectionKey)
	// Metrics, if set, records column loads and saves.
	Metrics *Metrics
}

// New creates a Storage using the fields of the Config.
func (conf Config[S]) New() *Storage[S] {
	if conf.Codec == nil {
		panic("sectionstore: storage requires codec")
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Provider == nil {
		conf.Provider = NopProvider{}
	}
	minY, maxY := world.SectionRange(conf.Range)
	return &Storage[S]{
		conf:     conf,
		minY:     minY,
		maxY:     maxY,
		sections: make(map[world.SectionKey]slot[S]),
		dirty:    make(map[world.SectionKey]struct{}),
		digests:  make(map[world.ChunkPos]uint64),
	}
}

// Storage holds one optional section of type S per section key of the world.
// Sections are read from the Provider a full chunk column at a time and dirty
// columns are written back when the Storage is ticked.
//
// Storage is not safe for concurrent use. It is owned by the goroutine ticking
// the world.
type Storage[S any] struct {
	conf       Config[S]
	minY, maxY int32

	// sections holds every section of every column read so far. A slot with
	// ok set to false marks a section that was loaded but does not exist.
	sections map[world.SectionKey]slot[S]

	dirty      map[world.SectionKey]struct{}
	dirtyOrder []world.SectionKey

	// digests holds the xxhash of the last payload written for a column.
	digests map[world.ChunkPos]uint64
}

type slot[S any] struct {
	s  S
	ok bool
}

// Get returns the section at key if its column was already read. It never
// reads from the Provider.
func (s *Storage[S]) Get(key world.SectionKey) (S, bool) {
	sl := s.sections[key]
	return sl.s, sl.ok
}

// Loaded reports if the column holding the section at key was read.
func (s *Storage[S]) Loaded(key world.SectionKey) bool {
	_, ok := s.sections[key]
	return ok
}

// GetOrLoad returns the section at key, reading its column from the Provider
// first if it was not yet read. False is returned if the section does not
// exist or lies outside the height range.
func (s *Storage[S]) GetOrLoad(key world.SectionKey) (S, bool) {
	if s.outsideRange(key) {
		var zero S
		return zero, false
	}
	sl, ok := s.sections[key]
	if !ok {
		s.readColumn(key.Chunk())
		sl = s.sections[key]
	}
	return sl.s, sl.ok
}

// GetOrCreate returns the section at key, creating an empty one if it does not
// exist yet.
func (s *Storage[S]) GetOrCreate(key world.SectionKey) (S, error) {
	if s.outsideRange(key) {
		var zero S
		return zero, fmt.Errorf("create section %v: %w", key, ErrOutsideRange)
	}
	if sec, ok := s.GetOrLoad(key); ok {
		return sec, nil
	}
	sec := s.conf.Codec.New(s.dirtyFunc(key))
	s.sections[key] = slot[S]{s: sec, ok: true}
	return sec, nil
}

// SetDirty marks the section at key as changed, so that its column is written
// to the Provider during the next Tick.
func (s *Storage[S]) SetDirty(key world.SectionKey) {
	if sl, ok := s.sections[key]; ok && sl.ok {
		if _, queued := s.dirty[key]; !queued {
			s.dirty[key] = struct{}{}
			s.dirtyOrder = append(s.dirtyOrder, key)
		}
	} else {
		s.conf.Log.Warn("No data for position.", "section", key.Pos())
	}
	if s.conf.OnDirty != nil {
		s.conf.OnDirty(key)
	}
}

// HasWork reports if any section is waiting to be written.
func (s *Storage[S]) HasWork() bool {
	return len(s.dirty) > 0
}

// DirtyLen returns the amount of sections waiting to be written.
func (s *Storage[S]) DirtyLen() int {
	return len(s.dirty)
}

// Tick writes dirty columns to the Provider, oldest first, for as long as
// shouldKeepTicking returns true. Columns that could not be written stay
// dirty and are retried by the next Tick or Flush.
func (s *Storage[S]) Tick(shouldKeepTicking func() bool) {
	s.writeDirty(shouldKeepTicking, func(err error) {
		s.conf.Log.Error("Failed writing section column.", "err", err)
	})
}

// Flush attempts to write every dirty column to the Provider once. Columns
// that could not be written stay dirty.
func (s *Storage[S]) Flush() error {
	var errs []error
	s.writeDirty(func() bool { return true }, func(err error) {
		errs = append(errs, err)
	})
	return errors.Join(errs...)
}

// writeDirty writes dirty columns until none are left or shouldKeepTicking
// returns false. Every column is attempted at most once.
func (s *Storage[S]) writeDirty(shouldKeepTicking func() bool, onErr func(error)) {
	attempted := make(map[world.ChunkPos]struct{})
	var failed []world.ChunkPos
	for shouldKeepTicking() {
		pos, ok := s.nextDirtyColumn()
		if !ok {
			break
		}
		if _, seen := attempted[pos]; seen {
			continue
		}
		attempted[pos] = struct{}{}
		if err := s.writeColumn(pos); err != nil {
			failed = append(failed, pos)
			onErr(err)
		}
	}
	for _, pos := range failed {
		s.requeue(pos)
	}
}

// Unload writes the column at pos if it is dirty and drops it from memory. The
// next access reads it from the Provider again. If the column could not be
// written, it is kept in memory and the error is returned.
func (s *Storage[S]) Unload(pos world.ChunkPos) error {
	if s.columnDirty(pos) {
		if err := s.writeColumn(pos); err != nil {
			s.requeue(pos)
			return err
		}
	}
	for y := s.minY; y <= s.maxY; y++ {
		delete(s.sections, world.SectionPosIn(pos, y).Key())
	}
	delete(s.digests, pos)
	return nil
}

// Close flushes all dirty columns and closes the Provider.
func (s *Storage[S]) Close() error {
	return errors.Join(s.Flush(), s.conf.Provider.Close())
}

func (s *Storage[S]) outsideRange(key world.SectionKey) bool {
	y := key.Y()
	return y < s.minY || y > s.maxY
}

func (s *Storage[S]) dirtyFunc(key world.SectionKey) func() {
	return func() { s.SetDirty(key) }
}

// readColumn reads every section of the column at pos. Read and decode errors
// are logged and leave the affected sections absent, so that queries treat
// them as holding no data.
func (s *Storage[S]) readColumn(pos world.ChunkPos) {
	s.conf.Metrics.IncLoads(pos)
	data, err := s.conf.Provider.LoadColumn(pos)
	if err != nil {
		s.conf.Metrics.IncFailures(pos)
		s.conf.Log.Error("Failed reading section column.", "chunk", pos, "err", err)
		data = nil
	}
	var loaded []world.SectionKey
	for y := s.minY; y <= s.maxY; y++ {
		key := world.SectionPosIn(pos, y).Key()
		payload, ok := data[y]
		if !ok {
			s.sections[key] = slot[S]{}
			continue
		}
		sec, err := s.conf.Codec.Decode(payload, s.dirtyFunc(key))
		if err != nil {
			s.conf.Metrics.IncFailures(pos)
			s.conf.Log.Error("Failed decoding section.", "section", key.Pos(), "err", err)
			s.sections[key] = slot[S]{}
			continue
		}
		s.sections[key] = slot[S]{s: sec, ok: true}
		loaded = append(loaded, key)
	}
	if len(data) > 0 {
		s.digests[pos] = columnDigest(data)
	}
	if s.conf.OnLoad != nil {
		for _, key := range loaded {
			s.conf.OnLoad(key)
		}
	}
}

// writeColumn encodes every existing section of the column at pos and stores
// them. The write is skipped when the payload is identical to the one last
// read or written. The sections of the column are only marked clean once the
// column was stored.
func (s *Storage[S]) writeColumn(pos world.ChunkPos) error {
	data := make(map[int32][]byte)
	var errs []error
	for y := s.minY; y <= s.maxY; y++ {
		key := world.SectionPosIn(pos, y).Key()
		sl := s.sections[key]
		if !sl.ok {
			continue
		}
		payload, err := s.conf.Codec.Encode(sl.s)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode section %v: %w", key.Pos(), err))
			continue
		}
		data[y] = payload
	}
	if len(errs) > 0 {
		s.conf.Metrics.IncFailures(pos)
		return errors.Join(errs...)
	}
	digest := columnDigest(data)
	if prev, ok := s.digests[pos]; ok && prev == digest {
		s.conf.Metrics.IncSkipped(pos)
		s.markClean(pos)
		return nil
	}
	if err := s.conf.Provider.StoreColumn(pos, data); err != nil {
		s.conf.Metrics.IncFailures(pos)
		return fmt.Errorf("store column %v: %w", pos, err)
	}
	s.digests[pos] = digest
	s.conf.Metrics.IncSaves(pos)
	s.markClean(pos)
	return nil
}

func (s *Storage[S]) markClean(pos world.ChunkPos) {
	for y := s.minY; y <= s.maxY; y++ {
		delete(s.dirty, world.SectionPosIn(pos, y).Key())
	}
}

// requeue queues the column at pos to be written again if any of its
// sections is still dirty.
func (s *Storage[S]) requeue(pos world.ChunkPos) {
	for y := s.minY; y <= s.maxY; y++ {
		key := world.SectionPosIn(pos, y).Key()
		if _, ok := s.dirty[key]; ok {
			s.dirtyOrder = append(s.dirtyOrder, key)
			return
		}
	}
}

// nextDirtyColumn returns the column of the section marked dirty the longest
// time ago. False is returned if no section is queued.
func (s *Storage[S]) nextDirtyColumn() (world.ChunkPos, bool) {
	for len(s.dirtyOrder) > 0 {
		key := s.dirtyOrder[0]
		s.dirtyOrder = s.dirtyOrder[1:]
		if _, ok := s.dirty[key]; ok {
			return key.Chunk(), true
		}
	}
	return world.ChunkPos{}, false
}

func (s *Storage[S]) columnDirty(pos world.ChunkPos) bool {
	for y := s.minY; y <= s.maxY; y++ {
		if _, ok := s.dirty[world.SectionPosIn(pos, y).Key()]; ok {
			return true
		}
	}
	return false
}

// columnDigest hashes the sections of a column in Y order.
func columnDigest(data map[int32][]byte) uint64 {
	ys := make([]int32, 0, len(data))
	for y := range data {
		ys = append(ys, y)
	}
	slices.Sort(ys)
	d := xxhash.New()
	var buf [8]byte
	for _, y := range ys {
		binary.LittleEndian.PutUint32(buf[:4], uint32(y))
		binary.LittleEndian.PutUint32(buf[4:], uint32(len(data[y])))
		_, _ = d.Write(buf[:])
		_, _ = d.Write(data[y])
	}
	return d.Sum64()
}
