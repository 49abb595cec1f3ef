package sectionstore

import (
	"sync"

	"github.com/dm-vev/adamant-poi/server/world"
)

// Metrics tracks per-column storage counters for observability.
type Metrics struct {
	mu sync.Mutex

	loads    map[world.ChunkPos]uint64
	saves    map[world.ChunkPos]uint64
	skipped  map[world.ChunkPos]uint64
	failures map[world.ChunkPos]uint64
}

// ColumnStats is a snapshot of the counters of a single chunk column.
type ColumnStats struct {
	Loads, Saves, Skipped, Failures uint64
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{
		loads:    make(map[world.ChunkPos]uint64),
		saves:    make(map[world.ChunkPos]uint64),
		skipped:  make(map[world.ChunkPos]uint64),
		failures: make(map[world.ChunkPos]uint64),
	}
}

// IncLoads increments the column read counter for a chunk.
func (m *Metrics) IncLoads(pos world.ChunkPos) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.loads[pos]++
	m.mu.Unlock()
}

// IncSaves increments the column write counter for a chunk.
func (m *Metrics) IncSaves(pos world.ChunkPos) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.saves[pos]++
	m.mu.Unlock()
}

// IncSkipped increments the counter of writes skipped because the column was
// unchanged since it was last written.
func (m *Metrics) IncSkipped(pos world.ChunkPos) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.skipped[pos]++
	m.mu.Unlock()
}

// IncFailures increments the read/write failure counter for a chunk.
func (m *Metrics) IncFailures(pos world.ChunkPos) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.failures[pos]++
	m.mu.Unlock()
}

// Column returns the counters recorded for the chunk column at pos.
func (m *Metrics) Column(pos world.ChunkPos) ColumnStats {
	if m == nil {
		return ColumnStats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return ColumnStats{
		Loads:    m.loads[pos],
		Saves:    m.saves[pos],
		Skipped:  m.skipped[pos],
		Failures: m.failures[pos],
	}
}
