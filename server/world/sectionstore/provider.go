package sectionstore

import (
	"maps"
	"sync"

	"github.com/dm-vev/adamant-poi/server/world"
)

// Provider persists serialised sections, one chunk column at a time. A column
// is represented as a map of section Y coordinates to section payloads.
type Provider interface {
	// LoadColumn reads all sections stored for the chunk column at pos. A
	// column that was never stored yields an empty map and a nil error.
	LoadColumn(pos world.ChunkPos) (map[int32][]byte, error)
	// StoreColumn replaces the stored sections of the chunk column at pos. An
	// empty map removes the column altogether.
	StoreColumn(pos world.ChunkPos, sections map[int32][]byte) error
	// Close closes the Provider, releasing any resources it holds.
	Close() error
}

// NopProvider implements a Provider that does not persist anything. Every
// column loaded is empty.
type NopProvider struct{}

// LoadColumn ...
func (NopProvider) LoadColumn(world.ChunkPos) (map[int32][]byte, error) { return nil, nil }

// StoreColumn ...
func (NopProvider) StoreColumn(world.ChunkPos, map[int32][]byte) error { return nil }

// Close ...
func (NopProvider) Close() error { return nil }

// MemProvider is a Provider that keeps columns in memory. It is mostly useful
// for tests that want to observe what would be written to disk.
type MemProvider struct {
	mu      sync.Mutex
	columns map[world.ChunkPos]map[int32][]byte
	writes  int
}

// NewMemProvider returns an empty MemProvider.
func NewMemProvider() *MemProvider {
	return &MemProvider{columns: make(map[world.ChunkPos]map[int32][]byte)}
}

// LoadColumn ...
func (p *MemProvider) LoadColumn(pos world.ChunkPos) (map[int32][]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.columns[pos]), nil
}

// StoreColumn ...
func (p *MemProvider) StoreColumn(pos world.ChunkPos, sections map[int32][]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes++
	if len(sections) == 0 {
		delete(p.columns, pos)
		return nil
	}
	p.columns[pos] = maps.Clone(sections)
	return nil
}

// Writes returns the amount of StoreColumn calls made so far.
func (p *MemProvider) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// Close ...
func (p *MemProvider) Close() error { return nil }
