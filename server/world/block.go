package world

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
)

// Block is a block that may be placed or found in a world. In addition, the
// block may also be added to an inventory: It is also an item.
type Block interface {
	// EncodeBlock encodes the block to a string ID such as 'minecraft:grass'
	// and properties associated with the block.
	EncodeBlock() (string, map[string]any)
}

// BlockState is a generic Block described by its name and properties alone.
// It is used for blocks without any behaviour of their own.
type BlockState struct {
	Name       string
	Properties map[string]any
}

// EncodeBlock ...
func (b BlockState) EncodeBlock() (string, map[string]any) {
	return b.Name, b.Properties
}

// String returns the block state in the form name[key=value,...].
func (b BlockState) String() string {
	return stateString(b.Name, b.Properties)
}

// Air is the block state of an empty position. It is always registered with
// runtime ID 0.
var Air = BlockState{Name: "minecraft:air"}

var blocks = newBlockRegistry()

type blockRegistry struct {
	mu     sync.RWMutex
	byHash map[uint64]uint32
	states []Block
}

func newBlockRegistry() *blockRegistry {
	r := &blockRegistry{byHash: make(map[uint64]uint32)}
	r.register(Air)
	return r
}

// RegisterBlock registers the block state passed and returns its runtime ID.
// Registering a block state twice returns the same runtime ID.
func RegisterBlock(b Block) uint32 {
	return blocks.register(b)
}

// BlockRuntimeID returns the runtime ID of the block passed. If the block
// state was never registered, false is returned.
func BlockRuntimeID(b Block) (uint32, bool) {
	if b == nil {
		return 0, true
	}
	name, props := b.EncodeBlock()
	blocks.mu.RLock()
	defer blocks.mu.RUnlock()
	rid, ok := blocks.byHash[stateHash(name, props)]
	return rid, ok
}

// BlockByRuntimeID attempts to return a Block by its runtime ID. If not found,
// the bool returned is false.
func BlockByRuntimeID(rid uint32) (Block, bool) {
	blocks.mu.RLock()
	defer blocks.mu.RUnlock()
	if int(rid) >= len(blocks.states) {
		return nil, false
	}
	return blocks.states[rid], true
}

// BlockByName attempts to return a Block by its name and properties. If not
// found, the bool returned is false.
func BlockByName(name string, properties map[string]any) (Block, bool) {
	blocks.mu.RLock()
	defer blocks.mu.RUnlock()
	rid, ok := blocks.byHash[stateHash(name, properties)]
	if !ok {
		return nil, false
	}
	return blocks.states[rid], true
}

func (r *blockRegistry) register(b Block) uint32 {
	name, props := b.EncodeBlock()
	h := stateHash(name, props)

	r.mu.Lock()
	defer r.mu.Unlock()
	if rid, ok := r.byHash[h]; ok {
		return rid
	}
	rid := uint32(len(r.states))
	r.states = append(r.states, b)
	r.byHash[h] = rid
	return rid
}

// stateHash hashes a block name and its properties. Properties are hashed in
// key order so that map iteration order does not matter.
func stateHash(name string, properties map[string]any) uint64 {
	h := fnv1a.HashString64(name)
	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		h = fnv1a.AddString64(h, k)
		h = fnv1a.AddString64(h, fmt.Sprint(properties[k]))
	}
	return h
}

func stateString(name string, properties map[string]any) string {
	if len(properties) == 0 {
		return name
	}
	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%v=%v", k, properties[k])
	}
	return name + "[" + strings.Join(parts, ",") + "]"
}
