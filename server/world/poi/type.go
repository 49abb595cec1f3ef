package poi

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dm-vev/adamant-poi/server/world"
)

// Tags that POI types may carry.
const (
	// TagVillage is carried by every type that makes the section holding it a
	// village center once a ticket of the POI is taken.
	TagVillage = "minecraft:village"
	// TagAcquirableJobSite is carried by the job sites villagers may claim.
	TagAcquirableJobSite = "minecraft:acquirable_job_site"
	// TagBeeHome is carried by the blocks bees live in.
	TagBeeHome = "minecraft:bee_home"
)

// Type is a kind of point of interest. Every block state in States hosts a POI
// of the Type when placed in a world.
type Type struct {
	// Name is the unique name of the Type, such as 'minecraft:home'.
	Name string
	// MaxTickets is the amount of tickets a record of the Type holds, which
	// limits how many claims may be made on it at the same time.
	MaxTickets int
	// ValidRange is the distance in blocks from which the POI may be used.
	ValidRange int
	// Tags holds the tags the Type is part of.
	Tags []string
	// States holds the block states that host a POI of the Type.
	States []world.Block
}

// Is checks if the Type carries the tag passed.
func (t *Type) Is(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// String returns the name of the Type.
func (t *Type) String() string {
	return t.Name
}

// Predicate is a condition over POI types used to filter queries.
type Predicate func(t *Type) bool

// AnyType returns a Predicate that is satisfied by every Type.
func AnyType() Predicate {
	return func(*Type) bool { return true }
}

// OfType returns a Predicate that is only satisfied by the Type passed.
func OfType(typ *Type) Predicate {
	return func(t *Type) bool { return t == typ }
}

// Tagged returns a Predicate satisfied by types carrying the tag passed.
func Tagged(tag string) Predicate {
	return func(t *Type) bool { return t.Is(tag) }
}

// Types is a registry of POI types, indexed by name and by the runtime ID of
// every block state hosting them. Types is safe for concurrent use.
type Types struct {
	mu      sync.RWMutex
	order   []*Type
	byName  map[string]*Type
	byState map[uint32]*Type
}

// NewTypes returns an empty Types registry.
func NewTypes() *Types {
	return &Types{byName: make(map[string]*Type), byState: make(map[uint32]*Type)}
}

// Register adds a Type to the registry, registering its block states with the
// world block registry. An error is returned if a type with the same name is
// already registered or if one of its states already hosts another type.
func (r *Types) Register(t *Type) error {
	if t.MaxTickets < 0 {
		return fmt.Errorf("register poi type %v: negative max tickets %v", t.Name, t.MaxTickets)
	}
	rids := make([]uint32, len(t.States))
	for i, state := range t.States {
		rids[i] = world.RegisterBlock(state)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[t.Name]; ok {
		return fmt.Errorf("register poi type %v: name already registered", t.Name)
	}
	for i, rid := range rids {
		if other, ok := r.byState[rid]; ok {
			return fmt.Errorf("register poi type %v: block state %v already hosts %v", t.Name, t.States[i], other.Name)
		}
	}
	for _, rid := range rids {
		r.byState[rid] = t
	}
	r.byName[t.Name] = t
	r.order = append(r.order, t)
	return nil
}

// ByName returns the Type registered with the name passed.
func (r *Types) ByName(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// ForState returns the Type hosted by the block state with the runtime ID
// passed.
func (r *Types) ForState(rid uint32) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byState[rid]
	return t, ok
}

// HasPoi reports if the block state with the runtime ID passed hosts any POI.
func (r *Types) HasPoi(rid uint32) bool {
	_, ok := r.ForState(rid)
	return ok
}

// All returns every registered Type in registration order.
func (r *Types) All() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// StatePermutations returns a block state for every combination of the
// property values passed.
func StatePermutations(name string, properties map[string][]any) []world.Block {
	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	states := []map[string]any{{}}
	for _, k := range keys {
		next := make([]map[string]any, 0, len(states)*len(properties[k]))
		for _, s := range states {
			for _, v := range properties[k] {
				m := make(map[string]any, len(s)+1)
				for sk, sv := range s {
					m[sk] = sv
				}
				m[k] = v
				next = append(next, m)
			}
		}
		states = next
	}
	blocks := make([]world.Block, len(states))
	for i, props := range states {
		if len(props) == 0 {
			props = nil
		}
		blocks[i] = world.BlockState{Name: name, Properties: props}
	}
	return blocks
}
