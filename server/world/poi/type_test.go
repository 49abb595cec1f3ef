package poi

import (
	"testing"

	"github.com/dm-vev/adamant-poi/server/world"
)

func TestDefaultTypes(t *testing.T) {
	types := DefaultTypes()
	for _, tc := range []struct {
		name       string
		maxTickets int
		village    bool
	}{
		{"minecraft:home", 1, true},
		{"minecraft:meeting", 32, true},
		{"minecraft:librarian", 1, true},
		{"minecraft:beehive", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			typ, ok := types.ByName(tc.name)
			if !ok {
				t.Fatalf("expected type to be registered")
			}
			if typ.MaxTickets != tc.maxTickets {
				t.Fatalf("expected %v max tickets, got %v", tc.maxTickets, typ.MaxTickets)
			}
			if typ.Is(TagVillage) != tc.village {
				t.Fatalf("expected village tag to be %v", tc.village)
			}
		})
	}

	rid, ok := world.BlockRuntimeID(world.BlockState{Name: "minecraft:bell", Properties: map[string]any{"direction": 1, "toggle_bit": false}})
	if !ok {
		t.Fatalf("expected bell state to be registered")
	}
	if typ, ok := types.ForState(rid); !ok || typ.Name != "minecraft:meeting" {
		t.Fatalf("expected bell to host a meeting POI, got %v", typ)
	}
	air, _ := world.BlockRuntimeID(world.Air)
	if types.HasPoi(air) {
		t.Fatalf("expected air not to host a POI")
	}
}

func TestParseTypes(t *testing.T) {
	types := NewTypes()
	err := types.ParseTypes([]byte(`
types:
  - name: test:campfire
    max_tickets: 4
    valid_range: 2
    tags: [minecraft:village]
    blocks:
      - name: test:campfire
        properties:
          lit: [true, false]
          direction: [0, 1]
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	typ, ok := types.ByName("test:campfire")
	if !ok {
		t.Fatalf("expected type to be registered")
	}
	if typ.MaxTickets != 4 || typ.ValidRange != 2 || !typ.Is(TagVillage) {
		t.Fatalf("unexpected type decoded: %+v", typ)
	}
	if len(typ.States) != 4 {
		t.Fatalf("expected 4 state permutations, got %v", len(typ.States))
	}
	rid, _ := world.BlockRuntimeID(world.BlockState{Name: "test:campfire", Properties: map[string]any{"lit": true, "direction": 1}})
	if got, ok := types.ForState(rid); !ok || got != typ {
		t.Fatalf("expected campfire state to host the parsed type")
	}

	if err := types.ParseTypes([]byte("types:\n  - name: test:campfire\n")); err == nil {
		t.Fatalf("expected duplicate type name to be rejected")
	}
	if err := types.ParseTypes([]byte("types:\n  - max_tickets: 1\n")); err == nil {
		t.Fatalf("expected type without name to be rejected")
	}
}
