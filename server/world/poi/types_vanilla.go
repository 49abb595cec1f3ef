package poi

import (
	"github.com/dm-vev/adamant-poi/server/world"
)

// directions holds the values of the 'direction' block property.
var directions = []any{0, 1, 2, 3}

// jobSite returns the Type of a villager job site hosted by the block passed.
func jobSite(name string, states []world.Block) *Type {
	return &Type{
		Name:       name,
		MaxTickets: 1,
		ValidRange: 1,
		Tags:       []string{TagVillage, TagAcquirableJobSite},
		States:     states,
	}
}

// DefaultTypes returns a Types registry holding the vanilla POI types.
func DefaultTypes() *Types {
	r := NewTypes()
	for _, t := range vanillaTypes() {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

func vanillaTypes() []*Type {
	simple := func(name string) []world.Block {
		return []world.Block{world.BlockState{Name: name}}
	}
	facing := func(name string) []world.Block {
		return StatePermutations(name, map[string][]any{"direction": directions})
	}
	return []*Type{
		jobSite("minecraft:armorer", facing("minecraft:blast_furnace")),
		jobSite("minecraft:butcher", facing("minecraft:smoker")),
		jobSite("minecraft:cartographer", simple("minecraft:cartography_table")),
		jobSite("minecraft:cleric", simple("minecraft:brewing_stand")),
		jobSite("minecraft:farmer", StatePermutations("minecraft:composter", map[string][]any{
			"composter_fill_level": {0, 1, 2, 3, 4, 5, 6, 7, 8},
		})),
		jobSite("minecraft:fisherman", StatePermutations("minecraft:barrel", map[string][]any{
			"facing_direction": {0, 1, 2, 3, 4, 5},
			"open_bit":         {false, true},
		})),
		jobSite("minecraft:fletcher", simple("minecraft:fletching_table")),
		jobSite("minecraft:leatherworker", simple("minecraft:cauldron")),
		jobSite("minecraft:librarian", StatePermutations("minecraft:lectern", map[string][]any{
			"direction":   directions,
			"powered_bit": {false, true},
		})),
		jobSite("minecraft:mason", facing("minecraft:stonecutter_block")),
		jobSite("minecraft:shepherd", facing("minecraft:loom")),
		jobSite("minecraft:toolsmith", simple("minecraft:smithing_table")),
		jobSite("minecraft:weaponsmith", facing("minecraft:grindstone")),
		{
			Name:       "minecraft:home",
			MaxTickets: 1,
			ValidRange: 1,
			Tags:       []string{TagVillage},
			States: StatePermutations("minecraft:bed", map[string][]any{
				"direction":      directions,
				"head_piece_bit": {true},
				"occupied_bit":   {false, true},
			}),
		},
		{
			Name:       "minecraft:meeting",
			MaxTickets: 32,
			ValidRange: 6,
			Tags:       []string{TagVillage},
			States: StatePermutations("minecraft:bell", map[string][]any{
				"direction":  directions,
				"toggle_bit": {false, true},
			}),
		},
		{Name: "minecraft:beehive", ValidRange: 1, Tags: []string{TagBeeHome}, States: facing("minecraft:beehive")},
		{Name: "minecraft:bee_nest", ValidRange: 1, Tags: []string{TagBeeHome}, States: facing("minecraft:bee_nest")},
		{Name: "minecraft:nether_portal", ValidRange: 1, States: simple("minecraft:portal")},
		{Name: "minecraft:lodestone", ValidRange: 1, States: simple("minecraft:lodestone")},
		{Name: "minecraft:lightning_rod", ValidRange: 1, States: simple("minecraft:lightning_rod")},
	}
}
