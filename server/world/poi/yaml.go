package poi

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// typeTable is the YAML representation of a list of POI types.
type typeTable struct {
	Types []struct {
		Name       string   `yaml:"name"`
		MaxTickets int      `yaml:"max_tickets"`
		ValidRange int      `yaml:"valid_range"`
		Tags       []string `yaml:"tags"`
		Blocks     []struct {
			Name       string           `yaml:"name"`
			Properties map[string][]any `yaml:"properties"`
		} `yaml:"blocks"`
	} `yaml:"types"`
}

// LoadTypes reads a YAML table of POI types from the file at path and
// registers every type in it with r.
func (r *Types) LoadTypes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read poi types: %w", err)
	}
	if err := r.ParseTypes(data); err != nil {
		return fmt.Errorf("load poi types %v: %w", path, err)
	}
	return nil
}

// ParseTypes decodes a YAML table of POI types and registers every type in it
// with r. A table looks like this:
//
//	types:
//	  - name: minecraft:meeting
//	    max_tickets: 32
//	    valid_range: 6
//	    tags: [minecraft:village]
//	    blocks:
//	      - name: minecraft:bell
//	        properties:
//	          direction: [0, 1, 2, 3]
func (r *Types) ParseTypes(data []byte) error {
	var table typeTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	for _, entry := range table.Types {
		if entry.Name == "" {
			return errors.New("poi type without name")
		}
		t := &Type{
			Name:       entry.Name,
			MaxTickets: entry.MaxTickets,
			ValidRange: entry.ValidRange,
			Tags:       entry.Tags,
		}
		for _, b := range entry.Blocks {
			t.States = append(t.States, StatePermutations(b.Name, b.Properties)...)
		}
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
