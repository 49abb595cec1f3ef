package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/dm-vev/adamant-poi/server/world"
	"github.com/dm-vev/adamant-poi/server/world/poi"
	"github.com/dm-vev/adamant-poi/server/world/sectiondb"
)

func main() {
	var (
		dir       = flag.String("db", "", "path to the POI LevelDB folder")
		typesFile = flag.String("types", "", "YAML file with additional POI types (optional)")
		typeName  = flag.String("type", "", "only print POIs of this type (optional)")
		summary   = flag.Bool("summary", false, "print counts per type instead of every record")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "missing -db")
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	types := poi.DefaultTypes()
	if *typesFile != "" {
		if err := types.LoadTypes(*typesFile); err != nil {
			fmt.Fprintln(os.Stderr, "load types:", err)
			os.Exit(1)
		}
	}
	pred := poi.AnyType()
	if *typeName != "" {
		t, ok := types.ByName(*typeName)
		if !ok {
			fmt.Fprintln(os.Stderr, "unknown poi type:", *typeName)
			os.Exit(2)
		}
		pred = poi.OfType(t)
	}

	db, err := sectiondb.Config{Log: log, ReadOnly: true}.Open(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open db:", err)
		os.Exit(1)
	}
	defer db.Close()

	counts := make(map[string]int)
	var columns, sections int
	err = db.Columns(func(pos world.ChunkPos, data map[int32][]byte) error {
		columns++
		ys := make([]int32, 0, len(data))
		for y := range data {
			ys = append(ys, y)
		}
		slices.Sort(ys)
		for _, y := range ys {
			sections++
			sec, err := poi.DecodeSection(log, types, data[y])
			if err != nil {
				return fmt.Errorf("section %v: %w", world.SectionPosIn(pos, y), err)
			}
			if !*summary {
				printSection(os.Stdout, world.SectionPosIn(pos, y), sec, pred)
			}
			for r := range sec.Records(pred, poi.Any) {
				counts[r.Type().Name]++
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read db:", err)
		os.Exit(1)
	}

	fmt.Printf("columns=%d sections=%d\n", columns, sections)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %s: %d\n", name, counts[name])
	}
}

func printSection(w io.Writer, pos world.SectionPos, sec *poi.Section, pred poi.Predicate) {
	valid := "valid"
	if !sec.Valid() {
		valid = "invalid"
	}
	fmt.Fprintf(w, "section %v (%s, %d records)\n", pos, valid, sec.Len())
	for r := range sec.Records(pred, poi.Any) {
		fmt.Fprintf(w, "  %v %s tickets=%d/%d\n", r.Pos(), r.Type().Name, r.FreeTickets(), r.Type().MaxTickets)
	}
}
