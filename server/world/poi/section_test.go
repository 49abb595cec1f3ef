package poi

import (
	"testing"

	"github.com/dm-vev/adamant-poi/server/block/cube"
)

func TestSectionTickets(t *testing.T) {
	dirty := 0
	home := &Type{Name: "test:home", MaxTickets: 2}
	s := newSection(testLog, func() { dirty++ }, true)
	pos := cube.Pos{1, 2, 3}
	if !s.Add(pos, home) {
		t.Fatalf("expected add to succeed")
	}
	if dirty != 1 {
		t.Fatalf("expected add to mark section dirty once, got %v", dirty)
	}

	r := s.records[pos]
	for i := 0; i < home.MaxTickets; i++ {
		if !r.acquireTicket() {
			t.Fatalf("expected ticket %v to be acquired", i)
		}
	}
	if r.acquireTicket() {
		t.Fatalf("expected acquiring beyond max tickets to fail")
	}
	if r.FreeTickets() != 0 || !r.IsOccupied() || r.HasSpace() {
		t.Fatalf("expected fully occupied record, got %v", r)
	}
	for i := 0; i < home.MaxTickets; i++ {
		if ok, err := s.Release(pos); !ok || err != nil {
			t.Fatalf("expected release %v to succeed, got %v (%v)", i, ok, err)
		}
	}
	if ok, _ := s.Release(pos); ok {
		t.Fatalf("expected release beyond max tickets to fail")
	}
	if r.FreeTickets() != home.MaxTickets {
		t.Fatalf("expected %v free tickets, got %v", home.MaxTickets, r.FreeTickets())
	}
	if _, err := s.Release(cube.Pos{}); err == nil {
		t.Fatalf("expected release of unknown position to fail")
	}
}

func TestSectionRecordsOrderAndFilters(t *testing.T) {
	a := &Type{Name: "test:a", MaxTickets: 1, Tags: []string{TagVillage}}
	b := &Type{Name: "test:b", MaxTickets: 1}
	s := newSection(testLog, func() {}, true)
	positions := []cube.Pos{{3, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	s.Add(positions[0], a)
	s.Add(positions[1], b)
	s.Add(positions[2], a)
	s.records[positions[2]].acquireTicket()

	var got []cube.Pos
	for r := range s.Records(AnyType(), Any) {
		got = append(got, r.Pos())
	}
	for i := range positions {
		if got[i] != positions[i] {
			t.Fatalf("expected records in insertion order %v, got %v", positions, got)
		}
	}
	var tagged []cube.Pos
	for r := range s.Records(Tagged(TagVillage), IsOccupied) {
		tagged = append(tagged, r.Pos())
	}
	if len(tagged) != 1 || tagged[0] != positions[2] {
		t.Fatalf("expected only %v to be occupied and tagged, got %v", positions[2], tagged)
	}

	s.Remove(positions[0])
	if s.Len() != 2 || s.Exists(positions[0], AnyType()) {
		t.Fatalf("expected record to be removed")
	}
}

func TestSectionCodec(t *testing.T) {
	types := DefaultTypes()
	home, _ := types.ByName("minecraft:home")
	codec := sectionCodec{log: testLog, types: types}

	s := codec.New(func() {})
	s.Add(cube.Pos{5, -3, 7}, home)
	s.records[cube.Pos{5, -3, 7}].acquireTicket()
	data, err := codec.Encode(s)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	decoded, err := codec.Decode(data, func() {})
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !decoded.Valid() {
		t.Fatalf("expected section created through the codec to stay valid")
	}
	if typ, ok := decoded.Type(cube.Pos{5, -3, 7}); !ok || typ != home {
		t.Fatalf("expected home record, got %v", typ)
	}
	if n := decoded.FreeTickets(cube.Pos{5, -3, 7}); n != 0 {
		t.Fatalf("expected taken ticket to be decoded, got %v free", n)
	}

	unknown := sectionCodec{log: testLog, types: NewTypes()}
	decoded, err = unknown.Decode(data, func() {})
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Valid() || decoded.Len() != 0 {
		t.Fatalf("expected records of unknown types to be dropped and the section invalidated")
	}
}
