package poi

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/dm-vev/adamant-poi/server/block/cube"
)

// ErrNoRecord is returned when operating on a block position that has no POI
// record.
var ErrNoRecord = errors.New("poi: no record at position")

// Section holds the POI records of a single 16x16x16 section of the world. A
// Section holds at most one Record per block position.
type Section struct {
	log      *slog.Logger
	setDirty func()

	records map[cube.Pos]*Record
	// order holds the records in the order they were added, so that iteration
	// is deterministic.
	order []*Record
	// valid is false if the records of the Section have not been checked
	// against the blocks of the world since it was read from disk.
	valid bool
}

func newSection(log *slog.Logger, setDirty func(), valid bool) *Section {
	return &Section{log: log, setDirty: setDirty, records: make(map[cube.Pos]*Record), valid: valid}
}

// Add adds a Record of the Type passed at pos. If a Record already exists at
// pos, the Section is left unchanged and false is returned.
func (s *Section) Add(pos cube.Pos, typ *Type) bool {
	if !s.add(newRecord(pos, typ, typ.MaxTickets, s.setDirty)) {
		return false
	}
	s.log.Debug("Added POI.", "type", typ, "pos", pos)
	s.setDirty()
	return true
}

func (s *Section) add(r *Record) bool {
	if existing, ok := s.records[r.pos]; ok {
		if existing.typ != r.typ {
			s.log.Error("POI data mismatch: already registered at position.", "pos", r.pos, "type", existing.typ, "new_type", r.typ)
		}
		return false
	}
	s.records[r.pos] = r
	s.order = append(s.order, r)
	return true
}

// Remove removes the Record at pos. Removing a position without a Record is
// logged and otherwise ignored.
func (s *Section) Remove(pos cube.Pos) {
	r, ok := s.records[pos]
	if !ok {
		s.log.Error("POI data mismatch: never registered at position.", "pos", pos)
		return
	}
	delete(s.records, pos)
	s.order = slices.DeleteFunc(s.order, func(other *Record) bool { return other == r })
	s.log.Debug("Removed POI.", "type", r.typ, "pos", pos)
	s.setDirty()
}

// Release returns a ticket to the Record at pos. It returns false if no
// ticket of the Record was taken and ErrNoRecord if no Record exists at pos.
func (s *Section) Release(pos cube.Pos) (bool, error) {
	r, ok := s.records[pos]
	if !ok {
		return false, fmt.Errorf("release %v: %w", pos, ErrNoRecord)
	}
	released := r.releaseTicket()
	s.setDirty()
	return released, nil
}

// Exists checks if a Record exists at pos with a Type that satisfies pred.
func (s *Section) Exists(pos cube.Pos, pred Predicate) bool {
	r, ok := s.records[pos]
	return ok && pred(r.typ)
}

// Type returns the Type of the Record at pos.
func (s *Section) Type(pos cube.Pos) (*Type, bool) {
	r, ok := s.records[pos]
	if !ok {
		return nil, false
	}
	return r.typ, true
}

// FreeTickets returns the amount of free tickets of the Record at pos, or 0 if
// no Record exists there.
func (s *Section) FreeTickets(pos cube.Pos) int {
	if r, ok := s.records[pos]; ok {
		return r.freeTickets
	}
	return 0
}

// Records returns the records of the Section with a Type satisfying pred and
// matching the Occupancy passed, in the order they were added.
func (s *Section) Records(pred Predicate, occupancy Occupancy) iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for _, r := range s.order {
			if pred(r.typ) && occupancy.Test(r) {
				if !yield(r) {
					return
				}
			}
		}
	}
}

// Len returns the amount of records in the Section.
func (s *Section) Len() int {
	return len(s.order)
}

// Valid reports if the records of the Section were checked against the blocks
// of the world.
func (s *Section) Valid() bool {
	return s.valid
}

// Refresh rebuilds the records of an invalid Section. fill is called with a
// function that must be called for every block position in the section
// hosting a POI. Records that existed at such a position with the same Type
// are kept along with their tickets. Refresh does nothing if the Section is
// valid.
func (s *Section) Refresh(fill func(add func(pos cube.Pos, typ *Type))) {
	if s.valid {
		return
	}
	old := s.records
	s.records, s.order = make(map[cube.Pos]*Record, len(old)), s.order[:0:0]
	fill(func(pos cube.Pos, typ *Type) {
		r, ok := old[pos]
		if !ok || r.typ != typ {
			r = newRecord(pos, typ, typ.MaxTickets, s.setDirty)
		}
		s.add(r)
	})
	s.valid = true
	s.setDirty()
}
