package poi

import (
	"fmt"

	"github.com/dm-vev/adamant-poi/server/block/cube"
)

// Record is a single point of interest: a block position hosting a POI Type,
// together with the tickets left to claim it.
type Record struct {
	pos         cube.Pos
	typ         *Type
	freeTickets int
	setDirty    func()
}

func newRecord(pos cube.Pos, typ *Type, freeTickets int, setDirty func()) *Record {
	return &Record{pos: pos, typ: typ, freeTickets: min(max(freeTickets, 0), typ.MaxTickets), setDirty: setDirty}
}

// Pos returns the block position of the Record.
func (r *Record) Pos() cube.Pos {
	return r.pos
}

// Type returns the POI Type of the Record.
func (r *Record) Type() *Type {
	return r.typ
}

// FreeTickets returns the amount of tickets of the Record not currently
// taken.
func (r *Record) FreeTickets() int {
	return r.freeTickets
}

// HasSpace reports if at least one ticket of the Record is free.
func (r *Record) HasSpace() bool {
	return r.freeTickets > 0
}

// IsOccupied reports if at least one ticket of the Record is taken.
func (r *Record) IsOccupied() bool {
	return r.freeTickets < r.typ.MaxTickets
}

// String ...
func (r *Record) String() string {
	return fmt.Sprintf("%v@%v (%v/%v free)", r.typ, r.pos, r.freeTickets, r.typ.MaxTickets)
}

func (r *Record) acquireTicket() bool {
	if r.freeTickets <= 0 {
		return false
	}
	r.freeTickets--
	r.setDirty()
	return true
}

func (r *Record) releaseTicket() bool {
	if r.freeTickets >= r.typ.MaxTickets {
		return false
	}
	r.freeTickets++
	r.setDirty()
	return true
}
