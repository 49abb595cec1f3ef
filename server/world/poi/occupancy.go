package poi

// Occupancy filters POI records by the availability of their tickets.
type Occupancy uint8

const (
	// HasSpace matches records with at least one free ticket.
	HasSpace Occupancy = iota
	// IsOccupied matches records with at least one ticket taken.
	IsOccupied
	// Any matches every record.
	Any
)

// Test checks if the Record passed matches the Occupancy.
func (o Occupancy) Test(r *Record) bool {
	switch o {
	case HasSpace:
		return r.HasSpace()
	case IsOccupied:
		return r.IsOccupied()
	default:
		return true
	}
}

// String ...
func (o Occupancy) String() string {
	switch o {
	case HasSpace:
		return "has_space"
	case IsOccupied:
		return "is_occupied"
	default:
		return "any"
	}
}
