package dining

import (
	"restaurant-lifecycle/internal/domain"
)

const (
	minSeats = 1
	maxSeats = 20
)

// Capacity is how many guests a table seats.
type Capacity struct {
	Seats int `json:"seats"`
}

// NewCapacity validates the seat count range.
func NewCapacity(seats int) (Capacity, error) {
	if seats < minSeats || seats > maxSeats {
		return Capacity{}, domain.Invalid("capacity", "seats must be between 1 and 20")
	}
	return Capacity{Seats: seats}, nil
}

// CanAccommodate reports whether a party of the given size fits.
func (c Capacity) CanAccommodate(guests int) bool {
	return guests >= 1 && guests <= c.Seats
}

// Position locates a table on the floor plan.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
