package booking

// ReservationState is the flat persistence form of a Reservation.
type ReservationState struct {
	Reservation   Reservation
	Modifications []Modification
}

// RestoreReservation rebuilds a Reservation from its persisted state.
func RestoreReservation(state ReservationState) *Reservation {
	reservation := state.Reservation
	reservation.modifications = append([]Modification(nil), state.Modifications...)
	return &reservation
}
