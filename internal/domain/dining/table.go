package dining

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
)

// timeNow is swapped in tests to control the clock.
var timeNow = time.Now

// Status is the table occupancy state.
type Status string

const (
	StatusAvailable    Status = "available"
	StatusReserved     Status = "reserved"
	StatusOccupied     Status = "occupied"
	StatusCleaning     Status = "cleaning"
	StatusOutOfService Status = "out_of_service"
	StatusMaintenance  Status = "maintenance"
)

// allowedTransitions is the fixed adjacency table; anything outside it is
// rejected.
var allowedTransitions = map[Status][]Status{
	StatusAvailable:    {StatusReserved, StatusOccupied, StatusCleaning, StatusOutOfService, StatusMaintenance},
	StatusReserved:     {StatusOccupied, StatusAvailable, StatusCleaning},
	StatusOccupied:     {StatusCleaning, StatusAvailable},
	StatusCleaning:     {StatusAvailable, StatusOutOfService, StatusMaintenance},
	StatusOutOfService: {StatusAvailable, StatusMaintenance},
	StatusMaintenance:  {StatusAvailable, StatusOutOfService},
}

func (s Status) canTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Features are the fixed attributes guests ask for.
type Features struct {
	Smoking    bool `json:"smoking"`
	HasView    bool `json:"has_view"`
	Accessible bool `json:"accessible"`
}

// Table is the physical-table aggregate root.
type Table struct {
	domain.EntityMeta
	Number   string    `json:"number"`
	Capacity Capacity  `json:"capacity"`
	Status   Status    `json:"status"`
	Zone     string    `json:"zone,omitempty"`
	Position *Position `json:"position,omitempty"`
	Features Features  `json:"features"`
	Active   bool      `json:"active"`

	CurrentReservationID *uuid.UUID `json:"current_reservation_id,omitempty"`
	AssignedWaiterID     string     `json:"assigned_waiter_id,omitempty"`

	LastCleanedAt  *time.Time `json:"last_cleaned_at,omitempty"`
	LastOccupiedAt *time.Time `json:"last_occupied_at,omitempty"`

	AverageOccupation time.Duration   `json:"average_occupation"`
	TotalReservations int             `json:"total_reservations"`
	TimesOccupied     int             `json:"times_occupied"`
	DailyRevenue      decimal.Decimal `json:"daily_revenue"`

	maintenance []*Maintenance
}

// NewTable registers a table. The number is normalized and must be unique
// across the floor (enforced at the persistence boundary).
func NewTable(number string, capacity Capacity, zone string, position *Position, features Features) (*Table, domain.Event, error) {
	normalized := strings.ToUpper(strings.TrimSpace(number))
	if normalized == "" {
		return nil, nil, domain.Invalid("number", "is required")
	}
	if capacity.Seats == 0 {
		return nil, nil, domain.Invalid("capacity", "is required")
	}

	now := timeNow()
	table := &Table{
		EntityMeta:   domain.NewEntityMeta(now),
		Number:       normalized,
		Capacity:     capacity,
		Status:       StatusAvailable,
		Zone:         zone,
		Position:     position,
		Features:     features,
		Active:       true,
		DailyRevenue: decimal.Zero,
	}

	event := &TableAdded{
		EventMeta: domain.NewEventMeta(table.ID, now),
		Number:    normalized,
		Capacity:  capacity.Seats,
		Zone:      zone,
	}
	return table, event, nil
}

// Maintenance returns a copy of the maintenance history.
func (t *Table) Maintenance() []Maintenance {
	out := make([]Maintenance, 0, len(t.maintenance))
	for _, m := range t.maintenance {
		out = append(out, *m)
	}
	return out
}

// ChangeStatus moves the table along the adjacency table. Returning to
// Available clears the reservation and waiter references; entering Cleaning
// stamps last-cleaned, entering Occupied stamps last-occupied.
func (t *Table) ChangeStatus(next Status, actorID, reason string) (domain.Event, error) {
	if !t.Status.canTransitionTo(next) {
		return nil, domain.InvalidTransition("table", string(t.Status), fmt.Sprintf("change status to %s", next))
	}
	now := timeNow()
	previous := t.Status
	t.applyStatus(next, now)
	t.Touch(now)

	return &TableStatusChanged{
		EventMeta:      domain.NewEventMeta(t.ID, now),
		Number:         t.Number,
		PreviousStatus: previous,
		NewStatus:      next,
		ActorID:        actorID,
		Reason:         reason,
	}, nil
}

func (t *Table) applyStatus(next Status, now time.Time) {
	t.Status = next
	switch next {
	case StatusAvailable:
		t.CurrentReservationID = nil
		t.AssignedWaiterID = ""
	case StatusCleaning:
		t.LastCleanedAt = &now
	case StatusOccupied:
		t.LastOccupiedAt = &now
	}
}

// AssignReservation marks the table Reserved for the given reservation.
// Only an Available table can take a reservation.
func (t *Table) AssignReservation(reservationID uuid.UUID) (domain.Event, error) {
	if reservationID == uuid.Nil {
		return nil, domain.Invalid("reservation_id", "is required")
	}
	if t.Status != StatusAvailable {
		return nil, domain.InvalidTransition("table", string(t.Status), "assign reservation")
	}

	now := timeNow()
	t.CurrentReservationID = &reservationID
	t.TotalReservations++
	t.applyStatus(StatusReserved, now)
	t.Touch(now)

	return &TableStatusChanged{
		EventMeta:      domain.NewEventMeta(t.ID, now),
		Number:         t.Number,
		PreviousStatus: StatusAvailable,
		NewStatus:      StatusReserved,
		Reason:         fmt.Sprintf("reservation %s assigned", reservationID),
	}, nil
}

// SeatCustomers transitions a Reserved table to Occupied after checking the
// party fits.
func (t *Table) SeatCustomers(partySize int) (domain.Event, error) {
	if t.Status != StatusReserved {
		return nil, domain.InvalidTransition("table", string(t.Status), "seat customers")
	}
	if !t.Capacity.CanAccommodate(partySize) {
		return nil, domain.Invalid("party_size", fmt.Sprintf("table %s seats at most %d", t.Number, t.Capacity.Seats))
	}

	now := timeNow()
	t.applyStatus(StatusOccupied, now)
	t.Touch(now)

	return &TableStatusChanged{
		EventMeta:      domain.NewEventMeta(t.ID, now),
		Number:         t.Number,
		PreviousStatus: StatusReserved,
		NewStatus:      StatusOccupied,
		Reason:         fmt.Sprintf("seated party of %d", partySize),
	}, nil
}

// ReleaseTable ends an occupation: folds the occupation duration into the
// rolling average, accumulates daily revenue, clears references and moves
// the table to Cleaning.
func (t *Table) ReleaseTable(finalBill *decimal.Decimal) (domain.Event, error) {
	if t.Status != StatusOccupied {
		return nil, domain.InvalidTransition("table", string(t.Status), "release")
	}
	if finalBill != nil && finalBill.IsNegative() {
		return nil, domain.Invalid("final_bill", "must not be negative")
	}

	now := timeNow()
	var duration time.Duration
	if t.LastOccupiedAt != nil {
		duration = now.Sub(*t.LastOccupiedAt)
	}

	// Incremental mean over actual occupations, not reservation count:
	// AssignReservation can run without the party ever sitting down.
	t.TimesOccupied++
	t.AverageOccupation += (duration - t.AverageOccupation) / time.Duration(t.TimesOccupied)

	var bill decimal.Decimal
	if finalBill != nil {
		bill = *finalBill
		t.DailyRevenue = t.DailyRevenue.Add(bill)
	}

	t.CurrentReservationID = nil
	t.AssignedWaiterID = ""
	t.applyStatus(StatusCleaning, now)
	t.Touch(now)

	return &TableReleased{
		EventMeta:    domain.NewEventMeta(t.ID, now),
		Number:       t.Number,
		Duration:     duration,
		FinalBill:    bill,
		DailyRevenue: t.DailyRevenue,
	}, nil
}

// AssignWaiter attaches a server to the table.
func (t *Table) AssignWaiter(waiterID string) (domain.Event, error) {
	if strings.TrimSpace(waiterID) == "" {
		return nil, domain.Invalid("waiter_id", "is required")
	}

	now := timeNow()
	t.AssignedWaiterID = waiterID
	t.Touch(now)

	return &WaiterAssigned{
		EventMeta: domain.NewEventMeta(t.ID, now),
		Number:    t.Number,
		WaiterID:  waiterID,
	}, nil
}

// ConfigurationUpdate is the set of optional table attribute changes.
type ConfigurationUpdate struct {
	Capacity *Capacity
	Zone     *string
	Position *Position
	Features *Features
}

// UpdateConfiguration applies attribute changes; only supplied fields
// change.
func (t *Table) UpdateConfiguration(update ConfigurationUpdate) (domain.Event, error) {
	if update.Capacity == nil && update.Zone == nil && update.Position == nil && update.Features == nil {
		return nil, domain.Invalid("configuration", "nothing to change")
	}

	now := timeNow()
	if update.Capacity != nil {
		t.Capacity = *update.Capacity
	}
	if update.Zone != nil {
		t.Zone = *update.Zone
	}
	if update.Position != nil {
		t.Position = update.Position
	}
	if update.Features != nil {
		t.Features = *update.Features
	}
	t.Touch(now)

	return &TableConfigurationUpdated{
		EventMeta: domain.NewEventMeta(t.ID, now),
		Number:    t.Number,
		Capacity:  t.Capacity.Seats,
		Zone:      t.Zone,
	}, nil
}

// AddMaintenance opens a maintenance window and takes the table out of
// service unless it is already under maintenance.
func (t *Table) AddMaintenance(mType, description, performedBy string, cost *decimal.Decimal) (domain.Event, error) {
	if strings.TrimSpace(mType) == "" {
		return nil, domain.Invalid("type", "is required")
	}
	if strings.TrimSpace(description) == "" {
		return nil, domain.Invalid("description", "is required")
	}
	if cost != nil && cost.IsNegative() {
		return nil, domain.Invalid("cost", "must not be negative")
	}

	now := timeNow()
	record := &Maintenance{
		EntityMeta:  domain.NewEntityMeta(now),
		Type:        mType,
		Description: description,
		PerformedBy: performedBy,
		Cost:        cost,
	}
	t.maintenance = append(t.maintenance, record)

	previous := t.Status
	if t.Status != StatusMaintenance {
		t.applyStatus(StatusOutOfService, now)
	}
	t.Touch(now)

	return &MaintenanceOpened{
		EventMeta:      domain.NewEventMeta(t.ID, now),
		Number:         t.Number,
		MaintenanceID:  record.ID,
		Type:           mType,
		PreviousStatus: previous,
		NewStatus:      t.Status,
	}, nil
}

// CompleteMaintenance closes an open maintenance window.
func (t *Table) CompleteMaintenance(maintenanceID uuid.UUID, cost *decimal.Decimal) (domain.Event, error) {
	var record *Maintenance
	for _, m := range t.maintenance {
		if m.ID == maintenanceID {
			record = m
			break
		}
	}
	if record == nil {
		return nil, fmt.Errorf("maintenance %s: %w", maintenanceID, domain.ErrNotFound)
	}
	if !record.IsOpen() {
		return nil, domain.Invalid("maintenance", "already completed")
	}
	if cost != nil && cost.IsNegative() {
		return nil, domain.Invalid("cost", "must not be negative")
	}

	now := timeNow()
	record.CompletedAt = &now
	if cost != nil {
		record.Cost = cost
	}
	record.Touch(now)
	t.Touch(now)

	return &MaintenanceCompleted{
		EventMeta:     domain.NewEventMeta(t.ID, now),
		Number:        t.Number,
		MaintenanceID: maintenanceID,
		Type:          record.Type,
	}, nil
}

// Deactivate takes the table off the floor. Forbidden while it is part of
// an active sitting.
func (t *Table) Deactivate(reason string) (domain.Event, error) {
	if t.Status == StatusOccupied || t.Status == StatusReserved {
		return nil, domain.InvalidTransition("table", string(t.Status), "deactivate")
	}

	now := timeNow()
	previous := t.Status
	t.Active = false
	t.applyStatus(StatusOutOfService, now)
	t.Touch(now)

	return &TableStatusChanged{
		EventMeta:      domain.NewEventMeta(t.ID, now),
		Number:         t.Number,
		PreviousStatus: previous,
		NewStatus:      StatusOutOfService,
		Reason:         reason,
	}, nil
}

// Reactivate returns a deactivated table to the floor.
func (t *Table) Reactivate() (domain.Event, error) {
	if t.Active {
		return nil, domain.Invalid("table", "already active")
	}

	now := timeNow()
	previous := t.Status
	t.Active = true
	t.applyStatus(StatusAvailable, now)
	t.Touch(now)

	return &TableStatusChanged{
		EventMeta:      domain.NewEventMeta(t.ID, now),
		Number:         t.Number,
		PreviousStatus: previous,
		NewStatus:      StatusAvailable,
		Reason:         "reactivated",
	}, nil
}

// Efficiency is daily revenue per average occupation hour; zero when either
// input is unset.
func (t *Table) Efficiency() float64 {
	hours := t.AverageOccupation.Hours()
	if hours == 0 || t.DailyRevenue.IsZero() {
		return 0
	}
	revenue, _ := t.DailyRevenue.Float64()
	return revenue / hours
}
