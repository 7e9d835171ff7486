package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
)

// timeNow is swapped in tests to control the clock.
var timeNow = time.Now

// Status is the reservation lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusSeated    Status = "seated"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

const (
	// DefaultDuration is the requested sitting length when none is given.
	DefaultDuration = 2 * time.Hour
	// modificationCutoff is how close to the scheduled time a reservation
	// becomes immutable.
	modificationCutoff = 2 * time.Hour
	upcomingWindow     = 30 * time.Minute
	lateThreshold      = 15 * time.Minute
)

// Contact is the booking contact snapshot, independent of any live
// customer profile.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Preferences is what the party asked for when booking.
type Preferences struct {
	Smoking    bool     `json:"smoking"`
	Accessible bool     `json:"accessible"`
	HasView    bool     `json:"has_view"`
	Zone       string   `json:"zone,omitempty"`
	Allergies  []string `json:"allergies,omitempty"`
}

// Modification is a full before/after snapshot taken before a reservation
// is changed.
type Modification struct {
	At              time.Time     `json:"at"`
	Actor           string        `json:"actor,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	PrevScheduledAt time.Time     `json:"prev_scheduled_at"`
	NewScheduledAt  time.Time     `json:"new_scheduled_at"`
	PrevPartySize   int           `json:"prev_party_size"`
	NewPartySize    int           `json:"new_party_size"`
	PrevDuration    time.Duration `json:"prev_duration"`
	NewDuration     time.Duration `json:"new_duration"`
	PrevTableID     uuid.UUID     `json:"prev_table_id"`
	NewTableID      uuid.UUID     `json:"new_table_id"`
}

// Reservation is the table-booking aggregate root. It references its table
// by identifier only; table occupancy is coordinated by the application
// layer.
type Reservation struct {
	domain.EntityMeta
	TableID     uuid.UUID     `json:"table_id"`
	CustomerID  string        `json:"customer_id,omitempty"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	Duration    time.Duration `json:"duration"`
	PartySize   int           `json:"party_size"`
	Status      Status        `json:"status"`

	Contact     Contact     `json:"contact"`
	Preferences Preferences `json:"preferences"`

	ActualPartySize *int       `json:"actual_party_size,omitempty"`
	WaiterID        string     `json:"waiter_id,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	SeatedAt        *time.Time `json:"seated_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`

	CancellationReason string           `json:"cancellation_reason,omitempty"`
	ActualDuration     *time.Duration   `json:"actual_duration,omitempty"`
	FinalBill          *decimal.Decimal `json:"final_bill,omitempty"`
	Rating             *int             `json:"rating,omitempty"`

	modifications []Modification
}

// NewReservation books a table for a party. The scheduled time must be
// strictly in the future.
func NewReservation(tableID uuid.UUID, customerID string, scheduledAt time.Time, partySize int, duration time.Duration, contact Contact, prefs Preferences) (*Reservation, domain.Event, error) {
	if tableID == uuid.Nil {
		return nil, nil, domain.Invalid("table_id", "is required")
	}
	now := timeNow()
	if !scheduledAt.After(now) {
		return nil, nil, domain.Invalid("scheduled_at", "must be in the future")
	}
	if partySize <= 0 {
		return nil, nil, domain.Invalid("party_size", "must be positive")
	}
	if strings.TrimSpace(contact.Name) == "" {
		return nil, nil, domain.Invalid("contact.name", "is required")
	}
	if duration <= 0 {
		duration = DefaultDuration
	}

	reservation := &Reservation{
		EntityMeta:  domain.NewEntityMeta(now),
		TableID:     tableID,
		CustomerID:  customerID,
		ScheduledAt: scheduledAt,
		Duration:    duration,
		PartySize:   partySize,
		Status:      StatusPending,
		Contact:     contact,
		Preferences: prefs,
	}

	event := &ReservationCreated{
		EventMeta:   domain.NewEventMeta(reservation.ID, now),
		TableID:     tableID,
		ScheduledAt: scheduledAt,
		PartySize:   partySize,
		ContactName: contact.Name,
	}
	return reservation, event, nil
}

// Modifications returns a copy of the modification history.
func (r *Reservation) Modifications() []Modification {
	return append([]Modification(nil), r.modifications...)
}

// Confirm moves a Pending reservation to Confirmed. A reservation whose
// scheduled time has already passed cannot be confirmed.
func (r *Reservation) Confirm(waiterID string) (domain.Event, error) {
	if r.Status != StatusPending {
		return nil, domain.InvalidTransition("reservation", string(r.Status), "confirm")
	}
	now := timeNow()
	if !r.ScheduledAt.After(now) {
		return nil, domain.Invalid("scheduled_at", "has already passed")
	}

	r.Status = StatusConfirmed
	r.WaiterID = waiterID
	r.ConfirmedAt = &now
	r.Touch(now)

	return &ReservationConfirmed{
		EventMeta:   domain.NewEventMeta(r.ID, now),
		TableID:     r.TableID,
		ScheduledAt: r.ScheduledAt,
		WaiterID:    waiterID,
	}, nil
}

// toleranceBand returns the allowed actual party size range: requested
// ±20%, widened to at least ±1.
func toleranceBand(requested int) (lo, hi float64) {
	lo = float64(requested) * 0.8
	hi = float64(requested) * 1.2
	if minLo := float64(requested - 1); minLo < lo {
		lo = minLo
	}
	if minHi := float64(requested + 1); minHi > hi {
		hi = minHi
	}
	return lo, hi
}

// SeatCustomers moves a Confirmed reservation to Seated. The actual party
// size must fall within the tolerance band of the requested size. The
// emitted event is the signal for the table-side seating, orchestrated by
// the application layer.
func (r *Reservation) SeatCustomers(actualPartySize int, waiterID string) (domain.Event, error) {
	if r.Status != StatusConfirmed {
		return nil, domain.InvalidTransition("reservation", string(r.Status), "seat customers")
	}
	if actualPartySize <= 0 {
		return nil, domain.Invalid("actual_party_size", "must be positive")
	}
	lo, hi := toleranceBand(r.PartySize)
	if size := float64(actualPartySize); size < lo || size > hi {
		return nil, domain.Invalid("actual_party_size", "outside the tolerance band of the requested size")
	}

	now := timeNow()
	r.Status = StatusSeated
	r.ActualPartySize = &actualPartySize
	if waiterID != "" {
		r.WaiterID = waiterID
	}
	r.SeatedAt = &now
	r.Touch(now)

	return &CustomersSeated{
		EventMeta:       domain.NewEventMeta(r.ID, now),
		TableID:         r.TableID,
		ActualPartySize: actualPartySize,
		WaiterID:        r.WaiterID,
	}, nil
}

// CompensateSeating reverts a Seated reservation to Confirmed. It exists
// only for the orchestrating layer to undo the reservation side of a
// seating whose table-side update failed.
func (r *Reservation) CompensateSeating() error {
	if r.Status != StatusSeated {
		return domain.InvalidTransition("reservation", string(r.Status), "compensate seating")
	}
	now := timeNow()
	r.Status = StatusConfirmed
	r.ActualPartySize = nil
	r.SeatedAt = nil
	r.Touch(now)
	return nil
}

// Complete moves a Seated reservation to Completed, recording the final
// bill and the actual sitting duration.
func (r *Reservation) Complete(finalBill *decimal.Decimal, rating *int) (domain.Event, error) {
	if r.Status != StatusSeated {
		return nil, domain.InvalidTransition("reservation", string(r.Status), "complete")
	}
	if finalBill != nil && finalBill.IsNegative() {
		return nil, domain.Invalid("final_bill", "must not be negative")
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, domain.Invalid("rating", "must be between 1 and 5")
	}

	now := timeNow()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.FinalBill = finalBill
	r.Rating = rating
	if r.SeatedAt != nil {
		actual := now.Sub(*r.SeatedAt)
		r.ActualDuration = &actual
	}
	r.Touch(now)

	event := &ReservationCompleted{
		EventMeta: domain.NewEventMeta(r.ID, now),
		TableID:   r.TableID,
		Rating:    rating,
	}
	if finalBill != nil {
		event.FinalBill = *finalBill
	}
	if r.ActualDuration != nil {
		event.ActualDuration = *r.ActualDuration
	}
	return event, nil
}

// Cancel aborts the reservation. Forbidden once Completed, NoShow or
// already Cancelled.
func (r *Reservation) Cancel(reason string) (domain.Event, error) {
	if r.Status.IsTerminal() {
		return nil, domain.InvalidTransition("reservation", string(r.Status), "cancel")
	}

	now := timeNow()
	previous := r.Status
	r.Status = StatusCancelled
	r.CancellationReason = reason
	r.CancelledAt = &now
	r.Touch(now)

	return &ReservationCancelled{
		EventMeta:      domain.NewEventMeta(r.ID, now),
		TableID:        r.TableID,
		Reason:         reason,
		PreviousStatus: previous,
	}, nil
}

// MarkAsNoShow flags a Confirmed reservation whose party never arrived.
// Only valid once the scheduled time has passed.
func (r *Reservation) MarkAsNoShow() (domain.Event, error) {
	if r.Status != StatusConfirmed {
		return nil, domain.InvalidTransition("reservation", string(r.Status), "mark as no-show")
	}
	now := timeNow()
	if r.ScheduledAt.After(now) {
		return nil, domain.Invalid("scheduled_at", "has not passed yet")
	}

	r.Status = StatusNoShow
	r.Touch(now)

	return &ReservationNoShow{
		EventMeta:   domain.NewEventMeta(r.ID, now),
		TableID:     r.TableID,
		ScheduledAt: r.ScheduledAt,
	}, nil
}

// CanBeModified reports whether the reservation is still open to change:
// Pending or Confirmed, and more than two hours before the scheduled time.
func (r *Reservation) CanBeModified() bool {
	if r.Status != StatusPending && r.Status != StatusConfirmed {
		return false
	}
	return timeNow().Before(r.ScheduledAt.Add(-modificationCutoff))
}

// ModifyRequest carries the optional reservation changes; only supplied
// fields are applied.
type ModifyRequest struct {
	ScheduledAt *time.Time
	PartySize   *int
	Duration    *time.Duration
	TableID     *uuid.UUID
	Reason      string
	Actor       string
}

// Modify applies a reservation change, appending a full before/after
// snapshot to the modification history first.
func (r *Reservation) Modify(req ModifyRequest) (domain.Event, error) {
	if !r.CanBeModified() {
		return nil, domain.InvalidTransition("reservation", string(r.Status), "modify within two hours of the scheduled time")
	}
	if req.ScheduledAt == nil && req.PartySize == nil && req.Duration == nil && req.TableID == nil {
		return nil, domain.Invalid("modification", "nothing to change")
	}

	now := timeNow()
	if req.ScheduledAt != nil && !req.ScheduledAt.After(now) {
		return nil, domain.Invalid("scheduled_at", "must be in the future")
	}
	if req.PartySize != nil && *req.PartySize <= 0 {
		return nil, domain.Invalid("party_size", "must be positive")
	}
	if req.Duration != nil && *req.Duration <= 0 {
		return nil, domain.Invalid("duration", "must be positive")
	}
	if req.TableID != nil && *req.TableID == uuid.Nil {
		return nil, domain.Invalid("table_id", "is required")
	}

	record := Modification{
		At:              now,
		Actor:           req.Actor,
		Reason:          req.Reason,
		PrevScheduledAt: r.ScheduledAt,
		NewScheduledAt:  r.ScheduledAt,
		PrevPartySize:   r.PartySize,
		NewPartySize:    r.PartySize,
		PrevDuration:    r.Duration,
		NewDuration:     r.Duration,
		PrevTableID:     r.TableID,
		NewTableID:      r.TableID,
	}
	if req.ScheduledAt != nil {
		r.ScheduledAt = *req.ScheduledAt
		record.NewScheduledAt = *req.ScheduledAt
	}
	if req.PartySize != nil {
		r.PartySize = *req.PartySize
		record.NewPartySize = *req.PartySize
	}
	if req.Duration != nil {
		r.Duration = *req.Duration
		record.NewDuration = *req.Duration
	}
	if req.TableID != nil {
		r.TableID = *req.TableID
		record.NewTableID = *req.TableID
	}
	r.modifications = append(r.modifications, record)
	r.Touch(now)

	return &ReservationModified{
		EventMeta:   domain.NewEventMeta(r.ID, now),
		TableID:     r.TableID,
		ScheduledAt: r.ScheduledAt,
		PartySize:   r.PartySize,
		Reason:      req.Reason,
		Actor:       req.Actor,
	}, nil
}

// TimeUntilReservation is how far away the scheduled time is; negative once
// it has passed.
func (r *Reservation) TimeUntilReservation() time.Duration {
	return r.ScheduledAt.Sub(timeNow())
}

// IsUpcoming reports whether the party is due within the next half hour.
func (r *Reservation) IsUpcoming() bool {
	until := r.TimeUntilReservation()
	return until > 0 && until <= upcomingWindow
}

// IsLate reports whether a confirmed party is more than 15 minutes overdue
// without having been seated.
func (r *Reservation) IsLate() bool {
	if r.Status != StatusConfirmed || r.SeatedAt != nil {
		return false
	}
	return timeNow().After(r.ScheduledAt.Add(lateThreshold))
}

// ExpectedEndTime is the scheduled time plus the requested duration.
func (r *Reservation) ExpectedEndTime() time.Time {
	return r.ScheduledAt.Add(r.Duration)
}
