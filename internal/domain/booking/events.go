package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
)

// Wire names for reservation events; also used as AMQP routing keys.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventCustomersSeated      = "reservation.seated"
	EventReservationCompleted = "reservation.completed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationNoShow    = "reservation.no_show"
	EventReservationModified  = "reservation.modified"
)

type ReservationCreated struct {
	domain.EventMeta
	TableID     uuid.UUID `json:"table_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	PartySize   int       `json:"party_size"`
	ContactName string    `json:"contact_name"`
}

func (*ReservationCreated) EventName() string { return EventReservationCreated }

type ReservationConfirmed struct {
	domain.EventMeta
	TableID     uuid.UUID `json:"table_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	WaiterID    string    `json:"waiter_id,omitempty"`
}

func (*ReservationConfirmed) EventName() string { return EventReservationConfirmed }

// CustomersSeated drives the table-side SeatCustomers call via the
// orchestrating layer.
type CustomersSeated struct {
	domain.EventMeta
	TableID         uuid.UUID `json:"table_id"`
	ActualPartySize int       `json:"actual_party_size"`
	WaiterID        string    `json:"waiter_id,omitempty"`
}

func (*CustomersSeated) EventName() string { return EventCustomersSeated }

type ReservationCompleted struct {
	domain.EventMeta
	TableID        uuid.UUID       `json:"table_id"`
	FinalBill      decimal.Decimal `json:"final_bill"`
	Rating         *int            `json:"rating,omitempty"`
	ActualDuration time.Duration   `json:"actual_duration_ns"`
}

func (*ReservationCompleted) EventName() string { return EventReservationCompleted }

type ReservationCancelled struct {
	domain.EventMeta
	TableID        uuid.UUID `json:"table_id"`
	Reason         string    `json:"reason,omitempty"`
	PreviousStatus Status    `json:"previous_status"`
}

func (*ReservationCancelled) EventName() string { return EventReservationCancelled }

type ReservationNoShow struct {
	domain.EventMeta
	TableID     uuid.UUID `json:"table_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (*ReservationNoShow) EventName() string { return EventReservationNoShow }

type ReservationModified struct {
	domain.EventMeta
	TableID     uuid.UUID `json:"table_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	PartySize   int       `json:"party_size"`
	Reason      string    `json:"reason,omitempty"`
	Actor       string    `json:"actor,omitempty"`
}

func (*ReservationModified) EventName() string { return EventReservationModified }
