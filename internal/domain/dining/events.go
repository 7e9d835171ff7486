package dining

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
)

// Wire names for table events; also used as AMQP routing keys.
const (
	EventTableAdded                = "table.added"
	EventTableStatusChanged        = "table.status_changed"
	EventTableReleased             = "table.released"
	EventTableConfigurationUpdated = "table.configuration_updated"
	EventWaiterAssigned            = "table.waiter_assigned"
	EventMaintenanceOpened         = "table.maintenance_opened"
	EventMaintenanceCompleted      = "table.maintenance_completed"
)

type TableAdded struct {
	domain.EventMeta
	Number   string `json:"table_number"`
	Capacity int    `json:"capacity"`
	Zone     string `json:"zone,omitempty"`
}

func (*TableAdded) EventName() string { return EventTableAdded }

type TableStatusChanged struct {
	domain.EventMeta
	Number         string `json:"table_number"`
	PreviousStatus Status `json:"previous_status"`
	NewStatus      Status `json:"new_status"`
	ActorID        string `json:"actor_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func (*TableStatusChanged) EventName() string { return EventTableStatusChanged }

type TableReleased struct {
	domain.EventMeta
	Number       string          `json:"table_number"`
	Duration     time.Duration   `json:"occupation_ns"`
	FinalBill    decimal.Decimal `json:"final_bill"`
	DailyRevenue decimal.Decimal `json:"daily_revenue"`
}

func (*TableReleased) EventName() string { return EventTableReleased }

type TableConfigurationUpdated struct {
	domain.EventMeta
	Number   string `json:"table_number"`
	Capacity int    `json:"capacity"`
	Zone     string `json:"zone,omitempty"`
}

func (*TableConfigurationUpdated) EventName() string { return EventTableConfigurationUpdated }

type WaiterAssigned struct {
	domain.EventMeta
	Number   string `json:"table_number"`
	WaiterID string `json:"waiter_id"`
}

func (*WaiterAssigned) EventName() string { return EventWaiterAssigned }

type MaintenanceOpened struct {
	domain.EventMeta
	Number         string    `json:"table_number"`
	MaintenanceID  uuid.UUID `json:"maintenance_id"`
	Type           string    `json:"type"`
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
}

func (*MaintenanceOpened) EventName() string { return EventMaintenanceOpened }

type MaintenanceCompleted struct {
	domain.EventMeta
	Number        string    `json:"table_number"`
	MaintenanceID uuid.UUID `json:"maintenance_id"`
	Type          string    `json:"type"`
}

func (*MaintenanceCompleted) EventName() string { return EventMaintenanceCompleted }
