package kitchen

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
)

// Wire names for kitchen-order events; also used as AMQP routing keys.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderAccepted      = "order.accepted"
	EventPreparationStarted = "order.preparation_started"
	EventOrderReady         = "order.ready"
	EventOrderCoolingDown   = "order.cooling_down"
	EventOrderServed        = "order.served"
	EventOrderCompleted     = "order.completed"
	EventOrderCancelled     = "order.cancelled"
	EventPriorityChanged    = "order.priority_changed"
	EventItemsChanged       = "order.items_changed"
	EventDiscountApplied    = "order.discount_applied"
)

type OrderPlaced struct {
	domain.EventMeta
	Number    string          `json:"order_number"`
	TableID   uuid.UUID       `json:"table_id"`
	Type      OrderType       `json:"order_type"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	Priority  Priority        `json:"priority"`
	Section   Section         `json:"section"`
}

func (*OrderPlaced) EventName() string { return EventOrderPlaced }

type OrderAccepted struct {
	domain.EventMeta
	Number string `json:"order_number"`
	ChefID string `json:"chef_id,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

func (*OrderAccepted) EventName() string { return EventOrderAccepted }

type PreparationStarted struct {
	domain.EventMeta
	Number           string    `json:"order_number"`
	ChefID           string    `json:"chef_id,omitempty"`
	EstimatedReadyAt time.Time `json:"estimated_ready_at"`
}

func (*PreparationStarted) EventName() string { return EventPreparationStarted }

type OrderReady struct {
	domain.EventMeta
	Number            string        `json:"order_number"`
	ChefID            string        `json:"chef_id,omitempty"`
	Quality           string        `json:"quality,omitempty"`
	ActualPreparation time.Duration `json:"actual_preparation_ns"`
}

func (*OrderReady) EventName() string { return EventOrderReady }

// OrderCoolingDown signals that a ready order has been waiting past the
// grace window without being served.
type OrderCoolingDown struct {
	domain.EventMeta
	Number     string    `json:"order_number"`
	ReadySince time.Time `json:"ready_since"`
}

func (*OrderCoolingDown) EventName() string { return EventOrderCoolingDown }

type OrderServed struct {
	domain.EventMeta
	Number   string `json:"order_number"`
	WaiterID string `json:"waiter_id,omitempty"`
}

func (*OrderServed) EventName() string { return EventOrderServed }

type OrderCompleted struct {
	domain.EventMeta
	Number           string          `json:"order_number"`
	Rating           *int            `json:"rating,omitempty"`
	Tip              decimal.Decimal `json:"tip"`
	TotalServiceTime time.Duration   `json:"total_service_time_ns"`
}

func (*OrderCompleted) EventName() string { return EventOrderCompleted }

type OrderCancelled struct {
	domain.EventMeta
	Number         string `json:"order_number"`
	Reason         string `json:"reason"`
	ActorID        string `json:"actor_id,omitempty"`
	PreviousStatus Status `json:"previous_status"`
}

func (*OrderCancelled) EventName() string { return EventOrderCancelled }

type PriorityChanged struct {
	domain.EventMeta
	Number           string   `json:"order_number"`
	PreviousPriority Priority `json:"previous_priority"`
	NewPriority      Priority `json:"new_priority"`
	Reason           string   `json:"reason,omitempty"`
	ActorID          string   `json:"actor_id,omitempty"`
}

func (*PriorityChanged) EventName() string { return EventPriorityChanged }

type ItemsChanged struct {
	domain.EventMeta
	Number    string          `json:"order_number"`
	Change    string          `json:"change"`
	ItemID    uuid.UUID       `json:"item_id"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

func (*ItemsChanged) EventName() string { return EventItemsChanged }

type DiscountApplied struct {
	domain.EventMeta
	Number string          `json:"order_number"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
	Total  decimal.Decimal `json:"total"`
}

func (*DiscountApplied) EventName() string { return EventDiscountApplied }
