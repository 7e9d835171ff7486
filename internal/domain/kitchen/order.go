package kitchen

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

// OrderType classifies how the order will be consumed.
type OrderType string

const (
	DineIn   OrderType = "dine_in"
	TakeAway OrderType = "take_away"
	Delivery OrderType = "delivery"
)

// Status is the kitchen-order pipeline state.
type Status string

const (
	StatusPending       Status = "pending"
	StatusAccepted      Status = "accepted"
	StatusInPreparation Status = "in_preparation"
	StatusReady         Status = "ready"
	StatusServed        Status = "served"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority orders kitchen work. Auto-derived from the items but overridable.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// LogEntry is one record of the order's append-only action log.
type LogEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Actor  string    `json:"actor,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Modification records the before/after of a quantity or special-request
// change on one item.
type Modification struct {
	At           time.Time `json:"at"`
	ItemID       uuid.UUID `json:"item_id"`
	Actor        string    `json:"actor,omitempty"`
	PrevQuantity int       `json:"prev_quantity"`
	NewQuantity  int       `json:"new_quantity"`
	PrevRequests []string  `json:"prev_requests,omitempty"`
	NewRequests  []string  `json:"new_requests,omitempty"`
}

// Order is the kitchen-order aggregate root. All state changes go through
// its methods; each mutating call emits exactly one domain event.
type Order struct {
	domain.EntityMeta
	Number     string    `json:"number"`
	TableID    uuid.UUID `json:"table_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	WaiterID   string    `json:"waiter_id,omitempty"`
	ChefID     string    `json:"chef_id,omitempty"`

	Type     OrderType `json:"type"`
	Status   Status    `json:"status"`
	Priority Priority  `json:"priority"`
	Section  Section   `json:"section"`

	OrderedAt   time.Time  `json:"ordered_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	ServedAt    *time.Time `json:"served_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	EstimatedPreparation time.Duration  `json:"estimated_preparation"`
	ActualPreparation    *time.Duration `json:"actual_preparation,omitempty"`
	EstimatedReadyAt     *time.Time     `json:"estimated_ready_at,omitempty"`
	TotalServiceTime     *time.Duration `json:"total_service_time,omitempty"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	Tip            decimal.Decimal `json:"tip"`
	DiscountReason string          `json:"discount_reason,omitempty"`

	Allergens           []string `json:"allergens,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`
	Rating             *int   `json:"rating,omitempty"`
	Feedback           string `json:"feedback,omitempty"`
	Notes              string `json:"notes,omitempty"`

	priorityOverridden bool

	items         []*Item
	log           []LogEntry
	modifications []Modification
}

// NewOrder places an order for a table. At least one item is required; the
// order number, totals, estimate, section routing, priority and allergen
// set are computed from the item snapshots.
func NewOrder(tableID uuid.UUID, orderType OrderType, customerID, waiterID string, specs []ItemSpec) (*Order, domain.Event, error) {
	if tableID == uuid.Nil {
		return nil, nil, domain.Invalid("table_id", "is required")
	}
	switch orderType {
	case DineIn, TakeAway, Delivery:
	default:
		return nil, nil, domain.Invalid("order_type", "must be one of: dine_in, take_away, delivery")
	}
	if len(specs) == 0 {
		return nil, nil, domain.Invalid("items", "order must contain at least one item")
	}

	items := make([]*Item, 0, len(specs))
	for _, spec := range specs {
		item, err := newItem(spec)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}

	now := timeNow()
	order := &Order{
		EntityMeta: domain.NewEntityMeta(now),
		Number:     generateOrderNumber(now),
		TableID:    tableID,
		CustomerID: customerID,
		WaiterID:   waiterID,
		Type:       orderType,
		Status:     StatusPending,
		OrderedAt:  now,
		Discount:   decimal.Zero,
		Tip:        decimal.Zero,
		items:      items,
	}
	order.recompute(now)
	order.appendLog(now, "placed", waiterID, fmt.Sprintf("%d items", len(items)))

	event := &OrderPlaced{
		EventMeta: domain.NewEventMeta(order.ID, now),
		Number:    order.Number,
		TableID:   tableID,
		Type:      orderType,
		ItemCount: len(items),
		Total:     order.Total,
		Priority:  order.Priority,
		Section:   order.Section,
	}
	return order, event, nil
}

// generateOrderNumber derives a human-readable number from the wall clock
// plus a random suffix.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// Items returns a copy of the order lines; the aggregate owns the originals.
func (o *Order) Items() []Item {
	out := make([]Item, 0, len(o.items))
	for _, item := range o.items {
		out = append(out, *item)
	}
	return out
}

// Log returns a copy of the append-only action log.
func (o *Order) Log() []LogEntry {
	return append([]LogEntry(nil), o.log...)
}

// Modifications returns a copy of the item modification history.
func (o *Order) Modifications() []Modification {
	return append([]Modification(nil), o.modifications...)
}

func (o *Order) appendLog(at time.Time, action, actor, note string) {
	o.log = append(o.log, LogEntry{At: at, Action: action, Actor: actor, Note: note})
}

func (o *Order) guard(operation string, from Status) error {
	if o.Status != from {
		return domain.InvalidTransition("kitchen order", string(o.Status), operation)
	}
	return nil
}

// Accept moves the order from Pending to Accepted and records the chef.
func (o *Order) Accept(chefID, notes string) (domain.Event, error) {
	if err := o.guard("accept", StatusPending); err != nil {
		return nil, err
	}

	now := timeNow()
	o.Status = StatusAccepted
	o.ChefID = chefID
	o.AcceptedAt = &now
	if notes != "" {
		o.Notes = notes
	}
	o.Touch(now)
	o.appendLog(now, "accepted", chefID, notes)

	return &OrderAccepted{
		EventMeta: domain.NewEventMeta(o.ID, now),
		Number:    o.Number,
		ChefID:    chefID,
		Notes:     notes,
	}, nil
}

// StartPreparation moves the order from Accepted to InPreparation and fixes
// the estimated-ready time.
func (o *Order) StartPreparation(chefID string) (domain.Event, error) {
	if err := o.guard("start preparation", StatusAccepted); err != nil {
		return nil, err
	}

	now := timeNow()
	o.Status = StatusInPreparation
	if chefID != "" {
		o.ChefID = chefID
	}
	o.StartedAt = &now
	readyAt := now.Add(o.EstimatedPreparation)
	o.EstimatedReadyAt = &readyAt
	o.Touch(now)
	o.appendLog(now, "preparation_started", o.ChefID, "")

	return &PreparationStarted{
		EventMeta:        domain.NewEventMeta(o.ID, now),
		Number:           o.Number,
		ChefID:           o.ChefID,
		EstimatedReadyAt: readyAt,
	}, nil
}

// MarkAsReady moves the order from InPreparation to Ready and records the
// actual preparation time. The caller is responsible for arming the
// cooling-down grace timer.
func (o *Order) MarkAsReady(chefID, quality string) (domain.Event, error) {
	if err := o.guard("mark as ready", StatusInPreparation); err != nil {
		return nil, err
	}

	now := timeNow()
	o.Status = StatusReady
	if chefID != "" {
		o.ChefID = chefID
	}
	o.ReadyAt = &now
	if o.StartedAt != nil {
		actual := now.Sub(*o.StartedAt)
		o.ActualPreparation = &actual
	}
	o.Touch(now)
	o.appendLog(now, "ready", o.ChefID, quality)

	event := &OrderReady{
		EventMeta: domain.NewEventMeta(o.ID, now),
		Number:    o.Number,
		ChefID:    o.ChefID,
		Quality:   quality,
	}
	if o.ActualPreparation != nil {
		event.ActualPreparation = *o.ActualPreparation
	}
	return event, nil
}

// CoolingDownCheck is the deferred check run once the grace window after
// MarkAsReady elapses. It emits an event only if the order is still sitting
// in Ready; a concurrent MarkAsServed suppresses it.
func (o *Order) CoolingDownCheck() (domain.Event, bool) {
	if o.Status != StatusReady || o.ReadyAt == nil {
		return nil, false
	}
	now := timeNow()
	return &OrderCoolingDown{
		EventMeta:  domain.NewEventMeta(o.ID, now),
		Number:     o.Number,
		ReadySince: *o.ReadyAt,
	}, true
}

// MarkAsServed moves the order from Ready to Served.
func (o *Order) MarkAsServed(waiterID string) (domain.Event, error) {
	if err := o.guard("mark as served", StatusReady); err != nil {
		return nil, err
	}

	now := timeNow()
	o.Status = StatusServed
	if waiterID != "" {
		o.WaiterID = waiterID
	}
	o.ServedAt = &now
	o.Touch(now)
	o.appendLog(now, "served", o.WaiterID, "")

	return &OrderServed{
		EventMeta: domain.NewEventMeta(o.ID, now),
		Number:    o.Number,
		WaiterID:  o.WaiterID,
	}, nil
}

// Complete moves the order from Served to Completed and records the total
// elapsed service time.
func (o *Order) Complete(rating *int, feedback string, tip decimal.Decimal) (domain.Event, error) {
	if err := o.guard("complete", StatusServed); err != nil {
		return nil, err
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, domain.Invalid("rating", "must be between 1 and 5")
	}
	if tip.IsNegative() {
		return nil, domain.Invalid("tip", "must not be negative")
	}

	now := timeNow()
	o.Status = StatusCompleted
	o.CompletedAt = &now
	o.Rating = rating
	o.Feedback = feedback
	o.Tip = tip
	elapsed := now.Sub(o.OrderedAt)
	o.TotalServiceTime = &elapsed
	o.Touch(now)
	o.appendLog(now, "completed", "", feedback)

	return &OrderCompleted{
		EventMeta:        domain.NewEventMeta(o.ID, now),
		Number:           o.Number,
		Rating:           rating,
		Tip:              tip,
		TotalServiceTime: elapsed,
	}, nil
}

// Cancel aborts the order from any non-terminal state. The reason is
// mandatory; the previous status is carried in the event.
func (o *Order) Cancel(reason, actorID string) (domain.Event, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.Invalid("reason", "is required")
	}
	if o.Status.IsTerminal() {
		return nil, domain.InvalidTransition("kitchen order", string(o.Status), "cancel")
	}

	now := timeNow()
	previous := o.Status
	o.Status = StatusCancelled
	o.CancellationReason = reason
	o.CancelledAt = &now
	for _, item := range o.items {
		item.Status = ItemCancelled
	}
	o.Touch(now)
	o.appendLog(now, "cancelled", actorID, reason)

	return &OrderCancelled{
		EventMeta:      domain.NewEventMeta(o.ID, now),
		Number:         o.Number,
		Reason:         reason,
		ActorID:        actorID,
		PreviousStatus: previous,
	}, nil
}

// ChangePriority overrides the derived priority. Promoting to High or
// Urgent shrinks the estimated preparation time and re-anchors the
// estimated-ready time.
func (o *Order) ChangePriority(newPriority Priority, reason, actorID string) (domain.Event, error) {
	switch newPriority {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
	default:
		return nil, domain.Invalid("priority", "must be one of: low, normal, high, urgent")
	}

	now := timeNow()
	previous := o.Priority
	o.Priority = newPriority
	o.priorityOverridden = true

	if newPriority.rank() > previous.rank() {
		factor := 0.0
		switch newPriority {
		case PriorityHigh:
			factor = 0.85
		case PriorityUrgent:
			factor = 0.70
		}
		if factor > 0 {
			o.EstimatedPreparation = time.Duration(float64(o.EstimatedPreparation) * factor)
			anchor := now
			if o.StartedAt != nil {
				anchor = *o.StartedAt
			}
			readyAt := anchor.Add(o.EstimatedPreparation)
			o.EstimatedReadyAt = &readyAt
		}
	}
	o.Touch(now)
	o.appendLog(now, "priority_changed", actorID, reason)

	return &PriorityChanged{
		EventMeta:        domain.NewEventMeta(o.ID, now),
		Number:           o.Number,
		PreviousPriority: previous,
		NewPriority:      newPriority,
		Reason:           reason,
		ActorID:          actorID,
	}, nil
}

// AddItem appends a line while the order is still Pending.
func (o *Order) AddItem(spec ItemSpec) (domain.Event, error) {
	if err := o.guard("add item", StatusPending); err != nil {
		return nil, err
	}
	item, err := newItem(spec)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	o.items = append(o.items, item)
	o.recompute(now)
	o.Touch(now)
	o.appendLog(now, "item_added", "", item.Name)

	return o.itemsChangedEvent(now, "added", item.ID), nil
}

// RemoveItem drops a line while the order is still Pending. The last
// remaining item cannot be removed.
func (o *Order) RemoveItem(itemID uuid.UUID) (domain.Event, error) {
	if err := o.guard("remove item", StatusPending); err != nil {
		return nil, err
	}
	idx := o.itemIndex(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	if len(o.items) == 1 {
		return nil, domain.Invalid("items", "order must contain at least one item")
	}

	now := timeNow()
	name := o.items[idx].Name
	o.items = append(o.items[:idx], o.items[idx+1:]...)
	o.recompute(now)
	o.Touch(now)
	o.appendLog(now, "item_removed", "", name)

	return o.itemsChangedEvent(now, "removed", itemID), nil
}

// ModifyItem changes an item's quantity and/or special requests, recording
// a before/after snapshot first. Permitted unless the order is terminal.
func (o *Order) ModifyItem(itemID uuid.UUID, newQuantity *int, newRequests []string, actorID string) (domain.Event, error) {
	if o.Status.IsTerminal() {
		return nil, domain.InvalidTransition("kitchen order", string(o.Status), "modify item")
	}
	idx := o.itemIndex(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	if newQuantity == nil && newRequests == nil {
		return nil, domain.Invalid("modification", "nothing to change")
	}
	if newQuantity != nil && *newQuantity <= 0 {
		return nil, domain.Invalid("quantity", "must be positive")
	}

	now := timeNow()
	item := o.items[idx]
	record := Modification{
		At:           now,
		ItemID:       itemID,
		Actor:        actorID,
		PrevQuantity: item.Quantity,
		NewQuantity:  item.Quantity,
		PrevRequests: append([]string(nil), item.SpecialRequests...),
	}
	if newQuantity != nil {
		if err := item.setQuantity(*newQuantity); err != nil {
			return nil, err
		}
		record.NewQuantity = *newQuantity
	}
	if newRequests != nil {
		item.setSpecialRequests(newRequests)
	}
	record.NewRequests = append([]string(nil), item.SpecialRequests...)

	o.modifications = append(o.modifications, record)
	o.recompute(now)
	o.Touch(now)
	o.appendLog(now, "item_modified", actorID, item.Name)

	return o.itemsChangedEvent(now, "modified", itemID), nil
}

// ApplyDiscount reduces the total. The amount must not be negative and must
// not exceed the current subtotal.
func (o *Order) ApplyDiscount(amount decimal.Decimal, reason string) (domain.Event, error) {
	if o.Status.IsTerminal() {
		return nil, domain.InvalidTransition("kitchen order", string(o.Status), "apply discount")
	}
	if amount.IsNegative() {
		return nil, domain.Invalid("discount", "must not be negative")
	}
	if amount.GreaterThan(o.Subtotal) {
		return nil, domain.Invalid("discount", "must not exceed subtotal")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, domain.Invalid("reason", "is required")
	}

	now := timeNow()
	o.Discount = amount
	o.DiscountReason = reason
	o.Total = o.Subtotal.Sub(o.Discount)
	o.Touch(now)
	o.appendLog(now, "discount_applied", "", reason)

	return &DiscountApplied{
		EventMeta: domain.NewEventMeta(o.ID, now),
		Number:    o.Number,
		Amount:    amount,
		Reason:    reason,
		Total:     o.Total,
	}, nil
}

func (o *Order) itemIndex(itemID uuid.UUID) int {
	for i, item := range o.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (o *Order) itemsChangedEvent(at time.Time, change string, itemID uuid.UUID) domain.Event {
	return &ItemsChanged{
		EventMeta: domain.NewEventMeta(o.ID, at),
		Number:    o.Number,
		Change:    change,
		ItemID:    itemID,
		ItemCount: len(o.items),
		Subtotal:  o.Subtotal,
		Total:     o.Total,
	}
}
