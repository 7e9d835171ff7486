package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/kitchen"
	"restaurant-lifecycle/internal/logger"
	"restaurant-lifecycle/internal/scheduler"
)

// EventPublisher pushes domain events onto the message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.Event) error
}

// Service coordinates kitchen order commands: load the aggregate, run the
// command, persist, publish the resulting event. It also owns the
// cooling-down grace timer armed when an order becomes ready.
type Service struct {
	repo      Repository
	publisher EventPublisher
	timers    *scheduler.Timers
	logger    *logger.Logger
}

func NewService(repo Repository, publisher EventPublisher, timers *scheduler.Timers, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		timers:    timers,
		logger:    log,
	}
}

// PlaceOrderRequest carries the inputs for a new kitchen order.
type PlaceOrderRequest struct {
	TableID    uuid.UUID          `json:"table_id"`
	Type       kitchen.OrderType  `json:"type"`
	CustomerID string             `json:"customer_id"`
	WaiterID   string             `json:"waiter_id"`
	Items      []kitchen.ItemSpec `json:"items"`
}

// PlaceOrder creates a new order and publishes order.placed.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest, requestID string) (*kitchen.Order, error) {
	order, event, err := kitchen.NewOrder(req.TableID, req.Type, req.CustomerID, req.WaiterID, req.Items)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.publish(ctx, event, requestID)

	s.logger.Info("order_placed", requestID, fmt.Sprintf("Order %s placed", order.Number), map[string]any{
		"order_id": order.ID.String(),
		"table_id": order.TableID.String(),
		"total":    order.Total.String(),
		"priority": string(order.Priority),
		"section":  string(order.Section),
	})
	return order, nil
}

// mutate loads the order, applies the command and saves the result. The
// event is published only after the save succeeds.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, requestID, action string, command func(*kitchen.Order) (domain.Event, error)) (*kitchen.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := command(order)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	s.publish(ctx, event, requestID)

	s.logger.Info(action, requestID, fmt.Sprintf("Order %s: %s", order.Number, action), map[string]any{
		"order_id": order.ID.String(),
		"status":   string(order.Status),
	})
	return order, nil
}

// Accept moves a pending order into the kitchen's accepted queue.
func (s *Service) Accept(ctx context.Context, id uuid.UUID, chefID, notes, requestID string) (*kitchen.Order, error) {
	return s.mutate(ctx, id, requestID, "order_accepted", func(o *kitchen.Order) (domain.Event, error) {
		return o.Accept(chefID, notes)
	})
}

// StartPreparation marks the order as being cooked.
func (s *Service) StartPreparation(ctx context.Context, id uuid.UUID, chefID, requestID string) (*kitchen.Order, error) {
	return s.mutate(ctx, id, requestID, "preparation_started", func(o *kitchen.Order) (domain.Event, error) {
		return o.StartPreparation(chefID)
	})
}

// MarkAsReady marks the order ready for pickup and arms the cooling-down
// grace timer. If the order is still sitting in Ready when the grace window
// elapses, an order.cooling_down alert goes out.
func (s *Service) MarkAsReady(ctx context.Context, id uuid.UUID, chefID, quality, requestID string) (*kitchen.Order, error) {
	order, err := s.mutate(ctx, id, requestID, "order_ready", func(o *kitchen.Order) (domain.Event, error) {
		return o.MarkAsReady(chefID, quality)
	})
	if err != nil {
		return nil, err
	}

	s.timers.Schedule(order.ID, kitchen.CoolingDownGrace, func() {
		s.coolingDownCheck(order.ID)
	})
	return order, nil
}

// MarkAsServed hands the order to the guests and disarms the cooling-down
// timer.
func (s *Service) MarkAsServed(ctx context.Context, id uuid.UUID, waiterID, requestID string) (*kitchen.Order, error) {
	order, err := s.mutate(ctx, id, requestID, "order_served", func(o *kitchen.Order) (domain.Event, error) {
		return o.MarkAsServed(waiterID)
	})
	if err != nil {
		return nil, err
	}
	s.timers.Cancel(order.ID)
	return order, nil
}

// Complete closes out a served order with optional rating, feedback and tip.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, rating *int, feedback string, tip decimal.Decimal, requestID string) (*kitchen.Order, error) {
	return s.mutate(ctx, id, requestID, "order_completed", func(o *kitchen.Order) (domain.Event, error) {
		return o.Complete(rating, feedback, tip)
	})
}

// Cancel aborts the order and disarms any pending cooling-down timer.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason, actorID, requestID string) (*kitchen.Order, error) {
	order, err := s.mutate(ctx, id, requestID, "order_cancelled", func(o *kitchen.Order) (domain.Event, error) {
		return o.Cancel(reason, actorID)
	})
	if err != nil {
		return nil, err
	}
	s.timers.Cancel(order.ID)
	return order, nil
}

// ChangePriority overrides the derived priority.
func (s *Service) ChangePriority(ctx context.Context, id uuid.UUID, priority kitchen.Priority, reason, actorID, requestID string) (*kitchen.Order, error) {
	return s.mutate(ctx, id, requestID, "priority_changed", func(o *kitchen.Order) (domain.Event, error) {
		return o.ChangePriority(priority, reason, actorID)
	})
}

// AddItem appends a line to a pending order.
func (s *Service) AddItem(ctx context.Context, id uuid.UUID, spec kitchen.ItemSpec, requestID string) (*kitchen.Order, error) {
	return s.mutate(ctx, id, requestID, "item_added", func(o *kitchen.Order) (domain.Event, error) {
		return o.AddItem(spec)
	})
}

// RemoveItem drops a line from a pending order.
func (s *Service) RemoveItem(ctx context.Context, id, itemID uuid.UUID, requestID string) (*kitchen.Order, error) {
	return s.mutate(ctx, id, requestID, "item_removed", func(o *kitchen.Order) (domain.Event, error) {
		return o.RemoveItem(itemID)
	})
}

// ModifyItem changes quantity or special requests on a line.
func (s *Service) ModifyItem(ctx context.Context, id, itemID uuid.UUID, quantity *int, requests []string, actorID, requestID string) (*kitchen.Order, error) {
	return s.mutate(ctx, id, requestID, "item_modified", func(o *kitchen.Order) (domain.Event, error) {
		return o.ModifyItem(itemID, quantity, requests, actorID)
	})
}

// ApplyDiscount sets the order discount.
func (s *Service) ApplyDiscount(ctx context.Context, id uuid.UUID, amount decimal.Decimal, reason, requestID string) (*kitchen.Order, error) {
	return s.mutate(ctx, id, requestID, "discount_applied", func(o *kitchen.Order) (domain.Event, error) {
		return o.ApplyDiscount(amount, reason)
	})
}

// Get returns one order by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*kitchen.Order, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns one order by its human-readable number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*kitchen.Order, error) {
	return s.repo.GetByNumber(ctx, number)
}

// ListByStatus returns all orders in the given status, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status kitchen.Status) ([]*kitchen.Order, error) {
	return s.repo.ListByStatus(ctx, status)
}

// coolingDownCheck runs on the timer goroutine once the grace window after
// MarkAsReady elapses. The order is re-read so a concurrent serve or cancel
// suppresses the alert.
func (s *Service) coolingDownCheck(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Error("cooling_down_check_failed", "", "Failed to load order for cooling-down check", err, map[string]any{
			"order_id": id.String(),
		})
		return
	}

	event, fired := order.CoolingDownCheck()
	if !fired {
		return
	}

	s.publish(ctx, event, "")
	s.logger.Info("order_cooling_down", "", fmt.Sprintf("Order %s is cooling down unserved", order.Number), map[string]any{
		"order_id": id.String(),
		"ready_at": order.ReadyAt,
	})
}

// publish sends the event; a broker failure is logged but does not fail the
// command, the state change is already durable.
func (s *Service) publish(ctx context.Context, event domain.Event, requestID string) {
	if event == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Error("event_publish_failed", requestID, "Failed to publish domain event", err, map[string]any{
			"event":        event.EventName(),
			"aggregate_id": event.AggregateID().String(),
		})
	}
}
