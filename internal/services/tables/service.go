package tables

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/dining"
	"restaurant-lifecycle/internal/logger"
)

// EventPublisher pushes domain events onto the message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.Event) error
}

// Service coordinates table commands: load, run the command, persist,
// publish.
type Service struct {
	repo      Repository
	publisher EventPublisher
	logger    *logger.Logger
}

func NewService(repo Repository, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// RegisterTableRequest carries the inputs for adding a table to the floor.
type RegisterTableRequest struct {
	Number   string           `json:"number"`
	Seats    int              `json:"seats"`
	Zone     string           `json:"zone"`
	Position *dining.Position `json:"position"`
	Features dining.Features  `json:"features"`
}

// RegisterTable adds a new table and publishes table.added.
func (s *Service) RegisterTable(ctx context.Context, req RegisterTableRequest, requestID string) (*dining.Table, error) {
	capacity, err := dining.NewCapacity(req.Seats)
	if err != nil {
		return nil, err
	}
	table, event, err := dining.NewTable(req.Number, capacity, req.Zone, req.Position, req.Features)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to persist table: %w", err)
	}
	s.publish(ctx, event, requestID)

	s.logger.Info("table_registered", requestID, fmt.Sprintf("Table %s registered", table.Number), map[string]any{
		"table_id": table.ID.String(),
		"seats":    table.Capacity.Seats,
		"zone":     table.Zone,
	})
	return table, nil
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, requestID, action string, command func(*dining.Table) (domain.Event, error)) (*dining.Table, error) {
	table, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := command(table)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to persist table: %w", err)
	}
	s.publish(ctx, event, requestID)

	s.logger.Info(action, requestID, fmt.Sprintf("Table %s: %s", table.Number, action), map[string]any{
		"table_id": table.ID.String(),
		"status":   string(table.Status),
	})
	return table, nil
}

// ChangeStatus moves the table to the given status along the allowed
// transitions.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status dining.Status, actorID, reason, requestID string) (*dining.Table, error) {
	return s.mutate(ctx, id, requestID, "table_status_changed", func(t *dining.Table) (domain.Event, error) {
		return t.ChangeStatus(status, actorID, reason)
	})
}

// AssignWaiter attaches a server to the table.
func (s *Service) AssignWaiter(ctx context.Context, id uuid.UUID, waiterID, requestID string) (*dining.Table, error) {
	return s.mutate(ctx, id, requestID, "waiter_assigned", func(t *dining.Table) (domain.Event, error) {
		return t.AssignWaiter(waiterID)
	})
}

// UpdateConfiguration changes the table's physical attributes.
func (s *Service) UpdateConfiguration(ctx context.Context, id uuid.UUID, update dining.ConfigurationUpdate, requestID string) (*dining.Table, error) {
	return s.mutate(ctx, id, requestID, "table_configuration_updated", func(t *dining.Table) (domain.Event, error) {
		return t.UpdateConfiguration(update)
	})
}

// AddMaintenance opens a maintenance window on the table.
func (s *Service) AddMaintenance(ctx context.Context, id uuid.UUID, mType, description, performedBy string, cost *decimal.Decimal, requestID string) (*dining.Table, error) {
	return s.mutate(ctx, id, requestID, "maintenance_opened", func(t *dining.Table) (domain.Event, error) {
		return t.AddMaintenance(mType, description, performedBy, cost)
	})
}

// CompleteMaintenance closes an open maintenance window.
func (s *Service) CompleteMaintenance(ctx context.Context, id, maintenanceID uuid.UUID, cost *decimal.Decimal, requestID string) (*dining.Table, error) {
	return s.mutate(ctx, id, requestID, "maintenance_completed", func(t *dining.Table) (domain.Event, error) {
		return t.CompleteMaintenance(maintenanceID, cost)
	})
}

// Deactivate takes the table off the floor.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, reason, requestID string) (*dining.Table, error) {
	return s.mutate(ctx, id, requestID, "table_deactivated", func(t *dining.Table) (domain.Event, error) {
		return t.Deactivate(reason)
	})
}

// Reactivate returns a deactivated table to the floor.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID, requestID string) (*dining.Table, error) {
	return s.mutate(ctx, id, requestID, "table_reactivated", func(t *dining.Table) (domain.Event, error) {
		return t.Reactivate()
	})
}

// Get returns one table by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*dining.Table, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns one table by its floor number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*dining.Table, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns every table on the floor.
func (s *Service) List(ctx context.Context) ([]*dining.Table, error) {
	return s.repo.List(ctx)
}

// ListByStatus returns the tables currently in the given status.
func (s *Service) ListByStatus(ctx context.Context, status dining.Status) ([]*dining.Table, error) {
	return s.repo.ListByStatus(ctx, status)
}

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
