package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/booking"
	"restaurant-lifecycle/internal/domain/dining"
	"restaurant-lifecycle/internal/logger"
	"restaurant-lifecycle/internal/services/tables"
)

// EventPublisher pushes domain events onto the message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.Event) error
}

// Service coordinates reservation commands and the cross-aggregate
// choreography with the table side. Reservation and Table never hold each
// other's objects; every interaction goes through identifiers and explicit
// two-step orchestration here.
type Service struct {
	repo      Repository
	tableRepo tables.Repository
	publisher EventPublisher
	logger    *logger.Logger
}

func NewService(repo Repository, tableRepo tables.Repository, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		tableRepo: tableRepo,
		publisher: publisher,
		logger:    log,
	}
}

// BookRequest carries the inputs for a new reservation.
type BookRequest struct {
	TableID     uuid.UUID           `json:"table_id"`
	CustomerID  string              `json:"customer_id"`
	ScheduledAt time.Time           `json:"scheduled_at"`
	PartySize   int                 `json:"party_size"`
	Duration    time.Duration       `json:"duration"`
	Contact     booking.Contact     `json:"contact"`
	Preferences booking.Preferences `json:"preferences"`
}

// Book creates a pending reservation. The table is only checked for
// existence; it is not held until the reservation is confirmed.
func (s *Service) Book(ctx context.Context, req BookRequest, requestID string) (*booking.Reservation, error) {
	if _, err := s.tableRepo.Get(ctx, req.TableID); err != nil {
		return nil, fmt.Errorf("table %s: %w", req.TableID, err)
	}

	reservation, event, err := booking.NewReservation(req.TableID, req.CustomerID, req.ScheduledAt, req.PartySize, req.Duration, req.Contact, req.Preferences)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}
	s.publish(ctx, event, requestID)

	s.logger.Info("reservation_booked", requestID, fmt.Sprintf("Reservation for %s booked", reservation.Contact.Name), map[string]any{
		"reservation_id": reservation.ID.String(),
		"table_id":       reservation.TableID.String(),
		"party_size":     reservation.PartySize,
		"scheduled_at":   reservation.ScheduledAt,
	})
	return reservation, nil
}

// Confirm moves the reservation to Confirmed and holds the table for it.
// Both sides are validated in memory before either is persisted.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, waiterID, requestID string) (*booking.Reservation, error) {
	reservation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	table, err := s.tableRepo.Get(ctx, reservation.TableID)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", reservation.TableID, err)
	}

	resEvent, err := reservation.Confirm(waiterID)
	if err != nil {
		return nil, err
	}
	tableEvent, err := table.AssignReservation(reservation.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}
	if err := s.tableRepo.Update(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to persist table: %w", err)
	}
	s.publish(ctx, resEvent, requestID)
	s.publish(ctx, tableEvent, requestID)

	s.logger.Info("reservation_confirmed", requestID, fmt.Sprintf("Reservation %s confirmed, table %s held", id, table.Number), map[string]any{
		"reservation_id": id.String(),
		"table_id":       table.ID.String(),
	})
	return reservation, nil
}

// SeatCustomers runs the two-step seating: the reservation side first, then
// the table side. If the table rejects the party, the reservation side is
// compensated back to Confirmed.
func (s *Service) SeatCustomers(ctx context.Context, id uuid.UUID, actualPartySize int, waiterID, requestID string) (*booking.Reservation, error) {
	reservation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resEvent, err := reservation.SeatCustomers(actualPartySize, waiterID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}

	table, err := s.tableRepo.Get(ctx, reservation.TableID)
	if err == nil {
		var tableEvent domain.Event
		tableEvent, err = table.SeatCustomers(actualPartySize)
		if err == nil {
			if err = s.tableRepo.Update(ctx, table); err == nil {
				s.publish(ctx, resEvent, requestID)
				s.publish(ctx, tableEvent, requestID)

				s.logger.Info("customers_seated", requestID, fmt.Sprintf("Party of %d seated at table %s", actualPartySize, table.Number), map[string]any{
					"reservation_id": id.String(),
					"table_id":       table.ID.String(),
				})
				return reservation, nil
			}
		}
	}

	// Table side failed: undo the reservation side.
	if compErr := reservation.CompensateSeating(); compErr != nil {
		s.logger.Error("seating_compensation_failed", requestID, "Failed to compensate reservation after table-side failure", compErr, map[string]any{
			"reservation_id": id.String(),
		})
	} else if saveErr := s.repo.Update(ctx, reservation); saveErr != nil {
		s.logger.Error("seating_compensation_failed", requestID, "Failed to persist compensated reservation", saveErr, map[string]any{
			"reservation_id": id.String(),
		})
	}
	return nil, fmt.Errorf("table-side seating failed: %w", err)
}

// Complete closes out a seated reservation and releases its table.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, finalBill *decimal.Decimal, rating *int, requestID string) (*booking.Reservation, error) {
	reservation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resEvent, err := reservation.Complete(finalBill, rating)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}
	s.publish(ctx, resEvent, requestID)

	// Second step: release the occupied table. A failure here leaves the
	// table for manual release but the reservation stays completed.
	table, err := s.tableRepo.Get(ctx, reservation.TableID)
	if err != nil {
		s.logger.Error("table_release_failed", requestID, "Failed to load table for release", err, map[string]any{
			"reservation_id": id.String(),
			"table_id":       reservation.TableID.String(),
		})
		return reservation, nil
	}
	tableEvent, err := table.ReleaseTable(finalBill)
	if err != nil {
		s.logger.Error("table_release_failed", requestID, "Failed to release table", err, map[string]any{
			"reservation_id": id.String(),
			"table_id":       table.ID.String(),
		})
		return reservation, nil
	}
	if err := s.tableRepo.Update(ctx, table); err != nil {
		s.logger.Error("table_release_failed", requestID, "Failed to persist released table", err, map[string]any{
			"table_id": table.ID.String(),
		})
		return reservation, nil
	}
	s.publish(ctx, tableEvent, requestID)

	s.logger.Info("reservation_completed", requestID, fmt.Sprintf("Reservation %s completed, table %s released", id, table.Number), map[string]any{
		"reservation_id": id.String(),
		"table_id":       table.ID.String(),
	})
	return reservation, nil
}

// Cancel aborts the reservation and frees the table if it was being held.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason, requestID string) (*booking.Reservation, error) {
	reservation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := reservation.Cancel(reason)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}
	s.publish(ctx, event, requestID)
	s.freeHeldTable(ctx, reservation, "reservation cancelled", requestID)

	return reservation, nil
}

// MarkAsNoShow flags a confirmed reservation whose party never arrived and
// frees the held table.
func (s *Service) MarkAsNoShow(ctx context.Context, id uuid.UUID, requestID string) (*booking.Reservation, error) {
	reservation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := reservation.MarkAsNoShow()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}
	s.publish(ctx, event, requestID)
	s.freeHeldTable(ctx, reservation, "reservation no-show", requestID)

	return reservation, nil
}

// Modify applies a reservation change within the modification window.
func (s *Service) Modify(ctx context.Context, id uuid.UUID, req booking.ModifyRequest, requestID string) (*booking.Reservation, error) {
	reservation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TableID != nil {
		if _, err := s.tableRepo.Get(ctx, *req.TableID); err != nil {
			return nil, fmt.Errorf("table %s: %w", *req.TableID, err)
		}
	}

	event, err := reservation.Modify(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("failed to persist reservation: %w", err)
	}
	s.publish(ctx, event, requestID)

	return reservation, nil
}

// Get returns one reservation by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	return s.repo.Get(ctx, id)
}

// ListByTable returns a table's reservations, oldest scheduled first.
func (s *Service) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*booking.Reservation, error) {
	return s.repo.ListByTable(ctx, tableID)
}

// ListUpcoming returns open reservations scheduled inside the window.
func (s *Service) ListUpcoming(ctx context.Context, from, to time.Time) ([]*booking.Reservation, error) {
	return s.repo.ListUpcoming(ctx, from, to)
}

// freeHeldTable returns a Reserved table to Available when its reservation
// ends without seating. Best effort; failures are logged, not returned.
func (s *Service) freeHeldTable(ctx context.Context, reservation *booking.Reservation, reason, requestID string) {
	table, err := s.tableRepo.Get(ctx, reservation.TableID)
	if err != nil {
		s.logger.Error("table_free_failed", requestID, "Failed to load held table", err, map[string]any{
			"table_id": reservation.TableID.String(),
		})
		return
	}
	if table.Status != dining.StatusReserved || table.CurrentReservationID == nil || *table.CurrentReservationID != reservation.ID {
		return
	}

	event, err := table.ChangeStatus(dining.StatusAvailable, "", reason)
	if err != nil {
		s.logger.Error("table_free_failed", requestID, "Failed to free held table", err, map[string]any{
			"table_id": table.ID.String(),
		})
		return
	}
	if err := s.tableRepo.Update(ctx, table); err != nil {
		s.logger.Error("table_free_failed", requestID, "Failed to persist freed table", err, map[string]any{
			"table_id": table.ID.String(),
		})
		return
	}
	s.publish(ctx, event, requestID)
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
