package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/database"
	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/booking"
)

// Repository is the persistence boundary for reservations.
type Repository interface {
	Create(ctx context.Context, reservation *booking.Reservation) error
	Update(ctx context.Context, reservation *booking.Reservation) error
	Get(ctx context.Context, id uuid.UUID) (*booking.Reservation, error)
	ListByTable(ctx context.Context, tableID uuid.UUID) ([]*booking.Reservation, error)
	ListUpcoming(ctx context.Context, from, to time.Time) ([]*booking.Reservation, error)
}

// PostgresRepository stores reservations in PostgreSQL. Preferences and the
// modification history are JSONB documents.
type PostgresRepository struct {
	db *database.DB
}

func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, reservation *booking.Reservation) error {
	prefsJSON, modsJSON, err := marshalDocuments(reservation)
	if err != nil {
		return err
	}

	err = r.db.Exec(ctx, database.InsertReservationQuery,
		reservation.ID, reservation.TableID, reservation.CustomerID,
		reservation.ScheduledAt, int64(reservation.Duration), reservation.PartySize, reservation.Status,
		reservation.Contact.Name, reservation.Contact.Phone, reservation.Contact.Email, prefsJSON,
		reservation.ActualPartySize, reservation.WaiterID,
		reservation.ConfirmedAt, reservation.SeatedAt, reservation.CompletedAt, reservation.CancelledAt,
		reservation.CancellationReason, durationPtr(reservation.ActualDuration),
		nullDecimal(reservation.FinalBill), reservation.Rating,
		modsJSON, reservation.CreatedAt, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, reservation *booking.Reservation) error {
	_, modsJSON, err := marshalDocuments(reservation)
	if err != nil {
		return err
	}

	err = r.db.Exec(ctx, database.UpdateReservationQuery,
		reservation.ID,
		reservation.TableID, reservation.ScheduledAt, int64(reservation.Duration),
		reservation.PartySize, reservation.Status,
		reservation.ActualPartySize, reservation.WaiterID,
		reservation.ConfirmedAt, reservation.SeatedAt, reservation.CompletedAt, reservation.CancelledAt,
		reservation.CancellationReason, durationPtr(reservation.ActualDuration),
		nullDecimal(reservation.FinalBill), reservation.Rating,
		modsJSON, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	row := r.db.QueryRow(ctx, database.GetReservationByIDQuery, id)
	state, err := scanReservationState(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return booking.RestoreReservation(state), nil
}

func (r *PostgresRepository) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*booking.Reservation, error) {
	return r.list(ctx, database.ListReservationsByTableQuery, tableID)
}

func (r *PostgresRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]*booking.Reservation, error) {
	return r.list(ctx, database.ListUpcomingReservationsQuery, from, to)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...interface{}) ([]*booking.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var out []*booking.Reservation
	for rows.Next() {
		state, err := scanReservationState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, booking.RestoreReservation(state))
	}
	return out, rows.Err()
}

func scanReservationState(row pgx.Row) (booking.ReservationState, error) {
	var (
		state      booking.ReservationState
		durationNS int64
		actualNS   *int64
		finalBill  decimal.NullDecimal
		prefsJSON  []byte
		modsJSON   []byte
	)
	reservation := &state.Reservation

	err := row.Scan(
		&reservation.ID, &reservation.TableID, &reservation.CustomerID,
		&reservation.ScheduledAt, &durationNS, &reservation.PartySize, &reservation.Status,
		&reservation.Contact.Name, &reservation.Contact.Phone, &reservation.Contact.Email, &prefsJSON,
		&reservation.ActualPartySize, &reservation.WaiterID,
		&reservation.ConfirmedAt, &reservation.SeatedAt, &reservation.CompletedAt, &reservation.CancelledAt,
		&reservation.CancellationReason, &actualNS, &finalBill, &reservation.Rating,
		&modsJSON, &reservation.CreatedAt, &reservation.UpdatedAt,
	)
	if err != nil {
		return state, err
	}

	reservation.Duration = time.Duration(durationNS)
	reservation.ActualDuration = ptrDuration(actualNS)
	if finalBill.Valid {
		bill := finalBill.Decimal
		reservation.FinalBill = &bill
	}

	if err := json.Unmarshal(prefsJSON, &reservation.Preferences); err != nil {
		return state, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if err := json.Unmarshal(modsJSON, &state.Modifications); err != nil {
		return state, fmt.Errorf("failed to decode modifications: %w", err)
	}
	return state, nil
}

func marshalDocuments(reservation *booking.Reservation) (prefsJSON, modsJSON []byte, err error) {
	prefsJSON, err = json.Marshal(reservation.Preferences)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode preferences: %w", err)
	}
	modsJSON, err = json.Marshal(reservation.Modifications())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode modifications: %w", err)
	}
	return prefsJSON, modsJSON, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func durationPtr(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	ns := int64(*d)
	return &ns
}

func ptrDuration(ns *int64) *time.Duration {
	if ns == nil {
		return nil
	}
	d := time.Duration(*ns)
	return &d
}
