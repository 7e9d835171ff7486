package tables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"restaurant-lifecycle/internal/database"
	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/dining"
)

// Repository is the persistence boundary for dining tables.
type Repository interface {
	Create(ctx context.Context, table *dining.Table) error
	Update(ctx context.Context, table *dining.Table) error
	Get(ctx context.Context, id uuid.UUID) (*dining.Table, error)
	GetByNumber(ctx context.Context, number string) (*dining.Table, error)
	List(ctx context.Context) ([]*dining.Table, error)
	ListByStatus(ctx context.Context, status dining.Status) ([]*dining.Table, error)
}

// PostgresRepository stores tables in PostgreSQL. The unique index on the
// table number is what enforces number uniqueness across the floor.
type PostgresRepository struct {
	db *database.DB
}

func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, table *dining.Table) error {
	posX, posY := positionColumns(table.Position)
	err := r.db.Exec(ctx, database.InsertTableQuery,
		table.ID, table.Number, table.Capacity.Seats, table.Status, table.Zone, posX, posY,
		table.Features.Smoking, table.Features.HasView, table.Features.Accessible, table.Active,
		table.CurrentReservationID, table.AssignedWaiterID,
		table.LastCleanedAt, table.LastOccupiedAt,
		int64(table.AverageOccupation), table.TotalReservations, table.TimesOccupied, table.DailyRevenue,
		table.CreatedAt, table.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, table *dining.Table) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	posX, posY := positionColumns(table.Position)
	_, err = tx.Exec(ctx, database.UpdateTableQuery,
		table.ID,
		table.Capacity.Seats, table.Status, table.Zone, posX, posY,
		table.Features.Smoking, table.Features.HasView, table.Features.Accessible, table.Active,
		table.CurrentReservationID, table.AssignedWaiterID,
		table.LastCleanedAt, table.LastOccupiedAt,
		int64(table.AverageOccupation), table.TotalReservations, table.TimesOccupied,
		table.DailyRevenue, table.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}

	for _, record := range table.Maintenance() {
		_, err = tx.Exec(ctx, database.UpsertMaintenanceQuery,
			record.ID, table.ID, record.Type, record.Description, record.PerformedBy,
			record.Cost, record.CompletedAt, record.CreatedAt, record.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert maintenance record: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*dining.Table, error) {
	return r.getOne(ctx, database.GetTableByIDQuery, id)
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (*dining.Table, error) {
	return r.getOne(ctx, database.GetTableByNumberQuery, number)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*dining.Table, error) {
	return r.list(ctx, database.ListTablesQuery)
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status dining.Status) ([]*dining.Table, error) {
	return r.list(ctx, database.ListTablesByStatusQuery, status)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...interface{}) ([]*dining.Table, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var out []*dining.Table
	for rows.Next() {
		state, err := scanTableState(rows)
		if err != nil {
			return nil, err
		}
		maintenance, err := r.loadMaintenance(ctx, state.Table.ID)
		if err != nil {
			return nil, err
		}
		state.Maintenance = maintenance
		out = append(out, dining.RestoreTable(state))
	}
	return out, rows.Err()
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*dining.Table, error) {
	row := r.db.QueryRow(ctx, query, arg)
	state, err := scanTableState(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get table: %w", err)
	}

	maintenance, err := r.loadMaintenance(ctx, state.Table.ID)
	if err != nil {
		return nil, err
	}
	state.Maintenance = maintenance
	return dining.RestoreTable(state), nil
}

func (r *PostgresRepository) loadMaintenance(ctx context.Context, tableID uuid.UUID) ([]dining.Maintenance, error) {
	rows, err := r.db.Query(ctx, database.GetTableMaintenanceQuery, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load maintenance history: %w", err)
	}
	defer rows.Close()

	var out []dining.Maintenance
	for rows.Next() {
		var record dining.Maintenance
		err := rows.Scan(
			&record.ID, &record.Type, &record.Description, &record.PerformedBy,
			&record.Cost, &record.CompletedAt, &record.CreatedAt, &record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan maintenance record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func scanTableState(row pgx.Row) (dining.TableState, error) {
	var (
		state      dining.TableState
		averageNS  int64
		posX, posY *float64
	)
	table := &state.Table

	err := row.Scan(
		&table.ID, &table.Number, &table.Capacity.Seats, &table.Status, &table.Zone, &posX, &posY,
		&table.Features.Smoking, &table.Features.HasView, &table.Features.Accessible, &table.Active,
		&table.CurrentReservationID, &table.AssignedWaiterID,
		&table.LastCleanedAt, &table.LastOccupiedAt,
		&averageNS, &table.TotalReservations, &table.TimesOccupied, &table.DailyRevenue,
		&table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		return state, err
	}

	table.AverageOccupation = time.Duration(averageNS)
	if posX != nil && posY != nil {
		table.Position = &dining.Position{X: *posX, Y: *posY}
	}
	return state, nil
}

func positionColumns(pos *dining.Position) (x, y *float64) {
	if pos == nil {
		return nil, nil
	}
	return &pos.X, &pos.Y
}
