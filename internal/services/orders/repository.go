package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"restaurant-lifecycle/internal/database"
	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/kitchen"
)

// Repository is the persistence boundary for kitchen orders.
type Repository interface {
	Create(ctx context.Context, order *kitchen.Order) error
	Update(ctx context.Context, order *kitchen.Order) error
	Get(ctx context.Context, id uuid.UUID) (*kitchen.Order, error)
	GetByNumber(ctx context.Context, number string) (*kitchen.Order, error)
	ListByStatus(ctx context.Context, status kitchen.Status) ([]*kitchen.Order, error)
}

// PostgresRepository stores orders in PostgreSQL. Line items live in their
// own table; the action log and modification history are JSONB documents.
type PostgresRepository struct {
	db *database.DB
}

func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, order *kitchen.Order) error {
	logJSON, modsJSON, err := marshalHistory(order)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, database.InsertOrderQuery,
		order.ID, order.Number, order.TableID, order.CustomerID, order.WaiterID, order.ChefID,
		order.Type, order.Status, order.Priority, order.PriorityOverridden(), order.Section,
		order.OrderedAt, order.AcceptedAt, order.StartedAt, order.ReadyAt, order.ServedAt, order.CompletedAt, order.CancelledAt,
		int64(order.EstimatedPreparation), durationPtr(order.ActualPreparation), order.EstimatedReadyAt, durationPtr(order.TotalServiceTime),
		order.Subtotal, order.Discount, order.Total, order.Tip, order.DiscountReason,
		textArray(order.Allergens), textArray(order.DietaryRestrictions),
		order.CancellationReason, order.Rating, order.Feedback, order.Notes,
		logJSON, modsJSON,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if err := insertItems(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) Update(ctx context.Context, order *kitchen.Order) error {
	logJSON, modsJSON, err := marshalHistory(order)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, database.UpdateOrderQuery,
		order.ID,
		order.WaiterID, order.ChefID,
		order.Status, order.Priority, order.PriorityOverridden(), order.Section,
		order.AcceptedAt, order.StartedAt, order.ReadyAt, order.ServedAt,
		order.CompletedAt, order.CancelledAt,
		int64(order.EstimatedPreparation), durationPtr(order.ActualPreparation),
		order.EstimatedReadyAt, durationPtr(order.TotalServiceTime),
		order.Subtotal, order.Discount, order.Total, order.Tip, order.DiscountReason,
		textArray(order.Allergens), textArray(order.DietaryRestrictions),
		order.CancellationReason, order.Rating, order.Feedback, order.Notes,
		logJSON, modsJSON,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	// Items are rewritten wholesale; adds and removes are rare and small.
	if _, err := tx.Exec(ctx, database.DeleteOrderItemsQuery, order.ID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	if err := insertItems(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*kitchen.Order, error) {
	return r.getOne(ctx, database.GetOrderByIDQuery, id)
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (*kitchen.Order, error) {
	return r.getOne(ctx, database.GetOrderByNumberQuery, number)
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status kitchen.Status) ([]*kitchen.Order, error) {
	rows, err := r.db.Query(ctx, database.ListOrdersByStatusQuery, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*kitchen.Order
	for rows.Next() {
		state, err := scanOrderState(rows)
		if err != nil {
			return nil, err
		}
		items, err := r.loadItems(ctx, state.Order.ID)
		if err != nil {
			return nil, err
		}
		state.Items = items
		orders = append(orders, kitchen.RestoreOrder(state))
	}
	return orders, rows.Err()
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*kitchen.Order, error) {
	row := r.db.QueryRow(ctx, query, arg)
	state, err := scanOrderState(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.loadItems(ctx, state.Order.ID)
	if err != nil {
		return nil, err
	}
	state.Items = items
	return kitchen.RestoreOrder(state), nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]kitchen.Item, error) {
	rows, err := r.db.Query(ctx, database.GetOrderItemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []kitchen.Item
	for rows.Next() {
		var item kitchen.Item
		err := rows.Scan(
			&item.ID, &item.MenuItemID, &item.Name, &item.UnitPrice, &item.Quantity,
			&item.Status, &item.Section, &item.SpecialRequests, &item.Allergens, &item.DietaryRestrictions,
			&item.Modifications, &item.Complicated, &item.Urgent, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrderState(row pgx.Row) (kitchen.OrderState, error) {
	var (
		state          kitchen.OrderState
		estimatedNS    int64
		actualNS       *int64
		totalServiceNS *int64
		logJSON        []byte
		modsJSON       []byte
	)
	order := &state.Order

	err := row.Scan(
		&order.ID, &order.Number, &order.TableID, &order.CustomerID, &order.WaiterID, &order.ChefID,
		&order.Type, &order.Status, &order.Priority, &state.PriorityOverridden, &order.Section,
		&order.OrderedAt, &order.AcceptedAt, &order.StartedAt, &order.ReadyAt, &order.ServedAt, &order.CompletedAt, &order.CancelledAt,
		&estimatedNS, &actualNS, &order.EstimatedReadyAt, &totalServiceNS,
		&order.Subtotal, &order.Discount, &order.Total, &order.Tip, &order.DiscountReason,
		&order.Allergens, &order.DietaryRestrictions,
		&order.CancellationReason, &order.Rating, &order.Feedback, &order.Notes,
		&logJSON, &modsJSON,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return state, err
	}

	order.EstimatedPreparation = time.Duration(estimatedNS)
	order.ActualPreparation = ptrDuration(actualNS)
	order.TotalServiceTime = ptrDuration(totalServiceNS)

	if err := json.Unmarshal(logJSON, &state.Log); err != nil {
		return state, fmt.Errorf("failed to decode action log: %w", err)
	}
	if err := json.Unmarshal(modsJSON, &state.Modifications); err != nil {
		return state, fmt.Errorf("failed to decode modifications: %w", err)
	}
	return state, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, order *kitchen.Order) error {
	for _, item := range order.Items() {
		_, err := tx.Exec(ctx, database.InsertOrderItemQuery,
			item.ID, order.ID, item.MenuItemID, item.Name, item.UnitPrice, item.Quantity,
			item.Status, item.Section, textArray(item.SpecialRequests), textArray(item.Allergens),
			textArray(item.DietaryRestrictions), textArray(item.Modifications),
			item.Complicated, item.Urgent, item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item %s: %w", item.Name, err)
		}
	}
	return nil
}

func marshalHistory(order *kitchen.Order) (logJSON, modsJSON []byte, err error) {
	logJSON, err = json.Marshal(order.Log())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode action log: %w", err)
	}
	modsJSON, err = json.Marshal(order.Modifications())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode modifications: %w", err)
	}
	return logJSON, modsJSON, nil
}

func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
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
