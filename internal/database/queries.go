package database

// SQL queries used by the repositories

const (
	// Kitchen order queries
	InsertOrderQuery = `
		INSERT INTO orders (
			id, number, table_id, customer_id, waiter_id, chef_id,
			type, status, priority, priority_overridden, section,
			ordered_at, accepted_at, started_at, ready_at, served_at, completed_at, cancelled_at,
			estimated_preparation_ns, actual_preparation_ns, estimated_ready_at, total_service_ns,
			subtotal, discount, total, tip, discount_reason,
			allergens, dietary_restrictions,
			cancellation_reason, rating, feedback, notes,
			action_log, item_modifications,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22,
			$23, $24, $25, $26, $27,
			$28, $29,
			$30, $31, $32, $33,
			$34, $35,
			$36, $37
		)`

	UpdateOrderQuery = `
		UPDATE orders SET
			waiter_id = $2, chef_id = $3,
			status = $4, priority = $5, priority_overridden = $6, section = $7,
			accepted_at = $8, started_at = $9, ready_at = $10, served_at = $11,
			completed_at = $12, cancelled_at = $13,
			estimated_preparation_ns = $14, actual_preparation_ns = $15,
			estimated_ready_at = $16, total_service_ns = $17,
			subtotal = $18, discount = $19, total = $20, tip = $21, discount_reason = $22,
			allergens = $23, dietary_restrictions = $24,
			cancellation_reason = $25, rating = $26, feedback = $27, notes = $28,
			action_log = $29, item_modifications = $30,
			updated_at = $31
		WHERE id = $1`

	GetOrderByIDQuery = `
		SELECT id, number, table_id, customer_id, waiter_id, chef_id,
			type, status, priority, priority_overridden, section,
			ordered_at, accepted_at, started_at, ready_at, served_at, completed_at, cancelled_at,
			estimated_preparation_ns, actual_preparation_ns, estimated_ready_at, total_service_ns,
			subtotal, discount, total, tip, discount_reason,
			allergens, dietary_restrictions,
			cancellation_reason, rating, feedback, notes,
			action_log, item_modifications,
			created_at, updated_at
		FROM orders
		WHERE id = $1`

	GetOrderByNumberQuery = `
		SELECT id, number, table_id, customer_id, waiter_id, chef_id,
			type, status, priority, priority_overridden, section,
			ordered_at, accepted_at, started_at, ready_at, served_at, completed_at, cancelled_at,
			estimated_preparation_ns, actual_preparation_ns, estimated_ready_at, total_service_ns,
			subtotal, discount, total, tip, discount_reason,
			allergens, dietary_restrictions,
			cancellation_reason, rating, feedback, notes,
			action_log, item_modifications,
			created_at, updated_at
		FROM orders
		WHERE number = $1`

	ListOrdersByStatusQuery = `
		SELECT id, number, table_id, customer_id, waiter_id, chef_id,
			type, status, priority, priority_overridden, section,
			ordered_at, accepted_at, started_at, ready_at, served_at, completed_at, cancelled_at,
			estimated_preparation_ns, actual_preparation_ns, estimated_ready_at, total_service_ns,
			subtotal, discount, total, tip, discount_reason,
			allergens, dietary_restrictions,
			cancellation_reason, rating, feedback, notes,
			action_log, item_modifications,
			created_at, updated_at
		FROM orders
		WHERE status = $1
		ORDER BY ordered_at`

	DeleteOrderItemsQuery = `DELETE FROM order_items WHERE order_id = $1`

	InsertOrderItemQuery = `
		INSERT INTO order_items (
			id, order_id, menu_item_id, name, unit_price, quantity,
			status, section, special_requests, allergens, dietary_restrictions,
			modifications, complicated, urgent, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)`

	GetOrderItemsQuery = `
		SELECT id, menu_item_id, name, unit_price, quantity,
			status, section, special_requests, allergens, dietary_restrictions,
			modifications, complicated, urgent, created_at, updated_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`

	// Dining table queries
	InsertTableQuery = `
		INSERT INTO dining_tables (
			id, number, seats, status, zone, position_x, position_y,
			smoking, has_view, accessible, active,
			current_reservation_id, assigned_waiter_id,
			last_cleaned_at, last_occupied_at,
			average_occupation_ns, total_reservations, times_occupied, daily_revenue,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13,
			$14, $15,
			$16, $17, $18, $19,
			$20, $21
		)`

	UpdateTableQuery = `
		UPDATE dining_tables SET
			seats = $2, status = $3, zone = $4, position_x = $5, position_y = $6,
			smoking = $7, has_view = $8, accessible = $9, active = $10,
			current_reservation_id = $11, assigned_waiter_id = $12,
			last_cleaned_at = $13, last_occupied_at = $14,
			average_occupation_ns = $15, total_reservations = $16, times_occupied = $17,
			daily_revenue = $18, updated_at = $19
		WHERE id = $1`

	GetTableByIDQuery = `
		SELECT id, number, seats, status, zone, position_x, position_y,
			smoking, has_view, accessible, active,
			current_reservation_id, assigned_waiter_id,
			last_cleaned_at, last_occupied_at,
			average_occupation_ns, total_reservations, times_occupied, daily_revenue,
			created_at, updated_at
		FROM dining_tables
		WHERE id = $1`

	GetTableByNumberQuery = `
		SELECT id, number, seats, status, zone, position_x, position_y,
			smoking, has_view, accessible, active,
			current_reservation_id, assigned_waiter_id,
			last_cleaned_at, last_occupied_at,
			average_occupation_ns, total_reservations, times_occupied, daily_revenue,
			created_at, updated_at
		FROM dining_tables
		WHERE number = $1`

	ListTablesQuery = `
		SELECT id, number, seats, status, zone, position_x, position_y,
			smoking, has_view, accessible, active,
			current_reservation_id, assigned_waiter_id,
			last_cleaned_at, last_occupied_at,
			average_occupation_ns, total_reservations, times_occupied, daily_revenue,
			created_at, updated_at
		FROM dining_tables
		ORDER BY number`

	ListTablesByStatusQuery = `
		SELECT id, number, seats, status, zone, position_x, position_y,
			smoking, has_view, accessible, active,
			current_reservation_id, assigned_waiter_id,
			last_cleaned_at, last_occupied_at,
			average_occupation_ns, total_reservations, times_occupied, daily_revenue,
			created_at, updated_at
		FROM dining_tables
		WHERE status = $1
		ORDER BY number`

	UpsertMaintenanceQuery = `
		INSERT INTO table_maintenance (
			id, table_id, type, description, performed_by, cost, completed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			performed_by = EXCLUDED.performed_by,
			cost = EXCLUDED.cost,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at`

	GetTableMaintenanceQuery = `
		SELECT id, type, description, performed_by, cost, completed_at,
			created_at, updated_at
		FROM table_maintenance
		WHERE table_id = $1
		ORDER BY created_at`

	// Reservation queries
	InsertReservationQuery = `
		INSERT INTO reservations (
			id, table_id, customer_id, scheduled_at, duration_ns, party_size, status,
			contact_name, contact_phone, contact_email, preferences,
			actual_party_size, waiter_id,
			confirmed_at, seated_at, completed_at, cancelled_at,
			cancellation_reason, actual_duration_ns, final_bill, rating,
			modifications, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24
		)`

	UpdateReservationQuery = `
		UPDATE reservations SET
			table_id = $2, scheduled_at = $3, duration_ns = $4, party_size = $5, status = $6,
			actual_party_size = $7, waiter_id = $8,
			confirmed_at = $9, seated_at = $10, completed_at = $11, cancelled_at = $12,
			cancellation_reason = $13, actual_duration_ns = $14, final_bill = $15, rating = $16,
			modifications = $17, updated_at = $18
		WHERE id = $1`

	GetReservationByIDQuery = `
		SELECT id, table_id, customer_id, scheduled_at, duration_ns, party_size, status,
			contact_name, contact_phone, contact_email, preferences,
			actual_party_size, waiter_id,
			confirmed_at, seated_at, completed_at, cancelled_at,
			cancellation_reason, actual_duration_ns, final_bill, rating,
			modifications, created_at, updated_at
		FROM reservations
		WHERE id = $1`

	ListReservationsByTableQuery = `
		SELECT id, table_id, customer_id, scheduled_at, duration_ns, party_size, status,
			contact_name, contact_phone, contact_email, preferences,
			actual_party_size, waiter_id,
			confirmed_at, seated_at, completed_at, cancelled_at,
			cancellation_reason, actual_duration_ns, final_bill, rating,
			modifications, created_at, updated_at
		FROM reservations
		WHERE table_id = $1
		ORDER BY scheduled_at`

	ListUpcomingReservationsQuery = `
		SELECT id, table_id, customer_id, scheduled_at, duration_ns, party_size, status,
			contact_name, contact_phone, contact_email, preferences,
			actual_party_size, waiter_id,
			confirmed_at, seated_at, completed_at, cancelled_at,
			cancellation_reason, actual_duration_ns, final_bill, rating,
			modifications, created_at, updated_at
		FROM reservations
		WHERE status IN ('pending', 'confirmed') AND scheduled_at BETWEEN $1 AND $2
		ORDER BY scheduled_at`
)
