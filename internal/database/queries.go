package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders DEFAULT VALUES
		RETURNING order_id`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, food_item_id, quantity)
		VALUES ($1, $2, $3)`

	GetOrderTotalSQL = `
		SELECT COALESCE(SUM(oi.quantity * fi.price), 0)
		FROM order_items oi
		JOIN food_items fi ON fi.item_id = oi.food_item_id
		WHERE oi.order_id = $1`
)

// Catalog queries
const (
	GetFoodItemByNameSQL = `
		SELECT item_id, name, price
		FROM food_items
		WHERE name = $1`
)

// Tracking queries
const (
	InsertOrderTrackingSQL = `
		INSERT INTO order_tracking (order_id, status)
		VALUES ($1, $2)`

	GetTrackingStatusSQL = `
		SELECT status
		FROM order_tracking
		WHERE order_id = $1`
)
