package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"foodbot/internal/database"
	"foodbot/internal/models"
)

// Repository persists committed orders in PostgreSQL
type Repository struct {
	db *database.DB
}

// NewRepository creates a new order repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// PlaceOrder persists a draft as an order in a single transaction:
// the order row, one line per draft item, and the initial tracking
// record. Every item name is resolved against the menu inside the same
// transaction; an unresolvable name rolls the whole order back and
// returns UnknownItemError, leaving no partial rows behind.
func (r *Repository) PlaceOrder(ctx context.Context, lines []models.DraftLine) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int64
	if err := tx.QueryRow(ctx, database.InsertOrderSQL).Scan(&orderID); err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range lines {
		var item models.FoodItem
		err := tx.QueryRow(ctx, database.GetFoodItemByNameSQL, line.Name).
			Scan(&item.ID, &item.Name, &item.Price)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, &UnknownItemError{Name: line.Name}
			}
			return 0, fmt.Errorf("failed to resolve item %q: %w", line.Name, err)
		}

		if _, err := tx.Exec(ctx, database.InsertOrderItemSQL, orderID, item.ID, line.Quantity); err != nil {
			return 0, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, database.InsertOrderTrackingSQL, orderID, models.StatusInProgress); err != nil {
		return 0, fmt.Errorf("failed to insert tracking record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return orderID, nil
}

// OrderTotal computes the order's price as the sum of quantity times
// the item's current menu price. The total is never stored, so menu
// price changes cannot leave a stale amount behind.
func (r *Repository) OrderTotal(ctx context.Context, orderID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, database.GetOrderTotalSQL, orderID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to query order total: %w", err)
	}
	return total, nil
}

// TrackingStatus returns the fulfillment status for an order
func (r *Repository) TrackingStatus(ctx context.Context, orderID int64) (string, error) {
	var status string
	err := r.db.QueryRow(ctx, database.GetTrackingStatusSQL, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrOrderNotFound
		}
		return "", fmt.Errorf("failed to query tracking status: %w", err)
	}
	return status, nil
}
