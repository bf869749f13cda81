package models

import "time"

// Tracking statuses. "in progress" is written at commit time; later
// transitions come from fulfillment processes outside this service.
const (
	StatusInProgress = "in progress"
)

// FoodItem is a menu entry resolved by the catalog lookup
type FoodItem struct {
	ID    int64   `json:"item_id" db:"item_id"`
	Name  string  `json:"name" db:"name"`
	Price float64 `json:"price" db:"price"`
}

// DraftLine is one item of a not-yet-committed draft order
type DraftLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderLine is one persisted line of a committed order
type OrderLine struct {
	OrderID    int64 `json:"order_id" db:"order_id"`
	FoodItemID int64 `json:"food_item_id" db:"food_item_id"`
	Quantity   int   `json:"quantity" db:"quantity"`
}

// Tracking is the one-row-per-order fulfillment status
type Tracking struct {
	OrderID   int64     `json:"order_id" db:"order_id"`
	Status    string    `json:"status" db:"status"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
