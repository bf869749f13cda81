package models

import "time"

// OrderPlacedEvent is published to the orders exchange after a
// successful commit so downstream fulfillment can pick the order up.
type OrderPlacedEvent struct {
	OrderID   int64       `json:"order_id"`
	SessionID string      `json:"session_id"`
	Items     []DraftLine `json:"items"`
	Total     float64     `json:"total"`
	PlacedAt  time.Time   `json:"placed_at"`
}

// NewOrderPlacedEvent builds the event for a freshly committed order
func NewOrderPlacedEvent(orderID int64, sessionID string, items []DraftLine, total float64) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		OrderID:   orderID,
		SessionID: sessionID,
		Items:     items,
		Total:     total,
		PlacedAt:  time.Now().UTC(),
	}
}
