package orders

import (
	"context"
	"fmt"

	"foodbot/internal/logger"
	"foodbot/internal/models"
)

// Store is the persistence surface the commit protocol runs against
type Store interface {
	PlaceOrder(ctx context.Context, lines []models.DraftLine) (int64, error)
	OrderTotal(ctx context.Context, orderID int64) (float64, error)
	TrackingStatus(ctx context.Context, orderID int64) (string, error)
}

// EventPublisher announces committed orders to downstream services
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// CommitResult describes a successfully committed order
type CommitResult struct {
	OrderID int64
	Total   float64
}

// Service runs the order commit protocol against the store
type Service struct {
	store     Store
	publisher EventPublisher
	logger    *logger.Logger
}

// NewService creates a new order service
func NewService(store Store, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    log,
	}
}

// Commit persists the draft lines as an order with an initial tracking
// record, computes the total from the store, and publishes an
// order-placed event. The store write is all-or-nothing; the event
// publish is best effort and never fails a committed order.
func (s *Service) Commit(ctx context.Context, sessionID string, lines []models.DraftLine) (*CommitResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("cannot commit an empty draft")
	}

	orderID, err := s.store.PlaceOrder(ctx, lines)
	if err != nil {
		return nil, err
	}

	total, err := s.store.OrderTotal(ctx, orderID)
	if err != nil {
		// The order is already durable at this point; surface the
		// error so the caller can apologize, but log which order
		// was left without a rendered total.
		s.logger.Error("order_total_failed", "Failed to compute order total", "", err, map[string]interface{}{
			"order_id":   orderID,
			"session_id": sessionID,
		})
		return nil, err
	}

	if s.publisher != nil {
		event := models.NewOrderPlacedEvent(orderID, sessionID, lines, total)
		if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
			s.logger.Error("order_event_failed", "Failed to publish order placed event", "", err, map[string]interface{}{
				"order_id":   orderID,
				"session_id": sessionID,
			})
		}
	}

	return &CommitResult{OrderID: orderID, Total: total}, nil
}

// TrackingStatus returns the fulfillment status for an order id
func (s *Service) TrackingStatus(ctx context.Context, orderID int64) (string, error) {
	return s.store.TrackingStatus(ctx, orderID)
}
