package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodbot/internal/logger"
	"foodbot/internal/models"
	"foodbot/internal/orders"
	"foodbot/internal/session"
)

// Recognized intents. The NLU service appends the active context to the
// display name; the whole string is matched as an opaque key.
const (
	IntentOrderAdd      = "order.add - context: ongoing-order"
	IntentOrderRemove   = "order.remove - context: ongoing-order"
	IntentOrderComplete = "order.complete - context: ongoing-order"
	IntentTrackOrder    = "track.order - context: ongoing-tracking"
)

// User-facing response texts. Every path through the dispatcher ends in
// one of these; no error is ever surfaced as a raw fault.
const (
	MsgInvalidRequest  = "Sorry, there was a problem with your request. Please try again."
	MsgUnknownIntent   = "Sorry, I didn't understand that. Please try again."
	MsgNoOrder         = "I'm having trouble finding your order. Sorry! Can you place a new order please?"
	MsgEmptyOrder      = "Your order is empty. Please add some items from the menu."
	MsgBadAddParams    = "Sorry, I didn't understand the items and quantities. Please try again."
	MsgLengthMismatch  = "Sorry, I didn't understand. Please specify quantities for each food item."
	MsgBadRemoveParams = "Sorry, I didn't understand which items to remove."
	MsgInvalidOrderID  = "Please provide a valid numeric order ID."
	MsgDatabaseError   = "Sorry, I couldn't process your order due to a database error. Please try again later."
	MsgUnexpectedError = "Sorry, an unexpected error occurred. Please try again."
)

// errEmptyDraft guards complete-order against drafts with no items; the
// draft stays in the table so the user can keep adding.
var errEmptyDraft = errors.New("draft is empty")

// OrderService is the commit/tracking surface the dispatcher calls into
type OrderService interface {
	Commit(ctx context.Context, sessionID string, lines []models.DraftLine) (*orders.CommitResult, error)
	TrackingStatus(ctx context.Context, orderID int64) (string, error)
}

// Dispatcher routes decoded intents to their handlers and renders the
// natural-language response.
type Dispatcher struct {
	sessions *session.Table
	orders   OrderService
	logger   *logger.Logger
}

// NewDispatcher creates a new intent dispatcher
func NewDispatcher(sessions *session.Table, orderService OrderService, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		orders:   orderService,
		logger:   log,
	}
}

// Dispatch invokes the handler for a recognized intent and returns the
// response text. Unrecognized intents fall through to an apology.
func (d *Dispatcher) Dispatch(ctx context.Context, intent string, params map[string]interface{}, sessionID, requestID string) string {
	switch intent {
	case IntentOrderAdd:
		return d.addToOrder(params, sessionID, requestID)
	case IntentOrderRemove:
		return d.removeFromOrder(params, sessionID, requestID)
	case IntentOrderComplete:
		return d.completeOrder(ctx, sessionID, requestID)
	case IntentTrackOrder:
		return d.trackOrder(ctx, params, requestID)
	default:
		d.logger.Debug("unknown_intent", "Received unrecognized intent", requestID, map[string]interface{}{
			"intent": intent,
		})
		return MsgUnknownIntent
	}
}

// addToOrder upserts the spoken (item, quantity) pairs into the
// session's draft. A repeated item name overwrites its quantity: the
// rendered "so far you have" total is the new amount, not a sum.
func (d *Dispatcher) addToOrder(params map[string]interface{}, sessionID, requestID string) string {
	decoded, err := decodeAddParams(params)
	if err != nil {
		d.logger.Debug("add_params_invalid", "Could not decode add-to-order parameters", requestID, map[string]interface{}{
			"session_id": sessionID,
		})
		if errors.Is(err, errLengthMismatch) {
			return MsgLengthMismatch
		}
		return MsgBadAddParams
	}

	var orderStr string
	d.sessions.Upsert(sessionID, func(draft *session.Draft) {
		for i, name := range decoded.Names {
			draft.Set(name, decoded.Quantities[i])
		}
		orderStr = draft.String()
	})

	return fmt.Sprintf("So far you have: %s. Do you need anything else?", orderStr)
}

// removeFromOrder deletes the named items from the session's draft and
// reports, in order, what was removed, what was never there, and what
// remains.
func (d *Dispatcher) removeFromOrder(params map[string]interface{}, sessionID, requestID string) string {
	if !d.sessions.Contains(sessionID) {
		return MsgNoOrder
	}

	decoded, err := decodeRemoveParams(params)
	if err != nil {
		d.logger.Debug("remove_params_invalid", "Could not decode remove-from-order parameters", requestID, map[string]interface{}{
			"session_id": sessionID,
		})
		return MsgBadRemoveParams
	}

	var removed, noSuch []string
	var remaining string
	var empty bool

	found := d.sessions.Modify(sessionID, func(draft *session.Draft) {
		for _, name := range decoded.Names {
			if draft.Remove(name) {
				removed = append(removed, name)
			} else {
				noSuch = append(noSuch, name)
			}
		}
		empty = draft.Empty()
		remaining = draft.String()
	})
	if !found {
		// The draft was committed or expired between the existence
		// check and the mutation.
		return MsgNoOrder
	}

	var b strings.Builder
	if len(removed) > 0 {
		fmt.Fprintf(&b, "Removed %s from your order! ", strings.Join(removed, ", "))
	}
	if len(noSuch) > 0 {
		fmt.Fprintf(&b, "Your current order does not have %s. ", strings.Join(noSuch, ", "))
	}
	if empty {
		b.WriteString("Your order is empty!")
	} else {
		fmt.Fprintf(&b, "Here is what is left in your order: %s", remaining)
	}
	return b.String()
}

// completeOrder runs the commit protocol while holding the session's
// entry, so a concurrent add or remove on the same session cannot
// interleave with the in-flight commit. The draft is removed only when
// the whole protocol succeeds; on any failure it stays intact so the
// user does not have to re-enter the order.
func (d *Dispatcher) completeOrder(ctx context.Context, sessionID, requestID string) string {
	var result *orders.CommitResult

	found, err := d.sessions.Commit(sessionID, func(draft *session.Draft) error {
		if draft.Empty() {
			return errEmptyDraft
		}
		var commitErr error
		result, commitErr = d.orders.Commit(ctx, sessionID, draft.Lines())
		return commitErr
	})

	if !found {
		return MsgNoOrder
	}

	switch {
	case err == nil:
		return fmt.Sprintf(
			"Awesome. We have placed your order. Here is your order id # %d. Your order total is ₹%.2f which you can pay at the time of delivery!",
			result.OrderID, result.Total)
	case errors.Is(err, errEmptyDraft):
		return MsgEmptyOrder
	default:
		if unknownItem, ok := orders.AsUnknownItem(err); ok {
			d.logger.Debug("commit_unknown_item", "Order commit aborted on unknown item", requestID, map[string]interface{}{
				"session_id": sessionID,
				"item":       unknownItem.Name,
			})
			return fmt.Sprintf("Sorry, an item in your order is not on the menu: %s. Please start a new order.", unknownItem.Name)
		}
		d.logger.Error("commit_failed", "Order commit failed", requestID, err, map[string]interface{}{
			"session_id": sessionID,
		})
		return MsgDatabaseError
	}
}

// trackOrder looks up the fulfillment status for an order id. It is
// read-only and never touches the session table.
func (d *Dispatcher) trackOrder(ctx context.Context, params map[string]interface{}, requestID string) string {
	decoded, err := decodeTrackParams(params)
	if err != nil {
		d.logger.Debug("track_params_invalid", "Missing or non-numeric order_id", requestID, nil)
		return MsgInvalidOrderID
	}

	status, err := d.orders.TrackingStatus(ctx, decoded.OrderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return fmt.Sprintf("No order found with order id: %d", decoded.OrderID)
		}
		d.logger.Error("tracking_lookup_failed", "Failed to look up tracking status", requestID, err, map[string]interface{}{
			"order_id": decoded.OrderID,
		})
		return MsgUnexpectedError
	}

	return fmt.Sprintf("The order status for order id: %d is: %s", decoded.OrderID, strings.ToUpper(status))
}
