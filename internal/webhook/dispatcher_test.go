package webhook

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"foodbot/internal/logger"
	"foodbot/internal/models"
	"foodbot/internal/orders"
	"foodbot/internal/session"
)

type fakeOrderService struct {
	commitResult *orders.CommitResult
	commitErr    error
	commitCalls  [][]models.DraftLine
	statuses     map[int64]string
	statusErr    error
	trackCalls   int
}

func (f *fakeOrderService) Commit(ctx context.Context, sessionID string, lines []models.DraftLine) (*orders.CommitResult, error) {
	f.commitCalls = append(f.commitCalls, lines)
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	return f.commitResult, nil
}

func (f *fakeOrderService) TrackingStatus(ctx context.Context, orderID int64) (string, error) {
	f.trackCalls++
	if f.statusErr != nil {
		return "", f.statusErr
	}
	status, ok := f.statuses[orderID]
	if !ok {
		return "", orders.ErrOrderNotFound
	}
	return status, nil
}

func newTestDispatcher(svc OrderService) (*Dispatcher, *session.Table) {
	sessions := session.New(0)
	return NewDispatcher(sessions, svc, logger.New("test")), sessions
}

func addParams(names []interface{}, numbers []interface{}) map[string]interface{} {
	return map[string]interface{}{"food-item": names, "number": numbers}
}

func TestDispatchUnknownIntent(t *testing.T) {
	d, _ := newTestDispatcher(&fakeOrderService{})

	got := d.Dispatch(context.Background(), "smalltalk.greetings", map[string]interface{}{}, "s1", "req")
	if got != MsgUnknownIntent {
		t.Errorf("Dispatch() = %q, want %q", got, MsgUnknownIntent)
	}
}

func TestAddToOrder(t *testing.T) {
	d, sessions := newTestDispatcher(&fakeOrderService{})

	got := d.Dispatch(context.Background(), IntentOrderAdd,
		addParams([]interface{}{"pizza", "samosa"}, []interface{}{2.0, 3.0}), "s1", "req")
	want := "So far you have: 2 pizza, 3 samosa. Do you need anything else?"
	if got != want {
		t.Fatalf("add = %q, want %q", got, want)
	}

	// Repeating an item overwrites its quantity
	got = d.Dispatch(context.Background(), IntentOrderAdd,
		addParams([]interface{}{"pizza"}, []interface{}{5.0}), "s1", "req")
	want = "So far you have: 5 pizza, 3 samosa. Do you need anything else?"
	if got != want {
		t.Fatalf("add overwrite = %q, want %q", got, want)
	}

	if !sessions.Contains("s1") {
		t.Errorf("draft missing after add")
	}
}

func TestAddToOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		want   string
	}{
		{
			name:   "length mismatch",
			params: addParams([]interface{}{"pizza", "samosa"}, []interface{}{2.0}),
			want:   MsgLengthMismatch,
		},
		{
			name:   "missing quantities",
			params: map[string]interface{}{"food-item": []interface{}{"pizza"}},
			want:   MsgBadAddParams,
		},
		{
			name:   "non-list items",
			params: map[string]interface{}{"food-item": "pizza", "number": []interface{}{2.0}},
			want:   MsgBadAddParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, sessions := newTestDispatcher(&fakeOrderService{})
			got := d.Dispatch(context.Background(), IntentOrderAdd, tt.params, "s1", "req")
			if got != tt.want {
				t.Errorf("add = %q, want %q", got, tt.want)
			}
			if sessions.Contains("s1") {
				t.Errorf("failed add mutated the session table")
			}
		})
	}
}

func TestRemoveFromOrder(t *testing.T) {
	d, _ := newTestDispatcher(&fakeOrderService{})
	d.Dispatch(context.Background(), IntentOrderAdd,
		addParams([]interface{}{"pizza", "samosa"}, []interface{}{2.0, 3.0}), "s1", "req")

	got := d.Dispatch(context.Background(), IntentOrderRemove,
		map[string]interface{}{"food-item": []interface{}{"pizza", "biryani"}}, "s1", "req")
	want := "Removed pizza from your order! Your current order does not have biryani. Here is what is left in your order: 3 samosa"
	if got != want {
		t.Fatalf("remove = %q, want %q", got, want)
	}

	got = d.Dispatch(context.Background(), IntentOrderRemove,
		map[string]interface{}{"food-item": []interface{}{"samosa"}}, "s1", "req")
	want = "Removed samosa from your order! Your order is empty!"
	if got != want {
		t.Errorf("remove last = %q, want %q", got, want)
	}
}

func TestRemoveFromOrderWithoutSession(t *testing.T) {
	d, sessions := newTestDispatcher(&fakeOrderService{})

	got := d.Dispatch(context.Background(), IntentOrderRemove,
		map[string]interface{}{"food-item": []interface{}{"pizza"}}, "s1", "req")
	if got != MsgNoOrder {
		t.Errorf("remove = %q, want %q", got, MsgNoOrder)
	}
	if sessions.Contains("s1") {
		t.Errorf("remove created a session for an unknown id")
	}
}

func TestRemoveFromOrderBadParams(t *testing.T) {
	d, _ := newTestDispatcher(&fakeOrderService{})
	d.Dispatch(context.Background(), IntentOrderAdd,
		addParams([]interface{}{"pizza"}, []interface{}{2.0}), "s1", "req")

	got := d.Dispatch(context.Background(), IntentOrderRemove, map[string]interface{}{}, "s1", "req")
	if got != MsgBadRemoveParams {
		t.Errorf("remove = %q, want %q", got, MsgBadRemoveParams)
	}
}

func TestCompleteOrderSuccess(t *testing.T) {
	svc := &fakeOrderService{commitResult: &orders.CommitResult{OrderID: 41, Total: 12.5}}
	d, sessions := newTestDispatcher(svc)
	d.Dispatch(context.Background(), IntentOrderAdd,
		addParams([]interface{}{"pizza", "samosa"}, []interface{}{2.0, 1.0}), "s1", "req")

	got := d.Dispatch(context.Background(), IntentOrderComplete, map[string]interface{}{}, "s1", "req")
	if !strings.Contains(got, "order id # 41") || !strings.Contains(got, "₹12.50") {
		t.Fatalf("complete = %q, want order id 41 and total ₹12.50", got)
	}

	if len(svc.commitCalls) != 1 {
		t.Fatalf("Commit called %d times, want 1", len(svc.commitCalls))
	}
	lines := svc.commitCalls[0]
	if len(lines) != 2 || lines[0].Name != "pizza" || lines[0].Quantity != 2 || lines[1].Name != "samosa" {
		t.Errorf("committed lines = %+v", lines)
	}

	if sessions.Contains("s1") {
		t.Errorf("draft survived a successful commit")
	}
	// Subsequent complete behaves as "no order"
	if got := d.Dispatch(context.Background(), IntentOrderComplete, map[string]interface{}{}, "s1", "req"); got != MsgNoOrder {
		t.Errorf("second complete = %q, want %q", got, MsgNoOrder)
	}
}

func TestCompleteOrderWithoutSession(t *testing.T) {
	svc := &fakeOrderService{}
	d, _ := newTestDispatcher(svc)

	got := d.Dispatch(context.Background(), IntentOrderComplete, map[string]interface{}{}, "s1", "req")
	if got != MsgNoOrder {
		t.Errorf("complete = %q, want %q", got, MsgNoOrder)
	}
	if len(svc.commitCalls) != 0 {
		t.Errorf("Commit reached the store for a missing session")
	}
}

func TestCompleteOrderEmptyDraft(t *testing.T) {
	svc := &fakeOrderService{}
	d, sessions := newTestDispatcher(svc)
	sessions.Upsert("s1", func(draft *session.Draft) {})

	got := d.Dispatch(context.Background(), IntentOrderComplete, map[string]interface{}{}, "s1", "req")
	if got != MsgEmptyOrder {
		t.Errorf("complete = %q, want %q", got, MsgEmptyOrder)
	}
	if len(svc.commitCalls) != 0 {
		t.Errorf("Commit reached the store for an empty draft")
	}
	if !sessions.Contains("s1") {
		t.Errorf("empty-draft guard removed the session")
	}
}

func TestCompleteOrderUnknownItem(t *testing.T) {
	svc := &fakeOrderService{commitErr: &orders.UnknownItemError{Name: "unicorn pie"}}
	d, sessions := newTestDispatcher(svc)
	d.Dispatch(context.Background(), IntentOrderAdd,
		addParams([]interface{}{"unicorn pie"}, []interface{}{1.0}), "s1", "req")

	got := d.Dispatch(context.Background(), IntentOrderComplete, map[string]interface{}{}, "s1", "req")
	want := "Sorry, an item in your order is not on the menu: unicorn pie. Please start a new order."
	if got != want {
		t.Fatalf("complete = %q, want %q", got, want)
	}
	if !sessions.Contains("s1") {
		t.Errorf("draft dropped on unknown-item failure; it must be preserved for correction")
	}
}

func TestCompleteOrderStorageFailure(t *testing.T) {
	svc := &fakeOrderService{commitErr: errors.New("connection refused")}
	d, sessions := newTestDispatcher(svc)
	d.Dispatch(context.Background(), IntentOrderAdd,
		addParams([]interface{}{"pizza"}, []interface{}{2.0}), "s1", "req")

	got := d.Dispatch(context.Background(), IntentOrderComplete, map[string]interface{}{}, "s1", "req")
	if got != MsgDatabaseError {
		t.Fatalf("complete = %q, want %q", got, MsgDatabaseError)
	}

	var q int
	if !sessions.Modify("s1", func(draft *session.Draft) { q, _ = draft.Quantity("pizza") }) {
		t.Fatalf("draft gone after storage failure")
	}
	if q != 2 {
		t.Errorf("draft changed after storage failure: quantity = %d, want 2", q)
	}
}

func TestTrackOrder(t *testing.T) {
	svc := &fakeOrderService{statuses: map[int64]string{41: "in progress"}}
	d, _ := newTestDispatcher(svc)

	got := d.Dispatch(context.Background(), IntentTrackOrder,
		map[string]interface{}{"order_id": 41.0}, "s1", "req")
	want := "The order status for order id: 41 is: IN PROGRESS"
	if got != want {
		t.Errorf("track = %q, want %q", got, want)
	}

	got = d.Dispatch(context.Background(), IntentTrackOrder,
		map[string]interface{}{"order_id": 7.0}, "s1", "req")
	want = "No order found with order id: 7"
	if got != want {
		t.Errorf("track missing = %q, want %q", got, want)
	}
}

func TestTrackOrderInvalidIDNeverReachesStore(t *testing.T) {
	svc := &fakeOrderService{statuses: map[int64]string{41: "in progress"}}
	d, _ := newTestDispatcher(svc)

	for _, params := range []map[string]interface{}{
		{"order_id": "41"},
		{},
	} {
		got := d.Dispatch(context.Background(), IntentTrackOrder, params, "s1", "req")
		if got != MsgInvalidOrderID {
			t.Errorf("track(%v) = %q, want %q", params, got, MsgInvalidOrderID)
		}
	}
	if svc.trackCalls != 0 {
		t.Errorf("store queried %d times for invalid order ids", svc.trackCalls)
	}
}

func TestTrackOrderDoesNotTouchSessions(t *testing.T) {
	svc := &fakeOrderService{statuses: map[int64]string{41: "in progress"}}
	d, sessions := newTestDispatcher(svc)

	d.Dispatch(context.Background(), IntentTrackOrder,
		map[string]interface{}{"order_id": 41.0}, "s1", "req")
	if sessions.Contains("s1") {
		t.Errorf("track-order created a session entry")
	}
}

// A commit racing with adds on the same session must observe either the
// whole pre-commit draft or find the session already gone, never a
// partial draft.
func TestConcurrentAddAndComplete(t *testing.T) {
	svc := &fakeOrderService{commitResult: &orders.CommitResult{OrderID: 1, Total: 1}}
	d, _ := newTestDispatcher(svc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			d.Dispatch(context.Background(), IntentOrderAdd,
				addParams([]interface{}{"pizza", "samosa"}, []interface{}{2.0, 2.0}), "s1", "req")
		}
	}()

	deadline := time.After(5 * time.Second)
	for i := 0; i < 100; i++ {
		select {
		case <-deadline:
			t.Fatalf("concurrent completes did not finish in time")
		default:
		}
		d.Dispatch(context.Background(), IntentOrderComplete, map[string]interface{}{}, "s1", "req")
	}
	<-done

	// Both items are always set under one entry lock, so every commit
	// the store saw must contain both or neither.
	for _, lines := range svc.commitCalls {
		if len(lines) != 2 {
			t.Errorf("partial draft committed: %+v", lines)
		}
	}
}
