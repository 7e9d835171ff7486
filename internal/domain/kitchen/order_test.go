package kitchen

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
)

func spec(name string, price float64, qty int, section Section) ItemSpec {
	return ItemSpec{
		MenuItemID: uuid.New(),
		Name:       name,
		UnitPrice:  decimal.NewFromFloat(price),
		Quantity:   qty,
		Section:    section,
	}
}

func placeOrder(t *testing.T, specs ...ItemSpec) *Order {
	t.Helper()
	order, event, err := NewOrder(uuid.New(), DineIn, "cust-1", "waiter-1", specs)
	if err != nil {
		t.Fatalf("NewOrder returned error: %v", err)
	}
	if event.EventName() != EventOrderPlaced {
		t.Fatalf("expected %s event, got %s", EventOrderPlaced, event.EventName())
	}
	return order
}

func threeItems() []ItemSpec {
	return []ItemSpec{
		spec("soup", 6.50, 1, SectionHot),
		spec("salad", 8.00, 2, SectionCold),
		spec("steak", 24.00, 1, SectionGrill),
	}
}

func TestNewOrder_RequiresItems(t *testing.T) {
	_, _, err := NewOrder(uuid.New(), DineIn, "", "", nil)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewOrder_Totals(t *testing.T) {
	order := placeOrder(t, threeItems()...)

	want := decimal.NewFromFloat(6.50).
		Add(decimal.NewFromFloat(8.00).Mul(decimal.NewFromInt(2))).
		Add(decimal.NewFromFloat(24.00))
	if !order.Subtotal.Equal(want) {
		t.Errorf("subtotal = %s, want %s", order.Subtotal, want)
	}
	if !order.Total.Equal(want) {
		t.Errorf("total = %s, want %s", order.Total, want)
	}
	if !strings.HasPrefix(order.Number, "ORD-") {
		t.Errorf("unexpected order number %q", order.Number)
	}
}

func TestOrder_HappyPath(t *testing.T) {
	order := placeOrder(t, threeItems()...)

	if _, err := order.Accept("chef-1", "on it"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if order.ProgressPercentage() != 20 {
		t.Errorf("progress after accept = %d, want 20", order.ProgressPercentage())
	}
	if _, err := order.StartPreparation(""); err != nil {
		t.Fatalf("StartPreparation: %v", err)
	}
	if order.EstimatedReadyAt == nil {
		t.Fatal("expected estimated ready time after start")
	}
	if _, err := order.MarkAsReady("", "good"); err != nil {
		t.Fatalf("MarkAsReady: %v", err)
	}
	if order.Status != StatusReady {
		t.Fatalf("status = %s, want %s", order.Status, StatusReady)
	}
	if order.ActualPreparation == nil {
		t.Error("expected actual preparation time to be set")
	}
	if order.ProgressPercentage() != 90 {
		t.Errorf("progress = %d, want 90", order.ProgressPercentage())
	}

	if _, err := order.MarkAsServed("waiter-2"); err != nil {
		t.Fatalf("MarkAsServed: %v", err)
	}
	rating := 5
	event, err := order.Complete(&rating, "great", decimal.NewFromFloat(3.00))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if event.EventName() != EventOrderCompleted {
		t.Errorf("event = %s, want %s", event.EventName(), EventOrderCompleted)
	}
	if order.TotalServiceTime == nil {
		t.Error("expected total service time to be set")
	}
}

func TestOrder_OutOfOrderTransitions(t *testing.T) {
	order := placeOrder(t, threeItems()...)

	// Pending permits only Accept (and Cancel).
	if _, err := order.StartPreparation(""); !domain.IsTransition(err) {
		t.Errorf("StartPreparation from pending: expected transition error, got %v", err)
	}
	if _, err := order.MarkAsReady("", ""); !domain.IsTransition(err) {
		t.Errorf("MarkAsReady from pending: expected transition error, got %v", err)
	}
	if _, err := order.MarkAsServed(""); !domain.IsTransition(err) {
		t.Errorf("MarkAsServed from pending: expected transition error, got %v", err)
	}
	if _, err := order.Complete(nil, "", decimal.Zero); !domain.IsTransition(err) {
		t.Errorf("Complete from pending: expected transition error, got %v", err)
	}
	if order.Status != StatusPending {
		t.Fatalf("failed transitions must leave status unchanged, got %s", order.Status)
	}

	if _, err := order.Accept("chef-1", ""); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := order.Accept("chef-1", ""); !domain.IsTransition(err) {
		t.Errorf("double Accept: expected transition error, got %v", err)
	}
}

func TestOrder_CancelFromEveryNonTerminalState(t *testing.T) {
	advance := []func(*Order) error{
		nil,
		func(o *Order) error { _, err := o.Accept("chef", ""); return err },
		func(o *Order) error { _, err := o.StartPreparation(""); return err },
		func(o *Order) error { _, err := o.MarkAsReady("", ""); return err },
		func(o *Order) error { _, err := o.MarkAsServed(""); return err },
	}

	for steps := range advance {
		order := placeOrder(t, threeItems()...)
		for i := 1; i <= steps; i++ {
			if err := advance[i](order); err != nil {
				t.Fatalf("advance step %d: %v", i, err)
			}
		}
		previous := order.Status
		event, err := order.Cancel("customer left", "manager-1")
		if err != nil {
			t.Fatalf("Cancel from %s: %v", previous, err)
		}
		cancelled := event.(*OrderCancelled)
		if cancelled.PreviousStatus != previous {
			t.Errorf("event previous status = %s, want %s", cancelled.PreviousStatus, previous)
		}
		if order.Status != StatusCancelled {
			t.Errorf("status = %s, want cancelled", order.Status)
		}
	}
}

func TestOrder_CancelRejectedFromTerminalStates(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	order.Accept("chef", "")
	order.StartPreparation("")
	order.MarkAsReady("", "")
	order.MarkAsServed("")
	order.Complete(nil, "", decimal.Zero)

	if _, err := order.Cancel("too late", ""); !domain.IsTransition(err) {
		t.Errorf("Cancel after complete: expected transition error, got %v", err)
	}

	cancelled := placeOrder(t, threeItems()...)
	cancelled.Cancel("first", "")
	if _, err := cancelled.Cancel("second", ""); !domain.IsTransition(err) {
		t.Errorf("double Cancel: expected transition error, got %v", err)
	}
}

func TestOrder_CancelRequiresReason(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	if _, err := order.Cancel("  ", ""); !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestOrder_EstimateIdempotentAcrossAddRemove(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	before := order.EstimatedPreparation

	extra := spec("pie", 5.00, 1, SectionPastry)
	event, err := order.AddItem(extra)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	added := event.(*ItemsChanged)
	if order.EstimatedPreparation == before {
		t.Error("estimate should change after adding an item")
	}

	if _, err := order.RemoveItem(added.ItemID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if order.EstimatedPreparation != before {
		t.Errorf("estimate = %v after add+remove, want %v", order.EstimatedPreparation, before)
	}
	if !order.Subtotal.Equal(decimal.NewFromFloat(46.50)) {
		t.Errorf("subtotal = %s, want 46.50", order.Subtotal)
	}
}

func TestOrder_ItemMutationsOnlyWhilePending(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	order.Accept("chef", "")

	if _, err := order.AddItem(spec("pie", 5.00, 1, SectionPastry)); !domain.IsTransition(err) {
		t.Errorf("AddItem after accept: expected transition error, got %v", err)
	}
	itemID := order.Items()[0].ID
	if _, err := order.RemoveItem(itemID); !domain.IsTransition(err) {
		t.Errorf("RemoveItem after accept: expected transition error, got %v", err)
	}
}

func TestOrder_RemoveLastItemRejected(t *testing.T) {
	order := placeOrder(t, spec("soup", 6.50, 1, SectionHot))
	itemID := order.Items()[0].ID
	if _, err := order.RemoveItem(itemID); !domain.IsValidation(err) {
		t.Errorf("expected validation error removing last item, got %v", err)
	}
}

func TestOrder_ModifyItemRecordsSnapshot(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	item := order.Items()[1]

	qty := 3
	if _, err := order.ModifyItem(item.ID, &qty, []string{"no onions"}, "waiter-1"); err != nil {
		t.Fatalf("ModifyItem: %v", err)
	}

	mods := order.Modifications()
	if len(mods) != 1 {
		t.Fatalf("expected 1 modification record, got %d", len(mods))
	}
	record := mods[0]
	if record.PrevQuantity != 2 || record.NewQuantity != 3 {
		t.Errorf("quantities = %d -> %d, want 2 -> 3", record.PrevQuantity, record.NewQuantity)
	}
	if len(record.NewRequests) != 1 || record.NewRequests[0] != "no onions" {
		t.Errorf("unexpected new requests %v", record.NewRequests)
	}
	// Subtotal reflects the new quantity.
	want := decimal.NewFromFloat(6.50).
		Add(decimal.NewFromFloat(8.00).Mul(decimal.NewFromInt(3))).
		Add(decimal.NewFromFloat(24.00))
	if !order.Subtotal.Equal(want) {
		t.Errorf("subtotal = %s, want %s", order.Subtotal, want)
	}
}

func TestOrder_ModifyItemRejectedWhenTerminal(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	itemID := order.Items()[0].ID
	order.Cancel("closing", "")

	qty := 2
	if _, err := order.ModifyItem(itemID, &qty, nil, ""); !domain.IsTransition(err) {
		t.Errorf("expected transition error, got %v", err)
	}
}

func TestOrder_ModifyItemUnknownID(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	qty := 2
	_, err := order.ModifyItem(uuid.New(), &qty, nil, "")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestOrder_ApplyDiscount(t *testing.T) {
	order := placeOrder(t, threeItems()...)

	if _, err := order.ApplyDiscount(decimal.NewFromFloat(10.00), "regular"); err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	want := decimal.NewFromFloat(36.50)
	if !order.Total.Equal(want) {
		t.Errorf("total = %s, want %s", order.Total, want)
	}

	if _, err := order.ApplyDiscount(decimal.NewFromFloat(1000), "too much"); !domain.IsValidation(err) {
		t.Errorf("discount above subtotal: expected validation error, got %v", err)
	}
	if _, err := order.ApplyDiscount(decimal.NewFromFloat(-1), "negative"); !domain.IsValidation(err) {
		t.Errorf("negative discount: expected validation error, got %v", err)
	}
}

func TestOrder_ChangePriorityShrinksEstimate(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	before := order.EstimatedPreparation

	event, err := order.ChangePriority(PriorityUrgent, "VIP table", "manager-1")
	if err != nil {
		t.Fatalf("ChangePriority: %v", err)
	}
	changed := event.(*PriorityChanged)
	if changed.NewPriority != PriorityUrgent {
		t.Errorf("event new priority = %s, want urgent", changed.NewPriority)
	}
	want := time.Duration(float64(before) * 0.70)
	if order.EstimatedPreparation != want {
		t.Errorf("estimate = %v, want %v", order.EstimatedPreparation, want)
	}
	if order.EstimatedReadyAt == nil {
		t.Error("expected estimated ready time after promotion")
	}

	// Demoting never shrinks the estimate further.
	current := order.EstimatedPreparation
	if _, err := order.ChangePriority(PriorityLow, "", ""); err != nil {
		t.Fatalf("ChangePriority demote: %v", err)
	}
	if order.EstimatedPreparation != current {
		t.Errorf("demotion changed estimate from %v to %v", current, order.EstimatedPreparation)
	}
}

func TestOrder_CoolingDownCheck(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	order.Accept("chef", "")
	order.StartPreparation("")
	order.MarkAsReady("", "")

	event, fire := order.CoolingDownCheck()
	if !fire {
		t.Fatal("expected cooling-down check to fire while order is ready")
	}
	if event.EventName() != EventOrderCoolingDown {
		t.Errorf("event = %s, want %s", event.EventName(), EventOrderCoolingDown)
	}

	order.MarkAsServed("waiter-1")
	if _, fire := order.CoolingDownCheck(); fire {
		t.Error("cooling-down check must be suppressed once served")
	}
}

func TestOrder_ActionLog(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	order.Accept("chef-1", "")
	order.StartPreparation("")

	log := order.Log()
	if len(log) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(log))
	}
	if log[0].Action != "placed" || log[1].Action != "accepted" || log[2].Action != "preparation_started" {
		t.Errorf("unexpected log actions: %v %v %v", log[0].Action, log[1].Action, log[2].Action)
	}
}
