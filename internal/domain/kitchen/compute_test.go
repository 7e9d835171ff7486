package kitchen

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestEstimate_Formula(t *testing.T) {
	plain := spec("soup", 6.00, 1, SectionHot)
	complicated := spec("steak", 20.00, 1, SectionGrill)
	complicated.SpecialRequests = []string{"well done"}
	modified := spec("salad", 8.00, 1, SectionCold)
	modified.Modifications = []string{"dressing on the side", "extra croutons"}

	order := placeOrder(t, plain, complicated, modified)

	// 3 items x 2min + 1 complicated x 5min + 2 modifications x 2min.
	want := 3*2*time.Minute + 5*time.Minute + 2*2*time.Minute
	if order.EstimatedPreparation != want {
		t.Errorf("estimate = %v, want %v", order.EstimatedPreparation, want)
	}

	wantActive := time.Duration(float64(want) * 0.8)
	if order.EstimatedActiveTime() != wantActive {
		t.Errorf("active time = %v, want %v", order.EstimatedActiveTime(), wantActive)
	}
}

func TestSection_PluralityWithHotDefault(t *testing.T) {
	order := placeOrder(t,
		spec("salad", 8.00, 1, SectionCold),
		spec("gazpacho", 7.00, 1, SectionCold),
		spec("steak", 20.00, 1, SectionGrill),
	)
	if order.Section != SectionCold {
		t.Errorf("section = %s, want cold", order.Section)
	}

	unrouted := placeOrder(t, spec("mystery", 5.00, 1, ""))
	if unrouted.Section != SectionHot {
		t.Errorf("section = %s, want hot default", unrouted.Section)
	}
}

func TestPriority_Derivation(t *testing.T) {
	urgent := spec("soup", 6.00, 1, SectionHot)
	urgent.SpecialRequests = []string{"rush please"}
	order := placeOrder(t, urgent)
	if order.Priority != PriorityUrgent {
		t.Errorf("priority = %s, want urgent", order.Priority)
	}

	bigSpecs := []ItemSpec{}
	for i := 0; i < 5; i++ {
		bigSpecs = append(bigSpecs, spec("dish", 10.00, 1, SectionHot))
	}
	big := placeOrder(t, bigSpecs...)
	if big.Priority != PriorityHigh {
		t.Errorf("priority for 5 items = %s, want high", big.Priority)
	}

	takeaway, _, err := NewOrder(uuid.New(), TakeAway, "", "", []ItemSpec{spec("pizza", 12.00, 1, SectionHot)})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if takeaway.Priority != PriorityHigh {
		t.Errorf("take-away priority = %s, want high", takeaway.Priority)
	}

	complicated := spec("steak", 20.00, 1, SectionGrill)
	complicated.SpecialRequests = []string{"substitute fries"}
	normal := placeOrder(t, complicated)
	if normal.Priority != PriorityNormal {
		t.Errorf("priority = %s, want normal", normal.Priority)
	}

	plain := placeOrder(t, spec("soup", 6.00, 1, SectionHot))
	if plain.Priority != PriorityLow {
		t.Errorf("priority = %s, want low", plain.Priority)
	}
}

func TestAllergens_UnionAcrossItems(t *testing.T) {
	a := spec("satay", 9.00, 1, SectionGrill)
	a.Allergens = []string{"peanuts", "soy"}
	b := spec("pasta", 11.00, 1, SectionHot)
	b.Allergens = []string{"gluten", "soy"}
	b.DietaryRestrictions = []string{"vegetarian"}

	order := placeOrder(t, a, b)
	if len(order.Allergens) != 3 {
		t.Fatalf("allergens = %v, want 3 distinct entries", order.Allergens)
	}
	if !order.RequiresAllergenAttention() {
		t.Error("expected allergen attention flag")
	}

	clean := placeOrder(t, spec("soup", 6.00, 1, SectionHot))
	if clean.RequiresAllergenAttention() {
		t.Error("unexpected allergen attention for clean order")
	}
}

func TestOverdue(t *testing.T) {
	order := placeOrder(t, threeItems()...)
	order.Accept("chef", "")
	order.StartPreparation("")

	past := time.Now().Add(-time.Minute)
	order.EstimatedReadyAt = &past
	if !order.IsOverdue() {
		t.Error("expected overdue order")
	}

	order.MarkAsReady("", "")
	if order.IsOverdue() {
		t.Error("ready orders are never overdue")
	}
}

func TestItem_LineTotal(t *testing.T) {
	item, err := newItem(spec("salad", 8.25, 3, SectionCold))
	if err != nil {
		t.Fatalf("newItem: %v", err)
	}
	if !item.LineTotal().Equal(decimal.NewFromFloat(24.75)) {
		t.Errorf("line total = %s, want 24.75", item.LineTotal())
	}
}

func TestItem_Validation(t *testing.T) {
	bad := spec("", 5.00, 1, SectionHot)
	if _, err := newItem(bad); err == nil {
		t.Error("expected error for empty name")
	}
	zeroQty := spec("soup", 5.00, 0, SectionHot)
	if _, err := newItem(zeroQty); err == nil {
		t.Error("expected error for zero quantity")
	}
	negative := spec("soup", -1.00, 1, SectionHot)
	if _, err := newItem(negative); err == nil {
		t.Error("expected error for negative price")
	}
}
