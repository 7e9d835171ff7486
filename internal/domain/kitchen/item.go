package kitchen

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
)

// Section is the physical preparation station an item is routed to.
type Section string

const (
	SectionHot    Section = "hot"
	SectionCold   Section = "cold"
	SectionGrill  Section = "grill"
	SectionPastry Section = "pastry"
	SectionBar    Section = "bar"
)

// ItemStatus tracks an individual line through the kitchen.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
	ItemCancelled ItemStatus = "cancelled"
)

// ItemSpec is the menu-catalog snapshot used to create an order item. The
// name and price are copied at order time; the catalog is never re-read.
type ItemSpec struct {
	MenuItemID          uuid.UUID       `json:"menu_item_id"`
	Name                string          `json:"name"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int             `json:"quantity"`
	Section             Section         `json:"section"`
	SpecialRequests     []string        `json:"special_requests,omitempty"`
	Allergens           []string        `json:"allergens,omitempty"`
	DietaryRestrictions []string        `json:"dietary_restrictions,omitempty"`
	Modifications       []string        `json:"modifications,omitempty"`
}

// Item is a priced, quantity-bearing order line owned exclusively by its
// Order.
type Item struct {
	domain.EntityMeta
	MenuItemID          uuid.UUID       `json:"menu_item_id"`
	Name                string          `json:"name"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Quantity            int             `json:"quantity"`
	Status              ItemStatus      `json:"status"`
	Section             Section         `json:"section"`
	SpecialRequests     []string        `json:"special_requests,omitempty"`
	Allergens           []string        `json:"allergens,omitempty"`
	DietaryRestrictions []string        `json:"dietary_restrictions,omitempty"`
	Modifications       []string        `json:"modifications,omitempty"`
	Complicated         bool            `json:"complicated"`
	Urgent              bool            `json:"urgent"`
}

func newItem(spec ItemSpec) (*Item, error) {
	if spec.MenuItemID == uuid.Nil {
		return nil, domain.Invalid("menu_item_id", "is required")
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, domain.Invalid("name", "is required")
	}
	if spec.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "must be positive")
	}
	if spec.UnitPrice.IsNegative() {
		return nil, domain.Invalid("unit_price", "must not be negative")
	}

	now := timeNow()
	item := &Item{
		EntityMeta:          domain.NewEntityMeta(now),
		MenuItemID:          spec.MenuItemID,
		Name:                strings.TrimSpace(spec.Name),
		UnitPrice:           spec.UnitPrice,
		Quantity:            spec.Quantity,
		Status:              ItemPending,
		Section:             spec.Section,
		SpecialRequests:     append([]string(nil), spec.SpecialRequests...),
		Allergens:           append([]string(nil), spec.Allergens...),
		DietaryRestrictions: append([]string(nil), spec.DietaryRestrictions...),
		Modifications:       append([]string(nil), spec.Modifications...),
	}
	item.deriveFlags()
	return item, nil
}

// LineTotal returns unit price times quantity.
func (i *Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

var (
	urgentMarkers      = []string{"urgent", "asap", "rush"}
	complicatedMarkers = []string{"substitute", "custom", "well done", "no salt", "gluten free"}
)

// deriveFlags recomputes the complexity/urgency flags from the special
// request text. A line with two or more requests counts as complicated.
func (i *Item) deriveFlags() {
	i.Urgent = false
	i.Complicated = len(i.SpecialRequests) >= 2
	for _, req := range i.SpecialRequests {
		lower := strings.ToLower(req)
		for _, m := range urgentMarkers {
			if strings.Contains(lower, m) {
				i.Urgent = true
			}
		}
		for _, m := range complicatedMarkers {
			if strings.Contains(lower, m) {
				i.Complicated = true
			}
		}
	}
}

func (i *Item) setQuantity(quantity int) error {
	if quantity <= 0 {
		return domain.Invalid("quantity", "must be positive")
	}
	i.Quantity = quantity
	i.Touch(timeNow())
	return nil
}

func (i *Item) setSpecialRequests(requests []string) {
	i.SpecialRequests = append([]string(nil), requests...)
	i.deriveFlags()
	i.Touch(timeNow())
}
