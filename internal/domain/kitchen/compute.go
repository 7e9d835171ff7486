package kitchen

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	baseItemTime     = 2 * time.Minute
	complicatedTime  = 5 * time.Minute
	modificationTime = 2 * time.Minute
	activeTimeRatio  = 0.8

	// CoolingDownGrace is how long an order may sit in Ready before the
	// deferred cooling-down check fires.
	CoolingDownGrace = 5 * time.Minute
)

// recompute refreshes every derived value after an item mutation: totals,
// preparation estimate, section routing, auto priority and the allergen set.
func (o *Order) recompute(now time.Time) {
	o.recomputeTotals()
	o.recomputeEstimate(now)
	o.Section = o.computeSection()
	if !o.priorityOverridden {
		o.Priority = o.computePriority()
	}
	o.recomputeAllergens()
}

func (o *Order) recomputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.Subtotal = subtotal
	if o.Discount.GreaterThan(subtotal) {
		o.Discount = subtotal
	}
	o.Total = subtotal.Sub(o.Discount)
}

func (o *Order) recomputeEstimate(now time.Time) {
	complicated := 0
	modifications := 0
	for _, item := range o.items {
		if item.Complicated {
			complicated++
		}
		modifications += len(item.Modifications)
	}
	o.EstimatedPreparation = time.Duration(len(o.items))*baseItemTime +
		time.Duration(complicated)*complicatedTime +
		time.Duration(modifications)*modificationTime

	if o.Status == StatusPending || o.Status == StatusAccepted {
		readyAt := now.Add(o.EstimatedPreparation)
		o.EstimatedReadyAt = &readyAt
	}
}

// EstimatedActiveTime is the hands-on share of the preparation estimate.
func (o *Order) EstimatedActiveTime() time.Duration {
	return time.Duration(float64(o.EstimatedPreparation) * activeTimeRatio)
}

// computeSection routes the order to the section required by the plurality
// of its items, defaulting to the hot section.
func (o *Order) computeSection() Section {
	counts := make(map[Section]int)
	for _, item := range o.items {
		if item.Section != "" {
			counts[item.Section]++
		}
	}
	if len(counts) == 0 {
		return SectionHot
	}

	sections := make([]Section, 0, len(counts))
	for s := range counts {
		sections = append(sections, s)
	}
	// Stable winner when counts tie.
	sort.Slice(sections, func(i, j int) bool { return sections[i] < sections[j] })

	best := sections[0]
	for _, s := range sections[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}

func (o *Order) computePriority() Priority {
	for _, item := range o.items {
		if item.Urgent {
			return PriorityUrgent
		}
	}
	if o.Type == TakeAway || len(o.items) >= 5 {
		return PriorityHigh
	}
	for _, item := range o.items {
		if item.Complicated {
			return PriorityNormal
		}
	}
	return PriorityLow
}

func (o *Order) recomputeAllergens() {
	allergens := make(map[string]struct{})
	dietary := make(map[string]struct{})
	for _, item := range o.items {
		for _, a := range item.Allergens {
			allergens[a] = struct{}{}
		}
		for _, d := range item.DietaryRestrictions {
			dietary[d] = struct{}{}
		}
	}
	o.Allergens = sortedKeys(allergens)
	o.DietaryRestrictions = sortedKeys(dietary)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RequiresAllergenAttention reports whether any item carries allergens or
// dietary restrictions.
func (o *Order) RequiresAllergenAttention() bool {
	return len(o.Allergens) > 0 || len(o.DietaryRestrictions) > 0
}

// IsRush reports whether the order runs at elevated priority.
func (o *Order) IsRush() bool {
	return o.Priority == PriorityHigh || o.Priority == PriorityUrgent
}

// IsComplicated reports whether any item is flagged complicated.
func (o *Order) IsComplicated() bool {
	for _, item := range o.items {
		if item.Complicated {
			return true
		}
	}
	return false
}

// RequiresSpecialAttention reports whether the kitchen should treat the
// order carefully: complicated lines, allergen exposure or urgent items.
func (o *Order) RequiresSpecialAttention() bool {
	if o.IsComplicated() || o.RequiresAllergenAttention() {
		return true
	}
	for _, item := range o.items {
		if item.Urgent {
			return true
		}
	}
	return false
}

// IsOverdue reports whether the estimated-ready time has passed without the
// order reaching Ready or beyond.
func (o *Order) IsOverdue() bool {
	if o.EstimatedReadyAt == nil {
		return false
	}
	switch o.Status {
	case StatusReady, StatusServed, StatusCompleted:
		return false
	}
	return timeNow().After(*o.EstimatedReadyAt)
}

// ProgressPercentage is a display aid mapping status to rough completion.
func (o *Order) ProgressPercentage() int {
	switch o.Status {
	case StatusAccepted:
		return 20
	case StatusInPreparation:
		return 60
	case StatusReady:
		return 90
	case StatusServed:
		return 95
	case StatusCompleted:
		return 100
	default:
		return 0
	}
}
