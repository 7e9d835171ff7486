package kitchen

// OrderState is the flat persistence form of an Order, used to rebuild the
// aggregate from storage without going through the command methods.
type OrderState struct {
	Order              Order
	Items              []Item
	Log                []LogEntry
	Modifications      []Modification
	PriorityOverridden bool
}

// RestoreOrder rebuilds an Order from its persisted state.
func RestoreOrder(state OrderState) *Order {
	order := state.Order
	order.priorityOverridden = state.PriorityOverridden
	order.items = make([]*Item, 0, len(state.Items))
	for idx := range state.Items {
		item := state.Items[idx]
		order.items = append(order.items, &item)
	}
	order.log = append([]LogEntry(nil), state.Log...)
	order.modifications = append([]Modification(nil), state.Modifications...)
	return &order
}

// PriorityOverridden reports whether the priority has been manually set,
// which stops the derived priority from recomputing it.
func (o *Order) PriorityOverridden() bool {
	return o.priorityOverridden
}
