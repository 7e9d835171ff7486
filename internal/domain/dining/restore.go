package dining

// TableState is the flat persistence form of a Table.
type TableState struct {
	Table       Table
	Maintenance []Maintenance
}

// RestoreTable rebuilds a Table from its persisted state.
func RestoreTable(state TableState) *Table {
	table := state.Table
	table.maintenance = make([]*Maintenance, 0, len(state.Maintenance))
	for idx := range state.Maintenance {
		record := state.Maintenance[idx]
		table.maintenance = append(table.maintenance, &record)
	}
	return &table
}
