package dining

import (
	"time"

	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
)

// Maintenance is one maintenance window on a table. A record without a
// completion timestamp is still open.
type Maintenance struct {
	domain.EntityMeta
	Type        string           `json:"type"`
	Description string           `json:"description"`
	PerformedBy string           `json:"performed_by,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// IsOpen reports whether the maintenance window is still in progress.
func (m *Maintenance) IsOpen() bool {
	return m.CompletedAt == nil
}
