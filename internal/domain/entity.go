package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityMeta carries the identity and bookkeeping timestamps shared by every
// aggregate and child entity.
type EntityMeta struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewEntityMeta(now time.Time) EntityMeta {
	return EntityMeta{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch stamps the entity as modified.
func (m *EntityMeta) Touch(now time.Time) {
	m.UpdatedAt = now
}
