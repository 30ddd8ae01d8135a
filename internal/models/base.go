package models

import (
	"time"

	"presusimple/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. Rows are hard-deleted, so there
// is no soft-delete column: unique indexes must free up as soon as a row goes.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every model in dependency order, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Budget{},
		&Section{},
		&Category{},
		&Expense{},
		&ResetSnapshot{},
		&FeatureFlag{},
		&AuditLog{},
		&OutboxEvent{},
	}
}
