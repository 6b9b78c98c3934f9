package models

import (
	"time"

	"budgetly/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Version increments on every write and backs optimistic concurrency checks.
	Version int64 `gorm:"not null" json:"version"`
}

// BeforeCreate hook generates a UUIDv7 for new records and starts them at version 1
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	return nil
}
