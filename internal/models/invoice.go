package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is the persisted form of an accepted InvoiceRecord.
type Invoice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceID string    `gorm:"uniqueIndex"`
	Customer  string    `gorm:"index"`
	Amount    string
	PaidAt    string
	Status    string `gorm:"index"`
	CreatedAt time.Time
}
