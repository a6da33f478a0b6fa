package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ScrapeRun struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Pages          int
	TotalRows      int
	ParsedRows     int
	RecordCount    int
	DuplicateCount int
	Status         string `gorm:"index"`
	ErrorSamples   datatypes.JSON
	StartedAt      time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

type DriftEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunID     uuid.UUID `gorm:"index"`
	Page      int
	Severity  string
	Details   datatypes.JSON
	CreatedAt time.Time
}
