package repository

import (
	"encoding/json"
	"time"

	"github.com/Buffnet/Zoho-Books/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScrapeRunRepository struct {
	db *gorm.DB
}

func NewScrapeRunRepository(db *gorm.DB) *ScrapeRunRepository {
	return &ScrapeRunRepository{db: db}
}

// Begin records a run in the "running" state and returns it.
func (r *ScrapeRunRepository) Begin() (*models.ScrapeRun, error) {
	run := &models.ScrapeRun{
		ID:        uuid.New(),
		Status:    "running",
		StartedAt: time.Now(),
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Finish stamps the run with its final status and counters.
func (r *ScrapeRunRepository) Finish(run *models.ScrapeRun, status string, errorSamples []string) error {
	now := time.Now()
	run.Status = status
	run.CompletedAt = &now
	if len(errorSamples) > 0 {
		raw, err := json.Marshal(errorSamples)
		if err != nil {
			return err
		}
		run.ErrorSamples = raw
	}
	return r.db.Save(run).Error
}

func (r *ScrapeRunRepository) AddDriftEvent(runID uuid.UUID, page int, severity string, details map[string]interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	ev := &models.DriftEvent{
		ID:        uuid.New(),
		RunID:     runID,
		Page:      page,
		Severity:  severity,
		Details:   raw,
		CreatedAt: time.Now(),
	}
	return r.db.Create(ev).Error
}
