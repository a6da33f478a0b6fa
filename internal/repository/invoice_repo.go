package repository

import (
	"strings"
	"time"

	"github.com/Buffnet/Zoho-Books/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Expose DB if needed
func (r *InvoiceRepository) DB() *gorm.DB {
	return r.db
}

// UpsertRecords inserts accepted records, ignoring invoice ids already
// present. First write wins, mirroring the run-level dedup rule. Returns
// the number of rows actually inserted.
func (r *InvoiceRepository) UpsertRecords(records []models.InvoiceRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]models.Invoice, len(records))
	now := time.Now()
	for i, rec := range records {
		rows[i] = models.Invoice{
			ID:        uuid.New(),
			InvoiceID: rec.InvoiceID,
			Customer:  rec.Customer,
			Amount:    rec.Amount,
			PaidAt:    rec.PaidAt,
			Status:    rec.Status,
			CreatedAt: now,
		}
	}

	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "invoice_id"}},
		DoNothing: true,
	}).Create(&rows)
	return tx.RowsAffected, tx.Error
}

func (r *InvoiceRepository) GetAll() ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Order("created_at").Find(&invoices).Error
	return invoices, err
}

// SearchInvoices used for manual inspection with optional filters
func (r *InvoiceRepository) SearchInvoices(query string, statuses []string) ([]models.Invoice, error) {
	var invoices []models.Invoice

	dbQuery := r.db.Model(&models.Invoice{})

	if query != "" {
		dbQuery = dbQuery.Where("LOWER(customer) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if len(statuses) > 0 {
		dbQuery = dbQuery.Where("status IN ?", statuses)
	}

	err := dbQuery.Find(&invoices).Error
	return invoices, err
}
