package extraction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Buffnet/Zoho-Books/internal/models"
)

// maxScannedColumns bounds the per-field cell scan. Zoho's invoice list
// renders the interesting columns first; trailing cells hold action
// menus and metadata that produce false positives.
const maxScannedColumns = 8

// ErrRowSkipped marks a row whose status resolved to a recognized
// non-paid value. The row is dropped without extracting the remaining
// fields and without counting as an extraction error.
var ErrRowSkipped = errors.New("row status outside paid family")

// MissingFieldsError records which of the required fields a row was
// missing after the full strategy cascade ran.
type MissingFieldsError struct {
	HasInvoiceID bool
	HasCustomer  bool
	HasStatus    bool
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf(
		"row missing required fields: invoice_id=%t customer=%t status=%t",
		e.HasInvoiceID, e.HasCustomer, e.HasStatus,
	)
}

// Fields holds the candidate values recovered from one row.
type Fields struct {
	InvoiceID string
	Customer  string
	Status    string
	Amount    string
	PaidAt    string
}

// Extract recovers invoice fields from a single row snapshot. It is a
// pure function of the row content.
//
// Status is resolved first: a recognized non-paid status short-circuits
// the row with ErrRowSkipped before any other field is attempted. A row
// that survives the scan but lacks any of {invoice_id, customer, status}
// fails with *MissingFieldsError.
func Extract(row models.RowSnapshot) (Fields, error) {
	cells := row.Cells
	if len(cells) > maxScannedColumns {
		cells = cells[:maxScannedColumns]
	}

	status, err := extractStatus(cells)
	if err != nil {
		return Fields{}, err
	}

	f := Fields{Status: status, Amount: "0"}
	f.InvoiceID, _ = firstHit(cells, invoiceIDStrategies)
	if amount, ok := firstHit(cells, amountStrategies); ok {
		f.Amount = amount
	}
	f.PaidAt, _ = firstHit(cells, paidAtStrategies)
	f.Customer = extractCustomer(cells)

	if f.InvoiceID == "" || f.Customer == "" || f.Status == "" {
		return Fields{}, &MissingFieldsError{
			HasInvoiceID: f.InvoiceID != "",
			HasCustomer:  f.Customer != "",
			HasStatus:    f.Status != "",
		}
	}
	return f, nil
}

// firstHit runs the strategy tiers in priority order over the bounded
// cell window. A structured cue anywhere in the row beats a pattern cue,
// matching how the original markup is trusted: explicit attributes
// first, semantic elements second, plain-text patterns last.
func firstHit(cells []models.Cell, tiers []strategy) (string, bool) {
	for _, try := range tiers {
		for _, cell := range cells {
			if v, ok := try(cell); ok {
				return v, true
			}
		}
	}
	return "", false
}

func extractStatus(cells []models.Cell) (string, error) {
	for _, try := range statusStrategies {
		for _, cell := range cells {
			raw, ok := try(cell)
			if !ok {
				continue
			}
			if m := paidFamilyPattern.FindString(raw); m != "" {
				return m, nil
			}
			trimmed := strings.TrimSpace(raw)
			if nonPaidStatuses[strings.ToLower(trimmed)] {
				return "", fmt.Errorf("%w: %q", ErrRowSkipped, trimmed)
			}
		}
	}
	return "", nil
}

// extractCustomer prefers a structured or semantic cue; failing those it
// falls back to the longest text-bearing cell that does not look like an
// id/amount/date/status token, ties broken by first occurrence. The
// heuristic is deliberately loose: it survives column reordering at the
// cost of losing to long free-text cells.
func extractCustomer(cells []models.Cell) string {
	if v, ok := firstHit(cells, customerCueStrategies); ok {
		return v
	}

	best := ""
	for _, cell := range cells {
		text := strings.TrimSpace(cell.Text)
		if text == "" || looksLikeDataToken(text) {
			continue
		}
		if len(text) > len(best) {
			best = text
		}
	}
	return best
}

// IsPaidFamily reports whether a status value textually belongs to the
// paid family. Case-insensitive substring match, not exact.
func IsPaidFamily(status string) bool {
	return strings.Contains(strings.ToLower(status), "paid")
}
