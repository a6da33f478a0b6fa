package models

// InvoiceRecord is one accepted paid-family invoice as it appears in the
// CSV output. Amount and PaidAt may be empty-ish ("0" / ""), the other
// three fields are guaranteed non-empty by the extraction gate.
type InvoiceRecord struct {
	InvoiceID string `json:"invoice_id"`
	Customer  string `json:"customer"`
	Amount    string `json:"amount"`
	PaidAt    string `json:"paid_at"`
	Status    string `json:"status"`
}
