// Package output owns the CSV contract of the scraper: the exact
// delimited grammar records are written in, and the loader the analyzer
// uses to read them back.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Buffnet/Zoho-Books/internal/models"
)

// Header is the fixed literal header row of the output grammar.
const Header = "invoice_id,customer,amount,paid_at,status"

// Encode serializes records into the output grammar. A field is wrapped
// in double quotes iff it contains a double quote, comma, CR or LF, with
// internal quotes doubled; everything else, including empty fields, is
// emitted verbatim. The header row is always present.
//
// encoding/csv is not used for writing: it additionally quotes fields
// with leading spaces, which breaks the byte-exact round-trip contract.
func Encode(records []models.InvoiceRecord) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, r := range records {
		fields := [5]string{r.InvoiceID, r.Customer, r.Amount, r.PaidAt, r.Status}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeField(f))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func escapeField(s string) string {
	if !strings.ContainsAny(s, "\",\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteFile writes the encoded record set to path. The header-only file
// on an empty record set is deliberate: downstream tooling always finds
// a parseable document.
func WriteFile(path string, records []models.InvoiceRecord) error {
	if err := os.WriteFile(path, []byte(Encode(records)), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// Parse reads CSV text back into records, resolving columns by header
// name so column order does not matter on the way in.
func Parse(csvText string) ([]models.InvoiceRecord, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []models.InvoiceRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		records = append(records, models.InvoiceRecord{
			InvoiceID: field(row, "invoice_id"),
			Customer:  field(row, "customer"),
			Amount:    field(row, "amount"),
			PaidAt:    field(row, "paid_at"),
			Status:    field(row, "status"),
		})
	}
	return records, nil
}

// ReadFile loads records from a CSV file previously written by the
// scraper. A missing file is reported via os.ErrNotExist.
func ReadFile(path string) ([]models.InvoiceRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(raw))
}
