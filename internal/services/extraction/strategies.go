package extraction

import (
	"regexp"
	"strings"

	"github.com/Buffnet/Zoho-Books/internal/models"
	"github.com/shopspring/decimal"
)

// strategy attempts to recover one field from one cell. Present/absent,
// no partial results.
type strategy func(cell models.Cell) (string, bool)

var (
	invoiceIDPattern  = regexp.MustCompile(`(?i)\binvoice\s*#?\s*(\d+)`)
	bareNumberPattern = regexp.MustCompile(`^\s*#?(\d{1,10})\s*$`)

	// Currency-marked, thousands-separated or two-decimal tokens only.
	// Bare integers are too ambiguous to treat as amounts in free text.
	amountPattern = regexp.MustCompile(`[$€£₹]\s*\d[\d,]*(?:\.\d{1,2})?|\b\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?\b|\b\d+\.\d{2}\b`)

	paidFamilyPattern = regexp.MustCompile(`(?i)\bpartially\s+paid\b|\bpaid\b`)

	// Accepted date grammars: "1 Jan 2024", "1/2/2024", "Jan 1, 2024".
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2} (?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2}, \d{4}\b`),
	}
)

// nonPaidStatuses is the recognized vocabulary outside the paid family.
// Matching any of these skips the row outright.
var nonPaidStatuses = map[string]bool{
	"overdue": true,
	"sent":    true,
	"draft":   true,
	"void":    true,
	"unpaid":  true,
	"pending": true,
	"viewed":  true,
}

var invoiceIDStrategies = []strategy{
	// structured cue
	func(c models.Cell) (string, bool) {
		for _, key := range []string{"data-invoice-id", "data-invoice", "data-id"} {
			if v, ok := c.Attrs[key]; ok {
				if id, ok := canonicalInvoiceID(v); ok {
					return id, true
				}
			}
		}
		return "", false
	},
	// semantic cue: a link into the invoice detail view
	func(c models.Cell) (string, bool) {
		for _, link := range c.Links {
			if !strings.Contains(strings.ToLower(link.Href), "invoice") {
				continue
			}
			if id, ok := canonicalInvoiceID(link.Text); ok {
				return id, true
			}
			if id, ok := canonicalInvoiceID(link.Href); ok {
				return id, true
			}
		}
		return "", false
	},
	// pattern cue
	func(c models.Cell) (string, bool) {
		if m := invoiceIDPattern.FindStringSubmatch(c.Text); m != nil {
			return "Invoice" + m[1], true
		}
		return "", false
	},
}

var statusStrategies = []strategy{
	func(c models.Cell) (string, bool) {
		v, ok := c.Attrs["data-status"]
		return v, ok && v != ""
	},
	func(c models.Cell) (string, bool) {
		for _, badge := range c.Badges {
			if strings.TrimSpace(badge) != "" {
				return badge, true
			}
		}
		return "", false
	},
	func(c models.Cell) (string, bool) {
		return c.Text, strings.TrimSpace(c.Text) != ""
	},
}

var amountStrategies = []strategy{
	func(c models.Cell) (string, bool) {
		if v, ok := c.Attrs["data-amount"]; ok {
			return normalizeAmount(v)
		}
		return "", false
	},
	// semantic cue: a cell classed as the amount column
	func(c models.Cell) (string, bool) {
		if strings.Contains(c.Attrs["class"], "amount") {
			return normalizeAmount(c.Text)
		}
		return "", false
	},
	func(c models.Cell) (string, bool) {
		if m := amountPattern.FindString(c.Text); m != "" {
			return normalizeAmount(m)
		}
		return "", false
	},
}

var paidAtStrategies = []strategy{
	func(c models.Cell) (string, bool) {
		for _, key := range []string{"data-paid-at", "data-date"} {
			if v, ok := c.Attrs[key]; ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	},
	func(c models.Cell) (string, bool) {
		if m := firstDateMatch(c.Text); m != "" {
			return m, true
		}
		return "", false
	},
}

// customerCueStrategies are the trusted tiers for the customer field; the
// longest-text heuristic in extractCustomer is the pattern-tier fallback.
var customerCueStrategies = []strategy{
	func(c models.Cell) (string, bool) {
		for _, key := range []string{"data-customer", "data-customer-name"} {
			if v, ok := c.Attrs[key]; ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	},
	func(c models.Cell) (string, bool) {
		for _, link := range c.Links {
			href := strings.ToLower(link.Href)
			if strings.Contains(href, "contact") || strings.Contains(href, "customer") {
				if text := strings.TrimSpace(link.Text); text != "" {
					return text, true
				}
			}
		}
		return "", false
	},
}

// canonicalInvoiceID normalizes an id candidate to the fixed
// "Invoice<digits>" form. Bare numbers are accepted here because the
// caller only feeds it values from trusted cues.
func canonicalInvoiceID(raw string) (string, bool) {
	if m := invoiceIDPattern.FindStringSubmatch(raw); m != nil {
		return "Invoice" + m[1], true
	}
	if m := bareNumberPattern.FindStringSubmatch(raw); m != nil {
		return "Invoice" + m[1], true
	}
	return "", false
}

var amountCleaner = strings.NewReplacer("$", "", "€", "", "£", "", "₹", "", ",", "", " ", "")

// normalizeAmount strips currency symbols and thousands separators and
// validates the remainder as a nonzero decimal. Zero and unparsable
// candidates are rejected so the scan can keep looking at later cells.
// A trailing ".00" is stripped for the canonical form.
func normalizeAmount(raw string) (string, bool) {
	s := amountCleaner.Replace(strings.TrimSpace(raw))
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return "", false
	}
	return strings.TrimSuffix(s, ".00"), true
}

func firstDateMatch(text string) string {
	for _, p := range datePatterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// looksLikeDataToken reports whether a cell's text reads as an
// id/amount/date/status token rather than a display name.
func looksLikeDataToken(text string) bool {
	if text == "-" || text == "—" {
		return true
	}
	if invoiceIDPattern.MatchString(text) || bareNumberPattern.MatchString(text) {
		return true
	}
	if amountPattern.MatchString(text) {
		return true
	}
	if firstDateMatch(text) != "" {
		return true
	}
	if paidFamilyPattern.MatchString(text) {
		return true
	}
	return nonPaidStatuses[strings.ToLower(text)]
}
