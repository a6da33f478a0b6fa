package pipeline

import "github.com/Buffnet/Zoho-Books/internal/models"

type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityFatal
)

// defaultWarnErrorThreshold is the per-page extraction error count above
// which the detector flags warning drift.
const defaultWarnErrorThreshold = 3

// DriftDetector classifies one page's extraction stats.
//
// Zero parsed rows alone cannot distinguish "legitimately no paid
// invoices on this source" from "the markup contract changed and the
// parser is blind". The totalRows gate disambiguates: rows rendered but
// none recoverable means the parser broke, and the run must fail loudly
// rather than silently undercount.
type DriftDetector struct {
	WarnErrorThreshold int
}

func NewDriftDetector() *DriftDetector {
	return &DriftDetector{WarnErrorThreshold: defaultWarnErrorThreshold}
}

func (d *DriftDetector) Assess(stats models.ExtractionStats) Severity {
	if stats.TotalRows > 0 && stats.ParsedRows == 0 {
		return SeverityFatal
	}
	if len(stats.Errors) > d.WarnErrorThreshold {
		return SeverityWarning
	}
	return SeverityNormal
}
