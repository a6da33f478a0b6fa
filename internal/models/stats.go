package models

// ExtractionStats summarizes one page of extraction. Created fresh per
// page, consumed by the drift detector, then discarded.
type ExtractionStats struct {
	Page                 int
	TotalRows            int
	ParsedRows           int
	Errors               []string
	ColumnCount          int
	HasExpectedStructure bool
}
