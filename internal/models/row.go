package models

// Link is a nested anchor inside a table cell.
type Link struct {
	Text string
	Href string
}

// Cell is the frozen content of one table cell at read time: rendered
// text, the element's attributes, and the nested elements extraction
// cares about (anchors and badge-like spans).
type Cell struct {
	Text   string
	Attrs  map[string]string
	Links  []Link
	Badges []string
}

// RowSnapshot is the frozen content of one table row. It is ephemeral:
// handed to the extraction engine once and never retained.
type RowSnapshot struct {
	Cells []Cell
}
