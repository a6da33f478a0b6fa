package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/Buffnet/Zoho-Books/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	pages           [][]models.RowSnapshot
	idx             int
	waitVisibleErr  error
	clicks          int
	waitedRowCounts []int
}

func (d *fakeDriver) WaitRowsVisible(ctx context.Context) error { return d.waitVisibleErr }

func (d *fakeDriver) Rows(ctx context.Context) ([]models.RowSnapshot, error) {
	return d.pages[d.idx], nil
}

func (d *fakeDriver) NextVisible(ctx context.Context) (bool, error) {
	return d.idx < len(d.pages)-1, nil
}

func (d *fakeDriver) NextEnabled(ctx context.Context) (bool, error) {
	return d.idx < len(d.pages)-1, nil
}

func (d *fakeDriver) ClickNext(ctx context.Context) error {
	d.clicks++
	d.idx++
	return nil
}

func (d *fakeDriver) WaitRowCountChange(ctx context.Context, previous int) error {
	d.waitedRowCounts = append(d.waitedRowCounts, previous)
	return nil
}

func (d *fakeDriver) PageHTML(ctx context.Context) (string, error) {
	return "<html><body>fake</body></html>", nil
}

func (d *fakeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte{0x89, 0x50, 0x4e, 0x47}, nil
}

func textRow(cells ...string) models.RowSnapshot {
	row := models.RowSnapshot{}
	for _, text := range cells {
		row.Cells = append(row.Cells, models.Cell{Text: text})
	}
	return row
}

func TestRunDeduplicatesAcrossPages(t *testing.T) {
	d := &fakeDriver{pages: [][]models.RowSnapshot{
		{
			textRow("Invoice100", "Acme Co", "Paid", "$1,200.00", "1 Jan 2024"),
			textRow("Invoice101", "Beta LLC", "Overdue", "$50.00", "-"),
		},
		{
			textRow("Invoice100", "Acme Co (repeat)", "Paid", "$1,200.00", "1 Jan 2024"),
			textRow("Invoice102", "Gamma GmbH", "Partially Paid", "$75.25", "2/3/2024"),
		},
	}}

	res, err := New(d, Config{}).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, res.Pages)
	require.Equal(t, 1, res.Duplicates)
	require.Len(t, res.Records, 2)

	// The page-1 copy of Invoice100 wins.
	require.Equal(t, models.InvoiceRecord{
		InvoiceID: "Invoice100",
		Customer:  "Acme Co",
		Amount:    "1200",
		PaidAt:    "1 Jan 2024",
		Status:    "Paid",
	}, res.Records[0])
	require.Equal(t, "Invoice102", res.Records[1].InvoiceID)

	require.Equal(t, 1, d.clicks)
	require.Equal(t, []int{2}, d.waitedRowCounts)
}

func TestRunFatalDriftAborts(t *testing.T) {
	diagDir := t.TempDir()
	d := &fakeDriver{pages: [][]models.RowSnapshot{
		{
			textRow("12345"), textRow("12345"), textRow("12345"),
			textRow("12345"), textRow("12345"),
		},
	}}

	_, err := New(d, Config{DiagnosticsDir: diagDir}).Run(context.Background())
	require.ErrorIs(t, err, ErrFatalDrift)

	// Maximal diagnostic context is captured before aborting.
	entries, readErr := os.ReadDir(diagDir)
	require.NoError(t, readErr)
	require.NotEmpty(t, entries)
}

func TestRunEmptyPageIsNotFatal(t *testing.T) {
	d := &fakeDriver{pages: [][]models.RowSnapshot{{}}}

	res, err := New(d, Config{}).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.Records)
	require.Equal(t, 1, res.Pages)
	require.Equal(t, 0, res.TotalRows)
}

func TestRunWarningDriftContinues(t *testing.T) {
	diagDir := t.TempDir()
	d := &fakeDriver{pages: [][]models.RowSnapshot{
		{
			textRow("Invoice200", "Acme Co", "Paid", "$10.00"),
			textRow("12345"), textRow("12345"), textRow("12345"), textRow("12345"),
		},
	}}

	res, err := New(d, Config{DiagnosticsDir: diagDir}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Len(t, res.ErrorSamples, 4)

	entries, readErr := os.ReadDir(diagDir)
	require.NoError(t, readErr)
	require.NotEmpty(t, entries)
}

func TestRunRowContainerNeverVisibleIsFatal(t *testing.T) {
	sentinel := errors.New("wait exceeded")
	d := &fakeDriver{
		pages:          [][]models.RowSnapshot{{}},
		waitVisibleErr: sentinel,
	}

	_, err := New(d, Config{}).Run(context.Background())
	require.ErrorIs(t, err, sentinel)
}

func TestDedupStoreFirstArrivalWins(t *testing.T) {
	s := NewDedupStore()
	require.True(t, s.Admit("Invoice1"))
	require.False(t, s.Admit("Invoice1"))
	require.True(t, s.Admit("Invoice2"))
	require.Equal(t, 1, s.Duplicates())
	require.Equal(t, 2, s.Len())
}

func TestDriftDetectorSeverities(t *testing.T) {
	d := NewDriftDetector()
	cases := []struct {
		name  string
		stats models.ExtractionStats
		want  Severity
	}{
		{"clean page", models.ExtractionStats{TotalRows: 10, ParsedRows: 8}, SeverityNormal},
		{"empty page", models.ExtractionStats{TotalRows: 0, ParsedRows: 0}, SeverityNormal},
		{"rows but none parsed", models.ExtractionStats{TotalRows: 5, ParsedRows: 0}, SeverityFatal},
		{"error rate above threshold", models.ExtractionStats{
			TotalRows:  10,
			ParsedRows: 6,
			Errors:     []string{"a", "b", "c", "d"},
		}, SeverityWarning},
		{"error rate at threshold", models.ExtractionStats{
			TotalRows:  10,
			ParsedRows: 7,
			Errors:     []string{"a", "b", "c"},
		}, SeverityNormal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, d.Assess(c.stats))
		})
	}
}
