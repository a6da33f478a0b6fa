package driver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleContainer = `
<table id="invoice-table">
  <thead><tr><th>Invoice</th><th>Customer</th><th>Status</th><th>Amount</th><th>Paid</th></tr></thead>
  <tbody>
    <tr>
      <td data-invoice-id="100"><a href="/app/invoices/100">Invoice100</a></td>
      <td><a href="/app/contacts/7">Acme Co</a></td>
      <td><span class="badge">Paid</span></td>
      <td class="amount">$1,200.00</td>
      <td>1 Jan 2024</td>
    </tr>
    <tr>
      <td>Invoice101</td>
      <td>Beta LLC</td>
      <td data-status="Overdue">Overdue</td>
      <td>$50.00</td>
      <td>-</td>
    </tr>
  </tbody>
</table>`

func TestParseRows(t *testing.T) {
	rows, err := ParseRows(sampleContainer)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	require.Len(t, first.Cells, 5)
	require.Equal(t, "100", first.Cells[0].Attrs["data-invoice-id"])
	require.Equal(t, "Invoice100", first.Cells[0].Links[0].Text)
	require.Equal(t, "/app/invoices/100", first.Cells[0].Links[0].Href)
	require.Equal(t, "/app/contacts/7", first.Cells[1].Links[0].Href)
	require.Equal(t, []string{"Paid"}, first.Cells[2].Badges)
	require.Equal(t, "amount", first.Cells[3].Attrs["class"])
	require.Equal(t, "$1,200.00", first.Cells[3].Text)
	require.Equal(t, "1 Jan 2024", first.Cells[4].Text)

	second := rows[1]
	require.Equal(t, "Overdue", second.Cells[2].Attrs["data-status"])
	require.Empty(t, second.Cells[0].Links)
}

func TestParseRowsSkipsHeaderAndEmpty(t *testing.T) {
	rows, err := ParseRows(`<table><thead><tr><th>only headers</th></tr></thead><tbody></tbody></table>`)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestParseRowsBadHTMLIsStillParsed(t *testing.T) {
	// goquery repairs malformed markup instead of failing.
	rows, err := ParseRows(`<table><tbody><tr><td>Invoice1</td><td>Acme`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Cells, 2)
}
