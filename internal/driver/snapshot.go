package driver

import (
	"fmt"
	"strings"

	"github.com/Buffnet/Zoho-Books/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// ParseRows freezes the rendered row container HTML into snapshots. Per
// cell it keeps the visible text, the element's attributes and the
// nested elements the extraction cascade can use as cues: anchors and
// badge-like spans.
func ParseRows(containerHTML string) ([]models.RowSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(containerHTML))
	if err != nil {
		return nil, fmt.Errorf("parse row container html: %w", err)
	}

	var rows []models.RowSnapshot
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row models.RowSnapshot
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cell := models.Cell{
				Text:  strings.TrimSpace(td.Text()),
				Attrs: map[string]string{},
			}
			for _, attr := range td.Nodes[0].Attr {
				cell.Attrs[attr.Key] = attr.Val
			}
			td.Find("a").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				cell.Links = append(cell.Links, models.Link{
					Text: strings.TrimSpace(a.Text()),
					Href: href,
				})
			})
			td.Find("span.badge, span.tag, span.status").Each(func(_ int, badge *goquery.Selection) {
				cell.Badges = append(cell.Badges, strings.TrimSpace(badge.Text()))
			})
			row.Cells = append(row.Cells, cell)
		})
		if len(row.Cells) > 0 {
			rows = append(rows, row)
		}
	})
	return rows, nil
}
