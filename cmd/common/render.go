package common

import (
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/monitor"
	"github.com/jonesrussell/north-cloud/restock/internal/normalize"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderProducts writes products as a table.
func RenderProducts(w io.Writer, products []domain.Product) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Product ID", "Name", "Price (€)", "URL", "Updated"})
	for _, p := range products {
		t.AppendRow(table.Row{
			p.ProductID,
			p.Name,
			normalize.FormatPrice(p.Price),
			p.URL,
			formatTime(p.UpdatedAt),
		})
	}
	t.AppendFooter(table.Row{"", "Total", len(products)})
	t.Render()
}

// RenderHistory writes the availability history of one product.
func RenderHistory(w io.Writer, p *domain.Product, history []domain.AvailabilityRecord) {
	t := newTable(w)
	t.SetTitle(p.Name + " #" + strconv.FormatInt(p.ProductID, 10))
	t.AppendHeader(table.Row{"#", "Timestamp", "Code", "Availability"})
	for i, rec := range history {
		t.AppendRow(table.Row{i + 1, formatTime(rec.Timestamp), int(rec.Code), rec.Code.String()})
	}
	t.Render()
}

// RenderReport writes the summary of a job run.
func RenderReport(w io.Writer, r monitor.Report) {
	t := newTable(w)
	t.SetTitle(r.Job + " " + r.RunID)
	t.AppendRows([]table.Row{
		{"Duration", r.Duration.Round(time.Millisecond).String()},
		{"Pages", r.Crawl.Pages},
		{"Items", r.Crawl.Items},
		{"Extract errors", r.Crawl.ExtractErrors},
		{"Fetch errors", r.Crawl.FetchErrors},
		{"Passed", r.Passed},
		{"Dropped", r.Dropped},
		{"Failed", r.Failed},
		{"Notified", r.Notified},
		{"Notify failures", r.NotifyFailures},
		{"Suppressed", r.Suppressed},
		{"Pruned", r.Pruned},
	})
	t.Render()
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(timeLayout)
}
