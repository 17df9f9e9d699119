package common_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/restock/cmd/common"
	"github.com/jonesrussell/north-cloud/restock/internal/availability"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/monitor"
)

func TestRenderProducts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	common.RenderProducts(&buf, []domain.Product{
		{Name: "Millennium Falcon", Price: 84999, ProductID: 75192, URL: "https://www.lego.com/de-de/product/falcon-75192"},
	})

	out := buf.String()
	assert.Contains(t, out, "75192")
	assert.Contains(t, out, "849,99")
	assert.Contains(t, out, "Millennium Falcon")
}

func TestRenderHistory(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	common.RenderHistory(&buf,
		&domain.Product{Name: "X-Wing", ProductID: 75355},
		[]domain.AvailabilityRecord{
			{ID: 1, ProductID: 75355, Code: availability.SoldOut, Timestamp: time.Now()},
			{ID: 2, ProductID: 75355, Code: availability.Available, Timestamp: time.Now()},
		})

	out := buf.String()
	assert.Contains(t, out, "X-Wing #75355")
	assert.Contains(t, out, "Ausverkauft")
	assert.Contains(t, out, "Jetzt verfügbar")
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	common.RenderReport(&buf, monitor.Report{Job: monitor.JobPrune, RunID: "run-1", Pruned: 12})

	assert.Contains(t, buf.String(), "prune run-1")
	assert.Contains(t, buf.String(), "12")
	assert.Contains(t, buf.String(), "Suppressed")
}
