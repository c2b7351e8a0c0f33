package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tradedesk/internal/models"
)

func TestBuildHistorySeries(t *testing.T) {
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)

	// Out of order on purpose
	hs := buildHistorySeries([]*models.DailySnapshot{
		{Date: d3, TotalValue: 130, InvestedAmount: 100, AvailableFunds: 20, Basis: models.PerformanceBasis{Daily: "2026-03-02"}},
		{Date: d1, TotalValue: 100, InvestedAmount: 100, AvailableFunds: 50, Basis: models.PerformanceBasis{Daily: models.BasisOverall}},
		{Date: d2, TotalValue: 110, InvestedAmount: 100, AvailableFunds: 30, Basis: models.PerformanceBasis{Daily: "2026-03-01"}},
	})

	assert.Equal(t, []time.Time{d1, d2, d3}, hs.Dates)
	assert.Equal(t, []float64{100, 110, 130}, hs.Value)
	assert.Equal(t, []float64{50, 30, 20}, hs.Funds)
	require.Len(t, hs.FallbackDates, 1)
	assert.Equal(t, d1, hs.FallbackDates[0])
	assert.Equal(t, []float64{100}, hs.FallbackValues)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "950.00", formatMoney(950))
	assert.Equal(t, "9999.50", formatMoney(9999.5))
	assert.Equal(t, "12.5k", formatMoney(12500))
	assert.Equal(t, "-20.0k", formatMoney(-20000))
	assert.Equal(t, "1.25M", formatMoney(1250000))
}

func TestDateLabelFormat(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jan 02", dateLabelFormat([]time.Time{start, start.AddDate(0, 0, 30)}))
	assert.Equal(t, "Jan 2006", dateLabelFormat([]time.Time{start, start.AddDate(0, 6, 0)}))
}

func TestRenderHistoryChart_MarksFallbackDays(t *testing.T) {
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	png, err := RenderHistoryChart([]*models.DailySnapshot{
		{Date: d1, TotalValue: 1000, InvestedAmount: 1000, Basis: models.PerformanceBasis{Daily: models.BasisOverall}},
		{Date: d1.AddDate(0, 0, 1), TotalValue: 1050, InvestedAmount: 1000, AvailableFunds: 200},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = RenderHistoryChart(nil)
	assert.Error(t, err)
}
