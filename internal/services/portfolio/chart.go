package portfolio

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/tradedesk/internal/models"
)

const (
	chartWidth  = 1000
	chartHeight = 420

	// Spans longer than this label the x axis by month.
	monthlyLabelSpan = 90 * 24 * time.Hour
)

var (
	colorValue     = drawing.ColorFromHex("0f766e")
	colorInvested  = drawing.ColorFromHex("64748b")
	colorFunds     = drawing.ColorFromHex("d97706")
	colorFallback  = drawing.ColorFromHex("dc2626")
	valueAreaColor = colorValue.WithAlpha(48)
)

// historySeries is the chart data extracted from a run of snapshots.
type historySeries struct {
	Dates    []time.Time
	Value    []float64
	Invested []float64
	Funds    []float64

	// Days whose daily figure had no reference snapshot.
	FallbackDates  []time.Time
	FallbackValues []float64
}

// buildHistorySeries orders snapshots by date and splits them into series.
func buildHistorySeries(points []*models.DailySnapshot) historySeries {
	sorted := make([]*models.DailySnapshot, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var hs historySeries
	for _, p := range sorted {
		hs.Dates = append(hs.Dates, p.Date)
		hs.Value = append(hs.Value, p.TotalValue)
		hs.Invested = append(hs.Invested, p.InvestedAmount)
		hs.Funds = append(hs.Funds, p.AvailableFunds)
		if p.Basis.Daily == models.BasisOverall {
			hs.FallbackDates = append(hs.FallbackDates, p.Date)
			hs.FallbackValues = append(hs.FallbackValues, p.TotalValue)
		}
	}
	return hs
}

// formatMoney renders axis values compactly: 950.00, 12.5k, 1.25M.
func formatMoney(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func dateLabelFormat(dates []time.Time) string {
	if len(dates) > 1 && dates[len(dates)-1].Sub(dates[0]) > monthlyLabelSpan {
		return "Jan 2006"
	}
	return "Jan 02"
}

// RenderHistoryChart renders daily snapshots as a PNG. Total value is drawn
// as a filled area over invested amount and available funds; days whose
// daily performance fell back to the overall figure are marked with dots.
func RenderHistoryChart(points []*models.DailySnapshot) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 snapshots, got %d", len(points))
	}
	hs := buildHistorySeries(points)

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Total value",
			Style:   chart.Style{StrokeColor: colorValue, FillColor: valueAreaColor, StrokeWidth: 2},
			XValues: hs.Dates,
			YValues: hs.Value,
		},
		chart.TimeSeries{
			Name:    "Invested",
			Style:   chart.Style{StrokeColor: colorInvested, StrokeWidth: 1.5, StrokeDashArray: []float64{6, 4}},
			XValues: hs.Dates,
			YValues: hs.Invested,
		},
		chart.TimeSeries{
			Name:    "Available funds",
			Style:   chart.Style{StrokeColor: colorFunds, StrokeWidth: 1},
			XValues: hs.Dates,
			YValues: hs.Funds,
		},
	}
	if len(hs.FallbackDates) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "No daily reference",
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 3, DotColor: colorFallback},
			XValues: hs.FallbackDates,
			YValues: hs.FallbackValues,
		})
	}

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 40},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(dateLabelFormat(hs.Dates)),
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return formatMoney(f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render history chart: %w", err)
	}
	return buf.Bytes(), nil
}
