// Package chart renders report series as PNG images.
package chart

import (
	"fmt"
	"io"
	"slices"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"moneygr/internal/core"
	"moneygr/internal/report"
)

const (
	width  = 1024
	height = 480
)

var (
	outcomeColor = drawing.ColorFromHex("d9534f")
	incomeColor  = drawing.ColorFromHex("5cb85c")
)

// point is one period in chronological order.
type point struct {
	at      time.Time
	label   string
	outcome float64
	income  float64
}

// Render draws the outcome and income series. With stack set, each period
// is drawn as one bar stacking outcome over income; otherwise as two lines.
func Render(w io.Writer, s report.Series, stack bool) error {
	points := chronological(s)
	switch {
	case stack && len(points) > 0:
		return renderStacked(w, points)
	case len(points) < 2:
		return renderBars(w, points)
	default:
		return renderLines(w, s.Granularity, points)
	}
}

func chronological(s report.Series) []point {
	incomes := make(map[string]int64, len(s.Incomes))
	for _, in := range s.Incomes {
		incomes[in.IncomeDate.String()] = in.SubTotal
	}
	layout := "01-02"
	if s.Granularity == report.Monthly {
		layout = "2006-01"
	}
	points := make([]point, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		points = append(points, point{
			at:      o.OutcomeDate.Time,
			label:   o.OutcomeDate.Format(layout),
			outcome: float64(o.SubTotal),
			income:  float64(incomes[o.OutcomeDate.String()]),
		})
	}
	slices.SortFunc(points, func(a, b point) int { return a.at.Compare(b.at) })
	return points
}

func renderLines(w io.Writer, g report.Granularity, points []point) error {
	xs := make([]time.Time, len(points))
	outcomes := make([]float64, len(points))
	incomes := make([]float64, len(points))
	for i, p := range points {
		xs[i], outcomes[i], incomes[i] = p.at, p.outcome, p.income
	}
	layout := "01-02"
	if g == report.Monthly {
		layout = "2006-01"
	}

	graph := gochart.Chart{
		Width:      width,
		Height:     height,
		Background: background(),
		XAxis:      gochart.XAxis{ValueFormatter: gochart.TimeValueFormatterWithFormat(layout)},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: maxValue(points)},
			ValueFormatter: amountFormatter,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "Outcome",
				XValues: xs,
				YValues: outcomes,
				Style:   gochart.Style{StrokeColor: outcomeColor, StrokeWidth: 2},
			},
			gochart.TimeSeries{
				Name:    "Income",
				XValues: xs,
				YValues: incomes,
				Style:   gochart.Style{StrokeColor: incomeColor, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}

// renderBars covers zero or one period, where a time axis has no range.
func renderBars(w io.Writer, points []point) error {
	bars := []gochart.Value{{Label: "no data", Value: 0}}
	if len(points) == 1 {
		p := points[0]
		bars = []gochart.Value{
			{Label: "Outcome " + p.label, Value: p.outcome, Style: barStyle(outcomeColor)},
			{Label: "Income " + p.label, Value: p.income, Style: barStyle(incomeColor)},
		}
	}
	graph := gochart.BarChart{
		Width:      width,
		Height:     height,
		BarWidth:   80,
		Background: background(),
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: maxValue(points)},
			ValueFormatter: amountFormatter,
		},
		Bars: bars,
	}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func renderStacked(w io.Writer, points []point) error {
	bars := make([]gochart.StackedBar, 0, len(points))
	for _, p := range points {
		bars = append(bars, gochart.StackedBar{
			Name: p.label,
			Values: []gochart.Value{
				{Label: "Outcome", Value: p.outcome, Style: barStyle(outcomeColor)},
				{Label: "Income", Value: p.income, Style: barStyle(incomeColor)},
			},
		})
	}
	graph := gochart.StackedBarChart{
		Width:      width,
		Height:     height,
		Background: background(),
		Bars:       bars,
	}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render stacked chart: %w", err)
	}
	return nil
}

func background() gochart.Style {
	return gochart.Style{
		Padding:   gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		FillColor: gochart.ColorWhite,
	}
}

func barStyle(c drawing.Color) gochart.Style {
	return gochart.Style{FillColor: c, StrokeColor: c}
}

// maxValue never returns 0 so the y axis always has a range.
func maxValue(points []point) float64 {
	m := 1.0
	for _, p := range points {
		m = max(m, p.outcome, p.income)
	}
	return m
}

func amountFormatter(v any) string {
	if f, ok := v.(float64); ok {
		return core.FormatAmount(int64(f))
	}
	return ""
}
