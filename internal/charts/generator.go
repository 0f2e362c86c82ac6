package charts

import (
	"bytes"
	"fmt"
	"io"

	"github.com/catering/dashboard/internal/results"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// suiteChart renders a stacked passed/failed/skipped bar per suite of a run.
func (g *Generator) suiteChart(resp *results.RunResponse) (string, error) {
	return g.renderToString(g.suiteBar(resp))
}

func (g *Generator) suiteBar(resp *results.RunResponse) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Test Results",
			Subtitle: subtitle(resp),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Height: "300px",
			Width:  "100%",
		}),
	)

	xAxis := make([]string, len(resp.Suites))
	passed := make([]opts.BarData, len(resp.Suites))
	failed := make([]opts.BarData, len(resp.Suites))
	skipped := make([]opts.BarData, len(resp.Suites))

	for i, s := range resp.Suites {
		xAxis[i] = s.Name
		passed[i] = opts.BarData{Value: s.TotalPassed}
		failed[i] = opts.BarData{Value: s.TotalFailed}
		skipped[i] = opts.BarData{Value: s.Skipped()}
	}

	bar.SetXAxis(xAxis).
		AddSeries("Passed", passed, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#2e7d32"})).
		AddSeries("Failed", failed, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#c62828"})).
		AddSeries("Skipped", skipped, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"})).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "results"}))

	return bar
}

func (g *Generator) durationBar(resp *results.RunResponse) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Suite Duration (ms)"}),
		charts.WithInitializationOpts(opts.Initialization{
			Height: "200px",
			Width:  "100%",
		}),
	)

	xAxis := make([]string, len(resp.Suites))
	durations := make([]opts.BarData, len(resp.Suites))
	for i, s := range resp.Suites {
		xAxis[i] = s.Name
		durations[i] = opts.BarData{Value: s.TotalDurationMs}
	}

	bar.SetXAxis(xAxis).AddSeries("Duration", durations)

	return bar
}

// Page renders every run chart into a single HTML page.
func (g *Generator) Page(resp *results.RunResponse) (string, error) {
	page := components.NewPage()
	page.AddCharts(g.suiteBar(resp), g.durationBar(resp))
	return g.renderToString(page)
}

// Renderer is anything that can render itself to an io.Writer.
type Renderer interface {
	Render(w io.Writer) error
}

func (g *Generator) renderToString(c Renderer) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}

func subtitle(resp *results.RunResponse) string {
	return fmt.Sprintf("%d passed, %d failed, %d total", resp.Summary.Passed, resp.Summary.Failed, resp.Summary.Total)
}
