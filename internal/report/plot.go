package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"simstats/internal/compare"
)

// ErrNoCommonKernels is returned when there is nothing to chart
var ErrNoCommonKernels = errors.New("no kernels common to both traces")

var (
	mineColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255} // Blue
	baselineColor = color.RGBA{R: 255, G: 127, B: 14, A: 255} // Orange

	chartWidth  = 8 * vg.Inch
	chartHeight = 4 * vg.Inch
)

const (
	// barFraction is the width of one bar as a share of a kernel's slot on
	// the X axis. Two bars per kernel leave 0.3 of the slot as a gap.
	barFraction = 0.35

	// dataAreaFraction is the approximate share of the chart width left to
	// the bars once axes and padding are drawn
	dataAreaFraction = 0.85
)

// barWidthFor returns the bar width for a chart of n kernels
func barWidthFor(n int) vg.Length {
	if n < 1 {
		n = 1
	}
	slot := chartWidth * dataAreaFraction / vg.Length(n)
	return slot * barFraction
}

// overviewGrid is the 2x2 tile layout of SaveOverviewPNG
var overviewGrid = [][]compare.Metric{
	{compare.DRAMAccs, compare.Cycles},
	{compare.Instrs, compare.IPC},
}

// newMetricPlot builds a grouped bar chart of one metric, one pair of bars
// (Mine, SIMTight) per common kernel
func newMetricPlot(c *compare.Comparison, m compare.Metric) (*plot.Plot, error) {
	kernels := c.Kernels()
	if len(kernels) == 0 {
		return nil, ErrNoCommonKernels
	}
	mine, baseline := c.Series(m)
	barWidth := barWidthFor(len(kernels))

	p := plot.New()
	p.Title.Text = chartTitle(m)
	p.X.Label.Text = "Kernel"
	p.Y.Label.Text = string(m)

	mineBars, err := plotter.NewBarChart(plotter.Values(mine), barWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to create bar chart: %w", err)
	}
	mineBars.LineStyle.Width = vg.Length(0)
	mineBars.Color = mineColor
	mineBars.Offset = -barWidth / 2

	baselineBars, err := plotter.NewBarChart(plotter.Values(baseline), barWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to create bar chart: %w", err)
	}
	baselineBars.LineStyle.Width = vg.Length(0)
	baselineBars.Color = baselineColor
	baselineBars.Offset = barWidth / 2

	p.Add(mineBars, baselineBars)
	p.Legend.Add("Mine", mineBars)
	p.Legend.Add(baselineLabel, baselineBars)
	p.Legend.Top = true
	p.NominalX(kernels...)
	p.X.Tick.Label.Rotation = 0.4
	p.X.Tick.Label.XAlign = draw.XRight

	return p, nil
}

// PlotMetric renders the bar chart of one metric as PNG to w
func PlotMetric(w io.Writer, c *compare.Comparison, m compare.Metric) error {
	p, err := newMetricPlot(c, m)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s chart: %w", m, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveMetricPNG writes the bar chart of one metric to path
func SaveMetricPNG(path string, c *compare.Comparison, m compare.Metric) error {
	p, err := newMetricPlot(c, m)
	if err != nil {
		return err
	}
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// SaveOverviewPNG writes a 2x2 overview of DRAMAccs, Cycles, Instrs and IPC
func SaveOverviewPNG(path string, c *compare.Comparison) (err error) {
	rows, cols := len(overviewGrid), len(overviewGrid[0])
	plots := make([][]*plot.Plot, rows)
	for j := range overviewGrid {
		plots[j] = make([]*plot.Plot, cols)
		for i, m := range overviewGrid[j] {
			if plots[j][i], err = newMetricPlot(c, m); err != nil {
				return err
			}
		}
	}

	img := vgimg.New(2*chartWidth, 2*chartHeight)
	dc := draw.New(img)

	t := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}

	canvases := plot.Align(plots, t, dc)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ChartFileName returns the PNG file name used for a metric
func ChartFileName(m compare.Metric) string {
	return "gpu_" + strings.ToLower(string(m)) + ".png"
}

// SaveCharts writes one PNG per metric plus overview.png into dir and
// returns the written paths. Failures of individual charts are combined.
func SaveCharts(dir string, c *compare.Comparison, metrics []compare.Metric) ([]string, error) {
	if len(c.Kernels()) == 0 {
		return nil, ErrNoCommonKernels
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory %s: %w", dir, err)
	}

	var (
		written []string
		errs    error
	)
	for _, m := range metrics {
		path := filepath.Join(dir, ChartFileName(m))
		if err := SaveMetricPNG(path, c, m); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		written = append(written, path)
	}

	overview := filepath.Join(dir, "overview.png")
	if err := SaveOverviewPNG(overview, c); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		written = append(written, overview)
	}

	return written, errs
}
