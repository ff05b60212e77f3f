package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"simstats/internal/compare"
)

const (
	compareSheet = "Comparison"
	dataSheet    = "Data"
	chartsSheet  = "Charts"

	// Rows between stacked charts on the Charts sheet
	chartRowStride = 18
)

// WriteCompareXLSX writes the comparison to an Excel workbook: a styled
// per-kernel sheet with a cycles-change heatmap, and one clustered column
// chart per metric comparing the common kernels.
func WriteCompareXLSX(filename string, c *compare.Comparison, metrics []compare.Metric) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(compareSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := writeCompareSheet(f, c); err != nil {
		return fmt.Errorf("failed to write %s sheet: %w", compareSheet, err)
	}
	if len(c.Kernels()) > 0 && len(metrics) > 0 {
		if err := writeChartSheets(f, c, metrics); err != nil {
			return fmt.Errorf("failed to write charts: %w", err)
		}
	}

	return f.SaveAs(filename)
}

func writeCompareSheet(f *excelize.File, c *compare.Comparison) error {
	sheet := compareSheet

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	commonStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1}, // Light green - in both traces
	})

	baselineOnlyStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1}, // Light red - baseline only
	})

	mineOnlyStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1}, // Light yellow - mine only
	})

	// Heatmap styles for the change column
	fewerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#00B050"}, Pattern: 1}, // Green
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		NumFmt:    2,
	})

	moreStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FF0000"}, Pattern: 1}, // Red
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		NumFmt:    2,
	})

	neutralStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC000"}, Pattern: 1}, // Amber
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		NumFmt:    2,
	})

	headers := []string{"Kernel"}
	for _, col := range metricColumns {
		headers = append(headers, "Mine "+string(col.metric), baselineLabel+" "+string(col.metric))
	}
	headers = append(headers, "Cycles Change (%)", "Match Type")

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	changeCol, _ := excelize.ColumnNumberToName(len(headers) - 1)
	lastValueCol, _ := excelize.ColumnNumberToName(len(headers) - 2)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	f.SetColWidth(sheet, "A", "A", 45)
	f.SetColWidth(sheet, "B", lastValueCol, 14)
	f.SetColWidth(sheet, changeCol, changeCol, 18)
	f.SetColWidth(sheet, lastCol, lastCol, 15)

	// Summary row over the common kernels
	f.SetCellValue(sheet, "A2", fmt.Sprintf("Total (%d common kernels)", len(c.Kernels())))
	for i, col := range metricColumns {
		mine, base := c.Totals(col.metric)
		mineCell, _ := excelize.CoordinatesToCellName(2+2*i, 2)
		baseCell, _ := excelize.CoordinatesToCellName(3+2*i, 2)
		f.SetCellValue(sheet, mineCell, mine)
		f.SetCellValue(sheet, baseCell, base)
	}

	row := 3
	for _, r := range c.Rows() {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Kernel)

		for i, col := range metricColumns {
			if r.HasMine {
				cell, _ := excelize.CoordinatesToCellName(2+2*i, row)
				f.SetCellValue(sheet, cell, r.MineValue(col.metric))
			}
			if r.HasBaseline {
				cell, _ := excelize.CoordinatesToCellName(3+2*i, row)
				f.SetCellValue(sheet, cell, r.BaselineValue(col.metric))
			}
		}

		// Negative = fewer cycles than the baseline, positive = more
		changeCell := fmt.Sprintf("%s%d", changeCol, row)
		if pct, ok := r.Change(compare.Cycles); ok {
			f.SetCellValue(sheet, changeCell, pct)
			if pct < -5 {
				f.SetCellStyle(sheet, changeCell, changeCell, fewerStyle)
			} else if pct > 5 {
				f.SetCellStyle(sheet, changeCell, changeCell, moreStyle)
			} else {
				f.SetCellStyle(sheet, changeCell, changeCell, neutralStyle)
			}
		} else if r.MatchType == compare.MatchMineOnly {
			f.SetCellValue(sheet, changeCell, "MINE ONLY")
			f.SetCellStyle(sheet, changeCell, changeCell, neutralStyle)
		} else if r.MatchType == compare.MatchBaselineOnly {
			f.SetCellValue(sheet, changeCell, "MISSING")
			f.SetCellStyle(sheet, changeCell, changeCell, moreStyle)
		}

		typeCell := fmt.Sprintf("%s%d", lastCol, row)
		f.SetCellValue(sheet, typeCell, string(r.MatchType))

		// Row style by match type, excluding the change column
		var style int
		switch r.MatchType {
		case compare.MatchCommon:
			style = commonStyle
		case compare.MatchMineOnly:
			style = mineOnlyStyle
		case compare.MatchBaselineOnly:
			style = baselineOnlyStyle
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastValueCol, row), style)
		f.SetCellStyle(sheet, typeCell, typeCell, style)

		row++
	}

	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, max(row-1, 1)), nil); err != nil {
		return err
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// writeChartSheets lays out the common-kernel series on the Data sheet and
// adds one chart per metric to the Charts sheet
func writeChartSheets(f *excelize.File, c *compare.Comparison, metrics []compare.Metric) error {
	if _, err := f.NewSheet(dataSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(chartsSheet); err != nil {
		return err
	}

	kernels := c.Kernels()
	lastRow := len(kernels) + 1

	f.SetCellValue(dataSheet, "A1", "Kernel")
	for i, name := range kernels {
		f.SetCellValue(dataSheet, fmt.Sprintf("A%d", i+2), name)
	}

	for i, m := range metrics {
		mineColName, _ := excelize.ColumnNumberToName(2 + 2*i)
		baseColName, _ := excelize.ColumnNumberToName(3 + 2*i)

		f.SetCellValue(dataSheet, mineColName+"1", "Mine")
		f.SetCellValue(dataSheet, baseColName+"1", baselineLabel)

		mine, base := c.Series(m)
		for j := range kernels {
			f.SetCellValue(dataSheet, fmt.Sprintf("%s%d", mineColName, j+2), mine[j])
			f.SetCellValue(dataSheet, fmt.Sprintf("%s%d", baseColName, j+2), base[j])
		}

		categories := fmt.Sprintf("%s!$A$2:$A$%d", dataSheet, lastRow)
		chart := &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{
				{
					Name:       fmt.Sprintf("%s!$%s$1", dataSheet, mineColName),
					Categories: categories,
					Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", dataSheet, mineColName, mineColName, lastRow),
				},
				{
					Name:       fmt.Sprintf("%s!$%s$1", dataSheet, baseColName),
					Categories: categories,
					Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", dataSheet, baseColName, baseColName, lastRow),
				},
			},
			Title:     []excelize.RichTextRun{{Text: chartTitle(m)}},
			Legend:    excelize.ChartLegend{Position: "bottom"},
			Dimension: excelize.ChartDimension{Width: 720, Height: 340},
		}

		anchor := fmt.Sprintf("A%d", 1+i*chartRowStride)
		if err := f.AddChart(chartsSheet, anchor, chart); err != nil {
			return fmt.Errorf("%s chart: %w", m, err)
		}
	}

	f.SetColWidth(dataSheet, "A", "A", 45)
	return nil
}

func chartTitle(m compare.Metric) string {
	return fmt.Sprintf("GPU %s by GPU, Kernel", m)
}
