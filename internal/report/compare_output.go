package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"simstats/internal/compare"
)

// Baseline label used in headers, legends and chart titles
const baselineLabel = "SIMTight"

// metricColumns are the per-side values written for every comparison row
var metricColumns = []struct {
	metric compare.Metric
	key    string
}{
	{compare.Cycles, "cycles"},
	{compare.Instrs, "instrs"},
	{compare.IPC, "ipc"},
	{compare.DRAMAccs, "dram_accs"},
	{compare.Retries, "retries"},
}

// WriteCompareCSV writes one row per kernel of either trace
func WriteCompareCSV(w io.Writer, c *compare.Comparison) error {
	writer := csv.NewWriter(w)

	headers := []string{"kernel", "match_type"}
	for _, col := range metricColumns {
		headers = append(headers, "mine_"+col.key, "baseline_"+col.key)
	}
	headers = append(headers, "cycles_change_pct")
	if err := writer.Write(headers); err != nil {
		return err
	}

	// Summary row over the common kernels
	summaryRow := []string{fmt.Sprintf("Total (%d common kernels)", len(c.Kernels())), ""}
	for _, col := range metricColumns {
		mine, base := c.Totals(col.metric)
		summaryRow = append(summaryRow, formatMetric(col.metric, mine), formatMetric(col.metric, base))
	}
	summaryRow = append(summaryRow, "")
	if err := writer.Write(summaryRow); err != nil {
		return err
	}

	for _, r := range c.Rows() {
		row := []string{r.Kernel, string(r.MatchType)}
		for _, col := range metricColumns {
			mineStr, baseStr := "", ""
			if r.HasMine {
				mineStr = formatMetric(col.metric, r.MineValue(col.metric))
			}
			if r.HasBaseline {
				baseStr = formatMetric(col.metric, r.BaselineValue(col.metric))
			}
			row = append(row, mineStr, baseStr)
		}
		changeStr := ""
		if pct, ok := r.Change(compare.Cycles); ok {
			changeStr = fmt.Sprintf("%.2f", pct)
		}
		row = append(row, changeStr)

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCompareSummary writes a human-readable comparison summary
func WriteCompareSummary(w io.Writer, c *compare.Comparison) {
	common := c.Kernels()

	fmt.Fprintf(w, "\n=== Trace Comparison Summary ===\n")
	fmt.Fprintf(w, "Mine:     %s\n", displayName(c.MineName, "mine"))
	fmt.Fprintf(w, "%-9s %s\n", baselineLabel+":", displayName(c.BaselineName, "baseline"))
	fmt.Fprintf(w, "Common kernels: %d (mine only: %d, %s only: %d)\n",
		len(common), len(c.MineOnly()), baselineLabel, len(c.BaselineOnly()))
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "%-10s %16s %16s %10s\n", "Metric", "Mine", baselineLabel, "Change")
	for _, m := range compare.Metrics() {
		mine, base := c.Totals(m)
		change := "-"
		if base != 0 {
			change = fmt.Sprintf("%+.1f%%", (mine-base)/base*100)
		}
		fmt.Fprintf(w, "%-10s %16s %16s %10s\n", m, formatMetric(m, mine), formatMetric(m, base), change)
	}
	fmt.Fprintf(w, "\n")

	// Largest cycle differences first
	fmt.Fprintf(w, "=== Top 10 Kernels by Cycles Change ===\n")
	type entry struct {
		row compare.Row
		pct float64
	}
	var entries []entry
	for _, r := range c.Rows() {
		if pct, ok := r.Change(compare.Cycles); ok {
			entries = append(entries, entry{r, pct})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return abs(entries[i].pct) > abs(entries[j].pct)
	})
	for i := 0; i < min(10, len(entries)); i++ {
		e := entries[i]
		fmt.Fprintf(w, "%2d. %+.1f%% %s\n", i+1, e.pct, truncateString(e.row.Kernel, 70))
		fmt.Fprintf(w, "    Cycles: %.0f vs %.0f | IPC: %.3f vs %.3f\n",
			e.row.MineValue(compare.Cycles), e.row.BaselineValue(compare.Cycles),
			e.row.MineValue(compare.IPC), e.row.BaselineValue(compare.IPC))
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "  (none)\n")
	}

	fmt.Fprintf(w, "\n=== Kernels Missing From %s ===\n", baselineLabel)
	writeNameList(w, c.MineOnly())
	fmt.Fprintf(w, "\n=== Kernels Missing From Mine ===\n")
	writeNameList(w, c.BaselineOnly())
}

// WriteKernelSummary writes the single-kernel view
func WriteKernelSummary(w io.Writer, r compare.Row) {
	fmt.Fprintf(w, "\n=== Kernel: %s ===\n", r.Kernel)
	fmt.Fprintf(w, "%-10s %16s %16s %10s\n", "Metric", "Mine", baselineLabel, "Change")
	for _, m := range append(compare.Metrics(), compare.Susps) {
		change := "-"
		if pct, ok := r.Change(m); ok {
			change = fmt.Sprintf("%+.1f%%", pct)
		}
		fmt.Fprintf(w, "%-10s %16s %16s %10s\n", m,
			formatMetric(m, r.MineValue(m)), formatMetric(m, r.BaselineValue(m)), change)
	}
}

func writeNameList(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(w, "  (none)\n")
		return
	}
	for _, name := range names {
		fmt.Fprintf(w, "  - %s\n", truncateString(name, 75))
	}
}

func formatMetric(m compare.Metric, v float64) string {
	if m == compare.IPC {
		return fmt.Sprintf("%.4f", v)
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func displayName(name, fallback string) string {
	if name == "" {
		return "(" + fallback + ")"
	}
	return name
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
