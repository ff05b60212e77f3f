package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"simstats/internal/trace"
)

var traceCSVHeader = []string{
	"kernel_name",
	"cycles",
	"instrs",
	"susps",
	"retries",
	"dram_accs",
	"ipc",
	"invocations",
}

// WriteTraceCSV writes one row per kernel, sorted by name
func WriteTraceCSV(w io.Writer, data *trace.Data) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(traceCSVHeader); err != nil {
		return err
	}

	for _, k := range data.Records() {
		row := []string{
			k.Name,
			strconv.FormatUint(k.Stats.Get(trace.Cycles), 10),
			strconv.FormatUint(k.Stats.Get(trace.Instrs), 10),
			strconv.FormatUint(k.Stats.Get(trace.Susps), 10),
			strconv.FormatUint(k.Stats.Get(trace.Retries), 10),
			strconv.FormatUint(k.Stats.Get(trace.DRAMAccs), 10),
			fmt.Sprintf("%.4f", k.IPC()),
			strconv.Itoa(k.Invocations),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadTraceCSV loads kernel records from a CSV written by WriteTraceCSV.
// Columns are located by header name; IPC is recomputed from the counters.
func ReadTraceCSV(path string) (data *trace.Data, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Find column indices
	nameIdx := -1
	invocationsIdx := -1
	counterIdx := map[trace.Counter]int{}
	for i, col := range header {
		switch col {
		case "kernel_name":
			nameIdx = i
		case "cycles":
			counterIdx[trace.Cycles] = i
		case "instrs":
			counterIdx[trace.Instrs] = i
		case "susps":
			counterIdx[trace.Susps] = i
		case "retries":
			counterIdx[trace.Retries] = i
		case "dram_accs":
			counterIdx[trace.DRAMAccs] = i
		case "invocations":
			invocationsIdx = i
		}
	}

	cyclesIdx, hasCycles := counterIdx[trace.Cycles]
	if nameIdx == -1 || !hasCycles {
		return nil, fmt.Errorf("CSV missing required columns (kernel_name, cycles)")
	}

	var records []trace.KernelRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		if len(row) <= nameIdx || len(row) <= cyclesIdx {
			continue
		}
		if _, err := strconv.ParseUint(row[cyclesIdx], 10, 64); err != nil {
			continue // Skip invalid rows
		}

		k := trace.KernelRecord{Name: row[nameIdx], Invocations: 1}
		for c, idx := range counterIdx {
			if idx >= len(row) {
				continue
			}
			if v, err := strconv.ParseUint(row[idx], 10, 64); err == nil {
				if err := k.Stats.Add(c, v); err != nil {
					return nil, fmt.Errorf("kernel %q: %w", k.Name, err)
				}
			}
		}
		if invocationsIdx >= 0 && invocationsIdx < len(row) {
			if v, err := strconv.Atoi(row[invocationsIdx]); err == nil {
				k.Invocations = v
			}
		}

		records = append(records, k)
	}

	data, err = trace.NewData(filepath.Base(path), records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return data, nil
}

type jsonRecord struct {
	Kernel      string  `json:"kernel"`
	Cycles      uint64  `json:"cycles"`
	Instrs      uint64  `json:"instrs"`
	Susps       uint64  `json:"susps"`
	Retries     uint64  `json:"retries"`
	DRAMAccs    uint64  `json:"dram_accs"`
	IPC         float64 `json:"ipc"`
	Invocations int     `json:"invocations"`
}

// WriteTraceJSON writes the kernel records as an indented JSON array
func WriteTraceJSON(w io.Writer, data *trace.Data) error {
	out := make([]jsonRecord, 0, data.Len())
	for _, k := range data.Records() {
		out = append(out, jsonRecord{
			Kernel:      k.Name,
			Cycles:      k.Stats.Get(trace.Cycles),
			Instrs:      k.Stats.Get(trace.Instrs),
			Susps:       k.Stats.Get(trace.Susps),
			Retries:     k.Stats.Get(trace.Retries),
			DRAMAccs:    k.Stats.Get(trace.DRAMAccs),
			IPC:         k.IPC(),
			Invocations: k.Invocations,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// WriteTraceSummary writes a human-readable summary
func WriteTraceSummary(w io.Writer, data *trace.Data) {
	total := data.Total()
	totalCycles := total.Stats.Get(trace.Cycles)

	fmt.Fprintf(w, "\n=== Trace Summary ===\n")
	if data.Source() != "" {
		fmt.Fprintf(w, "Trace: %s\n", data.Source())
	}
	fmt.Fprintf(w, "Kernels: %d (%d invocations)\n", data.Len(), total.Invocations)
	fmt.Fprintf(w, "Total Cycles: %d\n", totalCycles)
	fmt.Fprintf(w, "Total Instrs: %d\n", total.Stats.Get(trace.Instrs))
	fmt.Fprintf(w, "Total DRAMAccs: %d\n", total.Stats.Get(trace.DRAMAccs))
	fmt.Fprintf(w, "Overall IPC: %.3f\n", total.IPC())
	fmt.Fprintf(w, "\n")

	// Top 10 kernels by cycles
	fmt.Fprintf(w, "=== Top 10 Kernels by Cycles ===\n")
	sorted := data.Records()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stats.Get(trace.Cycles) > sorted[j].Stats.Get(trace.Cycles)
	})

	for i := 0; i < min(10, len(sorted)); i++ {
		k := sorted[i]
		fmt.Fprintf(w, "%2d. %s\n", i+1, truncateString(k.Name, 80))
		fmt.Fprintf(w, "      Cycles: %d | Instrs: %d | IPC: %.3f | DRAMAccs: %d | Retries: %d  (%.2f%% of cycles)\n",
			k.Stats.Get(trace.Cycles), k.Stats.Get(trace.Instrs), k.IPC(),
			k.Stats.Get(trace.DRAMAccs), k.Stats.Get(trace.Retries),
			percent(float64(k.Stats.Get(trace.Cycles)), float64(totalCycles)))
	}
	fmt.Fprintf(w, "\n")

	// Distribution by kernel group
	fmt.Fprintf(w, "=== Kernel Group Distribution ===\n")
	type groupInfo struct {
		name   string
		count  int
		cycles uint64
	}
	groups := make(map[string]*groupInfo)
	for _, k := range data.Records() {
		name := kernelGroup(k.Name)
		g, ok := groups[name]
		if !ok {
			g = &groupInfo{name: name}
			groups[name] = g
		}
		g.count++
		g.cycles += k.Stats.Get(trace.Cycles)
	}

	list := make([]*groupInfo, 0, len(groups))
	for _, g := range groups {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].cycles != list[j].cycles {
			return list[i].cycles > list[j].cycles
		}
		return list[i].name < list[j].name
	})

	for _, g := range list {
		fmt.Fprintf(w, "  %-20s: %4d kernels, %d cycles (%.1f%%)\n",
			g.name, g.count, g.cycles, percent(float64(g.cycles), float64(totalCycles)))
	}
}

// kernelGroup returns the directory part of a kernel path such as
// "Samples/VecAdd", ignoring any expand-mode suffix
func kernelGroup(name string) string {
	base, _ := trace.BaseName(name)
	if i := strings.LastIndex(base, "/"); i > 0 {
		return base[:i]
	}
	return "Other"
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
