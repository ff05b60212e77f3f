package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"simstats/internal/compare"
	"simstats/internal/trace"
)

// WriteTraceFile writes trace data to a file based on extension: .json,
// .csv, or a text summary for anything else
func WriteTraceFile(filename string, data *trace.Data) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return WriteTraceJSON(file, data)
	case ".csv":
		return WriteTraceCSV(file, data)
	default:
		WriteTraceSummary(file, data)
		return nil
	}
}

// WriteCompareFile writes a comparison to a file based on extension: .xlsx
// (with charts of the given metrics), .csv, or a text summary
func WriteCompareFile(filename string, c *compare.Comparison, metrics []compare.Metric) (err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xlsx" {
		return WriteCompareXLSX(filename, c, metrics)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	if ext == ".csv" {
		return WriteCompareCSV(file, c)
	}
	WriteCompareSummary(file, c)
	return nil
}

// LoadTrace reads a trace for comparison. Exported .csv summaries are loaded
// directly; anything else is parsed as a trace log.
func LoadTrace(path string, opts ...trace.Option) (*trace.Data, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadTraceCSV(path)
	}
	return trace.ParseFile(path, opts...)
}
