package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"simstats/internal/compare"
	"simstats/internal/trace"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment overrides, applied to defaults before flags are parsed
const (
	EnvLogLevel = "SIMSTATS_LOG_LEVEL"
	EnvChartDir = "SIMSTATS_CHART_DIR"
)

const defaultMetrics = "Cycles,Instrs,DRAMAccs,IPC,Retries"

// Compare configures the compare command
type Compare struct {
	MinePath       string
	BaselinePath   string
	MineFormat     string
	BaselineFormat string
	Expand         bool
	Kernel         string // Restrict the comparison to one kernel
	Metrics        string // Comma-separated chart metrics
	Output         string // .csv, .xlsx, or anything else for a text summary
	ChartDir       string // PNG charts are written here when set
	ShowSummary    bool
	LogLevel       string
}

// DefaultCompare returns the compare defaults with environment overrides applied
func DefaultCompare() Compare {
	return Compare{
		MineFormat:     trace.Native.Name,
		BaselineFormat: trace.SIMTight.Name,
		Metrics:        defaultMetrics,
		ChartDir:       os.Getenv(EnvChartDir),
		ShowSummary:    true,
		LogLevel:       envOr(EnvLogLevel, "info"),
	}
}

// RegisterFlags binds the fields to fs, using the current values as defaults
func (c *Compare) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.MinePath, "mine", c.MinePath, "Path to this simulator's trace (.log, .log.gz or exported .csv)")
	fs.StringVar(&c.BaselinePath, "baseline", c.BaselinePath, "Path to the SIMTight baseline trace")
	fs.StringVar(&c.MineFormat, "mine-format", c.MineFormat, "Dialect of the -mine trace: native (this simulator's [Statistics] output) or simtight")
	fs.StringVar(&c.BaselineFormat, "baseline-format", c.BaselineFormat, "Dialect of the -baseline trace: simtight or native")
	fs.BoolVar(&c.Expand, "expand", c.Expand, "Keep repeated kernel invocations as separate records")
	fs.StringVar(&c.Kernel, "kernel", c.Kernel, "Only compare this kernel")
	fs.StringVar(&c.Metrics, "metrics", c.Metrics, "Comma-separated metrics to chart")
	fs.StringVar(&c.Output, "output", c.Output, "Output file (.csv, .xlsx, or .txt for summary)")
	fs.StringVar(&c.ChartDir, "charts", c.ChartDir, "Directory for PNG bar charts (empty to skip)")
	fs.BoolVar(&c.ShowSummary, "summary", c.ShowSummary, "Print summary to stderr")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
}

// Validate checks required paths, dialects and metric names
func (c Compare) Validate() error {
	var err error
	if c.MinePath == "" {
		err = multierr.Append(err, fmt.Errorf("%w: -mine is required", ErrInvalidConfig))
	}
	if c.BaselinePath == "" {
		err = multierr.Append(err, fmt.Errorf("%w: -baseline is required", ErrInvalidConfig))
	}
	if _, dErr := trace.DialectByName(c.MineFormat); dErr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: -mine-format: %v", ErrInvalidConfig, dErr))
	}
	if _, dErr := trace.DialectByName(c.BaselineFormat); dErr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: -baseline-format: %v", ErrInvalidConfig, dErr))
	}
	if _, mErr := c.MetricList(); mErr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: -metrics: %v", ErrInvalidConfig, mErr))
	}
	return err
}

// MetricList parses the Metrics field
func (c Compare) MetricList() ([]compare.Metric, error) {
	var metrics []compare.Metric
	for _, name := range strings.Split(c.Metrics, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		m, err := compare.ParseMetric(name)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	if len(metrics) == 0 {
		return nil, fmt.Errorf("no metrics selected")
	}
	return metrics, nil
}

// Summarize configures the summarize command
type Summarize struct {
	Input       string
	Format      string
	Expand      bool
	Output      string // .csv, .json, or anything else for a text summary
	ShowSummary bool
	LogLevel    string
}

// DefaultSummarize returns the summarize defaults with environment overrides applied
func DefaultSummarize() Summarize {
	return Summarize{
		Format:      trace.SIMTight.Name,
		ShowSummary: true,
		LogLevel:    envOr(EnvLogLevel, "info"),
	}
}

// RegisterFlags binds the fields to fs, using the current values as defaults
func (s *Summarize) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.Input, "input", s.Input, "Path to the trace file (required)")
	fs.StringVar(&s.Format, "format", s.Format, "Trace dialect: simtight or native")
	fs.BoolVar(&s.Expand, "expand", s.Expand, "Keep repeated kernel invocations as separate records")
	fs.StringVar(&s.Output, "output", s.Output, "Output file (.csv, .json, or .txt for summary)")
	fs.BoolVar(&s.ShowSummary, "summary", s.ShowSummary, "Print summary to stderr")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "Log level: debug, info, warn, error")
}

// Validate checks the input path and dialect
func (s Summarize) Validate() error {
	var err error
	if s.Input == "" {
		err = multierr.Append(err, fmt.Errorf("%w: -input is required", ErrInvalidConfig))
	}
	if _, dErr := trace.DialectByName(s.Format); dErr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: -format: %v", ErrInvalidConfig, dErr))
	}
	return err
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
