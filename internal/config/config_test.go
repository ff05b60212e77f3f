package config

import (
	"errors"
	"flag"
	"io"
	"testing"

	"simstats/internal/compare"
)

func TestDefaultCompareEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvChartDir, "/tmp/charts")

	c := DefaultCompare()
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}
	if c.ChartDir != "/tmp/charts" {
		t.Errorf("ChartDir = %q", c.ChartDir)
	}
	if c.MineFormat != "native" || c.BaselineFormat != "simtight" {
		t.Errorf("formats = %q, %q", c.MineFormat, c.BaselineFormat)
	}
}

func TestCompareFlagsOverrideEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")

	c := DefaultCompare()
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c.RegisterFlags(fs)
	args := []string{"-mine", "a.log", "-baseline", "b.log", "-log-level", "warn", "-expand", "-mine-format", "simtight"}
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}

	if c.LogLevel != "warn" || !c.Expand || c.MineFormat != "simtight" {
		t.Errorf("flags not applied: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestCompareValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Compare)
	}{
		{"missing mine", func(c *Compare) { c.MinePath = "" }},
		{"missing baseline", func(c *Compare) { c.BaselinePath = "" }},
		{"bad dialect", func(c *Compare) { c.BaselineFormat = "gem5" }},
		{"bad metric", func(c *Compare) { c.Metrics = "Cycles,Watts" }},
		{"no metrics", func(c *Compare) { c.Metrics = " , " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCompare()
			c.MinePath, c.BaselinePath = "a.log", "b.log"
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMetricList(t *testing.T) {
	c := DefaultCompare()
	c.Metrics = "cycles, ipc"
	metrics, err := c.MetricList()
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 2 || metrics[0] != compare.Cycles || metrics[1] != compare.IPC {
		t.Errorf("MetricList = %v", metrics)
	}
}

func TestSummarizeValidate(t *testing.T) {
	s := DefaultSummarize()
	if err := s.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for missing input, got %v", err)
	}
	s.Input = "trace.log"
	if err := s.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}
