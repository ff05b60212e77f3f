package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"simstats/internal/compare"
	"simstats/internal/config"
	"simstats/internal/report"
	"simstats/internal/trace"
)

// compareTraces parses both traces, compares them and writes the requested
// outputs. Report text goes to stdout (CSV when no -output is given) and
// stderr (summaries).
func compareTraces(cfg config.Compare, logger *zap.Logger, stdout, stderr io.Writer) error {
	startTotal := time.Now()

	metrics, err := cfg.MetricList()
	if err != nil {
		return err
	}

	logger.Info("Analyzing trace", zap.String("role", "mine"), zap.String("file", filepath.Base(cfg.MinePath)))
	mine, err := loadTrace(logger, cfg.MinePath, cfg.MineFormat, cfg.Expand)
	if err != nil {
		return fmt.Errorf("failed to analyze trace 1: %w", err)
	}

	logger.Info("Analyzing trace", zap.String("role", "baseline"), zap.String("file", filepath.Base(cfg.BaselinePath)))
	baseline, err := loadTrace(logger, cfg.BaselinePath, cfg.BaselineFormat, cfg.Expand)
	if err != nil {
		return fmt.Errorf("failed to analyze trace 2: %w", err)
	}

	result := compare.New(mine, baseline)
	logger.Info("Matched kernels by name",
		zap.Int("common", len(result.Kernels())),
		zap.Int("mine_only", len(result.MineOnly())),
		zap.Int("baseline_only", len(result.BaselineOnly())))

	if len(result.Kernels()) == 0 {
		logger.Warn("No kernels common to both traces; charts will be empty")
	}

	if cfg.Kernel != "" {
		row, err := result.Kernel(cfg.Kernel)
		if err != nil {
			return err
		}
		report.WriteKernelSummary(stdout, row)

		// Outputs below cover only the selected kernel
		if result, err = result.Filter(cfg.Kernel); err != nil {
			return err
		}
	} else if cfg.ShowSummary {
		report.WriteCompareSummary(stderr, result)
	}

	if cfg.Output != "" {
		if err := report.WriteCompareFile(cfg.Output, result, metrics); err != nil {
			return fmt.Errorf("failed to write %s: %w", cfg.Output, err)
		}
		logger.Info("Results written", zap.String("path", cfg.Output))
	} else if cfg.Kernel == "" {
		if err := report.WriteCompareCSV(stdout, result); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	}

	if cfg.ChartDir != "" && len(result.Kernels()) > 0 {
		paths, err := report.SaveCharts(cfg.ChartDir, result, metrics)
		if err != nil {
			return fmt.Errorf("failed to save charts: %w", err)
		}
		logger.Info("Charts written", zap.String("dir", cfg.ChartDir), zap.Int("count", len(paths)))
	}

	logger.Info("Total execution time", zap.Duration("elapsed", time.Since(startTotal)))
	return nil
}

// loadTrace parses a trace log, or loads a CSV exported by summarize
func loadTrace(logger *zap.Logger, path, format string, expand bool) (*trace.Data, error) {
	dialect, err := trace.DialectByName(format)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := report.LoadTrace(path,
		trace.WithDialect(dialect),
		trace.WithExpand(expand),
		trace.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	logger.Info("Parsed trace",
		zap.String("file", filepath.Base(path)),
		zap.String("dialect", dialect.Name),
		zap.Int("kernels", data.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return data, nil
}
