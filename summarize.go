package main

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"simstats/internal/config"
	"simstats/internal/report"
)

// summarizeTrace aggregates one trace and writes it to cfg.Output, or as
// CSV to stdout when no output is given
func summarizeTrace(cfg config.Summarize, logger *zap.Logger, stdout, stderr io.Writer) error {
	startTime := time.Now()

	data, err := loadTrace(logger, cfg.Input, cfg.Format, cfg.Expand)
	if err != nil {
		return err
	}
	if data.Len() == 0 {
		return fmt.Errorf("no kernel sections found in %s", cfg.Input)
	}

	if cfg.ShowSummary {
		report.WriteTraceSummary(stderr, data)
	}

	if cfg.Output != "" {
		if err := report.WriteTraceFile(cfg.Output, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", cfg.Output, err)
		}
		logger.Info("Results written", zap.String("path", cfg.Output))
	} else {
		if err := report.WriteTraceCSV(stdout, data); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	}

	logger.Info("Total execution time", zap.Duration("elapsed", time.Since(startTime)))
	return nil
}
