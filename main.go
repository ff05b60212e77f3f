package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tebeka/atexit"
	"go.uber.org/zap"

	"simstats/internal/config"
	"simstats/internal/logutil"
)

func main() {
	// Check for subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "compare":
			runCompare("compare", os.Args[2:])
			atexit.Exit(0)
		case "summarize":
			runSummarize(os.Args[2:])
			atexit.Exit(0)
		}
	}

	// Default: simstats <mine.log> <baseline.log>
	runCompare(os.Args[0], os.Args[1:])
	atexit.Exit(0)
}

func runCompare(name string, args []string) {
	cfg := config.DefaultCompare()
	compareFlags := flag.NewFlagSet(name, flag.ExitOnError)
	cfg.RegisterFlags(compareFlags)

	compareFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "simstats - Compare GPU simulator kernel statistics against SIMTight\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  simstats <mine.log> <baseline.log>\n")
		fmt.Fprintf(os.Stderr, "  simstats compare -mine <file> -baseline <file> [options]\n")
		fmt.Fprintf(os.Stderr, "  simstats summarize -input <file> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Compare Options:\n")
		compareFlags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  simstats trace.log trace_simtight.log\n")
		fmt.Fprintf(os.Stderr, "  simstats compare -mine trace.log -baseline trace_simtight.log -output compare.xlsx -charts charts\n")
		fmt.Fprintf(os.Stderr, "  simstats compare -mine other_simtight.log -mine-format simtight -baseline trace_simtight.log\n")
		fmt.Fprintf(os.Stderr, "  simstats compare -mine trace.log -baseline trace_simtight.log -kernel Samples/VecAdd\n")
	}

	compareFlags.Parse(args)

	// Positional form: <mine> <baseline>
	if compareFlags.NArg() == 2 && cfg.MinePath == "" && cfg.BaselinePath == "" {
		cfg.MinePath, cfg.BaselinePath = compareFlags.Arg(0), compareFlags.Arg(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		compareFlags.Usage()
		atexit.Exit(1)
	}

	logger := initLogger(cfg.LogLevel)
	if err := compareTraces(cfg, logger, os.Stdout, os.Stderr); err != nil {
		logger.Error("Error comparing traces", zap.Error(err))
		atexit.Exit(1)
	}
}

func runSummarize(args []string) {
	cfg := config.DefaultSummarize()
	summarizeFlags := flag.NewFlagSet("summarize", flag.ExitOnError)
	cfg.RegisterFlags(summarizeFlags)

	summarizeFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "simstats summarize - Aggregate per-kernel statistics of one trace\n\n")
		fmt.Fprintf(os.Stderr, "Usage: simstats summarize -input <file> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		summarizeFlags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  simstats summarize -input trace_simtight.log -output kernels.csv\n")
		fmt.Fprintf(os.Stderr, "  simstats summarize -input trace.log -format native -expand -output kernels.json\n")
	}

	summarizeFlags.Parse(args)

	if cfg.Input == "" && summarizeFlags.NArg() == 1 {
		cfg.Input = summarizeFlags.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		summarizeFlags.Usage()
		atexit.Exit(1)
	}

	logger := initLogger(cfg.LogLevel)
	if err := summarizeTrace(cfg, logger, os.Stdout, os.Stderr); err != nil {
		logger.Error("Error summarizing trace", zap.Error(err))
		atexit.Exit(1)
	}
}

// initLogger sets up the process logger and flushes it on exit
func initLogger(level string) *zap.Logger {
	logutil.InitLogger(level)
	logger := logutil.GetLogger()
	atexit.Register(func() {
		_ = logger.Sync()
	})
	return logger
}
