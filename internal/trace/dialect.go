package trace

import (
	"fmt"
	"strings"
)

// Dialect describes the line conventions of one trace producer
type Dialect struct {
	Name string

	// Base of counter values (16 for SIMTight, 10 for the native simulator)
	Base int

	// Labels maps every accepted counter label to its Counter
	Labels map[string]Counter

	// Skip lists labels that are recognized but never accumulated
	Skip []string

	// Header, when set, must be seen inside a section before counter lines
	// are parsed. Lines before it are ignored.
	Header string

	// Sentinel ends a section on prefix match. Empty means the section only
	// ends at the next "Running" line, a blank line or EOF.
	Sentinel string
}

// diagnosticPrefixes are self-check lines the simulator interleaves with
// counters. They are never counters and never errors.
var diagnosticPrefixes = []string{
	"Detected an error at index",
	"Expected value",
	"Computed value",
}

// SIMTight is the baseline simulator's dialect: hex counters ended by a
// "Self test" line.
var SIMTight = Dialect{
	Name: "simtight",
	Base: 16,
	Labels: map[string]Counter{
		"Cycles":   Cycles,
		"Instrs":   Instrs,
		"Susps":    Susps,
		"Retries":  Retries,
		"DRAMAccs": DRAMAccs,
	},
	Sentinel: "Self test",
}

// Native is the simulator's own "[Statistics]" output in base 10
var Native = Dialect{
	Name: "native",
	Base: 10,
	Labels: map[string]Counter{
		"GPU Cycles":   Cycles,
		"GPU Instrs":   Instrs,
		"GPU DRAMAccs": DRAMAccs,
		"Cycles":       Cycles,
		"Instrs":       Instrs,
		"Susps":        Susps,
		"Retries":      Retries,
		"DRAMAccs":     DRAMAccs,
	},
	Skip:   []string{"IPC", "CPU Instrs", "CPU DRAMAccs"},
	Header: "[Statistics]",
}

// Dialects returns every known dialect
func Dialects() []Dialect {
	return []Dialect{SIMTight, Native}
}

// DialectByName resolves a dialect name case-insensitively
func DialectByName(name string) (Dialect, error) {
	for _, d := range Dialects() {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Dialect{}, fmt.Errorf("%w: %q (want simtight or native)", ErrUnknownDialect, name)
}

func (d Dialect) isDiagnostic(line string) bool {
	for _, p := range diagnosticPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func (d Dialect) isSentinel(line string) bool {
	return d.Sentinel != "" && strings.HasPrefix(line, d.Sentinel)
}

func (d Dialect) skips(label string) bool {
	for _, s := range d.Skip {
		if s == label {
			return true
		}
	}
	return false
}
