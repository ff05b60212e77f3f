package compare

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"simstats/internal/trace"
)

var (
	// ErrKernelNotFound is wrapped by KernelNotFoundError
	ErrKernelNotFound = errors.New("kernel not found")

	// ErrUnknownMetric is returned by ParseMetric
	ErrUnknownMetric = errors.New("unknown metric")
)

// Metric names a per-kernel value that can be compared
type Metric string

const (
	Cycles   Metric = "Cycles"
	Instrs   Metric = "Instrs"
	DRAMAccs Metric = "DRAMAccs"
	IPC      Metric = "IPC"
	Retries  Metric = "Retries"
	Susps    Metric = "Susps"
)

// Metrics returns the chart metrics in display order
func Metrics() []Metric {
	return []Metric{Cycles, Instrs, DRAMAccs, IPC, Retries}
}

// ParseMetric resolves a metric name case-insensitively
func ParseMetric(name string) (Metric, error) {
	for _, m := range append(Metrics(), Susps) {
		if strings.EqualFold(string(m), name) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// MatchType classifies a kernel by which traces contain it
type MatchType string

const (
	MatchCommon       MatchType = "common"
	MatchMineOnly     MatchType = "mine_only"
	MatchBaselineOnly MatchType = "baseline_only"
)

// KernelNotFoundError is returned when a single-kernel view names a kernel
// missing from either trace
type KernelNotFoundError struct {
	Name      string
	Available []string // Kernels present in both traces, sorted
}

func (e *KernelNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("kernel %q not found: no kernels are common to both traces", e.Name)
	}
	return fmt.Sprintf("kernel %q not found; available kernels: %s", e.Name, strings.Join(e.Available, ", "))
}

func (e *KernelNotFoundError) Unwrap() error {
	return ErrKernelNotFound
}

// Row is one kernel of the comparison
type Row struct {
	Kernel      string
	MatchType   MatchType
	Mine        trace.KernelRecord
	Baseline    trace.KernelRecord
	HasMine     bool
	HasBaseline bool
}

// MineValue returns a metric of this simulator's record, 0 when absent
func (r Row) MineValue(m Metric) float64 {
	if !r.HasMine {
		return 0
	}
	v, _ := r.Mine.Metric(string(m))
	return v
}

// BaselineValue returns a metric of the baseline record, 0 when absent
func (r Row) BaselineValue(m Metric) float64 {
	if !r.HasBaseline {
		return 0
	}
	v, _ := r.Baseline.Metric(string(m))
	return v
}

// Change returns the percentage change of a metric relative to the
// baseline. ok is false unless both sides exist and the baseline is non-zero.
// Negative means this simulator reports less than the baseline.
func (r Row) Change(m Metric) (pct float64, ok bool) {
	if r.MatchType != MatchCommon {
		return 0, false
	}
	base := r.BaselineValue(m)
	if base == 0 {
		return 0, false
	}
	return (r.MineValue(m) - base) / base * 100, true
}

// Comparison pairs this simulator's trace with the baseline's
type Comparison struct {
	MineName     string
	BaselineName string

	mine         *trace.Data
	baseline     *trace.Data
	common       []string
	mineOnly     []string
	baselineOnly []string
}

// New compares two traces. Kernels are matched by exact name.
func New(mine, baseline *trace.Data) *Comparison {
	c := &Comparison{
		MineName:     mine.Source(),
		BaselineName: baseline.Source(),
		mine:         mine,
		baseline:     baseline,
	}
	for _, name := range mine.Names() {
		if _, ok := baseline.Get(name); ok {
			c.common = append(c.common, name)
		} else {
			c.mineOnly = append(c.mineOnly, name)
		}
	}
	for _, name := range baseline.Names() {
		if _, ok := mine.Get(name); !ok {
			c.baselineOnly = append(c.baselineOnly, name)
		}
	}
	return c
}

// Kernels returns the kernels present in both traces, sorted
func (c *Comparison) Kernels() []string {
	return append([]string(nil), c.common...)
}

// MineOnly returns kernels missing from the baseline, sorted
func (c *Comparison) MineOnly() []string {
	return append([]string(nil), c.mineOnly...)
}

// BaselineOnly returns kernels missing from this simulator's trace, sorted
func (c *Comparison) BaselineOnly() []string {
	return append([]string(nil), c.baselineOnly...)
}

// Series returns the grouped values of a metric over the common kernels, in
// Kernels() order
func (c *Comparison) Series(m Metric) (mine, baseline []float64) {
	mine = make([]float64, len(c.common))
	baseline = make([]float64, len(c.common))
	for i, name := range c.common {
		mine[i] = metricOf(c.mine, name, m)
		baseline[i] = metricOf(c.baseline, name, m)
	}
	return mine, baseline
}

// Totals sums a metric over the common kernels. IPC is the ratio of the
// summed instructions and cycles rather than a sum of ratios.
func (c *Comparison) Totals(m Metric) (mine, baseline float64) {
	if m == IPC {
		mc, bc := c.Totals(Cycles)
		mi, bi := c.Totals(Instrs)
		return ratio(mi, mc), ratio(bi, bc)
	}
	ms, bs := c.Series(m)
	for i := range ms {
		mine += ms[i]
		baseline += bs[i]
	}
	return mine, baseline
}

// Rows returns every kernel of either trace, sorted by name
func (c *Comparison) Rows() []Row {
	names := make([]string, 0, len(c.common)+len(c.mineOnly)+len(c.baselineOnly))
	names = append(names, c.common...)
	names = append(names, c.mineOnly...)
	names = append(names, c.baselineOnly...)
	sort.Strings(names)

	rows := make([]Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, c.row(name))
	}
	return rows
}

// Kernel returns the row of one kernel present in both traces
func (c *Comparison) Kernel(name string) (Row, error) {
	if !c.isCommon(name) {
		return Row{}, &KernelNotFoundError{Name: name, Available: c.Kernels()}
	}
	return c.row(name), nil
}

// Filter restricts the comparison to a single kernel present in both traces
func (c *Comparison) Filter(name string) (*Comparison, error) {
	if _, err := c.Kernel(name); err != nil {
		return nil, err
	}
	return &Comparison{
		MineName:     c.MineName,
		BaselineName: c.BaselineName,
		mine:         c.mine,
		baseline:     c.baseline,
		common:       []string{name},
	}, nil
}

func (c *Comparison) isCommon(name string) bool {
	i := sort.SearchStrings(c.common, name)
	return i < len(c.common) && c.common[i] == name
}

func (c *Comparison) row(name string) Row {
	r := Row{Kernel: name}
	r.Mine, r.HasMine = c.mine.Get(name)
	r.Baseline, r.HasBaseline = c.baseline.Get(name)
	switch {
	case r.HasMine && r.HasBaseline:
		r.MatchType = MatchCommon
	case r.HasMine:
		r.MatchType = MatchMineOnly
	default:
		r.MatchType = MatchBaselineOnly
	}
	return r
}

func metricOf(data *trace.Data, name string, m Metric) float64 {
	rec, ok := data.Get(name)
	if !ok {
		return 0
	}
	v, _ := rec.Metric(string(m))
	return v
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
