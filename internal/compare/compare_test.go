package compare

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"simstats/internal/trace"
)

func mustParse(t *testing.T, input string) *trace.Data {
	t.Helper()
	data, err := trace.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return data
}

// Mine: A, B, C. Baseline: B, C, D.
func testComparison(t *testing.T) *Comparison {
	t.Helper()
	mine := mustParse(t,
		"Running kernel C\nCycles:20\nInstrs:40\nRetries:1\nSelf test\n"+
			"Running kernel A\nCycles:1\nSelf test\n"+
			"Running kernel B\nCycles:10\nInstrs:10\nDRAMAccs:4\nSelf test\n")
	baseline := mustParse(t,
		"Running kernel B\nCycles:8\nInstrs:10\nDRAMAccs:2\nSelf test\n"+
			"Running kernel D\nCycles:5\nSelf test\n"+
			"Running kernel C\nCycles:10\nInstrs:10\nSelf test\n")
	return New(mine, baseline)
}

func TestCommonKernelsSorted(t *testing.T) {
	c := testComparison(t)
	if got, want := c.Kernels(), []string{"B", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Kernels = %v, want %v", got, want)
	}
	if got, want := c.MineOnly(), []string{"A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("MineOnly = %v, want %v", got, want)
	}
	if got, want := c.BaselineOnly(), []string{"D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("BaselineOnly = %v, want %v", got, want)
	}
}

func TestSeries(t *testing.T) {
	c := testComparison(t)

	tests := []struct {
		metric   Metric
		mine     []float64
		baseline []float64
	}{
		{Cycles, []float64{16, 32}, []float64{8, 16}},
		{Instrs, []float64{16, 64}, []float64{16, 16}},
		{DRAMAccs, []float64{4, 0}, []float64{2, 0}},
		{IPC, []float64{1, 2}, []float64{2, 1}},
		{Retries, []float64{0, 1}, []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			mine, baseline := c.Series(tt.metric)
			if !reflect.DeepEqual(mine, tt.mine) {
				t.Errorf("mine = %v, want %v", mine, tt.mine)
			}
			if !reflect.DeepEqual(baseline, tt.baseline) {
				t.Errorf("baseline = %v, want %v", baseline, tt.baseline)
			}
		})
	}
}

func TestSeriesUnknownMetricDefaultsToZero(t *testing.T) {
	c := testComparison(t)
	mine, baseline := c.Series(Metric("Watts"))
	for i := range mine {
		if mine[i] != 0 || baseline[i] != 0 {
			t.Errorf("Expected zeros, got %v / %v", mine, baseline)
		}
	}
}

func TestTotals(t *testing.T) {
	c := testComparison(t)
	mine, baseline := c.Totals(Cycles)
	if mine != 48 || baseline != 24 {
		t.Errorf("Cycles totals = %v, %v", mine, baseline)
	}
	mine, baseline = c.Totals(IPC)
	if mine != 80.0/48.0 || baseline != 32.0/24.0 {
		t.Errorf("IPC totals = %v, %v", mine, baseline)
	}
}

func TestRows(t *testing.T) {
	c := testComparison(t)
	rows := c.Rows()

	want := []struct {
		name string
		typ  MatchType
	}{
		{"A", MatchMineOnly},
		{"B", MatchCommon},
		{"C", MatchCommon},
		{"D", MatchBaselineOnly},
	}
	if len(rows) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if rows[i].Kernel != w.name || rows[i].MatchType != w.typ {
			t.Errorf("row %d = %s/%s, want %s/%s", i, rows[i].Kernel, rows[i].MatchType, w.name, w.typ)
		}
	}

	if pct, ok := rows[1].Change(Cycles); !ok || pct != 100 {
		t.Errorf("B cycles change = %v, %v; want 100, true", pct, ok)
	}
	if _, ok := rows[0].Change(Cycles); ok {
		t.Error("mine_only row should have no change")
	}
	if _, ok := rows[2].Change(DRAMAccs); ok {
		t.Error("zero baseline should have no change")
	}
	if rows[3].MineValue(Cycles) != 0 {
		t.Error("missing side should read as 0")
	}
}

func TestKernelView(t *testing.T) {
	c := testComparison(t)

	row, err := c.Kernel("C")
	if err != nil {
		t.Fatalf("Kernel failed: %v", err)
	}
	if row.MineValue(IPC) != 2 || row.BaselineValue(IPC) != 1 {
		t.Errorf("C IPC = %v / %v", row.MineValue(IPC), row.BaselineValue(IPC))
	}

	for _, name := range []string{"A", "D", "missing", "c"} {
		_, err := c.Kernel(name)
		var nf *KernelNotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("Kernel(%q): expected *KernelNotFoundError, got %v", name, err)
		}
		if !errors.Is(err, ErrKernelNotFound) {
			t.Errorf("Kernel(%q) should unwrap to ErrKernelNotFound", name)
		}
		if !reflect.DeepEqual(nf.Available, []string{"B", "C"}) {
			t.Errorf("Available = %v", nf.Available)
		}
		if !strings.Contains(err.Error(), "B, C") {
			t.Errorf("Error should list kernels: %v", err)
		}
	}
}

func TestFilter(t *testing.T) {
	c := testComparison(t)
	f, err := c.Filter("B")
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if got := f.Kernels(); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("Kernels = %v", got)
	}
	if len(f.Rows()) != 1 {
		t.Errorf("Rows = %d, want 1", len(f.Rows()))
	}
	mine, _ := f.Series(Cycles)
	if !reflect.DeepEqual(mine, []float64{16}) {
		t.Errorf("Series = %v", mine)
	}

	if _, err := c.Filter("A"); !errors.Is(err, ErrKernelNotFound) {
		t.Errorf("Expected ErrKernelNotFound, got %v", err)
	}
}

func TestParseMetric(t *testing.T) {
	for _, name := range []string{"cycles", "IPC", "dramaccs", "Susps"} {
		if _, err := ParseMetric(name); err != nil {
			t.Errorf("ParseMetric(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseMetric("Watts"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Expected ErrUnknownMetric, got %v", err)
	}
}

func TestNoCommonKernels(t *testing.T) {
	c := New(mustParse(t, "Running kernel A\nSelf test\n"), mustParse(t, "Running kernel B\nSelf test\n"))
	_, err := c.Kernel("A")
	if err == nil || !strings.Contains(err.Error(), "no kernels are common") {
		t.Errorf("unexpected error: %v", err)
	}
}
