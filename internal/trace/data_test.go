package trace

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func record(name string, cycles, instrs uint64) KernelRecord {
	r := KernelRecord{Name: name, Invocations: 1}
	r.Stats.values[Cycles] = cycles
	r.Stats.values[Instrs] = instrs
	return r
}

func mustNewData(t *testing.T, source string, records []KernelRecord) *Data {
	t.Helper()
	data, err := NewData(source, records)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	return data
}

func TestNewDataMergesDuplicates(t *testing.T) {
	data := mustNewData(t, "x.csv", []KernelRecord{
		record("b", 10, 5),
		record("a", 4, 4),
		record("b", 30, 15),
	})

	if got, want := data.Names(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
	b, _ := data.Get("b")
	if b.Stats.Get(Cycles) != 40 || b.Invocations != 2 {
		t.Errorf("merged b = %+v", b)
	}
	if data.Source() != "x.csv" {
		t.Errorf("Source = %q", data.Source())
	}
}

func TestRecordsAreCopies(t *testing.T) {
	data := mustNewData(t, "", []KernelRecord{record("k", 1, 1)})
	recs := data.Records()
	recs[0].Stats.values[Cycles] = 100

	k, _ := data.Get("k")
	if k.Stats.Get(Cycles) != 1 {
		t.Error("Mutating Records() result changed the data")
	}
}

func TestTotal(t *testing.T) {
	data := mustNewData(t, "", []KernelRecord{record("a", 10, 20), record("b", 30, 20)})
	total := data.Total()
	if total.Stats.Get(Cycles) != 40 || total.Stats.Get(Instrs) != 40 {
		t.Errorf("Total = %+v", total.Stats.Map())
	}
	if total.IPC() != 1.0 {
		t.Errorf("Total IPC = %v", total.IPC())
	}
}

func TestMetric(t *testing.T) {
	r := record("k", 8, 16)
	r.Stats.values[Retries] = 3

	tests := []struct {
		name string
		want float64
		ok   bool
	}{
		{"Cycles", 8, true},
		{"instrs", 16, true},
		{"Retries", 3, true},
		{"DRAMAccs", 0, true},
		{"IPC", 2, true},
		{"ipc", 2, true},
		{"Warps", 0, false},
	}
	for _, tt := range tests {
		got, ok := r.Metric(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Metric(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		key  string
		name string
		idx  int
	}{
		{"K (1)", "K", 1},
		{"Samples/VecAdd (12)", "Samples/VecAdd", 12},
		{"K", "K", 0},
		{"K (x)", "K (x)", 0},
		{"K (0)", "K (0)", 0},
		{"K(1)", "K(1)", 0},
	}
	for _, tt := range tests {
		name, idx := BaseName(tt.key)
		if name != tt.name || idx != tt.idx {
			t.Errorf("BaseName(%q) = %q, %d; want %q, %d", tt.key, name, idx, tt.name, tt.idx)
		}
	}
}

func TestCounterNames(t *testing.T) {
	for _, c := range Counters() {
		got, ok := ParseCounter(c.String())
		if !ok || got != c {
			t.Errorf("ParseCounter(%q) = %v, %v", c.String(), got, ok)
		}
	}
	if _, ok := ParseCounter("cycles"); ok {
		t.Error("ParseCounter should be case-sensitive")
	}
}

func TestStatBlockAddOverflow(t *testing.T) {
	var b StatBlock
	if err := b.Add(Cycles, math.MaxUint64); err != nil {
		t.Fatalf("Add(MaxUint64) failed: %v", err)
	}
	err := b.Add(Cycles, 2)
	if !errors.Is(err, ErrCounterOverflow) {
		t.Fatalf("Expected ErrCounterOverflow, got %v", err)
	}
	if b.Get(Cycles) != math.MaxUint64 {
		t.Errorf("Cycles = %d after failed Add, want unchanged", b.Get(Cycles))
	}
}

func TestStatBlockMergeOverflowLeavesBlockUnchanged(t *testing.T) {
	var a, b StatBlock
	a.values[Instrs] = 7
	a.values[DRAMAccs] = math.MaxUint64
	b.values[Instrs] = 1
	b.values[DRAMAccs] = 1

	if err := a.Merge(b); !errors.Is(err, ErrCounterOverflow) {
		t.Fatalf("Expected ErrCounterOverflow, got %v", err)
	}
	if a.Get(Instrs) != 7 {
		t.Errorf("Instrs = %d, want 7", a.Get(Instrs))
	}
}

func TestNewDataOverflow(t *testing.T) {
	_, err := NewData("", []KernelRecord{record("k", math.MaxUint64, 0), record("k", 1, 0)})
	if !errors.Is(err, ErrCounterOverflow) {
		t.Fatalf("Expected ErrCounterOverflow, got %v", err)
	}
}

func TestTotalSaturates(t *testing.T) {
	data := mustNewData(t, "", []KernelRecord{record("a", math.MaxUint64, 1), record("b", 5, 1)})
	if got := data.Total().Stats.Get(Cycles); got != math.MaxUint64 {
		t.Errorf("Total cycles = %d, want MaxUint64", got)
	}
}
