package trace

import (
	"fmt"
	"math"
	"strings"
)

// Counter identifies one of the fixed per-kernel performance counters
type Counter int

const (
	Cycles Counter = iota
	Instrs
	Susps
	Retries
	DRAMAccs

	numCounters
)

var counterNames = [numCounters]string{
	Cycles:   "Cycles",
	Instrs:   "Instrs",
	Susps:    "Susps",
	Retries:  "Retries",
	DRAMAccs: "DRAMAccs",
}

// Counters returns every counter in display order
func Counters() []Counter {
	return []Counter{Cycles, Instrs, Susps, Retries, DRAMAccs}
}

func (c Counter) String() string {
	if c < 0 || c >= numCounters {
		return "Counter(?)"
	}
	return counterNames[c]
}

// ParseCounter maps a canonical counter name back to its Counter.
// Matching is exact: trace labels are case-sensitive.
func ParseCounter(name string) (Counter, bool) {
	for c, n := range counterNames {
		if n == name {
			return Counter(c), true
		}
	}
	return 0, false
}

// StatBlock holds one value per Counter. The zero value has every counter
// present and set to zero, and no other key can ever be stored.
type StatBlock struct {
	values [numCounters]uint64
}

// Get returns the value of a counter
func (b StatBlock) Get(c Counter) uint64 {
	if c < 0 || c >= numCounters {
		return 0
	}
	return b.values[c]
}

// Add accumulates v into counter c. A sum that would not fit in a uint64
// fails with ErrCounterOverflow and leaves the counter unchanged.
func (b *StatBlock) Add(c Counter, v uint64) error {
	if c < 0 || c >= numCounters {
		return nil
	}
	if math.MaxUint64-b.values[c] < v {
		return fmt.Errorf("%w: %s", ErrCounterOverflow, c)
	}
	b.values[c] += v
	return nil
}

// Merge sums every counter of other into b. On overflow b is left unchanged.
func (b *StatBlock) Merge(other StatBlock) error {
	for i := range b.values {
		if math.MaxUint64-b.values[i] < other.values[i] {
			return fmt.Errorf("%w: %s", ErrCounterOverflow, Counter(i))
		}
	}
	for i := range b.values {
		b.values[i] += other.values[i]
	}
	return nil
}

// mergeSaturating sums other into b, clamping each counter at MaxUint64
func (b *StatBlock) mergeSaturating(other StatBlock) {
	for i := range b.values {
		if math.MaxUint64-b.values[i] < other.values[i] {
			b.values[i] = math.MaxUint64
			continue
		}
		b.values[i] += other.values[i]
	}
}

// Map returns the counters keyed by canonical name
func (b StatBlock) Map() map[string]uint64 {
	m := make(map[string]uint64, numCounters)
	for i, v := range b.values {
		m[counterNames[i]] = v
	}
	return m
}

// IPCMetric is the name of the derived instructions-per-cycle metric
const IPCMetric = "IPC"

// KernelRecord is the accumulated statistics of one kernel in a trace
type KernelRecord struct {
	Name        string
	Stats       StatBlock
	Invocations int // Number of "Running" sections folded into this record
}

// IPC returns Instrs / Cycles, or 0 when no cycles were recorded
func (k KernelRecord) IPC() float64 {
	cycles := k.Stats.Get(Cycles)
	if cycles == 0 {
		return 0
	}
	return float64(k.Stats.Get(Instrs)) / float64(cycles)
}

// Metric looks up a counter or the derived IPC by name (case-insensitive).
// Unknown names return 0 and false.
func (k KernelRecord) Metric(name string) (float64, bool) {
	if strings.EqualFold(name, IPCMetric) {
		return k.IPC(), true
	}
	for c, n := range counterNames {
		if strings.EqualFold(n, name) {
			return float64(k.Stats.values[c]), true
		}
	}
	return 0, false
}
