package trace

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Data maps kernel names to their accumulated records. It is built once by
// the parser and never mutated afterward, so it is safe to share.
type Data struct {
	source  string
	records map[string]KernelRecord
}

// NewData builds a Data from already aggregated records. Records sharing a
// name are merged; a merge that overflows a counter fails with
// ErrCounterOverflow.
func NewData(source string, records []KernelRecord) (*Data, error) {
	d := &Data{
		source:  source,
		records: make(map[string]KernelRecord, len(records)),
	}
	for _, r := range records {
		if existing, ok := d.records[r.Name]; ok {
			if err := existing.Stats.Merge(r.Stats); err != nil {
				return nil, fmt.Errorf("kernel %q: %w", r.Name, err)
			}
			existing.Invocations += r.Invocations
			d.records[r.Name] = existing
			continue
		}
		d.records[r.Name] = r
	}
	return d, nil
}

// Source returns the base name of the file the data was read from
func (d *Data) Source() string {
	return d.source
}

// Len returns the number of kernel records
func (d *Data) Len() int {
	return len(d.records)
}

// Get returns the record for a kernel name
func (d *Data) Get(name string) (KernelRecord, bool) {
	r, ok := d.records[name]
	return r, ok
}

// Names returns all kernel names, sorted
func (d *Data) Names() []string {
	names := make([]string, 0, len(d.records))
	for name := range d.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns a copy of every record, sorted by name
func (d *Data) Records() []KernelRecord {
	names := d.Names()
	out := make([]KernelRecord, len(names))
	for i, name := range names {
		out[i] = d.records[name]
	}
	return out
}

// Total sums every counter across all kernels. Sums saturate at
// math.MaxUint64.
func (d *Data) Total() KernelRecord {
	total := KernelRecord{Name: "Total"}
	for _, r := range d.records {
		total.Stats.mergeSaturating(r.Stats)
		total.Invocations += r.Invocations
	}
	return total
}

// expandedName builds the key of one invocation in expand mode
func expandedName(name string, index int) string {
	return fmt.Sprintf("%s (%d)", name, index)
}

// BaseName strips an expand-mode invocation suffix " (N)" from a key.
// It returns the kernel name and the 1-based index, or the key unchanged and
// 0 when there is no suffix.
func BaseName(key string) (string, int) {
	if !strings.HasSuffix(key, ")") {
		return key, 0
	}
	open := strings.LastIndex(key, " (")
	if open < 0 {
		return key, 0
	}
	idx, err := strconv.Atoi(key[open+2 : len(key)-1])
	if err != nil || idx < 1 {
		return key, 0
	}
	return key[:open], idx
}
