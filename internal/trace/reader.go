package trace

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// state of the line scanner. EOF is terminal from any state.
type state int

const (
	stateScanning       state = iota // Looking for a "Running" line
	stateAwaitingHeader              // Inside a section, before the dialect header
	stateInBlock                     // Reading counter lines
)

type options struct {
	expand  bool
	dialect Dialect
	logger  *zap.Logger
}

// Option configures Parse and ParseFile
type Option func(*options)

// WithExpand keeps every invocation of a kernel as its own record keyed
// "<name> (<n>)" instead of summing invocations into one record.
func WithExpand(expand bool) Option {
	return func(o *options) { o.expand = expand }
}

// WithDialect selects the line dialect. The default is SIMTight.
func WithDialect(d Dialect) Option {
	return func(o *options) { o.dialect = d }
}

// WithLogger attaches a logger for debug output
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// ParseFile reads a trace file and aggregates its kernel statistics.
// Files ending in .gz are decompressed on the fly.
func ParseFile(filename string, opts ...Option) (data *Data, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	var reader io.Reader = file
	if strings.HasSuffix(filename, ".gz") {
		gzReader, gzErr := gzip.NewReader(file)
		if gzErr != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", gzErr)
		}
		defer func() {
			err = multierr.Append(err, gzReader.Close())
		}()
		reader = gzReader
	}

	data, err = parse(filepath.Base(filename), reader, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}
	return data, nil
}

// Parse reads a trace from r and aggregates its kernel statistics.
//
// Counter lines whose label is not a known counter are ignored, but their
// value must still parse in the dialect's base: "Warps:zz" fails with a
// *FormatError like any other malformed line. Labels the dialect lists as
// skipped (the Native IPC and CPU lines) are dropped before their value is
// read. A counter whose running sum exceeds a uint64 also fails with a
// *FormatError, which unwraps to both ErrMalformedLine and
// ErrCounterOverflow.
func Parse(r io.Reader, opts ...Option) (*Data, error) {
	return parse("", r, opts)
}

func parse(source string, r io.Reader, opts []Option) (*Data, error) {
	o := options{dialect: SIMTight, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	p := &parser{
		opts:    o,
		log:     o.logger.With(zap.String("dialect", o.dialect.Name)),
		records: make(map[string]KernelRecord),
		seen:    make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.lineNo++
		if err := p.step(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	// A section cut off by EOF keeps whatever it accumulated
	if err := p.commit(); err != nil {
		return nil, err
	}

	p.log.Debug("Parsed trace",
		zap.String("source", source),
		zap.Int("lines", p.lineNo),
		zap.Int("kernels", len(p.records)))

	return &Data{source: source, records: p.records}, nil
}

type parser struct {
	opts    options
	log     *zap.Logger
	state   state
	lineNo  int
	current *KernelRecord
	start   int    // Line number of the current "Running" line
	header  string // Text of the current "Running" line
	records map[string]KernelRecord
	seen    map[string]int // Invocations per kernel name
}

func (p *parser) step(raw string) error {
	if name, ok := kernelName(raw); ok {
		if err := p.commit(); err != nil {
			return err
		}
		p.begin(name, raw)
		return nil
	}

	line := strings.TrimSpace(raw)
	switch p.state {
	case stateAwaitingHeader:
		if line == p.opts.dialect.Header {
			p.state = stateInBlock
		}
	case stateInBlock:
		return p.blockLine(line)
	}
	return nil
}

func (p *parser) begin(name, raw string) {
	p.seen[name]++
	key := name
	if p.opts.expand {
		key = expandedName(name, p.seen[name])
	}
	p.current = &KernelRecord{Name: key, Invocations: 1}
	p.start, p.header = p.lineNo, raw

	if p.opts.dialect.Header != "" {
		p.state = stateAwaitingHeader
	} else {
		p.state = stateInBlock
	}
	p.log.Debug("Kernel section started", zap.String("kernel", key), zap.Int("line", p.lineNo))
}

// commit folds the in-progress section into the records and returns to
// scanning. Repeated names are summed; a sum that overflows is reported
// against the section's "Running" line.
func (p *parser) commit() error {
	p.state = stateScanning
	if p.current == nil {
		return nil
	}
	rec := *p.current
	p.current = nil

	if existing, ok := p.records[rec.Name]; ok {
		if err := existing.Stats.Merge(rec.Stats); err != nil {
			return &FormatError{
				Line:   p.start,
				Text:   p.header,
				Reason: "summing repeated invocations",
				Err:    err,
			}
		}
		existing.Invocations += rec.Invocations
		rec = existing
	}
	p.records[rec.Name] = rec
	return nil
}

func (p *parser) blockLine(line string) error {
	d := p.opts.dialect

	if line == "" {
		if d.Sentinel == "" {
			return p.commit()
		}
		return nil
	}
	if d.isSentinel(line) {
		return p.commit()
	}
	if d.isDiagnostic(line) {
		p.log.Debug("Skipping diagnostic line", zap.Int("line", p.lineNo), zap.String("text", line))
		return nil
	}

	label, value, ok := splitCounterLine(line)
	if !ok {
		return &FormatError{Line: p.lineNo, Text: line, Reason: `expected "Label:value"`}
	}
	if d.skips(label) {
		return nil
	}

	v, err := parseValue(value, d.Base)
	if err != nil {
		return &FormatError{
			Line:   p.lineNo,
			Text:   line,
			Reason: fmt.Sprintf("invalid base-%d value %q", d.Base, value),
		}
	}

	counter, known := d.Labels[label]
	if !known {
		p.log.Debug("Ignoring unknown counter", zap.Int("line", p.lineNo), zap.String("label", label))
		return nil
	}
	if err := p.current.Stats.Add(counter, v); err != nil {
		return &FormatError{Line: p.lineNo, Text: line, Reason: "counter sum out of range", Err: err}
	}
	return nil
}

// kernelName recognizes "Running <word> <kernel name>" and returns the name
// with surrounding whitespace trimmed.
func kernelName(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "Running")
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	rest = strings.TrimLeft(rest, " \t")
	i := strings.IndexAny(rest, " \t")
	if i < 0 {
		return "", false
	}
	name := strings.TrimSpace(rest[i:])
	if name == "" {
		return "", false
	}
	return name, true
}

// splitCounterLine splits "Label:value", "Label: value" or "Label value"
func splitCounterLine(line string) (label, value string, ok bool) {
	if i := strings.IndexByte(line, ':'); i >= 0 {
		label = strings.TrimSpace(line[:i])
		value = strings.TrimSpace(line[i+1:])
	} else {
		i := strings.LastIndexAny(line, " \t")
		if i < 0 {
			return "", "", false
		}
		label = strings.TrimSpace(line[:i])
		value = line[i+1:]
	}
	if label == "" || value == "" || strings.ContainsAny(value, " \t") {
		return "", "", false
	}
	return label, value, true
}

func parseValue(s string, base int) (uint64, error) {
	if base == 16 {
		if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s = s[2:]
		}
	}
	return strconv.ParseUint(s, base, 64)
}
