// Package telemetry carries fire-and-forget dashboard values out of the
// control core.
package telemetry

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Sink receives named values. Implementations never block the tick for an
// acknowledgement.
type Sink interface {
	PublishNumber(name string, value float64)
	PublishString(name, value string)
}

// Discard drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) PublishNumber(string, float64) {}
func (discard) PublishString(string, string)  {}

// Table keeps the last published value per key.
type Table struct {
	mu      sync.Mutex
	numbers map[string]float64
	strings map[string]string
}

func NewTable() *Table {
	return &Table{
		numbers: make(map[string]float64),
		strings: make(map[string]string),
	}
}

func (t *Table) PublishNumber(name string, value float64) {
	t.mu.Lock()
	t.numbers[name] = value
	t.mu.Unlock()
}

func (t *Table) PublishString(name, value string) {
	t.mu.Lock()
	t.strings[name] = value
	t.mu.Unlock()
}

func (t *Table) Number(name string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.numbers[name]
	return v, ok
}

func (t *Table) String(name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.strings[name]
	return v, ok
}

// LogSink writes string values to a logger. Numbers are logged only when
// Verbose is set since they arrive every tick.
type LogSink struct {
	Logger  *log.Logger
	Verbose bool
}

func NewLogSink(w io.Writer, verbose bool) *LogSink {
	return &LogSink{
		Logger:  log.New(w, "[shooter] ", log.LstdFlags|log.Lmsgprefix),
		Verbose: verbose,
	}
}

func (l *LogSink) PublishNumber(name string, value float64) {
	if l.Verbose {
		l.Logger.Printf("%s=%.4f", name, value)
	}
}

func (l *LogSink) PublishString(name, value string) {
	l.Logger.Printf("%s: %s", name, value)
}

// Multi fans out to every sink in order.
type Multi []Sink

func (m Multi) PublishNumber(name string, value float64) {
	for _, s := range m {
		s.PublishNumber(name, value)
	}
}

func (m Multi) PublishString(name, value string) {
	for _, s := range m {
		s.PublishString(name, value)
	}
}

// FormatLine encodes one value as a "key=value\n" line; keys have spaces
// replaced so the line splits cleanly on the receiving side.
func FormatLine(name, value string) string {
	return fmt.Sprintf("%s=%s\n", strings.ReplaceAll(name, " ", "_"), value)
}

// FormatNumber renders a float the way FormatLine expects it.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Keys returns the numeric keys in sorted order.
func (t *Table) Keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.numbers))
	for k := range t.numbers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
