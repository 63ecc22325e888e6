package telemetry

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the driver station bridge firmware.
const DefaultBaudRate = 115200

// LineSink writes "key=value" lines to a byte stream. Write errors are
// counted and otherwise ignored: telemetry is fire-and-forget.
type LineSink struct {
	mu     sync.Mutex
	w      io.Writer
	errors int
}

func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w}
}

// OpenSerial opens a serial port and wraps it in a LineSink. The caller owns
// the returned port and must close it.
func OpenSerial(portName string, baud int) (*LineSink, serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("open serial telemetry port %s: %w", portName, err)
	}
	return NewLineSink(port), port, nil
}

func (s *LineSink) PublishNumber(name string, value float64) {
	s.write(FormatLine(name, FormatNumber(value)))
}

func (s *LineSink) PublishString(name, value string) {
	s.write(FormatLine(name, value))
}

func (s *LineSink) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		s.errors++
	}
}

// Errors reports how many writes failed.
func (s *LineSink) Errors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors
}
