// Package params holds the live, named tunable values of the shooter.
//
// A [Store] replaces the robot dashboard's global key/value table. It is
// passed explicitly to every component that reads tunables, and every read
// goes to the store: nothing is cached between ticks, so an edit is visible
// on the very next control period.
package params

import (
	"sort"
	"sync"
)

// Dashboard keys.
const (
	MotorSpeed        = "Motor Speed"
	FeedSpeed         = "Feed Speed"
	SpinUpTime        = "Spin-up Time"
	FeedTime          = "Feed Time"
	VelocityTolerance = "Velocity Tolerance"
	Status            = "Shooter Status"
	Velocity          = "Shooter Velocity"
	Setpoint          = "Setpoint"
)

// Store is safe for concurrent use; the control loop reads while a
// dashboard edits.
type Store struct {
	mu      sync.RWMutex
	numbers map[string]float64
	strings map[string]string
}

func New() *Store {
	return &Store{
		numbers: make(map[string]float64),
		strings: make(map[string]string),
	}
}

// Get returns the value for name, or def when the key has never been set.
func (s *Store) Get(name string, def float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.numbers[name]; ok {
		return v
	}
	return def
}

func (s *Store) Set(name string, value float64) {
	s.mu.Lock()
	s.numbers[name] = value
	s.mu.Unlock()
}

// SetDefault stores value only if name is absent.
func (s *Store) SetDefault(name string, value float64) {
	s.mu.Lock()
	if _, ok := s.numbers[name]; !ok {
		s.numbers[name] = value
	}
	s.mu.Unlock()
}

func (s *Store) GetString(name, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.strings[name]; ok {
		return v
	}
	return def
}

func (s *Store) SetString(name, value string) {
	s.mu.Lock()
	s.strings[name] = value
	s.mu.Unlock()
}

func (s *Store) SetDefaultString(name, value string) {
	s.mu.Lock()
	if _, ok := s.strings[name]; !ok {
		s.strings[name] = value
	}
	s.mu.Unlock()
}

// PublishNumber and PublishString let the store double as a telemetry sink,
// the way the dashboard table served both roles on the robot.
func (s *Store) PublishNumber(name string, value float64) { s.Set(name, value) }
func (s *Store) PublishString(name, value string)         { s.SetString(name, value) }

// GetParams returns a copy of every numeric entry.
func (s *Store) GetParams() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.numbers))
	for k, v := range s.numbers {
		out[k] = v
	}
	return out
}

func (s *Store) SetParam(name string, value float64) error {
	s.Set(name, value)
	return nil
}

// Keys lists numeric keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.numbers))
	for k := range s.numbers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
