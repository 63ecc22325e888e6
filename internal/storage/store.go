// Package storage keeps shot traces and characterization logs on disk. Each
// run is a directory holding metadata.json and one CSV file.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/dynamo"
)

const (
	KindShot             = "shot"
	KindCharacterization = "characterization"

	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
	samplesFile  = "samples.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	TickPeriod float64            `json:"tick_period"`
	Coupling   string             `json:"coupling,omitempty"`
	Sequence   string             `json:"sequence,omitempty"`
	Actuator   string             `json:"actuator,omitempty"`
	Mode       string             `json:"mode,omitempty"`
	Direction  string             `json:"direction,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Fit        *FitRecord         `json:"fit,omitempty"`
}

// FitRecord is a model fit attached to a characterization run.
type FitRecord struct {
	Ks       float64  `json:"ks"`
	Kv       float64  `json:"kv"`
	Ka       float64  `json:"ka"`
	RSquared float64  `json:"r_squared"`
	Points   int      `json:"points"`
	Sources  []string `json:"sources"`
}

func (s *Store) newRun(meta *RunMetadata) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	meta.Timestamp = time.Now()
	base := fmt.Sprintf("%s_%d", meta.Kind, meta.Timestamp.Unix())
	id := base
	for n := 1; ; n++ {
		err := os.Mkdir(filepath.Join(s.baseDir, id), 0755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
	meta.ID = id
	return id, s.writeMetadata(meta)
}

func (s *Store) writeMetadata(meta *RunMetadata) error {
	f, err := os.Create(filepath.Join(s.baseDir, meta.ID, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeCSV(path string, header []string, rows func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// SaveShot records a shot trace. meta.Kind is forced to shot.
func (s *Store) SaveShot(meta RunMetadata, snaps []dynamo.Snapshot) (string, error) {
	meta.Kind = KindShot
	id, err := s.newRun(&meta)
	if err != nil {
		return "", err
	}

	header := []string{"time", "phase", "setpoint", "velocity", "leader", "follower", "feeder"}
	err = writeCSV(filepath.Join(s.baseDir, id, traceFile), header, func(w *csv.Writer) error {
		for _, snap := range snaps {
			row := []string{
				formatFloat(snap.Seconds()),
				snap.Phase,
				formatFloat(snap.Setpoint),
				formatFloat(snap.Velocity),
				formatFloat(snap.Leader),
				formatFloat(snap.Follower),
				formatFloat(snap.Feeder),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

// SaveLog records one characterization procedure.
func (s *Store) SaveLog(meta RunMetadata, l *characterize.Log) (string, error) {
	meta.Kind = KindCharacterization
	meta.Actuator = l.Actuator
	meta.Mode = l.Mode.String()
	meta.Direction = l.Direction.String()
	id, err := s.newRun(&meta)
	if err != nil {
		return "", err
	}

	header := []string{"time", "voltage", "position", "velocity"}
	err = writeCSV(filepath.Join(s.baseDir, id, samplesFile), header, func(w *csv.Writer) error {
		for _, sample := range l.Samples() {
			row := []string{
				formatFloat(sample.Time.Seconds()),
				formatFloat(sample.Voltage),
				formatFloat(sample.Position),
				formatFloat(sample.Velocity),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

// AttachFit stores a model fit in a characterization run's metadata.
func (s *Store) AttachFit(runID string, fit *FitRecord) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	meta.Fit = fit
	return s.writeMetadata(meta)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func duration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// LoadTrace reads a shot trace back. Times are rounded to the microsecond
// precision they were written with.
func (s *Store) LoadTrace(runID string) ([]dynamo.Snapshot, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}

	snaps := make([]dynamo.Snapshot, 0, len(records))
	for i, record := range records {
		if len(record) != 7 {
			return nil, fmt.Errorf("%s line %d: expected 7 fields, got %d", runID, i+2, len(record))
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", runID, i+2, err)
		}
		vals, err := parseFloats(record[2:])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", runID, i+2, err)
		}
		snaps = append(snaps, dynamo.Snapshot{
			Time:     duration(t),
			Phase:    record[1],
			Setpoint: vals[0],
			Velocity: vals[1],
			Leader:   vals[2],
			Follower: vals[3],
			Feeder:   vals[4],
		})
	}
	return snaps, nil
}

// LoadLog reads a characterization run back into a log.
func (s *Store) LoadLog(runID string) (*characterize.Log, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	if meta.Kind != KindCharacterization {
		return nil, fmt.Errorf("%s is a %s run, not a characterization", runID, meta.Kind)
	}
	mode, err := characterize.ParseMode(meta.Mode)
	if err != nil {
		return nil, err
	}
	dir := characterize.Forward
	if meta.Direction == characterize.Reverse.String() {
		dir = characterize.Reverse
	}

	records, err := readCSV(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}

	samples := make([]characterize.Sample, 0, len(records))
	for i, record := range records {
		vals, err := parseFloats(record)
		if err != nil || len(vals) != 4 {
			return nil, fmt.Errorf("%s line %d: malformed sample", runID, i+2)
		}
		samples = append(samples, characterize.Sample{
			Time:     duration(vals[0]),
			Voltage:  vals[1],
			Position: vals[2],
			Velocity: vals[3],
		})
	}
	return characterize.NewLog(meta.Actuator, mode, dir, samples), nil
}
