package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/flywheel/internal/characterize"
	"github.com/san-kum/flywheel/internal/dynamo"
)

func testTrace() []dynamo.Snapshot {
	return []dynamo.Snapshot{
		{Time: 0, Phase: "SpinningUp", Setpoint: 62.831853, Velocity: 0, Leader: 7.6, Follower: -7.6},
		{Time: 20 * time.Millisecond, Phase: "SpinningUp", Setpoint: 62.831853, Velocity: 1.5, Leader: 7.6, Follower: -7.6},
		{Time: 40 * time.Millisecond, Phase: "Feeding", Setpoint: 62.831853, Velocity: 3.25, Leader: 7.6, Follower: -7.6, Feeder: 6},
	}
}

func TestStoreSaveLoadShot(t *testing.T) {
	st := New(t.TempDir())

	runID, err := st.SaveShot(RunMetadata{
		Preset:     "velocity-timed",
		TickPeriod: 0.02,
		Metrics:    map[string]float64{"spin_up_time": 2.0},
	}, testTrace())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Kind != KindShot {
		t.Errorf("expected kind shot, got %q", meta.Kind)
	}
	if meta.Preset != "velocity-timed" {
		t.Errorf("expected preset 'velocity-timed', got %q", meta.Preset)
	}
	if meta.Metrics["spin_up_time"] != 2.0 {
		t.Errorf("expected spin_up_time 2.0, got %f", meta.Metrics["spin_up_time"])
	}

	snaps, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	want := testTrace()
	if len(snaps) != len(want) {
		t.Fatalf("expected %d snapshots, got %d", len(want), len(snaps))
	}
	for i := range want {
		if snaps[i] != want[i] {
			t.Errorf("snapshot %d: got %+v, want %+v", i, snaps[i], want[i])
		}
	}
}

func TestStoreSaveLoadLog(t *testing.T) {
	st := New(t.TempDir())

	samples := []characterize.Sample{
		{Time: 0, Voltage: 7, Position: 0, Velocity: 0},
		{Time: 20 * time.Millisecond, Voltage: 7, Position: 0.012, Velocity: 1.25},
	}
	log := characterize.NewLog("bottom", characterize.Dynamic, characterize.Reverse, samples)

	runID, err := st.SaveLog(RunMetadata{TickPeriod: 0.02}, log)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.LoadLog(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Actuator != "bottom" || loaded.Mode != characterize.Dynamic || loaded.Direction != characterize.Reverse {
		t.Errorf("unexpected header %s %s %s", loaded.Actuator, loaded.Mode, loaded.Direction)
	}
	got := loaded.Samples()
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, got[i], samples[i])
		}
	}

	if err := st.AttachFit(runID, &FitRecord{Kv: 0.12, Sources: []string{runID}}); err != nil {
		t.Fatalf("attach fit: %v", err)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Fit == nil || meta.Fit.Kv != 0.12 {
		t.Errorf("fit not stored: %+v", meta.Fit)
	}

	shotID, err := st.SaveShot(RunMetadata{}, testTrace())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadLog(shotID); err == nil {
		t.Error("expected error loading a shot as a log")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, _ := st.SaveShot(RunMetadata{}, testTrace())
	second, _ := st.SaveShot(RunMetadata{}, testTrace())
	if first == second {
		t.Fatalf("run ids collide: %s", first)
	}

	if err := os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestLoadNonexistent(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("nonexistent"); err == nil {
		t.Error("expected error for nonexistent run")
	}
	if _, err := st.LoadTrace("nonexistent"); err == nil {
		t.Error("expected error for nonexistent trace")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, RunMetadata{ID: "shot_1", Kind: KindShot}, testTrace()); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Steps != 3 || data.Phases[2] != "Feeding" || data.Times[1] != 0.02 {
		t.Errorf("unexpected export %+v", data)
	}
	if data.Run.ID != "shot_1" {
		t.Errorf("unexpected run id %q", data.Run.ID)
	}
}
