package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/flywheel/internal/dynamo"
)

type ExportData struct {
	Run      RunMetadata `json:"run"`
	Steps    int         `json:"steps"`
	Times    []float64   `json:"times"`
	Phases   []string    `json:"phases"`
	Setpoint []float64   `json:"setpoint"`
	Velocity []float64   `json:"velocity"`
	Leader   []float64   `json:"leader"`
	Follower []float64   `json:"follower"`
	Feeder   []float64   `json:"feeder"`
}

func NewExport(meta RunMetadata, snaps []dynamo.Snapshot) ExportData {
	data := ExportData{
		Run:      meta,
		Steps:    len(snaps),
		Times:    make([]float64, len(snaps)),
		Phases:   make([]string, len(snaps)),
		Setpoint: make([]float64, len(snaps)),
		Velocity: make([]float64, len(snaps)),
		Leader:   make([]float64, len(snaps)),
		Follower: make([]float64, len(snaps)),
		Feeder:   make([]float64, len(snaps)),
	}
	for i, s := range snaps {
		data.Times[i] = s.Seconds()
		data.Phases[i] = s.Phase
		data.Setpoint[i] = s.Setpoint
		data.Velocity[i] = s.Velocity
		data.Leader[i] = s.Leader
		data.Follower[i] = s.Follower
		data.Feeder[i] = s.Feeder
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, snaps []dynamo.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, snaps)
}

func WriteJSON(w io.Writer, meta RunMetadata, snaps []dynamo.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExport(meta, snaps))
}
