package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pr-riad/MPPT-P-O/internal/mppt"
	"github.com/pr-riad/MPPT-P-O/internal/sim"
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
	Panel      string             `json:"panel"`
	Converter  string             `json:"converter"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	StepSize   float64            `json:"step_size"`
	MinVoltage float64            `json:"min_voltage"`
	MaxVoltage float64            `json:"max_voltage"`
	SampleTime float64            `json:"sample_time"`
	Duration   float64            `json:"duration"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (s *Store) Save(panel, converter string, cfg mppt.Config, duration float64, seed int64, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", panel, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Panel:      panel,
		Converter:  converter,
		Timestamp:  time.Now(),
		Seed:       seed,
		StepSize:   cfg.StepSize,
		MinVoltage: cfg.MinVoltage,
		MaxVoltage: cfg.MaxVoltage,
		SampleTime: cfg.SampleTime,
		Duration:   duration,
		Metrics:    result.Metrics,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "history.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"time", "voltage", "current", "power", "v_ref", "action"}); err != nil {
		return "", err
	}

	for _, sample := range result.Samples {
		row := []string{
			strconv.FormatFloat(sample.Time, 'f', 6, 64),
			strconv.FormatFloat(sample.Voltage, 'f', 6, 64),
			strconv.FormatFloat(sample.Current, 'f', 6, 64),
			strconv.FormatFloat(sample.Power, 'f', 6, 64),
			strconv.FormatFloat(sample.Reference, 'f', 6, 64),
			string(sample.Action),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadHistory reads a saved run's trace back as samples.
func (s *Store) LoadHistory(runID string) ([]sim.Sample, error) {
	csvPath := filepath.Join(s.baseDir, runID, "history.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 6 {
			continue
		}

		fields := make([]float64, 5)
		ok := true
		for j := 0; j < 5; j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
			fields[j] = v
		}
		if !ok {
			continue
		}

		samples = append(samples, sim.Sample{
			Step:      len(samples),
			Time:      fields[0],
			Voltage:   fields[1],
			Current:   fields[2],
			Power:     fields[3],
			Reference: fields[4],
			Action:    mppt.Action(record[5]),
		})
	}

	return samples, nil
}
