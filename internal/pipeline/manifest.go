package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/chronicle/internal/artifact"
)

// RunRecord documents one pipeline invocation in the output manifest.
type RunRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Stages     []string  `json:"stages"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}

// Manifest accumulates the run history of an output directory.
type Manifest struct {
	Runs []RunRecord `json:"runs"`
}

func newRunRecord() RunRecord {
	return RunRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func appendRunRecord(path string, rec RunRecord) error {
	m, err := loadManifest(path)
	if err != nil {
		return err
	}
	m.Runs = append(m.Runs, rec)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return artifact.WriteFile(path, append(data, '\n'))
}
