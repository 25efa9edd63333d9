// Package runstore keeps the results ledger of finished simulation runs:
// an append-only JSON file under the data dir, one entry per completed or
// cancelled run, queryable by run ID.
package runstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
)

// RunRecord is the durable summary of one simulation run.
type RunRecord struct {
	RunID       string        `json:"runId"`
	ModelID     string        `json:"modelId"`
	Mode        gamemath.Mode `json:"mode"`
	Spins       int64         `json:"spins"`
	TotalStaked float64       `json:"totalStaked"`
	TotalWon    float64       `json:"totalWon"`
	ActualRTP   float64       `json:"actualRtp"`
	HitRate     float64       `json:"hitRate"`
	Capped      int64         `json:"capped,omitempty"`
	Seed        int64         `json:"seed,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt"`
}

// Store appends finished runs to data/sim_runs.json.
type Store struct {
	mu      sync.Mutex
	dataDir string
}

func NewStore(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "data"
	}
	return &Store{dataDir: dataDir}
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, "sim_runs.json")
}

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dataDir, 0755)
}

// Append adds a finished run to the JSON file (append to array, same shape
// as the other file ledgers).
func (s *Store) Append(r *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDir(); err != nil {
		return err
	}
	path := s.path()
	var list []*RunRecord
	data, err := os.ReadFile(path)
	if err == nil {
		_ = json.Unmarshal(data, &list)
	}
	if list == nil {
		list = []*RunRecord{}
	}
	list = append(list, r)
	data, err = json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetByRunID returns the newest record for the run ID, or nil when absent.
func (s *Store) GetByRunID(runID string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var list []*RunRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].RunID == runID {
			return list[i], nil
		}
	}
	return nil, nil
}

// List returns all recorded runs, oldest first.
func (s *Store) List() ([]*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return []*RunRecord{}, nil
		}
		return nil, err
	}
	var list []*RunRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
