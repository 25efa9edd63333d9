package gamemath

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Store persists prize models by model_id.
type Store struct {
	mu      sync.RWMutex
	models  map[string]*PrizeModel
	dataDir string
}

func NewStore(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "data"
	}
	s := &Store{
		models:  make(map[string]*PrizeModel),
		dataDir: dataDir,
	}
	s.load()
	return s
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, "prize_models.json")
}

type storedEntry struct {
	ModelID string      `json:"model_id"`
	Model   *PrizeModel `json:"model"`
}

func (s *Store) load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path())
	if err != nil {
		return
	}
	var list []storedEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return
	}
	for _, e := range list {
		if e.ModelID != "" && e.Model != nil {
			s.models[e.ModelID] = e.Model
		}
	}
}

// saveLocked writes the store to disk. Caller must hold s.mu.
func (s *Store) saveLocked() error {
	list := make([]storedEntry, 0, len(s.models))
	for id, m := range s.models {
		list = append(list, storedEntry{ModelID: id, Model: m})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ModelID < list[j].ModelID })
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0644)
}

// Register stores a prize model by its model_id. Overwrites if exists.
func (s *Store) Register(m *PrizeModel) error {
	if m == nil || m.ModelID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.ModelID] = m
	return s.saveLocked()
}

// Get returns the prize model for the given model_id, or nil.
func (s *Store) Get(modelID string) *PrizeModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[modelID]
	if !ok {
		return nil
	}
	return m
}

// List returns all stored models sorted by model_id.
func (s *Store) List() []*PrizeModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*PrizeModel, 0, len(s.models))
	for _, m := range s.models {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ModelID < list[j].ModelID })
	return list
}

// Delete removes a model by model_id. Reports whether it existed.
func (s *Store) Delete(modelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[modelID]; !ok {
		return false, nil
	}
	delete(s.models, modelID)
	return true, s.saveLocked()
}
