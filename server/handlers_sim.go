package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	enginedb "github.com/Ashenafi-pixel/gamecrafter-math-engine"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/games/crash"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/rng"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/runstore"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/sim"

	"github.com/google/uuid"
)

// maxSyncRounds bounds the synchronous crash endpoints; deeper runs belong
// in a batched /sim/runs-style job, not a blocking request.
const maxSyncRounds = 10_000_000

// runManager tracks live simulation runs by run ID. Runs stay here after
// completion (still pollable) until deleted; cancelled runs keep their
// partial aggregates in memory but are never persisted.
type runManager struct {
	mu   sync.Mutex
	runs map[string]*liveRun
}

func newRunManager() *runManager {
	return &runManager{runs: make(map[string]*liveRun)}
}

func (m *runManager) add(lr *liveRun) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[lr.id] = lr
}

func (m *runManager) get(id string) *liveRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[id]
}

func (m *runManager) remove(id string) *liveRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	lr := m.runs[id]
	if lr != nil {
		delete(m.runs, id)
	}
	return lr
}

func (m *runManager) list() []*liveRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*liveRun, 0, len(m.runs))
	for _, lr := range m.runs {
		out = append(out, lr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].startedAt.Before(out[j].startedAt) })
	return out
}

// liveRun is one managed run. The runner carries its own lock; the fields
// here are set once at start and never mutated.
type liveRun struct {
	id        string
	modelID   string
	mode      gamemath.Mode
	seed      int64
	target    int64
	runner    *sim.Runner
	cancel    context.CancelFunc
	startedAt time.Time
	done      chan struct{}
}

// runStatus is the poll response for a live run.
type runStatus struct {
	RunID      string         `json:"run_id"`
	ModelID    string         `json:"model_id"`
	Mode       gamemath.Mode  `json:"mode"`
	State      sim.State      `json:"state"`
	Target     int64          `json:"target,omitempty"`
	Seed       int64          `json:"seed,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	Aggregates sim.Aggregates `json:"aggregates"`
	Stats      sim.Stats      `json:"stats"`
}

func (lr *liveRun) status() runStatus {
	agg := lr.runner.Snapshot()
	return runStatus{
		RunID:      lr.id,
		ModelID:    lr.modelID,
		Mode:       lr.mode,
		State:      lr.runner.State(),
		Target:     lr.target,
		Seed:       lr.seed,
		StartedAt:  lr.startedAt,
		Aggregates: agg,
		Stats:      sim.ComputeStats(&agg),
	}
}

type startRunRequest struct {
	// ModelID resolves against the store first, then the preset catalog.
	// An inline Model takes precedence over ModelID.
	ModelID string               `json:"model_id,omitempty"`
	Model   *gamemath.PrizeModel `json:"model,omitempty"`
	// Seed 0 selects the CSPRNG; any other value gives a reproducible run.
	Seed    int64       `json:"seed,omitempty"`
	Options sim.Options `json:"options"`
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	m := req.Model
	if m == nil {
		if req.ModelID == "" {
			writeError(w, http.StatusBadRequest, "model or model_id required", "INVALID_BODY")
			return
		}
		m = s.models.Get(req.ModelID)
		if m == nil {
			m = s.presets.Get(req.ModelID)
		}
		if m == nil {
			writeError(w, http.StatusNotFound, "model not found", "MODEL_NOT_FOUND")
			return
		}
	}

	opts := req.Options
	if opts.BatchSize <= 0 {
		opts.BatchSize = s.cfg.SimBatchSize
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = s.cfg.SimWindowSize
	}
	if opts.MaxDraws <= 0 && m.Mode == gamemath.ModeUnlimited {
		opts.MaxDraws = s.cfg.SimMaxDraws
	}

	src := rng.Crypto()
	if req.Seed != 0 {
		src = rng.NewSeeded(req.Seed)
	}
	runner, err := sim.New(m, src, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_MODEL")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lr := &liveRun{
		id:        uuid.New().String(),
		modelID:   m.ModelID,
		mode:      m.Mode,
		seed:      req.Seed,
		target:    runner.Target(),
		runner:    runner,
		cancel:    cancel,
		startedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}
	s.runs.add(lr)
	go s.driveRun(ctx, lr)
	writeJSON(w, http.StatusOK, lr.status())
}

// driveRun advances the run to completion and flushes the result to the
// ledgers. A cancellation leaves the partial aggregates pollable but
// persists nothing.
func (s *Server) driveRun(ctx context.Context, lr *liveRun) {
	defer close(lr.done)
	defer lr.cancel()
	if err := lr.runner.Run(ctx); err != nil {
		log.Printf("sim run %s: stopped: %v", lr.id, err)
		return
	}
	s.persistRun(lr)
}

func (s *Server) persistRun(lr *liveRun) {
	agg := lr.runner.Snapshot()
	rec := &runstore.RunRecord{
		RunID:       lr.id,
		ModelID:     lr.modelID,
		Mode:        lr.mode,
		Spins:       agg.Spins,
		TotalStaked: agg.TotalStaked,
		TotalWon:    agg.TotalWon,
		ActualRTP:   agg.ActualRTP(),
		HitRate:     agg.HitRate(),
		Capped:      agg.Capped,
		Seed:        lr.seed,
		StartedAt:   lr.startedAt,
		FinishedAt:  time.Now().UTC(),
	}
	if err := s.history.Append(rec); err != nil {
		log.Printf("sim run %s: persist result: %v", lr.id, err)
	}
	s.recordCertification(lr, agg)
}

// recordCertification writes the Postgres ledger row when a database is
// configured. The file record above is the source of truth; this is the
// compliance audit trail and failures only log.
func (s *Server) recordCertification(lr *liveRun, agg sim.Aggregates) {
	db, err := enginedb.GetDB()
	if err != nil || db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := enginedb.EnsureCertificationTable(ctx, db); err != nil {
		log.Printf("sim run %s: certification ledger: %v", lr.id, err)
		return
	}
	cert := enginedb.CertifyRun(lr.runner.Model(), s.rules(), agg)
	cert.RunID = lr.id
	cert.Seed = lr.seed
	if err := enginedb.RecordCertification(ctx, db, &cert); err != nil {
		log.Printf("sim run %s: certification ledger: %v", lr.id, err)
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	live := s.runs.list()
	statuses := make([]runStatus, 0, len(live))
	inLive := make(map[string]bool, len(live))
	for _, lr := range live {
		statuses = append(statuses, lr.status())
		inLive[lr.id] = true
	}
	records, err := s.history.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read run history", "STORE_FAILED")
		return
	}
	history := make([]*runstore.RunRecord, 0, len(records))
	for _, rec := range records {
		if !inLive[rec.RunID] {
			history = append(history, rec)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"live":    statuses,
		"history": history,
	})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if lr := s.runs.get(id); lr != nil {
		writeJSON(w, http.StatusOK, lr.status())
		return
	}
	rec, err := s.history.GetByRunID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read run history", "STORE_FAILED")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "run not found", "RUN_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": rec.RunID,
		"state":  sim.StateCompleted,
		"record": rec,
	})
}

// cancelRun stops the run at the next batch boundary. The run stays
// pollable (and resumable only by a new run; the API offers no resume).
func (s *Server) cancelRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lr := s.runs.get(id)
	if lr == nil {
		writeError(w, http.StatusNotFound, "run not found", "RUN_NOT_FOUND")
		return
	}
	lr.cancel()
	writeJSON(w, http.StatusOK, map[string]interface{}{"run_id": id, "canceled": true})
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lr := s.runs.remove(id)
	if lr == nil {
		writeError(w, http.StatusNotFound, "run not found", "RUN_NOT_FOUND")
		return
	}
	lr.cancel()
	writeJSON(w, http.StatusOK, map[string]interface{}{"run_id": id, "deleted": true})
}

type crashSimRequest struct {
	// Config nil means the default curve (1% edge, 1000x cap).
	Config  *crash.Config `json:"config,omitempty"`
	Rounds  int64         `json:"rounds"`
	Cashout float64       `json:"cashout"`
	Window  int           `json:"window,omitempty"`
	Seed    int64         `json:"seed,omitempty"`
}

func (s *Server) crashSimulate(w http.ResponseWriter, r *http.Request) {
	var req crashSimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	if req.Rounds > maxSyncRounds {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("rounds must be <= %d", maxSyncRounds), "INVALID_BODY")
		return
	}
	cfg := crash.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	src := rng.Crypto()
	if req.Seed != 0 {
		src = rng.NewSeeded(req.Seed)
	}
	res, err := crash.SimulateRTP(cfg, src, req.Rounds, req.Cashout, req.Window)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "SIMULATION_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type crashSurvivalRequest struct {
	Config    *crash.Config  `json:"config,omitempty"`
	Balance   gamemath.Cents `json:"balance"`
	Bet       gamemath.Cents `json:"bet"`
	Cashout   float64        `json:"cashout"`
	MaxRounds int64          `json:"max_rounds,omitempty"`
	Seed      int64          `json:"seed,omitempty"`
}

func (s *Server) crashSurvival(w http.ResponseWriter, r *http.Request) {
	var req crashSurvivalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	if req.MaxRounds <= 0 {
		req.MaxRounds = 1_000_000
	}
	if req.MaxRounds > maxSyncRounds {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("max_rounds must be <= %d", maxSyncRounds), "INVALID_BODY")
		return
	}
	cfg := crash.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	src := rng.Crypto()
	if req.Seed != 0 {
		src = rng.NewSeeded(req.Seed)
	}
	res, err := crash.SimulateSurvival(cfg, src, req.Balance, req.Bet, req.Cashout, req.MaxRounds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "SIMULATION_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
