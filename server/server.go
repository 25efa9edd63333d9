// Package server exposes the math engine to the browser configurator: prize
// model CRUD, metrics/validation/balancing, batched simulation runs and the
// synchronous crash sims. Every response is JSON; business-rule findings
// travel inside 200 bodies, transport failures use writeError.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/config"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath/preset"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/runstore"
)

type Server struct {
	cfg     *config.Config
	models  *gamemath.Store
	presets *preset.Catalog
	history *runstore.Store
	runs    *runManager
}

// New wires the stores and loads the embedded preset catalog. A broken
// preset fails here, at startup, not on first request.
func New(cfg *config.Config) (*Server, error) {
	catalog, err := preset.New()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:     cfg,
		models:  gamemath.NewStore(cfg.DataDir),
		presets: catalog,
		history: runstore.NewStore(cfg.DataDir),
		runs:    newRunManager(),
	}, nil
}

// rules builds the commercial thresholds from config. Requests may override
// them per call; these are the house defaults.
func (s *Server) rules() gamemath.Rules {
	return gamemath.Rules{
		MaxRTP:           s.cfg.MaxRTP,
		MinLoserRate:     s.cfg.MinLoserRate,
		MaxMoneyBackRate: s.cfg.MaxMoneyBackRate,
	}
}

// Handler builds the route table. Split from Run so tests can drive the mux
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /math/presets", s.listPresets)
	mux.HandleFunc("GET /math/presets/{id}", s.getPreset)
	mux.HandleFunc("GET /math/models", s.listModels)
	mux.HandleFunc("POST /math/models", s.registerModel)
	mux.HandleFunc("GET /math/models/{id}", s.getModel)
	mux.HandleFunc("DELETE /math/models/{id}", s.deleteModel)
	mux.HandleFunc("POST /math/metrics", s.computeMetrics)
	mux.HandleFunc("POST /math/validate", s.validateModel)
	mux.HandleFunc("POST /math/balance", s.balanceModel)
	mux.HandleFunc("POST /math/autofix", s.autofixModel)
	mux.HandleFunc("POST /math/split", s.splitBudget)

	mux.HandleFunc("POST /sim/runs", s.startRun)
	mux.HandleFunc("GET /sim/runs", s.listRuns)
	mux.HandleFunc("GET /sim/runs/{id}", s.getRun)
	mux.HandleFunc("POST /sim/runs/{id}/cancel", s.cancelRun)
	mux.HandleFunc("DELETE /sim/runs/{id}", s.deleteRun)

	mux.HandleFunc("POST /crash/simulate", s.crashSimulate)
	mux.HandleFunc("POST /crash/survival", s.crashSurvival)

	return cors(requestLogger(mux))
}

func (s *Server) Run() error {
	port := s.cfg.Port
	if port <= 0 {
		port = 8081
	}
	addr := ":" + strconv.Itoa(port)
	log.Printf("math engine listening on %s (data dir: %s)", addr, s.cfg.DataDir)
	return http.ListenAndServe(addr, s.Handler())
}

func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// requestLogger logs method and path for each request (no body or secrets).
func requestLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("engine %s %s", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "math-engine"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
