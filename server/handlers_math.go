package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
)

// modelResponse pairs a model with its computed metrics; validation is
// attached when the handler ran the commercial rules.
type modelResponse struct {
	Model      *gamemath.PrizeModel `json:"model"`
	Metrics    gamemath.Metrics     `json:"metrics"`
	Validation *gamemath.Result     `json:"validation,omitempty"`
}

// modelSummary is the list entry for stored models: identity plus metrics,
// without the tier table.
type modelSummary struct {
	ModelID string           `json:"model_id"`
	Name    string           `json:"name,omitempty"`
	Mode    gamemath.Mode    `json:"mode"`
	Metrics gamemath.Metrics `json:"metrics"`
}

// readModel decodes and structurally checks a posted prize model. On failure
// the error response is already written and nil is returned.
func readModel(w http.ResponseWriter, r *http.Request) *gamemath.PrizeModel {
	var m gamemath.PrizeModel
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return nil
	}
	if err := m.Check(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_MODEL")
		return nil
	}
	return &m
}

func (s *Server) listPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"presets": s.presets.List()})
}

func (s *Server) getPreset(w http.ResponseWriter, r *http.Request) {
	m := s.presets.Get(r.PathValue("id"))
	if m == nil {
		writeError(w, http.StatusNotFound, "preset not found", "PRESET_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, modelResponse{Model: m, Metrics: gamemath.Compute(m)})
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	models := s.models.List()
	list := make([]modelSummary, 0, len(models))
	for _, m := range models {
		list = append(list, modelSummary{
			ModelID: m.ModelID,
			Name:    m.Name,
			Mode:    m.Mode,
			Metrics: gamemath.Compute(m),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": list})
}

// registerModel stores a draft model. Drafts may fail the commercial rules;
// the validation result rides along so the configurator can flag them, but
// only structural breakage (bad mode, duplicate tier IDs) is rejected.
func (s *Server) registerModel(w http.ResponseWriter, r *http.Request) {
	m := readModel(w, r)
	if m == nil {
		return
	}
	if m.ModelID == "" {
		writeError(w, http.StatusBadRequest, "model_id required", "INVALID_MODEL")
		return
	}
	if m.SchemaVersion == 0 {
		m.SchemaVersion = 1
	}
	if err := s.models.Register(m); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "STORE_FAILED")
		return
	}
	res := gamemath.Validate(m, s.rules())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model_id":   m.ModelID,
		"metrics":    gamemath.Compute(m),
		"validation": res,
	})
}

func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	m := s.models.Get(r.PathValue("id"))
	if m == nil {
		writeError(w, http.StatusNotFound, "model not found", "MODEL_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, modelResponse{Model: m, Metrics: gamemath.Compute(m)})
}

func (s *Server) deleteModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existed, err := s.models.Delete(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "STORE_FAILED")
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "model not found", "MODEL_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"model_id": id, "deleted": true})
}

// metricsResponse is the full analytic readout for one model. AverageWin is
// omitted when undefined (nothing ever wins).
type metricsResponse struct {
	Metrics       gamemath.Metrics `json:"metrics"`
	AverageWin    *float64         `json:"average_win,omitempty"`
	LoserRate     float64          `json:"loser_rate"`
	MoneyBackRate float64          `json:"money_back_rate"`
}

func (s *Server) computeMetrics(w http.ResponseWriter, r *http.Request) {
	m := readModel(w, r)
	if m == nil {
		return
	}
	resp := metricsResponse{
		Metrics:       gamemath.Compute(m),
		LoserRate:     gamemath.LoserRate(m),
		MoneyBackRate: gamemath.MoneyBackRate(m),
	}
	if avg, ok := gamemath.AverageWin(m); ok {
		resp.AverageWin = &avg
	}
	writeJSON(w, http.StatusOK, resp)
}

type validateRequest struct {
	Model *gamemath.PrizeModel `json:"model"`
	// Rules overrides the configured thresholds for this one call.
	Rules *gamemath.Rules `json:"rules,omitempty"`
}

func (s *Server) validateModel(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	if req.Model == nil {
		writeError(w, http.StatusBadRequest, "model required", "INVALID_BODY")
		return
	}
	if err := req.Model.Check(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_MODEL")
		return
	}
	rules := s.rules()
	if req.Rules != nil {
		rules = *req.Rules
	}
	writeJSON(w, http.StatusOK, gamemath.Validate(req.Model, rules))
}

type balanceRequest struct {
	Model     *gamemath.PrizeModel `json:"model"`
	TargetRTP float64              `json:"target_rtp"`
}

func (s *Server) balanceModel(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	if req.Model == nil {
		writeError(w, http.StatusBadRequest, "model required", "INVALID_BODY")
		return
	}
	if err := req.Model.Check(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_MODEL")
		return
	}
	if err := gamemath.BalanceToRTP(req.Model, req.TargetRTP); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BALANCE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, modelResponse{Model: req.Model, Metrics: gamemath.Compute(req.Model)})
}

type autofixRequest struct {
	Model *gamemath.PrizeModel `json:"model"`
	// Fix selects the constraint to repair: "rtp" or "moneyback".
	Fix     string  `json:"fix"`
	MaxRTP  float64 `json:"max_rtp,omitempty"`
	MaxRate float64 `json:"max_rate,omitempty"`
}

// autofixModel applies one targeted fix and re-validates, so the response
// shows what is still wrong after the repair.
func (s *Server) autofixModel(w http.ResponseWriter, r *http.Request) {
	var req autofixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	if req.Model == nil {
		writeError(w, http.StatusBadRequest, "model required", "INVALID_BODY")
		return
	}
	if err := req.Model.Check(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_MODEL")
		return
	}
	var err error
	switch req.Fix {
	case "rtp":
		maxRTP := req.MaxRTP
		if maxRTP <= 0 {
			maxRTP = s.cfg.MaxRTP
		}
		err = gamemath.FixRTPCeiling(req.Model, maxRTP)
	case "moneyback":
		maxRate := req.MaxRate
		if maxRate <= 0 {
			maxRate = s.cfg.MaxMoneyBackRate
		}
		err = gamemath.FixMoneyBackRate(req.Model, maxRate)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown fix %q", req.Fix), "INVALID_FIX")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "FIX_FAILED")
		return
	}
	res := gamemath.Validate(req.Model, s.rules())
	writeJSON(w, http.StatusOK, modelResponse{
		Model:      req.Model,
		Metrics:    gamemath.Compute(req.Model),
		Validation: &res,
	})
}

type splitRequest struct {
	TargetRTP  float64                  `json:"target_rtp"`
	Volatility gamemath.Volatility      `json:"volatility"`
	Current    gamemath.Allocation      `json:"current"`
	Locks      gamemath.AllocationLocks `json:"locks"`
}

func (s *Server) splitBudget(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	alloc, err := gamemath.SplitRTPBudget(req.TargetRTP, req.Volatility, req.Current, req.Locks)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "SPLIT_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"allocation": alloc})
}
