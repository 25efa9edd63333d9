package gamemath

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Mode selects how a prize model assigns outcomes.
type Mode string

const (
	// ModePool draws from a finite ticket deck without replacement.
	ModePool Mode = "POOL"
	// ModeUnlimited draws independently with per-tier probabilities.
	ModeUnlimited Mode = "UNLIMITED"
)

// PrizeTier is one prize level of a model. Weight is the ticket count in
// Pool mode; Probability is the per-draw chance in percent in Unlimited mode.
type PrizeTier struct {
	ID          string
	Name        string
	Condition   Condition
	Payout      float64
	Weight      int64
	Probability float64
}

// tierWire is the serialized form of PrizeTier (condition as tagged object).
type tierWire struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name,omitempty" yaml:"name,omitempty"`
	Condition   *conditionEnvelope `json:"condition,omitempty" yaml:"condition,omitempty"`
	Payout      float64            `json:"payout" yaml:"payout"`
	Weight      int64              `json:"weight,omitempty" yaml:"weight,omitempty"`
	Probability float64            `json:"probability,omitempty" yaml:"probability,omitempty"`
}

func (t PrizeTier) wire() tierWire {
	w := tierWire{
		ID:          t.ID,
		Name:        t.Name,
		Payout:      t.Payout,
		Weight:      t.Weight,
		Probability: t.Probability,
	}
	if t.Condition != nil {
		w.Condition = encodeCondition(t.Condition)
	}
	return w
}

func (t *PrizeTier) fromWire(w tierWire) error {
	t.ID = w.ID
	t.Name = w.Name
	t.Payout = w.Payout
	t.Weight = w.Weight
	t.Probability = w.Probability
	t.Condition = nil
	if w.Condition != nil {
		c, err := w.Condition.decode()
		if err != nil {
			return fmt.Errorf("tier %q: %w", w.ID, err)
		}
		t.Condition = c
	}
	return nil
}

func (t PrizeTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.wire())
}

func (t *PrizeTier) UnmarshalJSON(data []byte) error {
	var w tierWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return t.fromWire(w)
}

func (t PrizeTier) MarshalYAML() (interface{}, error) {
	return t.wire(), nil
}

func (t *PrizeTier) UnmarshalYAML(value *yaml.Node) error {
	var w tierWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	return t.fromWire(w)
}

// PrizeModel is the stored prize model payload (schema_version 1).
type PrizeModel struct {
	SchemaVersion int         `json:"schema_version" yaml:"schema_version"`
	ModelID       string      `json:"model_id" yaml:"model_id"`
	ModelVersion  string      `json:"model_version,omitempty" yaml:"model_version,omitempty"`
	Name          string      `json:"name,omitempty" yaml:"name,omitempty"`
	Mode          Mode        `json:"mode" yaml:"mode"`
	Tiers         []PrizeTier `json:"tiers" yaml:"tiers"`
	// Pool-mode parameters. The deck's losing tickets are implicit:
	// TotalTickets minus the sum of tier weights.
	TotalTickets int64 `json:"total_tickets,omitempty" yaml:"total_tickets,omitempty"`
	TicketPrice  Cents `json:"ticket_price,omitempty" yaml:"ticket_price,omitempty"`
}

// Clone returns a deep copy. Simulation runs snapshot the model with Clone so
// live edits are never observed mid-run.
func (m *PrizeModel) Clone() *PrizeModel {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Tiers = make([]PrizeTier, len(m.Tiers))
	copy(cp.Tiers, m.Tiers)
	return &cp
}

// TotalWeight returns the sum of tier weights (winning tickets in Pool mode).
func (m *PrizeModel) TotalWeight() int64 {
	var total int64
	for _, t := range m.Tiers {
		if t.Weight > 0 {
			total += t.Weight
		}
	}
	return total
}

// TotalProbability returns the summed tier probabilities in percent.
func (m *PrizeModel) TotalProbability() float64 {
	var total float64
	for _, t := range m.Tiers {
		if t.Probability > 0 {
			total += t.Probability
		}
	}
	return total
}

// MoneyBackWeight returns the ticket count of tiers paying exactly 1x stake.
func (m *PrizeModel) MoneyBackWeight() int64 {
	var total int64
	for _, t := range m.Tiers {
		if t.Payout == 1 && t.Weight > 0 {
			total += t.Weight
		}
	}
	return total
}

// LosingTickets returns the implicit losing-ticket count in Pool mode. The
// value goes negative when weights exceed the deck; callers surface that
// through the validator rather than clamping here.
func (m *PrizeModel) LosingTickets() int64 {
	return m.TotalTickets - m.TotalWeight()
}

// TierByID returns a pointer into Tiers, or nil.
func (m *PrizeModel) TierByID(id string) *PrizeTier {
	for i := range m.Tiers {
		if m.Tiers[i].ID == id {
			return &m.Tiers[i]
		}
	}
	return nil
}

// Check verifies structural sanity: known mode, well-formed tiers, unique
// tier IDs, non-negative pool parameters. Commercial constraints (RTP
// ceiling, loser-rate floor, deck overflow) are the validator's job, not
// Check's; an empty model passes.
func (m *PrizeModel) Check() error {
	if m == nil {
		return fmt.Errorf("nil model")
	}
	switch m.Mode {
	case ModePool, ModeUnlimited:
	default:
		return fmt.Errorf("unknown mode %q", m.Mode)
	}
	if m.TotalTickets < 0 {
		return fmt.Errorf("total_tickets must be >= 0, got %d", m.TotalTickets)
	}
	if m.TicketPrice < 0 {
		return fmt.Errorf("ticket_price must be >= 0, got %s", m.TicketPrice)
	}
	seen := make(map[string]bool, len(m.Tiers))
	for i, t := range m.Tiers {
		if t.ID == "" {
			return fmt.Errorf("tier %d: id is required", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("tier %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
		if t.Payout < 0 {
			return fmt.Errorf("tier %q: payout must be >= 0, got %v", t.ID, t.Payout)
		}
		if t.Weight < 0 {
			return fmt.Errorf("tier %q: weight must be >= 0, got %d", t.ID, t.Weight)
		}
		if t.Probability < 0 || t.Probability > 100 {
			return fmt.Errorf("tier %q: probability must be in [0,100], got %v", t.ID, t.Probability)
		}
	}
	return nil
}
