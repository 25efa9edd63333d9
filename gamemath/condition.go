package gamemath

import (
	"encoding/json"
	"fmt"
)

// Condition type tags used in the serialized form.
const (
	ConditionMatchN     = "match_n"
	ConditionFindTarget = "find_target"
)

// Condition describes how a prize tier is won. The set of implementations is
// closed (MatchN, FindTarget); consumers switch exhaustively on the concrete
// type. Serialized as an object with a "type" tag; unknown tags fail decode.
type Condition interface {
	Kind() string
	Describe() string
	// Symbol returns the symbol this condition is bound to, or "" when the
	// target is chosen at play time.
	Symbol() string
	sealedCondition()
}

// MatchN wins by matching Count occurrences of SymbolID.
type MatchN struct {
	Count    int
	SymbolID string
}

func (MatchN) Kind() string     { return ConditionMatchN }
func (MatchN) sealedCondition() {}
func (c MatchN) Symbol() string { return c.SymbolID }
func (c MatchN) Describe() string {
	return fmt.Sprintf("match %d of %s", c.Count, c.SymbolID)
}

// TargetKind selects how a FindTarget condition resolves its target symbol.
type TargetKind string

const (
	TargetFixed   TargetKind = "fixed"
	TargetDynamic TargetKind = "dynamic"
)

// FindTarget wins by revealing the target symbol: a fixed SymbolID, or one
// chosen at play time (Target == TargetDynamic).
type FindTarget struct {
	Target   TargetKind
	SymbolID string
}

func (FindTarget) Kind() string     { return ConditionFindTarget }
func (FindTarget) sealedCondition() {}
func (c FindTarget) Symbol() string { return c.SymbolID }
func (c FindTarget) Describe() string {
	if c.Target == TargetDynamic {
		return "find the drawn target"
	}
	return fmt.Sprintf("find %s", c.SymbolID)
}

// conditionEnvelope is the wire form ("type" tag plus the union of fields).
type conditionEnvelope struct {
	Type     string `json:"type" yaml:"type"`
	Count    int    `json:"count,omitempty" yaml:"count,omitempty"`
	SymbolID string `json:"symbol_id,omitempty" yaml:"symbol_id,omitempty"`
	Target   string `json:"target,omitempty" yaml:"target,omitempty"`
}

func encodeCondition(c Condition) *conditionEnvelope {
	switch v := c.(type) {
	case MatchN:
		return &conditionEnvelope{Type: ConditionMatchN, Count: v.Count, SymbolID: v.SymbolID}
	case FindTarget:
		return &conditionEnvelope{Type: ConditionFindTarget, Target: string(v.Target), SymbolID: v.SymbolID}
	default:
		return nil
	}
}

func (e *conditionEnvelope) decode() (Condition, error) {
	switch e.Type {
	case ConditionMatchN:
		if e.Count <= 0 {
			return nil, fmt.Errorf("match_n condition: count must be > 0, got %d", e.Count)
		}
		if e.SymbolID == "" {
			return nil, fmt.Errorf("match_n condition: symbol_id is required")
		}
		return MatchN{Count: e.Count, SymbolID: e.SymbolID}, nil
	case ConditionFindTarget:
		switch TargetKind(e.Target) {
		case TargetFixed:
			if e.SymbolID == "" {
				return nil, fmt.Errorf("find_target condition: fixed target needs symbol_id")
			}
			return FindTarget{Target: TargetFixed, SymbolID: e.SymbolID}, nil
		case TargetDynamic:
			return FindTarget{Target: TargetDynamic}, nil
		default:
			return nil, fmt.Errorf("find_target condition: unknown target %q", e.Target)
		}
	default:
		return nil, fmt.Errorf("unknown condition type %q", e.Type)
	}
}

// DecodeCondition parses the serialized JSON form of a win condition.
func DecodeCondition(data []byte) (Condition, error) {
	var e conditionEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e.decode()
}
