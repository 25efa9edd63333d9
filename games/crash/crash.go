// Package crash models the crash game: a multiplier curve that busts at a
// random point each round. The model is independent of the tier-based prize
// models; it has its own draw and its own RTP accounting.
package crash

import (
	"fmt"
	"math"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/rng"
)

// Config holds the crash curve parameters.
type Config struct {
	// GrowthRate is the exponent of the live multiplier curve,
	// multiplier(t) = e^(GrowthRate*t).
	GrowthRate float64 `json:"growth_rate" yaml:"growth_rate"`
	// HouseEdge is the operator margin baked into the crash-point draw.
	// 0.01 keeps 1% of turnover regardless of cashout strategy.
	HouseEdge     float64 `json:"house_edge" yaml:"house_edge"`
	MinMultiplier float64 `json:"min_multiplier" yaml:"min_multiplier"`
	MaxMultiplier float64 `json:"max_multiplier" yaml:"max_multiplier"`
}

// DefaultConfig returns the production curve: 1% house edge, multipliers
// capped at 1000x.
func DefaultConfig() Config {
	return Config{
		GrowthRate:    0.05,
		HouseEdge:     0.01,
		MinMultiplier: 1.00,
		MaxMultiplier: 1000.00,
	}
}

// Validate checks the curve parameters.
func (c Config) Validate() error {
	if c.GrowthRate <= 0 {
		return fmt.Errorf("growth_rate must be > 0, got %v", c.GrowthRate)
	}
	if c.HouseEdge < 0 || c.HouseEdge >= 1 {
		return fmt.Errorf("house_edge must be in [0,1), got %v", c.HouseEdge)
	}
	if c.MinMultiplier < 1 {
		return fmt.Errorf("min_multiplier must be >= 1, got %v", c.MinMultiplier)
	}
	if c.MaxMultiplier <= c.MinMultiplier {
		return fmt.Errorf("max_multiplier %v must exceed min_multiplier %v", c.MaxMultiplier, c.MinMultiplier)
	}
	return nil
}

// CrashPoint draws the multiplier at which the next round busts:
// (1-houseEdge)/(1-r) floored to 2 decimals and clamped to
// [MinMultiplier, MaxMultiplier]. Draws landing below the minimum are an
// instant bust at 1.00x. With the default edge roughly 1.98% of rounds bust
// instantly.
func (c Config) CrashPoint(src rng.Source) float64 {
	r := src.Float64()
	cp := math.Floor((1-c.HouseEdge)/(1-r)*100) / 100
	if cp > c.MaxMultiplier {
		cp = c.MaxMultiplier
	}
	if cp < c.MinMultiplier {
		return 1.00
	}
	return cp
}

// MultiplierAt returns the displayed multiplier after elapsed seconds,
// capped at MaxMultiplier.
func (c Config) MultiplierAt(elapsed float64) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	m := math.Exp(c.GrowthRate * elapsed)
	if m > c.MaxMultiplier {
		return c.MaxMultiplier
	}
	return m
}

// RTPResult aggregates a flat-bet fixed-cashout strategy simulation.
type RTPResult struct {
	Rounds          int64   `json:"rounds"`
	Cashout         float64 `json:"cashout"`
	Wins            int64   `json:"wins"`
	ActualRTP       float64 `json:"actual_rtp"`
	InstantBusts    int64   `json:"instant_busts"`
	InstantBustRate float64 `json:"instant_bust_rate"`
	MaxMultiplier   float64 `json:"max_multiplier"`
	// History is the trailing window of crash points in draw order, for
	// distribution display.
	History []float64 `json:"history,omitempty"`
}

// SimulateRTP plays rounds with a flat 1-unit stake, cashing out at a fixed
// target whenever the round survives that long. window bounds the trailing
// crash-point history kept in the result (0 keeps none).
func SimulateRTP(cfg Config, src rng.Source, rounds int64, cashout float64, window int) (RTPResult, error) {
	if err := cfg.Validate(); err != nil {
		return RTPResult{}, err
	}
	if rounds <= 0 {
		return RTPResult{}, fmt.Errorf("rounds must be > 0, got %d", rounds)
	}
	if cashout < 1 {
		return RTPResult{}, fmt.Errorf("cashout target %v must be >= 1", cashout)
	}
	if window < 0 {
		window = 0
	}

	res := RTPResult{Rounds: rounds, Cashout: cashout}
	var totalReturn float64
	var hist []float64
	var histStart int
	if window > 0 {
		hist = make([]float64, 0, window)
	}
	for i := int64(0); i < rounds; i++ {
		cp := cfg.CrashPoint(src)
		if cashout <= cp {
			res.Wins++
			totalReturn += cashout
		}
		if cp <= 1.00 {
			res.InstantBusts++
		}
		if cp > res.MaxMultiplier {
			res.MaxMultiplier = cp
		}
		if window > 0 {
			if len(hist) < window {
				hist = append(hist, cp)
			} else {
				hist[histStart] = cp
				histStart = (histStart + 1) % window
			}
		}
	}
	res.ActualRTP = totalReturn / float64(rounds) * 100
	res.InstantBustRate = float64(res.InstantBusts) / float64(rounds) * 100
	if len(hist) > 0 {
		res.History = make([]float64, len(hist))
		for i := range hist {
			res.History[i] = hist[(histStart+i)%len(hist)]
		}
	}
	return res, nil
}

// SurvivalResult reports how long a bankroll lasted.
type SurvivalResult struct {
	RoundsPlayed int64          `json:"rounds_played"`
	Busted       bool           `json:"busted"`
	FinalBalance gamemath.Cents `json:"final_balance"`
	PeakBalance  gamemath.Cents `json:"peak_balance"`
}

// SimulateSurvival plays a flat-bet fixed-cashout strategy until the
// bankroll can no longer cover the bet or maxRounds is reached. Busted is
// true only when the bankroll ran out.
func SimulateSurvival(cfg Config, src rng.Source, balance, bet gamemath.Cents, cashout float64, maxRounds int64) (SurvivalResult, error) {
	if err := cfg.Validate(); err != nil {
		return SurvivalResult{}, err
	}
	if bet <= 0 {
		return SurvivalResult{}, fmt.Errorf("bet %s must be positive", bet)
	}
	if balance < 0 {
		return SurvivalResult{}, fmt.Errorf("balance %s cannot be negative", balance)
	}
	if cashout < 1 {
		return SurvivalResult{}, fmt.Errorf("cashout target %v must be >= 1", cashout)
	}
	if maxRounds <= 0 {
		return SurvivalResult{}, fmt.Errorf("max rounds must be > 0, got %d", maxRounds)
	}

	res := SurvivalResult{FinalBalance: balance, PeakBalance: balance}
	for res.RoundsPlayed < maxRounds && res.FinalBalance >= bet {
		res.FinalBalance -= bet
		if cp := cfg.CrashPoint(src); cashout <= cp {
			res.FinalBalance += bet.MulFloat(cashout)
		}
		if res.FinalBalance > res.PeakBalance {
			res.PeakBalance = res.FinalBalance
		}
		res.RoundsPlayed++
	}
	res.Busted = res.FinalBalance < bet
	return res, nil
}
