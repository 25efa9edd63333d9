package gamemath

import (
	"fmt"
	"math"
)

// BalanceToRTP rescales every winning tier's weight so the model's RTP lands
// on targetRTP. The scale is uniform: ratio = target/current applied to each
// weight, rounded to the nearest ticket with a floor of 1, so individual tier
// contributions shift slightly while the overall RTP converges on the target.
// Tiers with zero weight stay unreachable. Pool models only.
func BalanceToRTP(m *PrizeModel, targetRTP float64) error {
	if m == nil {
		return fmt.Errorf("no model to balance")
	}
	if m.Mode != ModePool {
		return fmt.Errorf("weight balancing applies to pool models only, model is %s", m.Mode)
	}
	if targetRTP < 0 {
		return fmt.Errorf("target RTP %.2f%% cannot be negative", targetRTP)
	}
	current := RTP(m)
	if current == 0 {
		return fmt.Errorf("current RTP is zero: no winning weight to rescale")
	}
	scaleWeights(m, targetRTP/current)
	return nil
}

// FixRTPCeiling pulls an over-budget model back under the ceiling by scaling
// all weights by maxRTP/current. No-op when the model is already compliant.
// The fix targets this one constraint; re-validating afterwards is the
// caller's job.
func FixRTPCeiling(m *PrizeModel, maxRTP float64) error {
	if m == nil {
		return fmt.Errorf("no model to fix")
	}
	if m.Mode != ModePool {
		return fmt.Errorf("weight balancing applies to pool models only, model is %s", m.Mode)
	}
	if maxRTP <= 0 {
		return fmt.Errorf("RTP ceiling %.2f%% must be positive", maxRTP)
	}
	current := RTP(m)
	if current <= maxRTP {
		return nil
	}
	scaleWeights(m, maxRTP/current)
	return nil
}

// FixMoneyBackRate trims money-back tiers (payout exactly 1x) until they
// cover at most maxRate percent of the deck. Each money-back tier's weight is
// floor-scaled by targetCount/currentCount, never below 1. Other tiers are
// untouched, and no re-validation happens here.
func FixMoneyBackRate(m *PrizeModel, maxRate float64) error {
	if m == nil {
		return fmt.Errorf("no model to fix")
	}
	if m.Mode != ModePool {
		return fmt.Errorf("weight balancing applies to pool models only, model is %s", m.Mode)
	}
	if maxRate < 0 {
		return fmt.Errorf("money-back cap %.2f%% cannot be negative", maxRate)
	}
	if m.TotalTickets <= 0 {
		return fmt.Errorf("model has no tickets")
	}
	currentCount := m.MoneyBackWeight()
	if currentCount == 0 {
		return nil
	}
	targetCount := int64(math.Floor(float64(m.TotalTickets) * maxRate / 100))
	if currentCount <= targetCount {
		return nil
	}
	for i := range m.Tiers {
		t := &m.Tiers[i]
		if t.Payout != 1 || t.Weight <= 0 {
			continue
		}
		w := t.Weight * targetCount / currentCount
		if w < 1 {
			w = 1
		}
		t.Weight = w
	}
	return nil
}

func scaleWeights(m *PrizeModel, ratio float64) {
	for i := range m.Tiers {
		t := &m.Tiers[i]
		if t.Weight <= 0 {
			continue
		}
		w := int64(math.Round(float64(t.Weight) * ratio))
		if w < 1 {
			w = 1
		}
		t.Weight = w
	}
}

// Allocation is an RTP budget split across the three contribution buckets of
// a game design: the base game, bonus features, and jackpots. Values are RTP
// percentage points.
type Allocation struct {
	BaseGame float64 `json:"baseGame"`
	Features float64 `json:"features"`
	Jackpots float64 `json:"jackpots"`
}

// Total returns the summed RTP of the three buckets.
func (a Allocation) Total() float64 {
	return a.BaseGame + a.Features + a.Jackpots
}

// AllocationLocks marks buckets whose current value must survive a rebudget.
type AllocationLocks struct {
	BaseGame bool `json:"baseGame"`
	Features bool `json:"features"`
	Jackpots bool `json:"jackpots"`
}

// SplitRTPBudget distributes targetRTP across the three buckets using a
// volatility profile: low volatility leans on the base game (80/15/5),
// medium is balanced (70/20/10), high and very high push value into features
// and jackpots (60/25/15). Locked buckets keep their value from current and
// the remainder is split among unlocked buckets in profile proportion. The
// result always sums to targetRTP within 0.01; the rounding residue is folded
// into the largest unlocked bucket. Locked value exceeding the budget is an
// error.
func SplitRTPBudget(targetRTP float64, vol Volatility, current Allocation, locks AllocationLocks) (Allocation, error) {
	if targetRTP < 0 {
		return Allocation{}, fmt.Errorf("target RTP %.2f%% cannot be negative", targetRTP)
	}

	base, feat, jack := splitWeights(vol)
	out := current

	var lockedSum float64
	if locks.BaseGame {
		lockedSum += current.BaseGame
	}
	if locks.Features {
		lockedSum += current.Features
	}
	if locks.Jackpots {
		lockedSum += current.Jackpots
	}
	if lockedSum > targetRTP+0.01 {
		return Allocation{}, fmt.Errorf("locked buckets already hold %.2f%% of a %.2f%% budget", lockedSum, targetRTP)
	}

	var wSum float64
	if !locks.BaseGame {
		wSum += base
	}
	if !locks.Features {
		wSum += feat
	}
	if !locks.Jackpots {
		wSum += jack
	}
	if wSum == 0 {
		// Everything locked: the budget must already be spoken for.
		if math.Abs(lockedSum-targetRTP) > 0.01 {
			return Allocation{}, fmt.Errorf("all buckets locked at %.2f%% but the budget is %.2f%%", lockedSum, targetRTP)
		}
		return out, nil
	}

	remainder := targetRTP - lockedSum
	if remainder < 0 {
		remainder = 0
	}
	if !locks.BaseGame {
		out.BaseGame = round2(remainder * base / wSum)
	}
	if !locks.Features {
		out.Features = round2(remainder * feat / wSum)
	}
	if !locks.Jackpots {
		out.Jackpots = round2(remainder * jack / wSum)
	}

	// Fold the rounding residue into the largest unlocked bucket so the
	// three always sum to the target.
	if diff := targetRTP - out.Total(); diff != 0 {
		var unlocked []*float64
		if !locks.BaseGame {
			unlocked = append(unlocked, &out.BaseGame)
		}
		if !locks.Features {
			unlocked = append(unlocked, &out.Features)
		}
		if !locks.Jackpots {
			unlocked = append(unlocked, &out.Jackpots)
		}
		largest := unlocked[0]
		for _, p := range unlocked[1:] {
			if *p > *largest {
				largest = p
			}
		}
		if v := round2(*largest + diff); v >= 0 {
			*largest = v
		}
	}
	return out, nil
}

func splitWeights(vol Volatility) (base, features, jackpots float64) {
	switch vol {
	case VolatilityLow:
		return 80, 15, 5
	case VolatilityHigh, VolatilityVeryHigh:
		return 60, 25, 15
	default:
		return 70, 20, 10
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
