package sim

import (
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
)

// Outcome is one recorded draw.
type Outcome struct {
	Draw   int64   `json:"draw"`
	TierID string  `json:"tier_id,omitempty"`
	Payout float64 `json:"payout"`
	Win    bool    `json:"win"`
}

// MajorWin is an audit entry for a hit on one of the top-payout tiers.
type MajorWin struct {
	Draw   int64   `json:"draw"`
	TierID string  `json:"tier_id"`
	Payout float64 `json:"payout"`
}

// Aggregates is the running tally of a simulation. Everything here is
// maintained incrementally per draw, never recomputed from history. Stakes
// are counted twice: in abstract 1-unit bets (TotalStaked/TotalWon, payout
// multiplier units) and in cents at the model's ticket price.
//
// Window holds the most recent outcomes; the runner maintains it as a ring
// buffer and Runner.Snapshot hands out a copy unrolled oldest-first.
// MajorWins is append-only and ordered by draw index.
type Aggregates struct {
	Spins  int64 `json:"spins"`
	Wins   int64 `json:"wins"`
	Losses int64 `json:"losses"`
	// Capped counts wins suppressed by the RTP cap. Any nonzero value means
	// the run is compensated, not true Monte Carlo.
	Capped      int64            `json:"capped,omitempty"`
	TotalStaked float64          `json:"total_staked"`
	TotalWon    float64          `json:"total_won"`
	StakedCents gamemath.Cents   `json:"staked_cents"`
	WonCents    gamemath.Cents   `json:"won_cents"`
	TierHits    map[string]int64 `json:"tier_hits"`
	Window      []Outcome        `json:"window"`
	MajorWins   []MajorWin       `json:"major_wins,omitempty"`

	payoutSqSum float64
	windowCap   int
	windowNext  int
}

func newAggregates(windowCap int) *Aggregates {
	return &Aggregates{
		TierHits:  make(map[string]int64),
		windowCap: windowCap,
	}
}

// record books one draw: a 1-unit stake plus the tier payout on a win.
// price is the per-draw stake in cents.
func (a *Aggregates) record(tierID string, payout float64, win bool, price gamemath.Cents, major bool) {
	a.Spins++
	a.TotalStaked++
	a.StakedCents += price
	out := Outcome{Draw: a.Spins, Win: win}
	if win {
		a.Wins++
		a.TotalWon += payout
		a.WonCents += price.MulFloat(payout)
		a.TierHits[tierID]++
		a.payoutSqSum += payout * payout
		out.TierID = tierID
		out.Payout = payout
		if major {
			a.MajorWins = append(a.MajorWins, MajorWin{Draw: a.Spins, TierID: tierID, Payout: payout})
		}
	} else {
		a.Losses++
	}
	a.push(out)
}

func (a *Aggregates) push(o Outcome) {
	if a.windowCap <= 0 {
		return
	}
	if len(a.Window) < a.windowCap {
		a.Window = append(a.Window, o)
		return
	}
	a.Window[a.windowNext] = o
	a.windowNext = (a.windowNext + 1) % a.windowCap
}

// snapshot returns an isolated deep copy with the window in chronological
// order.
func (a *Aggregates) snapshot() Aggregates {
	cp := *a
	cp.TierHits = make(map[string]int64, len(a.TierHits))
	for id, n := range a.TierHits {
		cp.TierHits[id] = n
	}
	cp.Window = make([]Outcome, 0, len(a.Window))
	cp.Window = append(cp.Window, a.Window[a.windowNext:]...)
	cp.Window = append(cp.Window, a.Window[:a.windowNext]...)
	cp.windowNext = 0
	cp.MajorWins = append([]MajorWin(nil), a.MajorWins...)
	return cp
}

// ActualRTP returns the realized return to player in percent, 0 before any
// stake is placed.
func (a *Aggregates) ActualRTP() float64 {
	if a.TotalStaked == 0 {
		return 0
	}
	return a.TotalWon / a.TotalStaked * 100
}

// HitRate returns the realized winning share of draws in percent.
func (a *Aggregates) HitRate() float64 {
	if a.Spins == 0 {
		return 0
	}
	return float64(a.Wins) / float64(a.Spins) * 100
}

// HouseProfit returns stakes minus payouts in bet units.
func (a *Aggregates) HouseProfit() float64 {
	return a.TotalStaked - a.TotalWon
}

// HouseProfitCents returns stakes minus payouts at the ticket price.
func (a *Aggregates) HouseProfitCents() gamemath.Cents {
	return a.StakedCents - a.WonCents
}
