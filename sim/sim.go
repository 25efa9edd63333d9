// Package sim drives prize-model simulations in cancellable fixed-size
// batches. Pool decks are drawn down without replacement until exhausted;
// Unlimited models are sampled Monte Carlo style with an optional RTP cap.
// A Runner deep-copies its model at construction, so live edits to the
// source model are never observed by a run in progress.
package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/rng"
)

// State is the lifecycle phase of a run.
type State string

const (
	StateIdle      State = "IDLE"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
)

const (
	defaultBatchSize    = 10_000
	defaultWindowSize   = 100
	defaultMajorWinRank = 3
)

// Options tune a run. Zero values select the defaults.
type Options struct {
	// BatchSize is the number of draws executed per Step.
	BatchSize int `json:"batch_size,omitempty"`
	// MaxDraws caps the run length. Zero means the whole deck in Pool mode;
	// an Unlimited run has no natural end, so without a positive cap it
	// completes immediately with an empty result.
	MaxDraws int64 `json:"max_draws,omitempty"`
	// RTPCap converts Unlimited-mode wins to losses whenever paying them
	// would lift the realized RTP above the model's theoretical RTP. The
	// result is a compensated distribution, surfaced via Aggregates.Capped.
	// Ignored in Pool mode.
	RTPCap bool `json:"rtp_cap,omitempty"`
	// WindowSize bounds the trailing outcome window.
	WindowSize int `json:"window_size,omitempty"`
	// MajorWinRank marks the N highest-payout tiers as major wins for the
	// audit log.
	MajorWinRank int `json:"major_win_rank,omitempty"`
}

// deckState is the mutable Pool-mode deck. It is discarded wholesale on
// Reset and rebuilt from the model snapshot.
type deckState struct {
	remainingTickets int64
	remainingWeight  []int64
}

func newDeckState(m *gamemath.PrizeModel) *deckState {
	d := &deckState{
		remainingTickets: m.TotalTickets,
		remainingWeight:  make([]int64, len(m.Tiers)),
	}
	for i, t := range m.Tiers {
		if t.Weight > 0 {
			d.remainingWeight[i] = t.Weight
		}
	}
	return d
}

// Runner executes one simulation run over a frozen model snapshot.
//
// All state is guarded by one mutex: a Step runs a whole batch without
// suspension, and Snapshot or State may be called from other goroutines
// between batches while the run advances. Draw order is strictly
// sequential; draw i+1 always observes the deck left by draw i.
type Runner struct {
	mu    sync.Mutex
	model *gamemath.PrizeModel
	src   rng.Source
	opts  Options

	state     State
	deck      *deckState
	agg       *Aggregates
	major     map[string]bool
	totalProb float64
	theoRTP   float64
}

// New prepares a run. The model is deep-copied and structurally checked;
// commercial validation is the caller's concern. A model with no tiers or an
// empty Pool deck, or an Unlimited run without a draw cap, starts out
// already Completed with empty aggregates rather than failing.
func New(model *gamemath.PrizeModel, src rng.Source, opts Options) (*Runner, error) {
	if model == nil {
		return nil, fmt.Errorf("no model to simulate")
	}
	if src == nil {
		return nil, fmt.Errorf("no random source")
	}
	if err := model.Check(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = defaultWindowSize
	}
	if opts.MajorWinRank <= 0 {
		opts.MajorWinRank = defaultMajorWinRank
	}
	if opts.MaxDraws < 0 {
		opts.MaxDraws = 0
	}
	r := &Runner{
		model:     model.Clone(),
		src:       src,
		opts:      opts,
		state:     StateIdle,
		agg:       newAggregates(opts.WindowSize),
		major:     majorTiers(model, opts.MajorWinRank),
		totalProb: model.TotalProbability(),
		theoRTP:   gamemath.RTP(model),
	}
	if r.model.Mode == gamemath.ModePool {
		r.deck = newDeckState(r.model)
	}
	if r.exhausted() {
		r.state = StateCompleted
	}
	return r, nil
}

// majorTiers returns the IDs of the rank highest-payout tiers.
func majorTiers(m *gamemath.PrizeModel, rank int) map[string]bool {
	idx := make([]int, 0, len(m.Tiers))
	for i, t := range m.Tiers {
		if t.Payout > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return m.Tiers[idx[a]].Payout > m.Tiers[idx[b]].Payout
	})
	if len(idx) > rank {
		idx = idx[:rank]
	}
	major := make(map[string]bool, len(idx))
	for _, i := range idx {
		major[m.Tiers[i].ID] = true
	}
	return major
}

// exhausted reports whether the run has nothing left to draw. Callers hold
// r.mu.
func (r *Runner) exhausted() bool {
	if len(r.model.Tiers) == 0 {
		return true
	}
	if r.opts.MaxDraws > 0 && r.agg.Spins >= r.opts.MaxDraws {
		return true
	}
	if r.model.Mode == gamemath.ModePool {
		return r.deck.remainingTickets <= 0
	}
	return r.opts.MaxDraws <= 0
}

// Step runs one batch and reports whether the run is finished. Stepping a
// completed run is a no-op that returns true.
func (r *Runner) Step() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateCompleted {
		return true
	}
	r.state = StateRunning
	for i := 0; i < r.opts.BatchSize && !r.exhausted(); i++ {
		if r.model.Mode == gamemath.ModePool {
			r.drawPool()
		} else {
			r.drawUnlimited()
		}
	}
	if r.exhausted() {
		r.state = StateCompleted
		return true
	}
	return false
}

// Run advances the simulation to completion, checking ctx between batches
// only; a batch in progress is never interrupted. After cancellation the
// partial aggregates are consistent and the run can be resumed with Step or
// Run again, or discarded with Reset.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Step() {
			return nil
		}
	}
}

// drawPool draws one ticket without replacement: a uniform index into the
// remaining deck walked against cumulative remaining tier weights. Indexes
// beyond the total remaining winning weight are losing tickets.
func (r *Runner) drawPool() {
	idx := r.src.Int64N(r.deck.remainingTickets)
	tier := -1
	var cum int64
	for i, w := range r.deck.remainingWeight {
		cum += w
		if idx < cum {
			tier = i
			break
		}
	}
	r.deck.remainingTickets--
	if tier < 0 {
		r.agg.record("", 0, false, r.model.TicketPrice, false)
		return
	}
	r.deck.remainingWeight[tier]--
	t := r.model.Tiers[tier]
	r.agg.record(t.ID, t.Payout, true, r.model.TicketPrice, r.major[t.ID])
}

// drawUnlimited draws one independent outcome: first whether the draw wins
// at all, then the tier proportional to its probability among the winners.
func (r *Runner) drawUnlimited() {
	price := r.model.TicketPrice
	if r.totalProb <= 0 || r.src.Float64()*100 >= r.totalProb {
		r.agg.record("", 0, false, price, false)
		return
	}
	tier := -1
	target := r.src.Float64() * r.totalProb
	var cum float64
	for i, t := range r.model.Tiers {
		if t.Probability <= 0 {
			continue
		}
		cum += t.Probability
		if target < cum {
			tier = i
			break
		}
	}
	if tier < 0 {
		// Cumulative float error left a sliver past the last tier.
		for i := len(r.model.Tiers) - 1; i >= 0; i-- {
			if r.model.Tiers[i].Probability > 0 {
				tier = i
				break
			}
		}
	}
	t := r.model.Tiers[tier]
	if r.opts.RTPCap && r.agg.TotalWon+t.Payout > (r.agg.TotalStaked+1)*r.theoRTP/100 {
		r.agg.Capped++
		r.agg.record("", 0, false, price, false)
		return
	}
	r.agg.record(t.ID, t.Payout, true, price, r.major[t.ID])
}

// Reset discards deck state and aggregates and rebuilds both from the model
// snapshot taken at construction. The random source keeps its sequence.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agg = newAggregates(r.opts.WindowSize)
	if r.model.Mode == gamemath.ModePool {
		r.deck = newDeckState(r.model)
	}
	r.state = StateIdle
	if r.exhausted() {
		r.state = StateCompleted
	}
}

// State returns the current lifecycle phase.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns an isolated copy of the running aggregates, safe to
// serialize while the run advances.
func (r *Runner) Snapshot() Aggregates {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agg.snapshot()
}

// Model returns a copy of the frozen model snapshot driving this run.
func (r *Runner) Model() *gamemath.PrizeModel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model.Clone()
}

// Target returns the total number of draws the run will execute, for
// progress reporting. Zero for a run with nothing to draw.
func (r *Runner) Target() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.model.Tiers) == 0 {
		return 0
	}
	if r.model.Mode == gamemath.ModePool {
		n := r.model.TotalTickets
		if r.opts.MaxDraws > 0 && r.opts.MaxDraws < n {
			n = r.opts.MaxDraws
		}
		return n
	}
	return r.opts.MaxDraws
}
