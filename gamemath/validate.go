package gamemath

import "fmt"

// Rules holds the commercial validation thresholds, all in percent.
type Rules struct {
	MaxRTP           float64 `json:"max_rtp"`
	MinLoserRate     float64 `json:"min_loser_rate"`
	MaxMoneyBackRate float64 `json:"max_money_back_rate"`
}

// DefaultRules returns the standard commercial thresholds: 85% RTP ceiling,
// 40% loser-rate floor, 15% money-back ceiling.
func DefaultRules() Rules {
	return Rules{MaxRTP: 85, MinLoserRate: 40, MaxMoneyBackRate: 15}
}

// Warning is a non-blocking validation finding.
type Warning struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Result is the outcome of commercial validation. All violations are
// collected so the caller can display them together.
type Result struct {
	IsValid  bool      `json:"is_valid"`
	Errors   []string  `json:"errors"`
	Warnings []Warning `json:"warnings"`
}

// Validate applies the commercial rules to a model without mutating it.
// Only Pool models are constrained; Unlimited models pass untouched (they
// are design sandboxes, not sellable decks).
func Validate(m *PrizeModel, rules Rules) Result {
	res := Result{IsValid: true, Errors: []string{}, Warnings: []Warning{}}
	if m == nil || m.Mode == ModeUnlimited {
		return res
	}

	if rtp := RTP(m); rtp > rules.MaxRTP {
		res.Errors = append(res.Errors,
			fmt.Sprintf("RTP %.2f%% exceeds the maximum allowed %.2f%%", rtp, rules.MaxRTP))
	}

	if lr := LoserRate(m); lr < rules.MinLoserRate {
		res.Errors = append(res.Errors,
			fmt.Sprintf("loser rate %.2f%% is below the minimum %.2f%%", lr, rules.MinLoserRate))
	}

	// Raw payout-value check, kept independent of the RTP ceiling: cent
	// rounding can make prize value and RTP disagree near the boundary.
	sales := m.TicketPrice.MulInt(m.TotalTickets)
	var prizes Cents
	for _, t := range m.Tiers {
		if t.Weight > 0 {
			prizes += m.TicketPrice.MulFloat(t.Payout).MulInt(t.Weight)
		}
	}
	if prizes > sales {
		res.Errors = append(res.Errors,
			fmt.Sprintf("total prize value %s exceeds total sales %s: guaranteed loss", prizes, sales))
	}

	if tw := m.TotalWeight(); tw > m.TotalTickets {
		res.Errors = append(res.Errors,
			fmt.Sprintf("tier weights total %d but the deck has only %d tickets", tw, m.TotalTickets))
	}

	if mbr := MoneyBackRate(m); mbr > rules.MaxMoneyBackRate {
		res.Warnings = append(res.Warnings, Warning{
			Title:   "High money-back rate",
			Message: fmt.Sprintf("%.2f%% of tickets refund exactly the stake (limit %.2f%%)", mbr, rules.MaxMoneyBackRate),
			Details: "money-back prizes strain cash flow without reading as wins to players",
		})
	}

	res.IsValid = len(res.Errors) == 0
	return res
}
