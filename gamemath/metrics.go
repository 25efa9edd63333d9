package gamemath

// Volatility is the bucketed label for payout variance.
type Volatility string

const (
	VolatilityLow      Volatility = "LOW"
	VolatilityMedium   Volatility = "MEDIUM"
	VolatilityHigh     Volatility = "HIGH"
	VolatilityVeryHigh Volatility = "VERY_HIGH"
)

// Metrics is the analytic summary of a prize model. All functions here are
// pure: values above 100% (bad weight entry) pass through unclamped so the
// caller can flag them.
type Metrics struct {
	RTP                  float64    `json:"rtp"`
	HitFrequency         float64    `json:"hit_frequency"`
	Variance             float64    `json:"variance"`
	Volatility           Volatility `json:"volatility"`
	EstimatedHouseProfit Cents      `json:"estimated_house_profit,omitempty"`
}

// Compute evaluates all metrics for the model.
func Compute(m *PrizeModel) Metrics {
	v := Variance(m)
	return Metrics{
		RTP:                  RTP(m),
		HitFrequency:         HitFrequency(m),
		Variance:             v,
		Volatility:           VolatilityFor(v),
		EstimatedHouseProfit: EstimatedHouseProfit(m),
	}
}

// RTP returns the theoretical return to player in percent.
// Pool: sum(weight*payout)/totalTickets*100. Unlimited: sum(probability*payout)
// with probability already in 0-100 units.
func RTP(m *PrizeModel) float64 {
	switch m.Mode {
	case ModeUnlimited:
		var rtp float64
		for _, t := range m.Tiers {
			if t.Probability > 0 {
				rtp += t.Probability * t.Payout
			}
		}
		return rtp
	default:
		if m.TotalTickets <= 0 {
			return 0
		}
		var value float64
		for _, t := range m.Tiers {
			if t.Weight > 0 {
				value += float64(t.Weight) * t.Payout
			}
		}
		return value / float64(m.TotalTickets) * 100
	}
}

// HitFrequency returns the share of draws that win anything, in percent.
func HitFrequency(m *PrizeModel) float64 {
	switch m.Mode {
	case ModeUnlimited:
		return m.TotalProbability()
	default:
		if m.TotalTickets <= 0 {
			return 0
		}
		return float64(m.TotalWeight()) / float64(m.TotalTickets) * 100
	}
}

// Variance returns E[X^2]-E[X]^2 of the per-draw payout multiplier, with the
// implicit losing outcome counted at payout 0.
func Variance(m *PrizeModel) float64 {
	var mean, sq float64
	switch m.Mode {
	case ModeUnlimited:
		for _, t := range m.Tiers {
			if t.Probability <= 0 {
				continue
			}
			p := t.Probability / 100
			mean += p * t.Payout
			sq += p * t.Payout * t.Payout
		}
	default:
		if m.TotalTickets <= 0 {
			return 0
		}
		total := float64(m.TotalTickets)
		for _, t := range m.Tiers {
			if t.Weight <= 0 {
				continue
			}
			p := float64(t.Weight) / total
			mean += p * t.Payout
			sq += p * t.Payout * t.Payout
		}
	}
	v := sq - mean*mean
	if v < 0 {
		v = 0
	}
	return v
}

// VolatilityFor buckets a variance value. Boundary values land in the higher
// bucket: variance 10 is MEDIUM, 40 is HIGH, 100 is VERY_HIGH.
func VolatilityFor(variance float64) Volatility {
	switch {
	case variance < 10:
		return VolatilityLow
	case variance < 40:
		return VolatilityMedium
	case variance < 100:
		return VolatilityHigh
	default:
		return VolatilityVeryHigh
	}
}

// EstimatedHouseProfit returns expected operator profit for a Pool model in
// cents: total ticket sales minus total prize value. Unlimited models have no
// deck to sell, so the result is 0. Negative when the model pays out more
// than it sells (RTP above 100).
func EstimatedHouseProfit(m *PrizeModel) Cents {
	if m.Mode == ModeUnlimited {
		return 0
	}
	sales := m.TicketPrice.MulInt(m.TotalTickets)
	var prizes Cents
	for _, t := range m.Tiers {
		if t.Weight > 0 {
			prizes += m.TicketPrice.MulFloat(t.Payout).MulInt(t.Weight)
		}
	}
	return sales - prizes
}

// AverageWin returns the mean payout multiplier of winning draws (rtp divided
// by hit frequency). The second return is false when hit frequency is zero
// and the value is undefined.
func AverageWin(m *PrizeModel) (float64, bool) {
	hf := HitFrequency(m)
	if hf == 0 {
		return 0, false
	}
	return RTP(m) / hf, true
}

// LoserRate returns the share of draws that win nothing, in percent.
func LoserRate(m *PrizeModel) float64 {
	return 100 - HitFrequency(m)
}

// MoneyBackRate returns the share of draws paying exactly 1x stake, in percent.
func MoneyBackRate(m *PrizeModel) float64 {
	switch m.Mode {
	case ModeUnlimited:
		var rate float64
		for _, t := range m.Tiers {
			if t.Payout == 1 && t.Probability > 0 {
				rate += t.Probability
			}
		}
		return rate
	default:
		if m.TotalTickets <= 0 {
			return 0
		}
		return float64(m.MoneyBackWeight()) / float64(m.TotalTickets) * 100
	}
}
