package sim

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// CI is a 95% confidence interval, bounds in percent.
type CI struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Stats carries interval estimates for a run. The RTP interval is a normal
// approximation over the per-draw payout variance; the hit-rate interval is
// the exact Clopper-Pearson binomial bound. All values in percent.
type Stats struct {
	ActualRTP float64 `json:"actual_rtp"`
	RTPCI     CI      `json:"rtp_ci"`
	HitRate   float64 `json:"hit_rate"`
	HitRateCI CI      `json:"hit_rate_ci"`
}

// ComputeStats derives interval estimates from a run's aggregates (live or
// snapshot).
func ComputeStats(a *Aggregates) Stats {
	rtp := a.ActualRTP()
	se := rtpStdErr(a) * 100
	lo, hi := proportionCI(a.Wins, a.Spins, 0.95)
	return Stats{
		ActualRTP: rtp,
		RTPCI:     CI{Lo: max(rtp-1.96*se, 0), Hi: rtp + 1.96*se},
		HitRate:   a.HitRate(),
		HitRateCI: CI{Lo: lo * 100, Hi: hi * 100},
	}
}

// rtpStdErr is the standard error of the mean per-draw payout multiplier,
// from the running sum of squared payouts.
func rtpStdErr(a *Aggregates) float64 {
	if a.Spins < 2 {
		return 0
	}
	n := float64(a.Spins)
	variance := (a.payoutSqSum - a.TotalWon*a.TotalWon/n) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance) / math.Sqrt(n)
}

// proportionCI is the exact Clopper-Pearson interval for k successes out of
// n, returned as fractions of 1.
func proportionCI(k, n int64, confidence float64) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	alpha := 1 - confidence
	if k == 0 {
		lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		lo = b.Quantile(alpha / 2)
	}
	if k == n {
		hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		hi = b.Quantile(1 - alpha/2)
	}
	return lo, hi
}
