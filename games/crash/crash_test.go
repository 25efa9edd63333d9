package crash

import (
	"math"
	"testing"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/rng"
)

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []Config{
		{GrowthRate: 0, HouseEdge: 0.01, MinMultiplier: 1, MaxMultiplier: 1000},
		{GrowthRate: 0.05, HouseEdge: 1, MinMultiplier: 1, MaxMultiplier: 1000},
		{GrowthRate: 0.05, HouseEdge: -0.1, MinMultiplier: 1, MaxMultiplier: 1000},
		{GrowthRate: 0.05, HouseEdge: 0.01, MinMultiplier: 0.5, MaxMultiplier: 1000},
		{GrowthRate: 0.05, HouseEdge: 0.01, MinMultiplier: 2, MaxMultiplier: 2},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("config %d should be invalid: %+v", i, c)
		}
	}
}

func TestCrashPoint_RangeAndPrecision(t *testing.T) {
	cfg := DefaultConfig()
	src := rng.NewSeeded(11)
	for i := 0; i < 100_000; i++ {
		cp := cfg.CrashPoint(src)
		if cp < 1.00 || cp > cfg.MaxMultiplier {
			t.Fatalf("crash point %v out of [1.00, %v]", cp, cfg.MaxMultiplier)
		}
		if cents := cp * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
			t.Fatalf("crash point %v not floored to 2 decimals", cp)
		}
	}
}

func TestCrashPoint_InstantBustRate(t *testing.T) {
	// The draw formula implies P(instant bust) = 1 - 0.99/1.01, about 1.98%.
	cfg := DefaultConfig()
	src := rng.NewSeeded(1234)
	const rounds = 100_000
	busts := 0
	for i := 0; i < rounds; i++ {
		if cfg.CrashPoint(src) <= 1.00 {
			busts++
		}
	}
	rate := float64(busts) / rounds * 100
	if math.Abs(rate-1.98) > 1.0 {
		t.Errorf("instant-bust rate %.3f%% want ~1.98%% (±1pp)", rate)
	}
}

func TestMultiplierAt(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.MultiplierAt(0); math.Abs(got-1) > 1e-12 {
		t.Errorf("MultiplierAt(0) = %v want 1", got)
	}
	if got := cfg.MultiplierAt(-3); math.Abs(got-1) > 1e-12 {
		t.Errorf("MultiplierAt(-3) = %v want 1", got)
	}
	if got := cfg.MultiplierAt(10); math.Abs(got-math.Exp(0.5)) > 1e-9 {
		t.Errorf("MultiplierAt(10) = %v want e^0.5", got)
	}
	if got := cfg.MultiplierAt(1000); got != cfg.MaxMultiplier {
		t.Errorf("MultiplierAt(1000) = %v want cap %v", got, cfg.MaxMultiplier)
	}
}

func TestSimulateRTP_ConvergesToHouseEdge(t *testing.T) {
	// A fixed-cashout flat-bet strategy returns 1-houseEdge in expectation
	// whatever the cashout target.
	cfg := DefaultConfig()
	for _, cashout := range []float64{1.5, 2, 10} {
		res, err := SimulateRTP(cfg, rng.NewSeeded(77), 200_000, cashout, 0)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(res.ActualRTP-99) > 3 {
			t.Errorf("cashout %v: actual RTP %.3f%% want ~99%%", cashout, res.ActualRTP)
		}
		if res.Wins == 0 || res.Wins == res.Rounds {
			t.Errorf("cashout %v: degenerate win count %d", cashout, res.Wins)
		}
	}
}

func TestSimulateRTP_CashoutAboveCapNeverWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMultiplier = 100
	res, err := SimulateRTP(cfg, rng.NewSeeded(5), 10_000, 150, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Wins != 0 || res.ActualRTP != 0 {
		t.Errorf("cashout above cap: wins=%d rtp=%v", res.Wins, res.ActualRTP)
	}
	if res.MaxMultiplier > 100 {
		t.Errorf("observed multiplier %v above cap", res.MaxMultiplier)
	}
}

func TestSimulateRTP_HistoryWindow(t *testing.T) {
	cfg := DefaultConfig()
	res, err := SimulateRTP(cfg, rng.NewSeeded(3), 200, 2, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.History) != 50 {
		t.Fatalf("history length %d want 50", len(res.History))
	}
	for _, cp := range res.History {
		if cp < 1.00 || cp > cfg.MaxMultiplier {
			t.Errorf("history value %v out of range", cp)
		}
	}

	short, err := SimulateRTP(cfg, rng.NewSeeded(3), 30, 2, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(short.History) != 30 {
		t.Errorf("short run history length %d want 30", len(short.History))
	}
}

func TestSimulateRTP_HistoryIsTrailing(t *testing.T) {
	// Same seed, same config: the window of a long run must equal the tail
	// of the full history.
	cfg := DefaultConfig()
	full, err := SimulateRTP(cfg, rng.NewSeeded(9), 120, 2, 120)
	if err != nil {
		t.Fatal(err)
	}
	windowed, err := SimulateRTP(cfg, rng.NewSeeded(9), 120, 2, 40)
	if err != nil {
		t.Fatal(err)
	}
	tail := full.History[len(full.History)-40:]
	for i := range tail {
		if tail[i] != windowed.History[i] {
			t.Fatalf("window[%d] = %v, full tail has %v", i, windowed.History[i], tail[i])
		}
	}
}

func TestSimulateRTP_Errors(t *testing.T) {
	cfg := DefaultConfig()
	src := rng.NewSeeded(1)
	if _, err := SimulateRTP(cfg, src, 0, 2, 0); err == nil {
		t.Error("zero rounds should error")
	}
	if _, err := SimulateRTP(cfg, src, 100, 0.5, 0); err == nil {
		t.Error("cashout below 1 should error")
	}
	if _, err := SimulateRTP(Config{}, src, 100, 2, 0); err == nil {
		t.Error("invalid config should error")
	}
}

func TestSimulateSurvival(t *testing.T) {
	cfg := DefaultConfig()
	res, err := SimulateSurvival(cfg, rng.NewSeeded(21),
		gamemath.CentsFromFloat(100), gamemath.CentsFromFloat(1), 2, 10_000)
	if err != nil {
		t.Fatal(err)
	}
	if res.RoundsPlayed == 0 {
		t.Error("no rounds played with a funded bankroll")
	}
	if res.FinalBalance < 0 {
		t.Errorf("final balance %s went negative", res.FinalBalance)
	}
	if res.PeakBalance < res.FinalBalance || res.PeakBalance < gamemath.CentsFromFloat(100) {
		t.Errorf("peak %s below final %s or start", res.PeakBalance, res.FinalBalance)
	}
	if !res.Busted && res.RoundsPlayed != 10_000 {
		t.Errorf("run ended early without busting: %+v", res)
	}
	if res.Busted && res.FinalBalance >= gamemath.CentsFromFloat(1) {
		t.Errorf("busted with bet still coverable: %+v", res)
	}
}

func TestSimulateSurvival_CannotCoverBet(t *testing.T) {
	cfg := DefaultConfig()
	res, err := SimulateSurvival(cfg, rng.NewSeeded(1),
		gamemath.CentsFromFloat(0.5), gamemath.CentsFromFloat(1), 2, 100)
	if err != nil {
		t.Fatal(err)
	}
	if res.RoundsPlayed != 0 || !res.Busted {
		t.Errorf("underfunded bankroll should bust immediately: %+v", res)
	}
	if res.FinalBalance != gamemath.CentsFromFloat(0.5) {
		t.Errorf("final balance %s should be untouched", res.FinalBalance)
	}
}

func TestSimulateSurvival_Errors(t *testing.T) {
	cfg := DefaultConfig()
	src := rng.NewSeeded(1)
	if _, err := SimulateSurvival(cfg, src, 100, 0, 2, 100); err == nil {
		t.Error("zero bet should error")
	}
	if _, err := SimulateSurvival(cfg, src, -1, 10, 2, 100); err == nil {
		t.Error("negative balance should error")
	}
	if _, err := SimulateSurvival(cfg, src, 100, 10, 0.5, 100); err == nil {
		t.Error("cashout below 1 should error")
	}
	if _, err := SimulateSurvival(cfg, src, 100, 10, 2, 0); err == nil {
		t.Error("zero max rounds should error")
	}
}
