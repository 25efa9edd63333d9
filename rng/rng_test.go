package rng

import "testing"

func TestNewSeeded_Deterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 1000; i++ {
		if av, bv := a.Int64N(1_000_000), b.Int64N(1_000_000); av != bv {
			t.Fatalf("draw %d diverged: %d vs %d", i, av, bv)
		}
	}
}

func TestNewSeeded_SeedsDiffer(t *testing.T) {
	a := NewSeeded(1)
	b := NewSeeded(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Int64N(1_000_000) == b.Int64N(1_000_000) {
			same++
		}
	}
	if same == 100 {
		t.Error("different seeds produced identical streams")
	}
}

func TestSources_Ranges(t *testing.T) {
	for name, src := range map[string]Source{"crypto": Crypto(), "seeded": NewSeeded(7)} {
		for i := 0; i < 1000; i++ {
			if f := src.Float64(); f < 0 || f >= 1 {
				t.Fatalf("%s: Float64 = %v out of [0,1)", name, f)
			}
			if v := src.IntN(10); v < 0 || v >= 10 {
				t.Fatalf("%s: IntN(10) = %d", name, v)
			}
			if v := src.Int64N(3); v < 0 || v >= 3 {
				t.Fatalf("%s: Int64N(3) = %d", name, v)
			}
		}
	}
}

func TestSources_NonPositiveN(t *testing.T) {
	for name, src := range map[string]Source{"crypto": Crypto(), "seeded": NewSeeded(7)} {
		if src.IntN(0) != 0 || src.IntN(-5) != 0 {
			t.Errorf("%s: IntN must return 0 for n <= 0", name)
		}
		if src.Int64N(0) != 0 || src.Int64N(-5) != 0 {
			t.Errorf("%s: Int64N must return 0 for n <= 0", name)
		}
	}
}

func TestSources_CoverSmallRange(t *testing.T) {
	src := NewSeeded(99)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		seen[src.IntN(5)] = true
	}
	for v := 0; v < 5; v++ {
		if !seen[v] {
			t.Errorf("value %d never drawn in 1000 tries", v)
		}
	}
}
