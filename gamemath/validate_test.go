package gamemath

import (
	"strings"
	"testing"
)

func TestValidate_RTPBound(t *testing.T) {
	// 90 winners at 2x in a 100-ticket deck: RTP 180%. The deck is not
	// overweight, so the ticket-count invariant alone says nothing about
	// commercial validity.
	m := &PrizeModel{
		Mode:         ModePool,
		TotalTickets: 100,
		TicketPrice:  CentsFromFloat(10),
		Tiers:        []PrizeTier{{ID: "t1", Payout: 2, Weight: 90}},
	}
	res := Validate(m, DefaultRules())
	if res.IsValid {
		t.Fatal("RTP 180% must not validate")
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected rtp + loser-rate + guaranteed-loss errors, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "RTP 180.00% exceeds the maximum allowed 85.00%") {
		t.Errorf("first error = %q", res.Errors[0])
	}
	if !strings.Contains(res.Errors[1], "loser rate 10.00%") {
		t.Errorf("second error = %q", res.Errors[1])
	}
	if !strings.Contains(res.Errors[2], "guaranteed loss") {
		t.Errorf("third error = %q", res.Errors[2])
	}
}

func TestValidate_Passes(t *testing.T) {
	m := &PrizeModel{
		Mode:         ModePool,
		TotalTickets: 1_000_000,
		TicketPrice:  CentsFromFloat(2.5),
		Tiers: []PrizeTier{
			{ID: "mb", Payout: 1, Weight: 120_000},
			{ID: "t2", Payout: 2, Weight: 90_000},
			{ID: "t3", Payout: 5, Weight: 24_000},
			{ID: "t4", Payout: 20, Weight: 2_400},
			{ID: "t5", Payout: 500, Weight: 40},
		},
	}
	res := Validate(m, DefaultRules())
	if !res.IsValid {
		t.Fatalf("expected valid, got errors %v", res.Errors)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Errorf("expected clean result, got %+v", res)
	}
}

func TestValidate_GuaranteedLossIndependent(t *testing.T) {
	// With a permissive RTP ceiling the payout-value check still fires:
	// selling the deck would lose money outright.
	m := &PrizeModel{
		Mode:         ModePool,
		TotalTickets: 100,
		TicketPrice:  CentsFromFloat(10),
		Tiers:        []PrizeTier{{ID: "t1", Payout: 2, Weight: 90}},
	}
	rules := Rules{MaxRTP: 200, MinLoserRate: 0, MaxMoneyBackRate: 100}
	res := Validate(m, rules)
	if res.IsValid {
		t.Fatal("guaranteed-loss deck must not validate")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "guaranteed loss") {
		t.Errorf("errors = %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "1800.00") || !strings.Contains(res.Errors[0], "1000.00") {
		t.Errorf("error should carry the offending amounts: %q", res.Errors[0])
	}
}

func TestValidate_DeckOverflow(t *testing.T) {
	m := &PrizeModel{
		Mode:         ModePool,
		TotalTickets: 100,
		TicketPrice:  CentsFromFloat(1),
		Tiers:        []PrizeTier{{ID: "t1", Payout: 0.5, Weight: 150}},
	}
	res := Validate(m, DefaultRules())
	if res.IsValid {
		t.Fatal("overweight deck must not validate")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "tier weights total 150 but the deck has only 100 tickets") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing overflow error in %v", res.Errors)
	}
}

func TestValidate_MoneyBackWarning(t *testing.T) {
	// 20% of the deck refunds the stake. Warn, but stay valid.
	m := &PrizeModel{
		Mode:         ModePool,
		TotalTickets: 1000,
		TicketPrice:  CentsFromFloat(1),
		Tiers:        []PrizeTier{{ID: "mb", Payout: 1, Weight: 200}},
	}
	res := Validate(m, DefaultRules())
	if !res.IsValid {
		t.Fatalf("warnings must not invalidate: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", res.Warnings)
	}
	w := res.Warnings[0]
	if w.Title != "High money-back rate" {
		t.Errorf("warning title = %q", w.Title)
	}
	if !strings.Contains(w.Message, "20.00%") {
		t.Errorf("warning message = %q", w.Message)
	}
}

func TestValidate_UnlimitedSkipped(t *testing.T) {
	// Unlimited models are design sandboxes: even absurd RTP passes.
	m := &PrizeModel{
		Mode:  ModeUnlimited,
		Tiers: []PrizeTier{{ID: "t1", Payout: 50, Probability: 5}},
	}
	res := Validate(m, DefaultRules())
	if !res.IsValid || len(res.Errors) != 0 {
		t.Errorf("unlimited model should pass untouched: %+v", res)
	}
}

func TestValidate_NilModel(t *testing.T) {
	res := Validate(nil, DefaultRules())
	if !res.IsValid || res.Errors == nil || res.Warnings == nil {
		t.Errorf("nil model should yield a clean valid result: %+v", res)
	}
}
