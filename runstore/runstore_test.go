package runstore

import (
	"testing"
	"time"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
)

func testRecord(runID, modelID string) *RunRecord {
	now := time.Now().UTC()
	return &RunRecord{
		RunID:       runID,
		ModelID:     modelID,
		Mode:        gamemath.ModePool,
		Spins:       10_000,
		TotalStaked: 10_000,
		TotalWon:    5_180,
		ActualRTP:   51.8,
		HitRate:     23.65,
		Seed:        42,
		StartedAt:   now.Add(-time.Second),
		FinishedAt:  now,
	}
}

func TestStore_AppendGet(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Append(testRecord("run-1", "classic")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(testRecord("run-2", "classic")); err != nil {
		t.Fatal(err)
	}

	rec, err := s.GetByRunID("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.ModelID != "classic" || rec.ActualRTP != 51.8 {
		t.Fatalf("got %+v", rec)
	}

	missing, err := s.GetByRunID("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown run, got %+v", missing)
	}
}

func TestStore_GetNewestWins(t *testing.T) {
	s := NewStore(t.TempDir())
	first := testRecord("run-1", "classic")
	first.Spins = 1
	if err := s.Append(first); err != nil {
		t.Fatal(err)
	}
	second := testRecord("run-1", "classic")
	second.Spins = 2
	if err := s.Append(second); err != nil {
		t.Fatal(err)
	}

	rec, err := s.GetByRunID("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Spins != 2 {
		t.Fatalf("got spins %d, want the newest record", rec.Spins)
	}
}

func TestStore_EmptyDir(t *testing.T) {
	s := NewStore(t.TempDir())
	rec, err := s.GetByRunID("anything")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatalf("got %+v from empty store", rec)
	}
	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("got %d records from empty store", len(list))
	}
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	rec := testRecord("run-9", "lucky_star")
	rec.Mode = gamemath.ModeUnlimited
	rec.Capped = 17
	if err := s.Append(rec); err != nil {
		t.Fatal(err)
	}

	reopened := NewStore(dir)
	got, err := reopened.GetByRunID("run-9")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Mode != gamemath.ModeUnlimited || got.Capped != 17 {
		t.Fatalf("got %+v after reopen", got)
	}

	list, err := reopened.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].RunID != "run-9" {
		t.Fatalf("list = %+v", list)
	}
}
