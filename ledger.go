package engine

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/sim"
)

// CertificationRecord is one row of the math_certifications ledger: a
// model's theoretical numbers against a finished simulation run.
type CertificationRecord struct {
	RunID          string
	ModelID        string
	Mode           gamemath.Mode
	TheoreticalRTP float64
	ActualRTP      float64
	HitRate        float64
	Spins          int64
	Passed         bool
	Seed           int64
	CertifiedAt    time.Time
}

// CertifyRun builds the ledger row for a finished run. The model passes
// when commercial validation holds and the realized RTP agrees with theory.
// RunID, Seed and CertifiedAt are the caller's to fill in.
func CertifyRun(m *gamemath.PrizeModel, rules gamemath.Rules, agg sim.Aggregates) CertificationRecord {
	rec := CertificationRecord{
		ModelID:        m.ModelID,
		Mode:           m.Mode,
		TheoreticalRTP: gamemath.RTP(m),
		ActualRTP:      agg.ActualRTP(),
		HitRate:        agg.HitRate(),
		Spins:          agg.Spins,
	}
	rec.Passed = gamemath.Validate(m, rules).IsValid && rtpAgrees(m, rec.TheoreticalRTP, agg)
	return rec
}

// rtpAgrees is the realized-vs-theoretical check: a fully drawn Pool deck
// must reproduce the theoretical RTP exactly (within float tolerance), a
// sampled run must contain it in the 95% confidence interval. An empty run
// certifies nothing.
func rtpAgrees(m *gamemath.PrizeModel, theo float64, agg sim.Aggregates) bool {
	if agg.Spins == 0 {
		return false
	}
	if m.Mode == gamemath.ModePool && agg.Spins == m.TotalTickets {
		return math.Abs(agg.ActualRTP()-theo) < 0.01
	}
	ci := sim.ComputeStats(&agg).RTPCI
	return theo >= ci.Lo && theo <= ci.Hi
}

// EnsureCertificationTable creates the ledger table when missing.
func EnsureCertificationTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS math_certifications (
            id BIGSERIAL PRIMARY KEY,
            run_id TEXT NOT NULL,
            model_id TEXT NOT NULL,
            mode TEXT NOT NULL,
            theoretical_rtp DOUBLE PRECISION NOT NULL,
            actual_rtp DOUBLE PRECISION NOT NULL,
            hit_rate DOUBLE PRECISION NOT NULL,
            spins BIGINT NOT NULL,
            passed BOOLEAN NOT NULL,
            seed BIGINT NOT NULL,
            certified_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`)
	if err != nil {
		return fmt.Errorf("ensure math_certifications: %w", err)
	}
	return nil
}

// RecordCertification inserts one certification row.
func RecordCertification(ctx context.Context, db *sql.DB, rec *CertificationRecord) error {
	certifiedAt := rec.CertifiedAt
	if certifiedAt.IsZero() {
		certifiedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
        INSERT INTO math_certifications (
            run_id, model_id, mode, theoretical_rtp, actual_rtp, hit_rate, spins, passed, seed, certified_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.RunID, rec.ModelID, string(rec.Mode), rec.TheoreticalRTP, rec.ActualRTP,
		rec.HitRate, rec.Spins, rec.Passed, rec.Seed, certifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert math_certification: %w", err)
	}
	return nil
}
