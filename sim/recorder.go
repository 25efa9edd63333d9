package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Recorder streams run audit events as zstd-compressed JSON lines: one
// batch summary per step plus one entry per major win. Deep certification
// runs export through this; the stream decompresses to plain JSONL.
type Recorder struct {
	f   *os.File
	zw  *zstd.Encoder
	enc *json.Encoder
}

// AuditEvent is one line of the audit stream. Kind is "batch" or
// "major_win"; the other fields are populated per kind.
type AuditEvent struct {
	Kind        string  `json:"kind"`
	Spins       int64   `json:"spins,omitempty"`
	Wins        int64   `json:"wins,omitempty"`
	TotalStaked float64 `json:"total_staked,omitempty"`
	TotalWon    float64 `json:"total_won,omitempty"`
	ActualRTP   float64 `json:"actual_rtp,omitempty"`
	Draw        int64   `json:"draw,omitempty"`
	TierID      string  `json:"tier_id,omitempty"`
	Payout      float64 `json:"payout,omitempty"`
}

// NewRecorder creates (or truncates) the audit file at path.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create audit file: %w", err)
	}
	zw, err := zstd.NewWriter(f,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return &Recorder{f: f, zw: zw, enc: json.NewEncoder(zw)}, nil
}

// RecordBatch writes one batch summary line from the aggregates.
func (r *Recorder) RecordBatch(a *Aggregates) error {
	return r.enc.Encode(AuditEvent{
		Kind:        "batch",
		Spins:       a.Spins,
		Wins:        a.Wins,
		TotalStaked: a.TotalStaked,
		TotalWon:    a.TotalWon,
		ActualRTP:   a.ActualRTP(),
	})
}

// RecordMajorWin writes one major-win audit line.
func (r *Recorder) RecordMajorWin(w MajorWin) error {
	return r.enc.Encode(AuditEvent{
		Kind:   "major_win",
		Draw:   w.Draw,
		TierID: w.TierID,
		Payout: w.Payout,
	})
}

// Close flushes the compressed stream and closes the file.
func (r *Recorder) Close() error {
	if err := r.zw.Close(); err != nil {
		r.f.Close()
		return fmt.Errorf("close zstd writer: %w", err)
	}
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("close audit file: %w", err)
	}
	return nil
}
