package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	engine "github.com/Ashenafi-pixel/gamecrafter-math-engine"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/config"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/rng"
	"github.com/Ashenafi-pixel/gamecrafter-math-engine/sim"
)

var lang = language.English

func main() {
	modelsPath := flag.String("models", "", "Path to a prize model file (.yaml/.json) or a directory of them")
	spins := flag.Int64("spins", 1_000_000, "Monte-Carlo draws per Unlimited model (Pool models always draw the full deck)")
	seed := flag.Int64("seed", 0, "RNG seed for reproducible runs (0 = crypto randomness)")
	rtpCap := flag.Bool("cap", false, "Apply the RTP cap to Unlimited runs (compensated distribution)")
	jsonOut := flag.Bool("json", false, "Emit one JSON result per model instead of the report table")
	auditDir := flag.String("audit", "", "Directory for per-model zstd JSONL audit streams (empty = no audit)")
	ledger := flag.Bool("ledger", false, "Record verdicts into the math_certifications table (requires DATABASE_URL)")
	flag.Parse()

	if *modelsPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -models argument")
		os.Exit(1)
	}
	if *spins <= 0 {
		fmt.Fprintln(os.Stderr, "-spins must be positive")
		os.Exit(1)
	}

	if err := run(*modelsPath, *spins, *seed, *rtpCap, *jsonOut, *auditDir, *ledger); err != nil {
		fmt.Fprintf(os.Stderr, "certification failed: %v\n", err)
		os.Exit(1)
	}
}

func run(modelsPath string, spins, seed int64, rtpCap, jsonOut bool, auditDir string, ledger bool) error {
	models, err := loadModels(modelsPath)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return fmt.Errorf("no model files found under %s", modelsPath)
	}

	var db *sql.DB
	if ledger {
		db, err = engine.GetDB()
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		if db == nil {
			return fmt.Errorf("DATABASE_URL is not set; cannot record to ledger")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = engine.EnsureCertificationTable(ctx, db)
		cancel()
		if err != nil {
			return err
		}
	}

	if auditDir != "" {
		if err := os.MkdirAll(auditDir, 0o755); err != nil {
			return fmt.Errorf("create audit dir: %w", err)
		}
	}

	cfg := config.Load()
	rules := gamemath.Rules{
		MaxRTP:           cfg.MaxRTP,
		MinLoserRate:     cfg.MinLoserRate,
		MaxMoneyBackRate: cfg.MaxMoneyBackRate,
	}

	failed := 0
	for _, m := range models {
		cert, res, err := certifyModel(m, rules, spins, seed, rtpCap, jsonOut, auditDir, cfg)
		if err != nil {
			return fmt.Errorf("model %s: %w", m.ModelID, err)
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = engine.RecordCertification(ctx, db, &cert)
			cancel()
			if err != nil {
				return fmt.Errorf("model %s: %w", m.ModelID, err)
			}
		}
		if !cert.Passed {
			failed++
		}
		if jsonOut {
			if err := printJSON(cert, res); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d models failed certification", failed, len(models))
	}
	if !jsonOut {
		fmt.Printf("All %d models certified.\n", len(models))
	}
	return nil
}

// loadModels reads one model file, or every .yaml/.yml/.json file in a
// directory in name order.
func loadModels(path string) ([]*gamemath.PrizeModel, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		m, err := loadModelFile(path)
		if err != nil {
			return nil, err
		}
		return []*gamemath.PrizeModel{m}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	models := make([]*gamemath.PrizeModel, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		m, err := loadModelFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[m.ModelID]; dup {
			return nil, fmt.Errorf("%s: duplicate model_id %q (already in %s)", name, m.ModelID, prev)
		}
		seen[m.ModelID] = name
		models = append(models, m)
	}
	return models, nil
}

func loadModelFile(path string) (*gamemath.PrizeModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m gamemath.PrizeModel
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := m.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.ModelID == "" {
		return nil, fmt.Errorf("%s: model_id is required", path)
	}
	return &m, nil
}

// certifyModel runs one model to completion and builds its ledger row. Pool
// models draw the whole deck; Unlimited models sample the requested number
// of spins.
func certifyModel(m *gamemath.PrizeModel, rules gamemath.Rules, spins, seed int64, rtpCap, jsonOut bool, auditDir string, cfg *config.Config) (engine.CertificationRecord, gamemath.Result, error) {
	var src rng.Source
	if seed != 0 {
		src = rng.NewSeeded(seed)
	} else {
		src = rng.Crypto()
	}

	opts := sim.Options{
		BatchSize:  cfg.SimBatchSize,
		WindowSize: cfg.SimWindowSize,
		RTPCap:     rtpCap,
	}
	if m.Mode == gamemath.ModeUnlimited {
		opts.MaxDraws = spins
	}

	runner, err := sim.New(m, src, opts)
	if err != nil {
		return engine.CertificationRecord{}, gamemath.Result{}, err
	}

	var rec *sim.Recorder
	if auditDir != "" {
		rec, err = sim.NewRecorder(filepath.Join(auditDir, m.ModelID+".jsonl.zst"))
		if err != nil {
			return engine.CertificationRecord{}, gamemath.Result{}, err
		}
	}

	bar := pb.StartNew(int(runner.Target()))
	if jsonOut {
		bar.SetWriter(io.Discard)
	}
	recorded := 0
	for {
		done := runner.Step()
		snap := runner.Snapshot()
		bar.SetCurrent(snap.Spins)
		if rec != nil {
			if err := rec.RecordBatch(&snap); err != nil {
				rec.Close()
				return engine.CertificationRecord{}, gamemath.Result{}, err
			}
			for _, w := range snap.MajorWins[recorded:] {
				if err := rec.RecordMajorWin(w); err != nil {
					rec.Close()
					return engine.CertificationRecord{}, gamemath.Result{}, err
				}
			}
			recorded = len(snap.MajorWins)
		}
		if done {
			break
		}
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	if rec != nil {
		if err := rec.Close(); err != nil {
			return engine.CertificationRecord{}, gamemath.Result{}, err
		}
	}

	snap := runner.Snapshot()
	cert := engine.CertifyRun(m, rules, snap)
	cert.RunID = uuid.New().String()
	cert.Seed = seed
	res := gamemath.Validate(m, rules)

	if !jsonOut {
		printReport(m, cert, res, snap, used)
	}
	return cert, res, nil
}

func printReport(m *gamemath.PrizeModel, cert engine.CertificationRecord, res gamemath.Result, snap sim.Aggregates, used time.Duration) {
	p := message.NewPrinter(lang)
	stats := sim.ComputeStats(&snap)
	verdict := "PASS"
	if !cert.Passed {
		verdict = "FAIL"
	}

	rows := map[string]string{
		"Model ID":        cert.ModelID,
		"Mode":            string(cert.Mode),
		"Draws":           p.Sprintf("%d", snap.Spins),
		"Wins":            p.Sprintf("%d", snap.Wins),
		"Theoretical RTP": p.Sprintf("%.4f %%", cert.TheoreticalRTP),
		"Actual RTP":      p.Sprintf("%.4f %%", stats.ActualRTP),
		"RTP 95% CI":      p.Sprintf("[%.4f%%, %.4f%%]", stats.RTPCI.Lo, stats.RTPCI.Hi),
		"Hit Rate":        p.Sprintf("%.4f %%", stats.HitRate),
		"Hit 95% CI":      p.Sprintf("[%.4f%%, %.4f%%]", stats.HitRateCI.Lo, stats.HitRateCI.Hi),
		"House Profit":    p.Sprintf("%s", snap.HouseProfitCents()),
		"Verdict":         verdict,
	}
	keys := []string{
		"Model ID", "Mode", "Draws", "Wins", "Theoretical RTP", "Actual RTP",
		"RTP 95% CI", "Hit Rate", "Hit 95% CI", "House Profit", "Verdict",
	}
	if snap.Capped > 0 {
		rows["Capped Wins"] = p.Sprintf("%d", snap.Capped)
		keys = append(keys[:len(keys)-1], "Capped Wins", "Verdict")
	}

	title := m.Name
	if title == "" {
		title = m.ModelID
	}
	fmt.Print(fmtTable(title, keys, rows))
	for _, e := range res.Errors {
		fmt.Println("  error:", e)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s: %s\n", w.Title, w.Message)
	}

	sec := used.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	p.Printf("used: %.2f seconds\ndps : %d draws/sec\n\n", sec, int(float64(snap.Spins)/sec))
}

func printJSON(cert engine.CertificationRecord, res gamemath.Result) error {
	out := struct {
		RunID          string          `json:"run_id"`
		ModelID        string          `json:"model_id"`
		Mode           gamemath.Mode   `json:"mode"`
		Spins          int64           `json:"spins"`
		TheoreticalRTP float64         `json:"theoretical_rtp"`
		ActualRTP      float64         `json:"actual_rtp"`
		HitRate        float64         `json:"hit_rate"`
		Passed         bool            `json:"passed"`
		Seed           int64           `json:"seed,omitempty"`
		Validation     gamemath.Result `json:"validation"`
	}{
		RunID:          cert.RunID,
		ModelID:        cert.ModelID,
		Mode:           cert.Mode,
		Spins:          cert.Spins,
		TheoreticalRTP: cert.TheoreticalRTP,
		ActualRTP:      cert.ActualRTP,
		HitRate:        cert.HitRate,
		Passed:         cert.Passed,
		Seed:           cert.Seed,
		Validation:     res,
	}
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(out)
}

// fmtTable renders a two-column report with a centered title. Column widths
// follow display width, not byte length.
func fmtTable(title string, keys []string, rows map[string]string) string {
	maxKeyLen := 0
	maxValLen := 0
	for k, v := range rows {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(v); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var b strings.Builder
	b.WriteString(top)
	fmt.Fprintf(&b, "|%s%s%s|\n", blank(left), title, blank(right))
	b.WriteString(divider)
	for _, k := range keys {
		fmt.Fprintf(&b, "| %s%s | %s%s |\n",
			k, blank(maxKeyLen-2-runewidth.StringWidth(k)),
			rows[k], blank(maxValLen-2-runewidth.StringWidth(rows[k])))
	}
	b.WriteString(divider)
	return b.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
