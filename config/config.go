package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port             int
	DataDir          string
	MaxRTP           float64 // commercial RTP ceiling in percent
	MinLoserRate     float64 // minimum share of losing tickets in percent
	MaxMoneyBackRate float64 // money-back warning threshold in percent
	SimBatchSize     int     // draws per simulation batch
	SimMaxDraws      int64   // default draw cap for Unlimited runs
	SimWindowSize    int     // trailing outcome window length
}

func Load() *Config {
	port := 8081
	// Prefer PORT (Render, Fly.io, Railway, etc.) then ENGINE_PORT
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	} else if p := os.Getenv("ENGINE_PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	}
	dataDir := os.Getenv("ENGINE_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	maxRTP := 85.0
	if p := os.Getenv("ENGINE_MAX_RTP"); p != "" {
		if v, err := strconv.ParseFloat(p, 64); err == nil && v > 0 {
			maxRTP = v
		}
	}
	minLoserRate := 40.0
	if p := os.Getenv("ENGINE_MIN_LOSER_RATE"); p != "" {
		if v, err := strconv.ParseFloat(p, 64); err == nil && v >= 0 {
			minLoserRate = v
		}
	}
	maxMoneyBack := 15.0
	if p := os.Getenv("ENGINE_MAX_MONEYBACK_RATE"); p != "" {
		if v, err := strconv.ParseFloat(p, 64); err == nil && v >= 0 {
			maxMoneyBack = v
		}
	}
	batchSize := 10_000
	if p := os.Getenv("ENGINE_SIM_BATCH"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			batchSize = v
		}
	}
	maxDraws := int64(1_000_000)
	if p := os.Getenv("ENGINE_SIM_MAX_DRAWS"); p != "" {
		if v, err := strconv.ParseInt(p, 10, 64); err == nil && v > 0 {
			maxDraws = v
		}
	}
	windowSize := 100
	if p := os.Getenv("ENGINE_SIM_WINDOW"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			windowSize = v
		}
	}
	return &Config{
		Port:             port,
		DataDir:          dataDir,
		MaxRTP:           maxRTP,
		MinLoserRate:     minLoserRate,
		MaxMoneyBackRate: maxMoneyBack,
		SimBatchSize:     batchSize,
		SimMaxDraws:      maxDraws,
		SimWindowSize:    windowSize,
	}
}
