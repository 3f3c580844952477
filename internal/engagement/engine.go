// Package engagement turns aggregated analytics into per-variant
// engagement scores for a running test.
package engagement

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/headline-goat/variant-chrome/internal/stats"
	"github.com/headline-goat/variant-chrome/internal/store"
)

// Mode selects how raw variant statistics become a score.
type Mode string

const (
	// ModeRate scores conversions per view.
	ModeRate Mode = "rate"
	// ModeValue scores engagement points per view.
	ModeValue Mode = "value"
	// ModeWilson scores the 95% Wilson lower bound of the conversion rate.
	ModeWilson Mode = "wilson"
)

// Neutral is the score of a variant without usable analytics.
const Neutral = 0.0

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeRate, nil
	case ModeRate, ModeValue, ModeWilson:
		return m, nil
	default:
		return "", fmt.Errorf("unknown score mode %q (want rate, value or wilson)", s)
	}
}

type Engine struct {
	source store.EngagementSource
	mode   Mode
	logger *zap.Logger
}

func NewEngine(source store.EngagementSource, mode Mode, logger *zap.Logger) *Engine {
	if mode == "" {
		mode = ModeRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{source: source, mode: mode, logger: logger}
}

// Score runs one aggregation query for cfg and returns the resulting scores.
// Variants are read from the in-memory result; the query count does not
// grow with the number of variants. A failed query yields a provider that
// scores every variant as Neutral.
func (e *Engine) Score(ctx context.Context, cfg *store.TestConfiguration) *ScoreProvider {
	provider := &ScoreProvider{scores: map[uuid.UUID]float64{}}
	if cfg == nil || e.source == nil {
		return provider
	}

	start := time.Now()
	variantStats, err := e.source.VariantEngagement(ctx, cfg)
	scoreDuration.WithLabelValues(string(e.mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		analyticsFailures.Inc()
		e.logger.Warn("engagement query failed, using neutral scores",
			zap.String("test", testName(cfg)),
			zap.String("device", cfg.DeviceID),
			zap.Error(err))
		return provider
	}

	for _, st := range variantStats {
		score := e.scoreOf(st)
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		provider.scores[st.VariantID] = score
	}

	return provider
}

func testName(cfg *store.TestConfiguration) string {
	if cfg.Test == nil {
		return ""
	}
	return cfg.Test.Name
}

func (e *Engine) scoreOf(st store.VariantStats) float64 {
	if st.Views <= 0 {
		return Neutral
	}
	switch e.mode {
	case ModeValue:
		return st.Value / float64(st.Views)
	case ModeWilson:
		return stats.WilsonLower(st.Conversions, st.Views)
	default:
		return stats.Rate(st)
	}
}

// ScoreProvider holds the scores of one test configuration.
type ScoreProvider struct {
	scores map[uuid.UUID]float64
}

// ScoreFor returns the score of a variant, Neutral when it has none.
func (p *ScoreProvider) ScoreFor(id uuid.UUID) float64 {
	if p == nil {
		return Neutral
	}
	if s, ok := p.scores[id]; ok {
		return s
	}
	return Neutral
}
