package stats_test

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/headline-goat/variant-chrome/internal/stats"
	"github.com/headline-goat/variant-chrome/internal/store"
)

func TestWilsonInterval_50PercentConversion(t *testing.T) {
	lower, upper := stats.WilsonInterval(50, 100, 0.95)

	if lower < 0.38 || lower > 0.42 {
		t.Errorf("lower bound %f not in expected range [0.38, 0.42]", lower)
	}
	if upper < 0.58 || upper > 0.62 {
		t.Errorf("upper bound %f not in expected range [0.58, 0.62]", upper)
	}
}

func TestWilsonInterval_ZeroTrials(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 0, 0.95)

	if lower != 0 || upper != 0 {
		t.Errorf("expected (0, 0) for zero trials, got (%f, %f)", lower, upper)
	}
}

func TestWilsonInterval_Bounds(t *testing.T) {
	lower, _ := stats.WilsonInterval(0, 100, 0.95)
	if lower != 0 {
		t.Errorf("expected lower bound 0, got %f", lower)
	}

	_, upper := stats.WilsonInterval(100, 100, 0.95)
	if upper > 1 {
		t.Errorf("upper bound %f exceeds 1", upper)
	}
}

func TestWilsonLower_PrefersLargerSample(t *testing.T) {
	small := stats.WilsonLower(1, 2)
	large := stats.WilsonLower(50, 100)

	if small >= large {
		t.Errorf("expected 1/2 (%f) to rank below 50/100 (%f)", small, large)
	}
}

func TestZScore(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   float64
	}{
		{0.90, 1.645},
		{0.95, 1.96},
		{0.99, 2.576},
	}

	for _, tt := range tests {
		z := stats.ZScore(tt.confidence)
		if math.Abs(z-tt.expected) > 0.01 {
			t.Errorf("ZScore(%f) = %f, want %f", tt.confidence, z, tt.expected)
		}
	}
}

func TestSignificanceTest(t *testing.T) {
	if got := stats.SignificanceTest(0, 0, 10, 100); got != 0.5 {
		t.Errorf("expected 0.5 without data, got %f", got)
	}

	got := stats.SignificanceTest(200, 1000, 100, 1000)
	if got < 0.99 {
		t.Errorf("expected strong confidence, got %f", got)
	}

	if rev := stats.SignificanceTest(100, 1000, 200, 1000); math.Abs(rev-(1-got)) > 1e-9 {
		t.Errorf("expected symmetric result, got %f and %f", got, rev)
	}
}

func TestAnalyze(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	variable := store.Variable{Variants: []store.Variant{{ID: a, Name: "A"}, {ID: b, Name: "B"}, {ID: c, Name: "C"}}}

	result := stats.Analyze(variable, a, []store.VariantStats{
		{VariantID: a, Views: 1000, Conversions: 100},
		{VariantID: b, Views: 1000, Conversions: 200},
	})

	if len(result.Variants) != 3 {
		t.Fatalf("got %d variants, want 3", len(result.Variants))
	}
	if result.Variants[2].Views != 0 || result.Variants[2].Rate != 0 {
		t.Errorf("variant without stats should be zero-valued, got %+v", result.Variants[2])
	}
	if result.Leading != 1 {
		t.Errorf("got leading %d, want 1", result.Leading)
	}
	if result.Active != 0 {
		t.Errorf("got active %d, want 0", result.Active)
	}
	if !result.Confident {
		t.Errorf("expected confident result, got %f", result.ConfidenceLevel)
	}
}

func TestAnalyze_NoActive(t *testing.T) {
	variable := store.Variable{Variants: []store.Variant{{ID: uuid.New(), Name: "A"}}}

	result := stats.Analyze(variable, uuid.Nil, nil)
	if result.Active != -1 || result.Confident {
		t.Errorf("got %+v", result)
	}
}
