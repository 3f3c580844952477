package stats

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/headline-goat/variant-chrome/internal/store"
)

// Result is the statistical summary of a test's variants.
type Result struct {
	Variants []VariantResult
	// Confident is set when the leading variant beats the active one with
	// at least 95% confidence.
	Confident       bool
	ConfidenceLevel float64
	Leading         int
	Active          int // -1 when no variant is active
}

// VariantResult contains statistics for a single variant
type VariantResult struct {
	ID          uuid.UUID
	Name        string
	Views       int
	Conversions int
	Rate        float64
	CILower     float64
	CIUpper     float64
}

// Rate is conversions per view, 0 without views.
func Rate(st store.VariantStats) float64 {
	if st.Views <= 0 {
		return 0
	}
	return float64(st.Conversions) / float64(st.Views)
}

// SignificanceTest performs a two-proportion z-test and returns the
// confidence (0-1) that A converts better than B.
func SignificanceTest(aConv, aViews, bConv, bViews int) float64 {
	if aViews == 0 || bViews == 0 {
		return 0.5
	}

	pA := float64(aConv) / float64(aViews)
	pB := float64(bConv) / float64(bViews)
	pooled := float64(aConv+bConv) / float64(aViews+bViews)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(aViews) + 1/float64(bViews)))

	if se == 0 {
		switch {
		case pA > pB:
			return 1
		case pA < pB:
			return 0
		}
		return 0.5
	}

	return distuv.UnitNormal.CDF((pA - pB) / se)
}

// Analyze summarizes the variants of a test in declared order and compares
// the leading variant with the active one.
func Analyze(variable store.Variable, activeID uuid.UUID, variantStats []store.VariantStats) *Result {
	byID := make(map[uuid.UUID]store.VariantStats, len(variantStats))
	for _, st := range variantStats {
		byID[st.VariantID] = st
	}

	result := &Result{
		Variants: make([]VariantResult, len(variable.Variants)),
		Active:   -1,
	}

	maxRate := -1.0
	for i, v := range variable.Variants {
		st := byID[v.ID]
		lower, upper := WilsonInterval(st.Conversions, st.Views, 0.95)
		rate := Rate(st)

		result.Variants[i] = VariantResult{
			ID:          v.ID,
			Name:        v.Name,
			Views:       st.Views,
			Conversions: st.Conversions,
			Rate:        rate,
			CILower:     lower,
			CIUpper:     upper,
		}

		if rate > maxRate {
			maxRate = rate
			result.Leading = i
		}
		if v.ID == activeID {
			result.Active = i
		}
	}

	if result.Active >= 0 && result.Leading != result.Active {
		lead := result.Variants[result.Leading]
		active := result.Variants[result.Active]
		result.ConfidenceLevel = SignificanceTest(lead.Conversions, lead.Views, active.Conversions, active.Views)
		result.Confident = result.ConfidenceLevel >= 0.95
	}

	return result
}
