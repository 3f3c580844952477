package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// WilsonInterval returns the Wilson score interval for successes out of
// trials at the given two-sided confidence level. Zero trials yield (0, 0).
func WilsonInterval(successes, trials int, confidence float64) (lower, upper float64) {
	if trials <= 0 {
		return 0, 0
	}

	z := ZScore(confidence)
	n := float64(trials)
	p := float64(successes) / n
	z2 := z * z

	denominator := 1 + z2/n
	center := (p + z2/(2*n)) / denominator
	spread := (z / denominator) * math.Sqrt(p*(1-p)/n+z2/(4*n*n))

	return math.Max(0, center-spread), math.Min(1, center+spread)
}

// WilsonLower is the lower bound of the 95% Wilson interval. It ranks
// variants conservatively when sample sizes differ.
func WilsonLower(successes, trials int) float64 {
	lower, _ := WilsonInterval(successes, trials, 0.95)
	return lower
}

// ZScore returns the two-sided critical value for a confidence level, e.g.
// 1.96 for 0.95.
func ZScore(confidence float64) float64 {
	if confidence <= 0 {
		return 0
	}
	if confidence >= 1 {
		return math.Inf(1)
	}
	return distuv.UnitNormal.Quantile((1 + confidence) / 2)
}
