// Package levy fits a truncated power-law (truncated Lévy flight) to
// displacement magnitudes: P(Δr) ∝ Δr^(−1−β)·exp(−Δr/κ).
//
// The mean/stddev reported alongside the fit use
// github.com/montanaflynn/stats, a direct dependency of jndunlap-gohypo
// (seen there in internal/profiling/distribution.go). The MLE/grid-search/KS
// core itself is hand-rolled: no repo in the pack ships a Lévy-stable
// fitting routine (see DESIGN.md).
package levy

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/tripverifier/criticality/internal/triperr"
)

const minSamples = 20

// DefaultXMin is the H3-quantization noise floor below which displacements
// are excluded from the fit.
const DefaultXMin = 0.01

const kappaGridPoints = 100
const integrationSteps = 1000
const kappaUpperMultiplier = 10.0

// Classification is a closed sum over the fitted tail-exponent bands.
type Classification int

const (
	ClassificationTooConcentrated Classification = iota
	ClassificationBorderline
	ClassificationHumanLevy
	ClassificationHighMobility
	ClassificationBallistic
)

func (c Classification) String() string {
	switch c {
	case ClassificationTooConcentrated:
		return "too_concentrated"
	case ClassificationBorderline:
		return "borderline"
	case ClassificationHumanLevy:
		return "human_levy"
	case ClassificationHighMobility:
		return "high_mobility"
	case ClassificationBallistic:
		return "ballistic"
	default:
		return "unknown"
	}
}

func classify(beta float64) Classification {
	switch {
	case beta < 0.5:
		return ClassificationTooConcentrated
	case beta < 0.8:
		return ClassificationBorderline
	case beta <= 1.2:
		return ClassificationHumanLevy
	case beta <= 1.8:
		return ClassificationHighMobility
	default:
		return ClassificationBallistic
	}
}

// Result is the Lévy Fitter's output.
type Result struct {
	Beta           float64
	Kappa          float64
	KS             float64
	Classification Classification
	SampleCount    int
	MeanDisplacement float64
	StdDisplacement  float64
}

// Fit runs the Hill-estimator + grid-search + KS algorithm over
// displacement magnitudes, filtering to those strictly greater than xMin.
func Fit(displacements []float64, xMin float64) (Result, error) {
	if xMin <= 0 {
		xMin = DefaultXMin
	}

	filtered := make([]float64, 0, len(displacements))
	for _, d := range displacements {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		if d > xMin {
			filtered = append(filtered, d)
		}
	}
	if len(filtered) < minSamples {
		return Result{}, triperr.LevyFitError("need at least %d samples above x_min=%.4f, got %d", minSamples, xMin, len(filtered))
	}

	sort.Float64s(filtered)
	n := float64(len(filtered))

	var sumLogRatio float64
	for _, x := range filtered {
		sumLogRatio += math.Log(x / xMin)
	}
	if sumLogRatio <= 0 {
		return Result{}, triperr.LevyFitError("Hill estimator denominator non-positive")
	}
	beta := n / sumLogRatio

	xMax := filtered[len(filtered)-1]
	kappa, logLikelihood := gridSearchKappa(filtered, beta, xMin, xMax)
	if math.IsInf(logLikelihood, -1) {
		return Result{}, triperr.LevyFitError("no finite-likelihood κ candidate found")
	}

	ks := ksStatistic(filtered, beta, kappa, xMin)

	mean, _ := stats.Mean(filtered)
	stddev, _ := stats.StandardDeviation(filtered)

	return Result{
		Beta:             beta,
		Kappa:            kappa,
		KS:               ks,
		Classification:   classify(beta),
		SampleCount:      len(filtered),
		MeanDisplacement: mean,
		StdDisplacement:  stddev,
	}, nil
}

// tailIntegral computes ∫_lower^upper x^(−1−β)·e^(−x/κ) dx via the
// trapezoidal rule with `steps` intervals.
func tailIntegral(beta, kappa, lower, upper float64, steps int) float64 {
	if upper <= lower || kappa <= 0 {
		return math.NaN()
	}
	h := (upper - lower) / float64(steps)

	f := func(x float64) float64 {
		if x <= 0 {
			return 0
		}
		return math.Pow(x, -1-beta) * math.Exp(-x/kappa)
	}

	sum := 0.5 * (f(lower) + f(upper))
	for i := 1; i < steps; i++ {
		sum += f(lower + float64(i)*h)
	}
	return sum * h
}

// truncatedTailIntegral computes Z(β, κ, xMin) = ∫_xMin^(xMin+20κ)
// x^(−1−β)·e^(−x/κ) dx, the normalization constant over the full support.
func truncatedTailIntegral(beta, kappa, xMin float64, steps int) float64 {
	return tailIntegral(beta, kappa, xMin, xMin+20*kappa, steps)
}

func gridSearchKappa(samples []float64, beta, xMin, xMax float64) (bestKappa, bestLL float64) {
	upperBound := kappaUpperMultiplier * xMax
	if upperBound <= xMin {
		upperBound = xMin * 2
	}

	logLo := math.Log(xMin)
	logHi := math.Log(upperBound)
	step := (logHi - logLo) / float64(kappaGridPoints-1)

	bestLL = math.Inf(-1)
	for i := 0; i < kappaGridPoints; i++ {
		kappa := math.Exp(logLo + float64(i)*step)
		z := truncatedTailIntegral(beta, kappa, xMin, integrationSteps)
		if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
			continue
		}
		logZ := math.Log(z)

		ll := 0.0
		for _, x := range samples {
			ll += (-1-beta)*math.Log(x) - x/kappa - logZ
		}
		if math.IsNaN(ll) {
			continue
		}
		if ll > bestLL {
			bestLL = ll
			bestKappa = kappa
		}
	}
	return bestKappa, bestLL
}

// ksStatistic compares the empirical CDF (i/n) against the theoretical
// truncated-power-law CDF 1 − Z(β,κ,x_i)/Z(β,κ,x_min).
func ksStatistic(sortedSamples []float64, beta, kappa, xMin float64) float64 {
	n := len(sortedSamples)
	upper := xMin + 20*kappa
	zMin := tailIntegral(beta, kappa, xMin, upper, integrationSteps)
	if zMin <= 0 || math.IsNaN(zMin) {
		return 1.0
	}

	maxDiff := 0.0
	for i, x := range sortedSamples {
		empirical := float64(i+1) / float64(n)
		zX := tailIntegral(beta, kappa, x, upper, integrationSteps)
		var theoretical float64
		if zX >= 0 && !math.IsNaN(zX) {
			theoretical = 1 - zX/zMin
		}
		diff := math.Abs(empirical - theoretical)
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	return maxDiff
}
