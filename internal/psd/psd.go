// Package psd implements the Welch-method power spectral density fit used
// to detect 1/f^alpha "pink noise" in a displacement series.
//
// The FFT itself uses gonum.org/v1/gonum/dsp/fourier (gonum is a direct
// dependency of jndunlap-gohypo and present in the wider pack); the
// log-log linear regression is hand-rolled rather than pulled from a stats
// library, matching the manual least-squares idiom in
// jndunlap-gohypo/internal/referee/spectral.go, which hand-rolls its own
// spectral statistics instead of reaching for a regression package.
package psd

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tripverifier/criticality/internal/triperr"
)

const minSamples = 32

// Classification is a closed sum over the fitted spectral-exponent bands:
// white noise, borderline, biological pink noise, strong correlation, and
// brown noise.
type Classification int

const (
	ClassificationWhite Classification = iota
	ClassificationBorderline
	ClassificationBiological
	ClassificationStrongCorrelation
	ClassificationBrown
)

func (c Classification) String() string {
	switch c {
	case ClassificationWhite:
		return "white_noise"
	case ClassificationBorderline:
		return "borderline"
	case ClassificationBiological:
		return "biological"
	case ClassificationStrongCorrelation:
		return "strong_correlation"
	case ClassificationBrown:
		return "brown"
	default:
		return "unknown"
	}
}

func classify(alpha float64) Classification {
	switch {
	case alpha < 0.10:
		return ClassificationWhite
	case alpha < 0.30:
		return ClassificationBorderline
	case alpha <= 0.80:
		return ClassificationBiological
	case alpha <= 1.50:
		return ClassificationStrongCorrelation
	default:
		return ClassificationBrown
	}
}

// Result is the PSD Analyzer's output.
type Result struct {
	Alpha          float64
	RSquared       float64
	Classification Classification
	BinsUsed       int
	SegmentLen     int
}

// Analyze runs Welch's method over x (a displacement series) sampled at
// intervals averaging dtMean seconds.
func Analyze(x []float64, dtMean float64) (Result, error) {
	n := len(x)
	if n < minSamples {
		return Result{}, triperr.PsdError("need at least %d samples, got %d", minSamples, n)
	}
	if dtMean <= 0 {
		dtMean = 1.0
	}

	centered := centerSignal(x)
	segLen := chooseSegmentLength(n)
	step := segLen / 2

	window := hannWindow(segLen)
	windowPower := sumSquares(window) / float64(segLen)

	fft := fourier.NewFFT(segLen)
	nFreq := segLen/2 + 1
	psdAccum := make([]float64, nFreq)
	segCount := 0

	buf := make([]float64, segLen)
	coeffs := make([]complex128, nFreq)
	for start := 0; start+segLen <= n; start += step {
		for k := 0; k < segLen; k++ {
			buf[k] = centered[start+k] * window[k]
		}
		fft.Coefficients(coeffs, buf)
		for i := 0; i < nFreq; i++ {
			scale := 2.0
			if i == 0 || i == nFreq-1 {
				scale = 1.0
			}
			mag2 := real(coeffs[i])*real(coeffs[i]) + imag(coeffs[i])*imag(coeffs[i])
			psdAccum[i] += scale * mag2 / (float64(segLen) * windowPower)
		}
		segCount++
	}
	if segCount == 0 {
		return Result{}, triperr.PsdError("no complete segments of length %d", segLen)
	}
	for i := range psdAccum {
		psdAccum[i] /= float64(segCount)
	}

	fs := 1.0 / dtMean
	df := fs / float64(segLen)

	var logF, logP []float64
	for i := 1; i < nFreq; i++ { // drop DC bin (i==0)
		if psdAccum[i] <= 0 {
			continue
		}
		freq := float64(i) * df
		if freq <= 0 {
			continue
		}
		logF = append(logF, math.Log(freq))
		logP = append(logP, math.Log(psdAccum[i]))
	}
	if len(logF) < 4 {
		return Result{}, triperr.PsdError("fewer than 4 usable spectral bins (got %d)", len(logF))
	}

	slope, rSquared := linearRegression(logF, logP)
	alpha := -slope

	return Result{
		Alpha:          alpha,
		RSquared:       clamp01(rSquared),
		Classification: classify(alpha),
		BinsUsed:       len(logF),
		SegmentLen:     segLen,
	}, nil
}

// chooseSegmentLength picks the largest power of two such that at least
// ~4 non-overlapping segments of that length fit in n samples, bounded to
// [32, 1024].
func chooseSegmentLength(n int) int {
	segLen := 32
	for next := segLen * 2; next <= 1024 && next*4 <= n; next *= 2 {
		segLen = next
	}
	if segLen > n {
		segLen = 32
	}
	return segLen
}

func centerSignal(x []float64) []float64 {
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - mean
	}
	return out
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1.0
		return w
	}
	for k := 0; k < n; k++ {
		w[k] = 0.5 * (1 - math.Cos(2*math.Pi*float64(k)/float64(n-1)))
	}
	return w
}

func sumSquares(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v * v
	}
	return s
}

// linearRegression fits y = slope*x + intercept by ordinary least squares
// and returns (slope, R²), guarding against a near-singular denominator
// when x has little or no spread.
func linearRegression(x, y []float64) (slope, rSquared float64) {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	denom := n*sumX2 - sumX*sumX
	if math.Abs(denom) < 1e-12 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for i := range x {
		pred := slope*x[i] + intercept
		ssRes += (y[i] - pred) * (y[i] - pred)
		ssTot += (y[i] - meanY) * (y[i] - meanY)
	}
	if ssTot < 1e-12 {
		return slope, 0
	}
	rSquared = 1 - ssRes/ssTot
	return slope, rSquared
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
