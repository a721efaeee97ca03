// Package criticality composes the PSD, Lévy, and Hamiltonian analyses into
// a single trust score and verdict.
package criticality

import (
	"fmt"
	"math"

	"github.com/tripverifier/criticality/internal/chain"
	"github.com/tripverifier/criticality/internal/hamiltonian"
	"github.com/tripverifier/criticality/internal/levy"
	"github.com/tripverifier/criticality/internal/profile"
	"github.com/tripverifier/criticality/internal/psd"
	"github.com/tripverifier/criticality/internal/triperr"
)

const minChainLength = 64

// Config holds the value-passed thresholds and weights for one evaluation.
// There is no shared mutable state: every call to Evaluate takes its own
// Config.
type Config struct {
	AlphaMin, AlphaMax float64
	BetaMin, BetaMax   float64
	XMin               float64
	Weights            hamiltonian.Weights
}

// DefaultConfig returns the spec-mandated default ranges and weights.
func DefaultConfig() Config {
	return Config{
		AlphaMin: 0.30, AlphaMax: 0.80,
		BetaMin: 0.80, BetaMax: 1.20,
		XMin:    levy.DefaultXMin,
		Weights: hamiltonian.DefaultWeights(),
	}
}

// Result is the engine's composed output, feeding the certificate.
type Result struct {
	PSD         psd.Result
	Levy        levy.Result
	Hamiltonian hamiltonian.ChainResult

	TrustScore  float64
	Confidence  float64
	ChainLength int
	IsHuman     bool

	PsdPass         bool
	LevyPass        bool
	HamiltonianPass bool
	ConfidenceOK    bool

	UniqueCells int
}

// Confidence implements c(n) = 1 − exp(−n/200), the asymptotic confidence
// curve in chain length n.
func Confidence(n int) float64 {
	return 1 - math.Exp(-float64(n)/200.0)
}

// Evaluate runs the full orchestration algorithm over a validated chain.
func Evaluate(c *chain.Chain, cfg Config) (Result, error) {
	n := c.Len()
	if n < minChainLength {
		return Result{}, triperr.InsufficientBreadcrumbs(n, minChainLength)
	}

	psdResult, err := psd.Analyze(c.DisplacementKM(), c.MeanIntervalSeconds())
	if err != nil {
		return Result{}, err
	}

	levyResult, err := levy.Fit(c.DisplacementKM(), cfg.XMin)
	if err != nil {
		return Result{}, err
	}

	behavioral := profile.Build(c)
	hamResult := hamiltonian.Evaluate(c, behavioral, cfg.Weights)

	psdPass := psdResult.Alpha >= cfg.AlphaMin && psdResult.Alpha <= cfg.AlphaMax && psdResult.RSquared >= 0.5
	levyPass := levyResult.Beta >= cfg.BetaMin && levyResult.Beta <= cfg.BetaMax && levyResult.KS < 0.15

	redFraction := 0.0
	if n > 0 {
		redFraction = float64(hamResult.AlertCounts[hamiltonian.AlertRed]) / float64(n)
	}
	hamPass := hamResult.MeanEnergy < 0.4 && redFraction < 0.05

	confidence := Confidence(n)
	confidenceOK := confidence >= 0.5

	psdScore := 0.0
	if psdPass {
		alphaMid := (cfg.AlphaMin + cfg.AlphaMax) / 2
		alphaHalf := (cfg.AlphaMax - cfg.AlphaMin) / 2
		if alphaHalf > 0 {
			psdScore = (1 - math.Abs(psdResult.Alpha-alphaMid)/alphaHalf) * psdResult.RSquared
		}
	}

	levyScore := 0.0
	if levyPass {
		betaMid := (cfg.BetaMin + cfg.BetaMax) / 2
		betaHalf := (cfg.BetaMax - cfg.BetaMin) / 2
		if betaHalf > 0 {
			levyScore = (1 - math.Abs(levyResult.Beta-betaMid)/betaHalf) * (1 - levyResult.KS)
		}
	}

	hamScore := 0.0
	if hamPass {
		hamScore = 1 - hamResult.MeanEnergy
	} else {
		hamScore = math.Max(0, (0.4-hamResult.MeanEnergy)/0.4)
	}

	trustScore := 40*psdScore + 25*levyScore + 25*hamScore + 10*confidence
	trustScore = clamp(trustScore, 0, 100)

	isHuman := psdPass && levyPass && hamPass && confidenceOK

	uniqueCells := countUnique(c)

	return Result{
		PSD:             psdResult,
		Levy:            levyResult,
		Hamiltonian:     hamResult,
		TrustScore:      trustScore,
		Confidence:      confidence,
		ChainLength:     n,
		IsHuman:         isHuman,
		PsdPass:         psdPass,
		LevyPass:        levyPass,
		HamiltonianPass: hamPass,
		ConfidenceOK:    confidenceOK,
		UniqueCells:     uniqueCells,
	}, nil
}

func countUnique(c *chain.Chain) int {
	seen := make(map[string]bool)
	for _, b := range c.Breadcrumbs {
		seen[b.LocationCell] = true
	}
	return len(seen)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Verdict renders a short human-readable summary of the result, used both
// in logs and by internal/report for the full narrative.
func (r Result) Verdict() string {
	verdict := "not-human"
	if r.IsHuman {
		verdict = "human"
	}
	return fmt.Sprintf(
		"%s (trust=%.1f confidence=%.2f alpha=%.3f[%s] beta=%.3f[%s] mean_H=%.3f)",
		verdict, r.TrustScore, r.Confidence,
		r.PSD.Alpha, r.PSD.Classification,
		r.Levy.Beta, r.Levy.Classification,
		r.Hamiltonian.MeanEnergy,
	)
}
