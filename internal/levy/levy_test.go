package levy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// paretoSamples draws n samples from a Pareto(xMin, beta) distribution via
// inverse-CDF sampling, giving Fit something with a genuine power-law tail.
func paretoSamples(n int, xMin, beta float64, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		u := r.Float64()
		out[i] = xMin * math.Pow(1-u, -1/beta)
	}
	return out
}

func TestFitRejectsTooFewSamples(t *testing.T) {
	_, err := Fit([]float64{0.1, 0.2, 0.3}, DefaultXMin)
	require.Error(t, err)
}

func TestFitRecoversApproximateBeta(t *testing.T) {
	samples := paretoSamples(2000, DefaultXMin, 1.0, 99)
	res, err := Fit(samples, DefaultXMin)
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Beta, 0.3)
	require.Greater(t, res.SampleCount, 0)
	require.GreaterOrEqual(t, res.KS, 0.0)
}

func TestFitUsesDefaultXMinWhenNonPositive(t *testing.T) {
	samples := paretoSamples(100, DefaultXMin, 1.0, 5)
	_, err := Fit(samples, 0)
	require.NoError(t, err)
}

func TestFitFiltersNaNAndInf(t *testing.T) {
	samples := paretoSamples(100, DefaultXMin, 1.0, 3)
	samples = append(samples, math.NaN(), math.Inf(1))
	_, err := Fit(samples, DefaultXMin)
	require.NoError(t, err)
}

func TestClassificationBands(t *testing.T) {
	require.Equal(t, ClassificationTooConcentrated, classify(0.3))
	require.Equal(t, ClassificationBorderline, classify(0.6))
	require.Equal(t, ClassificationHumanLevy, classify(1.0))
	require.Equal(t, ClassificationHighMobility, classify(1.5))
	require.Equal(t, ClassificationBallistic, classify(2.0))
}

func TestClassificationString(t *testing.T) {
	require.Equal(t, "human_levy", ClassificationHumanLevy.String())
	require.Equal(t, "unknown", Classification(99).String())
}

func TestTailIntegralInvalidRange(t *testing.T) {
	require.True(t, math.IsNaN(tailIntegral(1, 1, 5, 1, 10)))
	require.True(t, math.IsNaN(tailIntegral(1, 0, 1, 5, 10)))
}
