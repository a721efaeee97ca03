// Package profile builds the BehavioralProfile aggregate over a validated
// chain in a single pass. The single-pass aggregate-building shape is
// grounded on checkpoint.Chain.Summary() in the teacher, which folds a
// chain of checkpoints into one summary struct in one loop.
package profile

import (
	"math"

	"github.com/tripverifier/criticality/internal/chain"
)

// TransitionKey identifies a (from_cell, to_cell) edge in the transition
// matrix.
type TransitionKey struct {
	From, To string
}

// Profile is the derived behavioral aggregate over a chain.
type Profile struct {
	CellHistogram map[string]int
	AnchorCells   map[string]bool

	MeanDisplacementKM float64
	StdDisplacementKM  float64

	HourlyProfile [24]float64

	MeanIntervalSeconds float64
	StdIntervalSeconds  float64

	TransitionMatrix map[TransitionKey]float64
}

// Build aggregates histograms, the transition matrix, and the circadian
// profile over c in one pass.
func Build(c *chain.Chain) Profile {
	p := Profile{
		CellHistogram:    make(map[string]int),
		AnchorCells:      make(map[string]bool),
		TransitionMatrix: make(map[TransitionKey]float64),
	}

	n := len(c.Breadcrumbs)
	if n == 0 {
		return p
	}

	for _, b := range c.Breadcrumbs {
		p.CellHistogram[b.LocationCell]++
		p.HourlyProfile[b.Timestamp.UTC().Hour()]++
	}
	for i := range p.HourlyProfile {
		p.HourlyProfile[i] /= float64(n)
	}

	threshold := int(math.Ceil(0.05 * float64(n)))
	for cell, count := range p.CellHistogram {
		if count >= threshold {
			p.AnchorCells[cell] = true
		}
	}

	distances := make([]float64, len(c.Displacements))
	intervals := make([]float64, len(c.Displacements))
	for i, d := range c.Displacements {
		distances[i] = d.DistanceKM
		intervals[i] = d.DtSeconds
	}
	p.MeanDisplacementKM, p.StdDisplacementKM = meanStd(distances)
	p.MeanIntervalSeconds, p.StdIntervalSeconds = meanStd(intervals)

	outboundCount := make(map[string]int)
	edgeCount := make(map[TransitionKey]int)
	for _, d := range c.Displacements {
		key := TransitionKey{From: d.FromCell, To: d.ToCell}
		edgeCount[key]++
		outboundCount[d.FromCell]++
	}
	for key, count := range edgeCount {
		p.TransitionMatrix[key] = float64(count) / float64(outboundCount[key.From])
	}

	return p
}

// meanStd returns the arithmetic mean and sample standard deviation
// (n−1 denominator) of x, 0 for both when len(x) == 0 and std 0 when
// len(x) < 2.
func meanStd(x []float64) (mean, std float64) {
	if len(x) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean = sum / float64(len(x))

	if len(x) < 2 {
		return mean, 0
	}
	var sqDiff float64
	for _, v := range x {
		d := v - mean
		sqDiff += d * d
	}
	std = math.Sqrt(sqDiff / float64(len(x)-1))
	return mean, std
}

// TransitionProbability looks up P(from→to), returning (0, false) when the
// edge was never observed.
func (p Profile) TransitionProbability(from, to string) (float64, bool) {
	v, ok := p.TransitionMatrix[TransitionKey{From: from, To: to}]
	return v, ok
}
