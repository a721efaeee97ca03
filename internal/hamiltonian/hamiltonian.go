// Package hamiltonian scores each breadcrumb's anomaly energy against a
// learned BehavioralProfile using six weighted components and a sigmoid
// squashing function.
package hamiltonian

import (
	"math"

	"github.com/tripverifier/criticality/internal/breadcrumb"
	"github.com/tripverifier/criticality/internal/chain"
	"github.com/tripverifier/criticality/internal/profile"
)

// Weights are the six component weights, which must sum to 1.0.
type Weights struct {
	Spatial    float64
	Temporal   float64
	Kinetic    float64
	Flock      float64
	Contextual float64
	Structure  float64
}

// DefaultWeights returns the spec-mandated defaults.
func DefaultWeights() Weights {
	return Weights{
		Spatial:    0.25,
		Temporal:   0.20,
		Kinetic:    0.15,
		Flock:      0.15,
		Contextual: 0.15,
		Structure:  0.10,
	}
}

// Sum returns the total of all six weights, used to check the
// sum-to-1.0 invariant.
func (w Weights) Sum() float64 {
	return w.Spatial + w.Temporal + w.Kinetic + w.Flock + w.Contextual + w.Structure
}

// AlertLevel is a closed sum over per-breadcrumb energy bands.
type AlertLevel int

const (
	AlertGreen AlertLevel = iota
	AlertYellow
	AlertOrange
	AlertRed
)

func (a AlertLevel) String() string {
	switch a {
	case AlertGreen:
		return "green"
	case AlertYellow:
		return "yellow"
	case AlertOrange:
		return "orange"
	case AlertRed:
		return "red"
	default:
		return "unknown"
	}
}

func classifyAlert(h float64) AlertLevel {
	switch {
	case h < 0.3:
		return AlertGreen
	case h < 0.6:
		return AlertYellow
	case h < 0.8:
		return AlertOrange
	default:
		return AlertRed
	}
}

// Components holds the six raw component energies for one breadcrumb.
type Components struct {
	Spatial    float64
	Temporal   float64
	Kinetic    float64
	Flock      float64
	Contextual float64
	Structure  float64
}

// BreadcrumbScore is one breadcrumb's Hamiltonian evaluation.
type BreadcrumbScore struct {
	Index      int
	Components Components
	Total      float64
	Alert      AlertLevel
}

// ChainResult aggregates per-breadcrumb scores over a chain.
type ChainResult struct {
	Scores     []BreadcrumbScore
	MeanEnergy float64
	MaxEnergy  float64
	AlertCounts map[AlertLevel]int
}

// sigmoid implements σ(x, m) = 1 / (1 + exp(−2·(x − m))).
func sigmoid(x, midpoint float64) float64 {
	return 1.0 / (1.0 + math.Exp(-2*(x-midpoint)))
}

// Evaluate scores every breadcrumb in c against p using the given weights.
func Evaluate(c *chain.Chain, p profile.Profile, w Weights) ChainResult {
	n := len(c.Breadcrumbs)
	scores := make([]BreadcrumbScore, n)
	counts := map[AlertLevel]int{AlertGreen: 0, AlertYellow: 0, AlertOrange: 0, AlertRed: 0}

	var sumEnergy, maxEnergy float64
	for i, b := range c.Breadcrumbs {
		var comp Components
		if i > 0 {
			d := c.Displacements[i-1]
			comp.Spatial = spatialEnergy(d.DistanceKM, p)
			comp.Temporal = temporalEnergy(b.Timestamp.UTC().Hour(), p)
			comp.Kinetic = kineticEnergy(d.FromCell, d.ToCell, p)
			comp.Contextual = contextualEnergy(b, c.Breadcrumbs[i-1])
			comp.Structure = structureEnergy(d.DtSeconds, p)
		}
		comp.Flock = 0.0 // reserved; flock correlation is not implemented

		total := w.Spatial*comp.Spatial + w.Temporal*comp.Temporal + w.Kinetic*comp.Kinetic +
			w.Flock*comp.Flock + w.Contextual*comp.Contextual + w.Structure*comp.Structure

		alert := classifyAlert(total)
		counts[alert]++
		sumEnergy += total
		if total > maxEnergy {
			maxEnergy = total
		}

		scores[i] = BreadcrumbScore{Index: i, Components: comp, Total: total, Alert: alert}
	}

	var mean float64
	if n > 0 {
		mean = sumEnergy / float64(n)
	}

	return ChainResult{Scores: scores, MeanEnergy: mean, MaxEnergy: maxEnergy, AlertCounts: counts}
}

func spatialEnergy(d float64, p profile.Profile) float64 {
	if p.StdDisplacementKM < 0.001 {
		return 0
	}
	z := math.Abs(d-p.MeanDisplacementKM) / p.StdDisplacementKM
	return sigmoid(z, 3)
}

func temporalEnergy(hour int, p profile.Profile) float64 {
	activity := p.HourlyProfile[hour]
	if activity < 0.001 {
		return 0.8
	}
	return 1 - math.Min(1, activity*24)
}

func kineticEnergy(fromCell, toCell string, p profile.Profile) float64 {
	prob, ok := p.TransitionProbability(fromCell, toCell)
	if !ok || prob <= 0 {
		return 0.7
	}
	return sigmoid(-math.Log2(prob), 5)
}

// contextualEnergy flags GPS-only motion without a sensor-context change:
// location moved but the context digest is identical to the predecessor,
// the signature of cell-grinding or GPS injection without matching sensor
// data.
func contextualEnergy(curr, prev breadcrumb.Breadcrumb) float64 {
	if curr.LocationCell != prev.LocationCell && curr.ContextDigest == prev.ContextDigest {
		return 0.6
	}
	return 0
}

func structureEnergy(dt float64, p profile.Profile) float64 {
	if p.StdIntervalSeconds < 0.001 {
		return 0
	}
	z := math.Abs(dt-p.MeanIntervalSeconds) / p.StdIntervalSeconds
	return sigmoid(z, 3)
}
