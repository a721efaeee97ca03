// Package report renders a human-readable narrative of a criticality
// evaluation, the Go side of the multi-section forensic report the
// teacher's verify package used to print over a strings.Builder, adapted
// here to the PSD/Lévy/Hamiltonian/verdict sections that
// _examples/original_source/verifier/src/bin/analyze.rs prints for a
// chain analysis run.
package report

import (
	"fmt"
	"strings"

	"github.com/tripverifier/criticality/internal/chain"
	"github.com/tripverifier/criticality/internal/criticality"
	"github.com/tripverifier/criticality/internal/hamiltonian"
)

// Narrative renders the full multi-section report for a chain and its
// criticality result, suitable for CLI output or audit log attachment.
func Narrative(c *chain.Chain, r criticality.Result) string {
	var b strings.Builder

	id := c.Identity
	idShort := id
	if len(id) > 16 {
		idShort = fmt.Sprintf("%s...%s", id[:8], id[len(id)-8:])
	}

	fmt.Fprintf(&b, "=== Chain Verification ===\n")
	fmt.Fprintf(&b, "  Identity:     %s\n", idShort)
	fmt.Fprintf(&b, "  Breadcrumbs:  %d\n", c.Len())
	fmt.Fprintf(&b, "  Unique cells: %d\n", r.UniqueCells)
	head := c.HeadHash()
	headShort := head
	if len(head) > 16 {
		headShort = head[:16]
	}
	fmt.Fprintf(&b, "  Chain hash:   %s...\n", headShort)

	disp := c.DisplacementKM()
	if len(disp) > 0 {
		var sum, max float64
		for _, d := range disp {
			sum += d
			if d > max {
				max = d
			}
		}
		mean := sum / float64(len(disp))
		nonZero := 0
		for _, d := range disp {
			if d > 0.001 {
				nonZero++
			}
		}
		fmt.Fprintf(&b, "\n=== Displacement Statistics ===\n")
		fmt.Fprintf(&b, "  Total distance:     %.2f km\n", sum)
		fmt.Fprintf(&b, "  Mean displacement:  %.4f km (%.1f m)\n", mean, mean*1000)
		fmt.Fprintf(&b, "  Max displacement:   %.4f km (%.1f m)\n", max, max*1000)
		fmt.Fprintf(&b, "  Mean interval:      %.0f seconds (%.1f min)\n", c.MeanIntervalSeconds(), c.MeanIntervalSeconds()/60)
		fmt.Fprintf(&b, "  Non-zero moves:     %d / %d\n", nonZero, len(disp))
	}

	fmt.Fprintf(&b, "\n=== Criticality Engine ===\n")
	fmt.Fprintf(&b, "\n  --- PSD Analysis ---\n")
	fmt.Fprintf(&b, "  alpha = %.4f  (%s)\n", r.PSD.Alpha, r.PSD.Classification)
	fmt.Fprintf(&b, "  R2    = %.4f\n", r.PSD.RSquared)
	fmt.Fprintf(&b, "  Bins:   %d\n", r.PSD.BinsUsed)
	fmt.Fprintf(&b, "  Human [0.30, 0.80] -> %s\n", passFail(r.PsdPass))

	fmt.Fprintf(&b, "\n  --- Levy Flight ---\n")
	fmt.Fprintf(&b, "  beta  = %.4f  (%s)\n", r.Levy.Beta, r.Levy.Classification)
	fmt.Fprintf(&b, "  kappa = %.2f km\n", r.Levy.Kappa)
	fmt.Fprintf(&b, "  KS    = %.4f\n", r.Levy.KS)
	fmt.Fprintf(&b, "  Human [0.80, 1.20] -> %s\n", passFail(r.LevyPass))

	fmt.Fprintf(&b, "\n  --- Hamiltonian ---\n")
	fmt.Fprintf(&b, "  Mean energy:  %.4f\n", r.Hamiltonian.MeanEnergy)
	fmt.Fprintf(&b, "  Max energy:   %.4f\n", r.Hamiltonian.MaxEnergy)
	fmt.Fprintf(&b, "  Green:%d Yellow:%d Orange:%d Red:%d\n",
		r.Hamiltonian.AlertCounts[hamiltonian.AlertGreen],
		r.Hamiltonian.AlertCounts[hamiltonian.AlertYellow],
		r.Hamiltonian.AlertCounts[hamiltonian.AlertOrange],
		r.Hamiltonian.AlertCounts[hamiltonian.AlertRed])

	fmt.Fprintf(&b, "\n  === VERDICT ===\n")
	fmt.Fprintf(&b, "  Trust Score:  %.1f / 100\n", r.TrustScore)
	fmt.Fprintf(&b, "  Confidence:   %.1f%%\n", r.Confidence*100)
	result := "NOT VERIFIED"
	if r.IsHuman {
		result = "HUMAN"
	}
	fmt.Fprintf(&b, "  Result:       %s\n", result)
	fmt.Fprintf(&b, "\n  %s\n", r.Verdict())

	return b.String()
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
