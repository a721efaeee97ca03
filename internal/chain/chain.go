// Package chain validates an unordered bag of breadcrumbs into a Chain,
// checking structural, ordering, and hash-chain invariants. The
// validate-then-never-mutate shape is grounded on the teacher's
// checkpoint.Chain, whose Commit/computeHash/Verify sequence is the same
// append-and-link-then-check pattern, adapted here to a validate-in-one-shot
// contract instead of incremental commits.
package chain

import (
	"sort"
	"time"

	"crypto/ed25519"

	"github.com/tripverifier/criticality/internal/breadcrumb"
	"github.com/tripverifier/criticality/internal/geo"
	"github.com/tripverifier/criticality/internal/signer"
	"github.com/tripverifier/criticality/internal/triperr"
)

// Chain is a validated, immutable sequence of breadcrumbs sharing one
// identity. Construct only via Validate.
type Chain struct {
	Identity     string
	Breadcrumbs  []breadcrumb.Breadcrumb
	Displacements []geo.Displacement
}

// Options controls how strictly Validate checks a candidate chain.
type Options struct {
	// RecomputeBlockHash re-derives block_hash from the canonical payload.
	// Optional because it requires agreement on the canonical form with
	// the Attester.
	RecomputeBlockHash bool
	// VerifySignatures checks the Ed25519 signature over the canonical
	// payload under identity_public_key. Required for production use;
	// disabled only for fixtures that omit signing.
	VerifySignatures bool
}

// DefaultOptions enables both recomputation and signature verification,
// the production posture.
func DefaultOptions() Options {
	return Options{RecomputeBlockHash: true, VerifySignatures: true}
}

// Validate runs the full §4.1 algorithm against an unordered bag of
// breadcrumbs and returns a Chain or the first offending error.
func Validate(crumbs []breadcrumb.Breadcrumb, opts Options) (*Chain, error) {
	if len(crumbs) == 0 {
		return nil, triperr.InsufficientBreadcrumbs(0, 1)
	}

	sorted := make([]breadcrumb.Breadcrumb, len(crumbs))
	copy(sorted, crumbs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	identity := sorted[0].IdentityPublicKey
	for i, b := range sorted {
		if b.IdentityPublicKey != identity {
			return nil, triperr.ChainIntegrity(
				"breadcrumb %d has identity %s, chain identity is %s", i, b.IdentityPublicKey, identity)
		}
	}

	for i, b := range sorted {
		if b.Index != uint64(i) {
			return nil, triperr.ChainIntegrity("Index gap: expected %d, got %d at position %d", i, b.Index, i)
		}
	}

	var prevTs time.Time
	for i, b := range sorted {
		if i > 0 && !b.Timestamp.After(prevTs) {
			return nil, triperr.ChainIntegrity("Non-monotonic timestamp at index %d", i)
		}
		prevTs = b.Timestamp
	}

	for i, b := range sorted {
		if i == 0 {
			if b.PreviousHash != "" {
				return nil, triperr.ChainIntegrity("genesis breadcrumb: non-zero previous hash")
			}
			continue
		}
		if b.PreviousHash != sorted[i-1].BlockHash {
			return nil, triperr.ChainIntegrity("breadcrumb %d: broken chain link", i)
		}
	}

	if opts.RecomputeBlockHash {
		for i := range sorted {
			if !sorted[i].VerifyBlockHash() {
				return nil, triperr.ChainIntegrity("breadcrumb %d: block_hash mismatch on recomputation", i)
			}
		}
	}

	if opts.VerifySignatures {
		pubBytes, err := breadcrumb.DecodeHexField("identity_public_key", identity, ed25519.PublicKeySize)
		if err != nil {
			return nil, err
		}
		pub := ed25519.PublicKey(pubBytes)
		for i, b := range sorted {
			sig, err := breadcrumb.DecodeHexField("signature", b.Signature, ed25519.SignatureSize)
			if err != nil {
				return nil, err
			}
			if !signer.VerifyPayload(pub, []byte(b.CanonicalPayload()), sig) {
				return nil, triperr.SignatureInvalid(i)
			}
		}
	}

	timestamps := make([]time.Time, len(sorted))
	cells := make([]string, len(sorted))
	for i, b := range sorted {
		timestamps[i] = b.Timestamp
		cells[i] = b.LocationCell
	}
	displacements := geo.ComputeDisplacements(timestamps, cells)

	return &Chain{Identity: identity, Breadcrumbs: sorted, Displacements: displacements}, nil
}

// Len returns the number of breadcrumbs in the chain.
func (c *Chain) Len() int { return len(c.Breadcrumbs) }

// HeadHash returns the block_hash of the highest-index breadcrumb.
func (c *Chain) HeadHash() string {
	if len(c.Breadcrumbs) == 0 {
		return ""
	}
	return c.Breadcrumbs[len(c.Breadcrumbs)-1].BlockHash
}

// DisplacementKM returns the distance series alone, the input to PSD/Lévy.
func (c *Chain) DisplacementKM() []float64 {
	out := make([]float64, len(c.Displacements))
	for i, d := range c.Displacements {
		out[i] = d.DistanceKM
	}
	return out
}

// IntervalSeconds returns the dt series alone.
func (c *Chain) IntervalSeconds() []float64 {
	out := make([]float64, len(c.Displacements))
	for i, d := range c.Displacements {
		out[i] = d.DtSeconds
	}
	return out
}

// MeanIntervalSeconds returns the arithmetic mean of the dt series, used as
// the Welch sampling-rate basis (fs = 1/dt_mean).
func (c *Chain) MeanIntervalSeconds() float64 {
	intervals := c.IntervalSeconds()
	if len(intervals) == 0 {
		return 1.0
	}
	var sum float64
	for _, v := range intervals {
		sum += v
	}
	return sum / float64(len(intervals))
}
