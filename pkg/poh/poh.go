// Package poh is the public entry point for evaluating TRIP breadcrumb
// evidence and issuing Proof-of-Humanity Certificates, re-exporting the
// pieces an external caller needs so they don't have to import every
// internal package individually. Mirrors the convenience re-export block
// at the foot of the reference verifier's own lib.rs.
package poh

import (
	"github.com/tripverifier/criticality/internal/breadcrumb"
	"github.com/tripverifier/criticality/internal/certificate"
	"github.com/tripverifier/criticality/internal/chain"
	"github.com/tripverifier/criticality/internal/criticality"
	"github.com/tripverifier/criticality/internal/triperr"
)

// Breadcrumb is one signed spatiotemporal attestation.
type Breadcrumb = breadcrumb.Breadcrumb

// Chain is a validated, hash-linked sequence of breadcrumbs.
type Chain = chain.Chain

// Result is a criticality evaluation's composed output.
type Result = criticality.Result

// Certificate is the signed PoH attestation.
type Certificate = certificate.Certificate

// Error is the engine's closed error type.
type Error = triperr.Error

// ParseEvidence decodes an ingress Evidence JSON array into breadcrumbs.
func ParseEvidence(data []byte) ([]Breadcrumb, error) {
	return breadcrumb.ParseEvidence(data)
}

// ValidateChain runs the full chain-validation algorithm over an
// unordered bag of breadcrumbs.
func ValidateChain(crumbs []Breadcrumb, opts chain.Options) (*Chain, error) {
	return chain.Validate(crumbs, opts)
}

// DefaultChainOptions returns the production chain-validation posture
// (recompute block hashes, verify signatures).
func DefaultChainOptions() chain.Options {
	return chain.DefaultOptions()
}

// Evaluate runs the full Criticality Engine over a validated chain.
func Evaluate(c *Chain, cfg criticality.Config) (Result, error) {
	return criticality.Evaluate(c, cfg)
}

// DefaultCriticalityConfig returns the spec-mandated default thresholds
// and Hamiltonian weights.
func DefaultCriticalityConfig() criticality.Config {
	return criticality.DefaultConfig()
}

// BuildCertificate assembles an unsigned Certificate from a chain and its
// evaluation result. Call Sign on the result to make it verifiable.
func BuildCertificate(c *Chain, r Result, params certificate.BuildParams) (*Certificate, error) {
	return certificate.FromResult(c, r, params)
}
