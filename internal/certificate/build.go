package certificate

import (
	"encoding/hex"
	"time"

	"github.com/tripverifier/criticality/internal/chain"
	"github.com/tripverifier/criticality/internal/criticality"
	"github.com/tripverifier/criticality/internal/triperr"
)

// DefaultValiditySeconds is how long an issued certificate is considered
// fresh absent an application-specific override.
const DefaultValiditySeconds = 3600

// BuildParams carries everything needed to assemble a Certificate from an
// evaluation result, beyond the result itself.
type BuildParams struct {
	VerifierKey   []byte
	IssuedAt      time.Time
	ValidSeconds  uint64
	Nonce         []byte // present only for active verification
	ChainHeadHash []byte // present only for active verification
}

// FromResult assembles an unsigned Certificate from a criticality.Result and
// the chain it was computed over. Call Sign afterward to produce a
// verifiable certificate.
func FromResult(c *chain.Chain, r criticality.Result, params BuildParams) (*Certificate, error) {
	identityBytes, err := hex.DecodeString(c.Identity)
	if err != nil {
		return nil, triperr.CertificateError("decode identity key: %v", err)
	}

	valid := params.ValidSeconds
	if valid == 0 {
		valid = DefaultValiditySeconds
	}
	issuedAt := params.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	var chainHead []byte
	if len(params.ChainHeadHash) > 0 {
		chainHead = params.ChainHeadHash
	}

	cert := &Certificate{
		IdentityKey:     identityBytes,
		Alpha:           r.PSD.Alpha,
		Beta:            r.Levy.Beta,
		Kappa:           r.Levy.Kappa,
		TrustScore:      uint64(r.TrustScore),
		Confidence:      r.Confidence,
		ChainLength:     uint64(r.ChainLength),
		UniqueCells:     uint64(r.UniqueCells),
		MeanHamiltonian: r.Hamiltonian.MeanEnergy,
		VerifierKey:     params.VerifierKey,
		IssuedAt:        uint64(issuedAt.Unix()),
		ValidSeconds:    valid,
		Nonce:           params.Nonce,
		ChainHeadHash:   chainHead,
	}
	return cert, nil
}
