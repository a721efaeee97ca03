// Package certificate encodes the PoH Certificate wire format (CBOR,
// authoritative for signing, plus a JSON mirror for human-readable
// transport).
//
// CBOR uses github.com/fxamacker/cbor/v2 in its canonical/deterministic
// mode — the standard deterministic-CBOR library in the Go ecosystem,
// present in the indirect dependency closure of both
// certenIO-certen-validator and luxfi-precompiles and promoted here to a
// direct, exercised dependency.
package certificate

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tripverifier/criticality/internal/signer"
	"github.com/tripverifier/criticality/internal/triperr"
)

// Certificate is the integer-keyed PoH attestation, fields 0-14. Fields
// 0-13 are the signable region; field 14 is the Ed25519 signature over
// their canonical CBOR serialization.
type Certificate struct {
	IdentityKey        []byte  `cbor:"0,keyasint" json:"-"`
	Alpha              float64 `cbor:"1,keyasint" json:"-"`
	Beta               float64 `cbor:"2,keyasint" json:"-"`
	Kappa              float64 `cbor:"3,keyasint" json:"-"`
	TrustScore         uint64  `cbor:"4,keyasint" json:"-"`
	Confidence         float64 `cbor:"5,keyasint" json:"-"`
	ChainLength        uint64  `cbor:"6,keyasint" json:"-"`
	UniqueCells        uint64  `cbor:"7,keyasint" json:"-"`
	MeanHamiltonian    float64 `cbor:"8,keyasint" json:"-"`
	VerifierKey        []byte  `cbor:"9,keyasint" json:"-"`
	IssuedAt           uint64  `cbor:"10,keyasint" json:"-"`
	ValidSeconds       uint64  `cbor:"11,keyasint" json:"-"`
	Nonce              []byte  `cbor:"12,keyasint,omitempty" json:"-"`
	ChainHeadHash      []byte  `cbor:"13,keyasint,omitempty" json:"-"`
	VerifierSignature  []byte  `cbor:"14,keyasint,omitempty" json:"-"`
}

// signable is fields 0-13 only, the region covered by VerifierSignature.
type signable struct {
	IdentityKey     []byte  `cbor:"0,keyasint"`
	Alpha           float64 `cbor:"1,keyasint"`
	Beta            float64 `cbor:"2,keyasint"`
	Kappa           float64 `cbor:"3,keyasint"`
	TrustScore      uint64  `cbor:"4,keyasint"`
	Confidence      float64 `cbor:"5,keyasint"`
	ChainLength     uint64  `cbor:"6,keyasint"`
	UniqueCells     uint64  `cbor:"7,keyasint"`
	MeanHamiltonian float64 `cbor:"8,keyasint"`
	VerifierKey     []byte  `cbor:"9,keyasint"`
	IssuedAt        uint64  `cbor:"10,keyasint"`
	ValidSeconds    uint64  `cbor:"11,keyasint"`
	Nonce           []byte  `cbor:"12,keyasint,omitempty"`
	ChainHeadHash   []byte  `cbor:"13,keyasint,omitempty"`
}

var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

func (c *Certificate) signablePayload() signable {
	return signable{
		IdentityKey:     c.IdentityKey,
		Alpha:           c.Alpha,
		Beta:            c.Beta,
		Kappa:           c.Kappa,
		TrustScore:      c.TrustScore,
		Confidence:      c.Confidence,
		ChainLength:     c.ChainLength,
		UniqueCells:     c.UniqueCells,
		MeanHamiltonian: c.MeanHamiltonian,
		VerifierKey:     c.VerifierKey,
		IssuedAt:        c.IssuedAt,
		ValidSeconds:    c.ValidSeconds,
		Nonce:           c.Nonce,
		ChainHeadHash:   c.ChainHeadHash,
	}
}

// SignableBytes returns the canonical CBOR serialization of fields 0-13,
// the exact byte string the verifier signing key signs.
func (c *Certificate) SignableBytes() ([]byte, error) {
	b, err := encMode.Marshal(c.signablePayload())
	if err != nil {
		return nil, triperr.CertificateError("marshal signable region: %v", err)
	}
	return b, nil
}

// Sign computes field 14 (the verifier signature) over the signable region.
func (c *Certificate) Sign(priv ed25519.PrivateKey) error {
	payload, err := c.SignableBytes()
	if err != nil {
		return err
	}
	c.VerifierSignature = signer.SignPayload(priv, payload)
	return nil
}

// VerifySignature checks field 14 under the verifier's own public key
// (self-consistency, not identity verification).
func (c *Certificate) VerifySignature(pub ed25519.PublicKey) (bool, error) {
	payload, err := c.SignableBytes()
	if err != nil {
		return false, err
	}
	return signer.VerifyPayload(pub, payload, c.VerifierSignature), nil
}

// EncodeCBOR serializes the full certificate (fields 0-14) in canonical
// CBOR form; the optional fields 12-14 are omitted when empty.
func (c *Certificate) EncodeCBOR() ([]byte, error) {
	b, err := encMode.Marshal(c)
	if err != nil {
		return nil, triperr.CertificateError("marshal certificate: %v", err)
	}
	return b, nil
}

// DecodeCBOR parses a CBOR-encoded certificate.
func DecodeCBOR(data []byte) (*Certificate, error) {
	var c Certificate
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, triperr.CertificateError("unmarshal certificate: %v", err)
	}
	return &c, nil
}

// jsonMirror mirrors the CBOR map with string keys and hex-encoded byte
// fields; it is not authoritative for signature verification.
type jsonMirror struct {
	IdentityKey        string  `json:"identity_key"`
	Alpha              float64 `json:"alpha"`
	Beta               float64 `json:"beta"`
	Kappa              float64 `json:"kappa"`
	TrustScore         uint64  `json:"trust_score"`
	Confidence         float64 `json:"confidence"`
	ChainLength        uint64  `json:"chain_length"`
	UniqueCells        uint64  `json:"unique_cells"`
	MeanHamiltonian    float64 `json:"mean_hamiltonian"`
	VerifierKey        string  `json:"verifier_key"`
	IssuedAt           uint64  `json:"issued_at"`
	ValidSeconds       uint64  `json:"valid_seconds"`
	Nonce              string  `json:"nonce,omitempty"`
	ChainHeadHash      string  `json:"chain_head_hash,omitempty"`
	VerifierSignature  string  `json:"verifier_signature,omitempty"`
}

// EncodeJSON renders the human-readable JSON mirror.
func (c *Certificate) EncodeJSON() ([]byte, error) {
	m := jsonMirror{
		IdentityKey:       hex.EncodeToString(c.IdentityKey),
		Alpha:             c.Alpha,
		Beta:              c.Beta,
		Kappa:             c.Kappa,
		TrustScore:        c.TrustScore,
		Confidence:        c.Confidence,
		ChainLength:       c.ChainLength,
		UniqueCells:       c.UniqueCells,
		MeanHamiltonian:   c.MeanHamiltonian,
		VerifierKey:       hex.EncodeToString(c.VerifierKey),
		IssuedAt:          c.IssuedAt,
		ValidSeconds:      c.ValidSeconds,
		Nonce:             hex.EncodeToString(c.Nonce),
		ChainHeadHash:     hex.EncodeToString(c.ChainHeadHash),
		VerifierSignature: hex.EncodeToString(c.VerifierSignature),
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, triperr.CertificateError("marshal JSON mirror: %v", err)
	}
	return b, nil
}

// IssuedAtTime returns the IssuedAt field as a time.Time.
func (c *Certificate) IssuedAtTime() time.Time {
	return time.Unix(int64(c.IssuedAt), 0).UTC()
}

// ExpiresAt returns when the certificate's validity window closes.
func (c *Certificate) ExpiresAt() time.Time {
	return c.IssuedAtTime().Add(time.Duration(c.ValidSeconds) * time.Second)
}
