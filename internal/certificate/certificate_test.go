package certificate

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripverifier/criticality/internal/chain"
	"github.com/tripverifier/criticality/internal/criticality"
	"github.com/tripverifier/criticality/internal/hamiltonian"
	"github.com/tripverifier/criticality/internal/levy"
	"github.com/tripverifier/criticality/internal/psd"
)

func sampleResult() criticality.Result {
	return criticality.Result{
		PSD:         psd.Result{Alpha: 0.5, RSquared: 0.9},
		Levy:        levy.Result{Beta: 1.0, Kappa: 2.0, KS: 0.05},
		Hamiltonian: hamiltonian.ChainResult{MeanEnergy: 0.2},
		TrustScore:  82,
		Confidence:  0.95,
		ChainLength: 128,
		UniqueCells: 12,
		IsHuman:     true,
	}
}

func sampleChain() *chain.Chain {
	return &chain.Chain{Identity: "aabbccdd"}
}

func TestFromResultDefaultsValidity(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cert, err := FromResult(sampleChain(), sampleResult(), BuildParams{VerifierKey: pub})
	require.NoError(t, err)
	require.Equal(t, uint64(DefaultValiditySeconds), cert.ValidSeconds)
	require.Equal(t, uint64(82), cert.TrustScore)
	require.Equal(t, uint64(12), cert.UniqueCells)
}

func TestFromResultRejectsBadIdentityHex(t *testing.T) {
	c := &chain.Chain{Identity: "not-hex"}
	_, err := FromResult(c, sampleResult(), BuildParams{})
	require.Error(t, err)
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cert, err := FromResult(sampleChain(), sampleResult(), BuildParams{VerifierKey: pub, IssuedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, cert.Sign(priv))

	ok, err := cert.VerifySignature(pub)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifySignatureFailsUnderWrongKey(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cert, err := FromResult(sampleChain(), sampleResult(), BuildParams{VerifierKey: pub})
	require.NoError(t, err)
	require.NoError(t, cert.Sign(priv))

	ok, err := cert.VerifySignature(otherPub)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEncodeDecodeCBORRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cert, err := FromResult(sampleChain(), sampleResult(), BuildParams{VerifierKey: pub})
	require.NoError(t, err)
	require.NoError(t, cert.Sign(priv))

	encoded, err := cert.EncodeCBOR()
	require.NoError(t, err)

	decoded, err := DecodeCBOR(encoded)
	require.NoError(t, err)
	require.Equal(t, cert.TrustScore, decoded.TrustScore)
	require.Equal(t, cert.IdentityKey, decoded.IdentityKey)
	require.Equal(t, cert.VerifierSignature, decoded.VerifierSignature)

	ok, err := decoded.VerifySignature(pub)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEncodeJSONHexEncodesByteFields(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cert, err := FromResult(sampleChain(), sampleResult(), BuildParams{VerifierKey: pub})
	require.NoError(t, err)

	out, err := cert.EncodeJSON()
	require.NoError(t, err)
	require.Contains(t, string(out), `"identity_key": "aabbccdd"`)
	require.Contains(t, string(out), hex.EncodeToString(pub))
}

func TestExpiresAtAddsValiditySeconds(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cert, err := FromResult(sampleChain(), sampleResult(), BuildParams{
		VerifierKey: pub, IssuedAt: issuedAt, ValidSeconds: 3600,
	})
	require.NoError(t, err)
	require.Equal(t, issuedAt.Add(time.Hour), cert.ExpiresAt())
}
