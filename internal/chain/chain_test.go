package chain

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripverifier/criticality/internal/breadcrumb"
)

const testCell = "8928308280fffff"

func buildValidChain(t *testing.T, n int) []breadcrumb.Breadcrumb {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	identity := hex.EncodeToString(pub)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	crumbs := make([]breadcrumb.Breadcrumb, n)
	prevHash := ""
	for i := 0; i < n; i++ {
		b := breadcrumb.Breadcrumb{
			Index:              uint64(i),
			IdentityPublicKey:  identity,
			Timestamp:          base.Add(time.Duration(i) * time.Minute),
			LocationCell:       testCell,
			LocationResolution: 9,
			ContextDigest:      "bb",
			PreviousHash:       prevHash,
			MetaFlags:          breadcrumb.DefaultMetaFlags(),
		}
		sig := ed25519.Sign(priv, []byte(b.CanonicalPayload()))
		b.Signature = hex.EncodeToString(sig)
		b.BlockHash = b.ComputeBlockHash()
		crumbs[i] = b
		prevHash = b.BlockHash
	}
	return crumbs
}

func TestValidateHappyPath(t *testing.T) {
	crumbs := buildValidChain(t, 5)
	c, err := Validate(crumbs, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 5, c.Len())
	require.Len(t, c.Displacements, 4)
	require.Equal(t, crumbs[4].BlockHash, c.HeadHash())
}

func TestValidateEmptyRejected(t *testing.T) {
	_, err := Validate(nil, DefaultOptions())
	require.Error(t, err)
}

func TestValidateSortsOutOfOrderInput(t *testing.T) {
	crumbs := buildValidChain(t, 4)
	shuffled := []breadcrumb.Breadcrumb{crumbs[2], crumbs[0], crumbs[3], crumbs[1]}
	c, err := Validate(shuffled, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, uint64(0), c.Breadcrumbs[0].Index)
	require.Equal(t, uint64(3), c.Breadcrumbs[3].Index)
}

func TestValidateRejectsMixedIdentity(t *testing.T) {
	crumbs := buildValidChain(t, 3)
	other := buildValidChain(t, 1)
	crumbs[1].IdentityPublicKey = other[0].IdentityPublicKey
	_, err := Validate(crumbs, DefaultOptions())
	require.Error(t, err)
}

func TestValidateRejectsIndexGap(t *testing.T) {
	crumbs := buildValidChain(t, 3)
	crumbs[2].Index = 5
	_, err := Validate(crumbs, DefaultOptions())
	require.Error(t, err)
}

func TestValidateRejectsNonMonotonicTimestamp(t *testing.T) {
	crumbs := buildValidChain(t, 3)
	crumbs[2].Timestamp = crumbs[0].Timestamp
	_, err := Validate(crumbs, Options{})
	require.Error(t, err)
}

func TestValidateRejectsBrokenLink(t *testing.T) {
	crumbs := buildValidChain(t, 3)
	crumbs[2].PreviousHash = "deadbeef"
	_, err := Validate(crumbs, Options{})
	require.Error(t, err)
}

func TestValidateRejectsNonZeroGenesisPrevHash(t *testing.T) {
	crumbs := buildValidChain(t, 3)
	crumbs[0].PreviousHash = "nonzero"
	_, err := Validate(crumbs, Options{})
	require.Error(t, err)
}

func TestValidateRecomputesBlockHash(t *testing.T) {
	crumbs := buildValidChain(t, 3)
	crumbs[1].BlockHash = "tampered"
	_, err := Validate(crumbs, Options{RecomputeBlockHash: true})
	require.Error(t, err)
}

func TestValidateVerifiesSignatures(t *testing.T) {
	crumbs := buildValidChain(t, 3)
	_, otherPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	forged := ed25519.Sign(otherPriv, []byte(crumbs[1].CanonicalPayload()))
	crumbs[1].Signature = hex.EncodeToString(forged)
	crumbs[1].BlockHash = crumbs[1].ComputeBlockHash()
	crumbs[2].PreviousHash = crumbs[1].BlockHash
	crumbs[2].BlockHash = crumbs[2].ComputeBlockHash()

	_, err = Validate(crumbs, Options{VerifySignatures: true})
	require.Error(t, err)
}

func TestValidateSkipsSignatureCheckWhenDisabled(t *testing.T) {
	crumbs := buildValidChain(t, 3)
	crumbs[1].Signature = "00"
	crumbs[1].BlockHash = crumbs[1].ComputeBlockHash()
	crumbs[2].PreviousHash = crumbs[1].BlockHash
	crumbs[2].BlockHash = crumbs[2].ComputeBlockHash()

	_, err := Validate(crumbs, Options{VerifySignatures: false})
	require.NoError(t, err)
}

func TestMeanIntervalSecondsEmptyDefaultsToOne(t *testing.T) {
	c := &Chain{}
	require.Equal(t, 1.0, c.MeanIntervalSeconds())
}

func TestDisplacementAndIntervalSeries(t *testing.T) {
	crumbs := buildValidChain(t, 5)
	c, err := Validate(crumbs, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, c.DisplacementKM(), 4)
	require.Len(t, c.IntervalSeconds(), 4)
	require.InDelta(t, 60.0, c.MeanIntervalSeconds(), 1e-9)
}
