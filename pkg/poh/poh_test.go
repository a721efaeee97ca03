package poh

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripverifier/criticality/internal/breadcrumb"
)

type wireBreadcrumb struct {
	Index              uint64 `json:"index"`
	IdentityPublicKey  string `json:"identity_public_key"`
	Timestamp          string `json:"timestamp"`
	LocationCell       string `json:"location_cell"`
	LocationResolution int    `json:"location_resolution"`
	ContextDigest      string `json:"context_digest"`
	PreviousHash       string `json:"previous_hash"`
	Signature          string `json:"signature"`
	BlockHash          string `json:"block_hash"`
}

func TestParseAndValidateRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	identity := hex.EncodeToString(pub)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var wires []wireBreadcrumb
	prevHash := ""
	for i := 0; i < 5; i++ {
		b := Breadcrumb{
			Index:              uint64(i),
			IdentityPublicKey:  identity,
			Timestamp:          base.Add(time.Duration(i) * time.Minute),
			LocationCell:       "8928308280fffff",
			LocationResolution: 9,
			ContextDigest:      "bb",
			PreviousHash:       prevHash,
			MetaFlags:          breadcrumb.DefaultMetaFlags(),
		}
		sig := ed25519.Sign(priv, []byte(b.CanonicalPayload()))
		b.Signature = hex.EncodeToString(sig)
		b.BlockHash = b.ComputeBlockHash()

		wires = append(wires, wireBreadcrumb{
			Index: b.Index, IdentityPublicKey: b.IdentityPublicKey,
			Timestamp:          b.Timestamp.Format("2006-01-02T15:04:05.000Z"),
			LocationCell:       b.LocationCell,
			LocationResolution: b.LocationResolution,
			ContextDigest:      b.ContextDigest,
			PreviousHash:       b.PreviousHash,
			Signature:          b.Signature,
			BlockHash:          b.BlockHash,
		})
		prevHash = b.BlockHash
	}

	data, err := json.Marshal(wires)
	require.NoError(t, err)

	crumbs, err := ParseEvidence(data)
	require.NoError(t, err)
	require.Len(t, crumbs, 5)

	c, err := ValidateChain(crumbs, DefaultChainOptions())
	require.NoError(t, err)
	require.Equal(t, 5, c.Len())
}

func TestDefaultCriticalityConfigWeightsSumToOne(t *testing.T) {
	cfg := DefaultCriticalityConfig()
	require.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
}
