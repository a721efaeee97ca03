package profile

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripverifier/criticality/internal/breadcrumb"
	"github.com/tripverifier/criticality/internal/chain"
)

const cellA = "8928308280fffff"
const cellB = "8928308280bffff"

func buildChain(t *testing.T, cells []string, interval time.Duration) *chain.Chain {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	identity := hex.EncodeToString(pub)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	crumbs := make([]breadcrumb.Breadcrumb, len(cells))
	prevHash := ""
	for i, cell := range cells {
		b := breadcrumb.Breadcrumb{
			Index:              uint64(i),
			IdentityPublicKey:  identity,
			Timestamp:          base.Add(time.Duration(i) * interval),
			LocationCell:       cell,
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
	c, err := chain.Validate(crumbs, chain.DefaultOptions())
	require.NoError(t, err)
	return c
}

func TestBuildEmptyChain(t *testing.T) {
	p := Build(&chain.Chain{})
	require.Empty(t, p.CellHistogram)
	require.Equal(t, 0.0, p.MeanDisplacementKM)
}

func TestBuildHistogramAndAnchors(t *testing.T) {
	cells := make([]string, 30)
	for i := range cells {
		cells[i] = cellA
	}
	c := buildChain(t, cells, time.Minute)
	p := Build(c)

	require.Equal(t, 30, p.CellHistogram[cellA])
	require.True(t, p.AnchorCells[cellA])
}

func TestBuildHourlyProfileSumsToOne(t *testing.T) {
	cells := make([]string, 24)
	for i := range cells {
		cells[i] = cellA
	}
	c := buildChain(t, cells, time.Hour)
	p := Build(c)

	var sum float64
	for _, v := range p.HourlyProfile {
		sum += v
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestBuildTransitionMatrixProbabilities(t *testing.T) {
	cells := []string{cellA, cellB, cellA, cellB}
	c := buildChain(t, cells, time.Minute)
	p := Build(c)

	prob, ok := p.TransitionProbability(cellA, cellB)
	require.True(t, ok)
	require.InDelta(t, 1.0, prob, 1e-9)

	_, ok = p.TransitionProbability(cellB, cellB)
	require.False(t, ok)
}

func TestMeanStdSingleSample(t *testing.T) {
	mean, std := meanStd([]float64{5.0})
	require.Equal(t, 5.0, mean)
	require.Equal(t, 0.0, std)
}

func TestMeanStdEmpty(t *testing.T) {
	mean, std := meanStd(nil)
	require.Equal(t, 0.0, mean)
	require.Equal(t, 0.0, std)
}
