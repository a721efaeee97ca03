// Package breadcrumb defines the atomic evidence unit of a TRIP chain and
// its canonical, signature-covered serialization.
package breadcrumb

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/tripverifier/criticality/internal/triperr"
)

// canonicalTimeLayout matches the Attester's millisecond ISO-8601 form with
// a trailing Z, e.g. "2024-01-15T10:30:45.123Z".
const canonicalTimeLayout = "2006-01-02T15:04:05.000Z"

// MetaFlags is the opaque diagnostic bag signed alongside the breadcrumb but
// never interpreted by the engine. Field order here is the canonical
// serialization order for the signed payload.
type MetaFlags struct {
	Battery  *int   `json:"battery,omitempty"`
	Sampling string `json:"sampling"`
	State    string `json:"state"`
	Network  string `json:"network"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Manual   bool   `json:"manual"`
}

// DefaultMetaFlags fills in the ingress defaults from §6: sampling="normal",
// state="unknown", network="unknown", manual=false.
func DefaultMetaFlags() MetaFlags {
	return MetaFlags{Sampling: "normal", State: "unknown", Network: "unknown", Manual: false}
}

// Breadcrumb is one signed spatiotemporal attestation.
type Breadcrumb struct {
	Index              uint64
	IdentityPublicKey  string // 64 lowercase hex chars
	Timestamp          time.Time
	LocationCell       string // H3 cell hex
	LocationResolution int
	ContextDigest      string // 64 lowercase hex chars
	PreviousHash       string // empty on genesis
	MetaFlags          MetaFlags
	Signature          string // 128 lowercase hex chars
	BlockHash          string // 64 lowercase hex chars
}

// CanonicalPayload renders the deterministic, fixed-key-order serialization
// that the Attester signs and that block_hash is computed over. The key
// order (index, identity, timestamp, loc_cell, loc_res, context, prev_hash,
// meta) and the "genesis" sentinel for an absent previous hash come from
// the reference Attester implementation — this is the resolution of the
// canonical-payload Open Question, not a guess (see DESIGN.md).
func (b *Breadcrumb) CanonicalPayload() string {
	prev := b.PreviousHash
	if prev == "" {
		prev = "genesis"
	}

	var sb strings.Builder
	sb.WriteByte('{')
	fmt.Fprintf(&sb, "\"index\":%d,", b.Index)
	fmt.Fprintf(&sb, "\"identity\":%q,", b.IdentityPublicKey)
	fmt.Fprintf(&sb, "\"timestamp\":%q,", b.Timestamp.UTC().Format(canonicalTimeLayout))
	fmt.Fprintf(&sb, "\"loc_cell\":%q,", b.LocationCell)
	fmt.Fprintf(&sb, "\"loc_res\":%d,", b.LocationResolution)
	fmt.Fprintf(&sb, "\"context\":%q,", b.ContextDigest)
	fmt.Fprintf(&sb, "\"prev_hash\":%q,", prev)
	sb.WriteString("\"meta\":")
	sb.WriteString(b.metaPayload())
	sb.WriteByte('}')
	return sb.String()
}

// metaPayload serializes MetaFlags with its own fixed field order:
// battery, sampling, state, network, accuracy, manual.
func (b *Breadcrumb) metaPayload() string {
	m := b.MetaFlags
	var sb strings.Builder
	sb.WriteByte('{')
	if m.Battery != nil {
		fmt.Fprintf(&sb, "\"battery\":%d,", *m.Battery)
	} else {
		sb.WriteString("\"battery\":null,")
	}
	fmt.Fprintf(&sb, "\"sampling\":%q,", m.Sampling)
	fmt.Fprintf(&sb, "\"state\":%q,", m.State)
	fmt.Fprintf(&sb, "\"network\":%q,", m.Network)
	if m.Accuracy != nil {
		fmt.Fprintf(&sb, "\"accuracy\":%v,", *m.Accuracy)
	} else {
		sb.WriteString("\"accuracy\":null,")
	}
	fmt.Fprintf(&sb, "\"manual\":%v", m.Manual)
	sb.WriteByte('}')
	return sb.String()
}

// ComputeBlockHash returns SHA-256(canonical_payload || ":" || signature_hex).
func (b *Breadcrumb) ComputeBlockHash() string {
	content := b.CanonicalPayload() + ":" + b.Signature
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// VerifyBlockHash checks the stored BlockHash against a fresh computation.
func (b *Breadcrumb) VerifyBlockHash() bool {
	return b.BlockHash == b.ComputeBlockHash()
}

// DecodeHexField validates and decodes a fixed-length hex field, failing
// with DeserializeError on malformed input.
func DecodeHexField(name, value string, wantLen int) ([]byte, error) {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, triperr.DeserializeError("%s: invalid hex: %v", name, err)
	}
	if wantLen > 0 && len(raw) != wantLen {
		return nil, triperr.DeserializeError("%s: expected %d bytes, got %d", name, wantLen, len(raw))
	}
	return raw, nil
}

// Fingerprint renders the first/last 8 hex chars of an identity key for log
// lines and CLI output ("id[:8]...id[-8:]"), matching the way the teacher's
// cmd/witnessd shortens hashes. Never used for comparisons.
func Fingerprint(pubkeyHex string) string {
	if len(pubkeyHex) <= 16 {
		return pubkeyHex
	}
	return pubkeyHex[:8] + "..." + pubkeyHex[len(pubkeyHex)-8:]
}
