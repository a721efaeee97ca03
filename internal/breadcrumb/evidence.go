package breadcrumb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tripverifier/criticality/internal/triperr"
)

// evidenceWire is the ingress JSON shape from §6: field names exactly as in
// §3, ISO-8601 millisecond timestamps, previous_hash nullable for genesis.
type evidenceWire struct {
	Index              uint64          `json:"index"`
	IdentityPublicKey  string          `json:"identity_public_key"`
	Timestamp          string          `json:"timestamp"`
	LocationCell       string          `json:"location_cell"`
	LocationResolution int             `json:"location_resolution"`
	ContextDigest      string          `json:"context_digest"`
	PreviousHash       *string         `json:"previous_hash"`
	MetaFlags          evidenceMeta    `json:"meta_flags"`
	Signature          string          `json:"signature"`
	BlockHash          string          `json:"block_hash"`
}

type evidenceMeta struct {
	Battery  *int     `json:"battery"`
	Sampling *string  `json:"sampling"`
	State    *string  `json:"state"`
	Network  *string  `json:"network"`
	Accuracy *float64 `json:"accuracy"`
	Manual   *bool    `json:"manual"`
}

// ParseEvidence decodes an ingress Evidence JSON array into breadcrumbs,
// in the document order supplied (not yet sorted or validated — that is
// the Chain Validator's job). Callers should run schemavalidation.Validate
// on the raw bytes first; ParseEvidence itself only performs shape and
// timestamp-format checks, surfacing DeserializeError.
func ParseEvidence(data []byte) ([]Breadcrumb, error) {
	var wire []evidenceWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, triperr.DeserializeError("malformed evidence array: %v", err)
	}

	out := make([]Breadcrumb, 0, len(wire))
	for i, w := range wire {
		b, err := w.toBreadcrumb()
		if err != nil {
			return nil, triperr.DeserializeError("breadcrumb %d: %v", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (w evidenceWire) toBreadcrumb() (Breadcrumb, error) {
	ts, err := time.Parse(canonicalTimeLayout, w.Timestamp)
	if err != nil {
		// Accept the RFC3339-with-fractional variant too, since millisecond
		// precision can arrive with fewer or more trailing digits.
		ts, err = time.Parse(time.RFC3339Nano, w.Timestamp)
		if err != nil {
			return Breadcrumb{}, fmt.Errorf("invalid timestamp %q: %w", w.Timestamp, err)
		}
	}

	meta := DefaultMetaFlags()
	if w.MetaFlags.Battery != nil {
		meta.Battery = w.MetaFlags.Battery
	}
	if w.MetaFlags.Sampling != nil {
		meta.Sampling = *w.MetaFlags.Sampling
	}
	if w.MetaFlags.State != nil {
		meta.State = *w.MetaFlags.State
	}
	if w.MetaFlags.Network != nil {
		meta.Network = *w.MetaFlags.Network
	}
	if w.MetaFlags.Accuracy != nil {
		meta.Accuracy = w.MetaFlags.Accuracy
	}
	if w.MetaFlags.Manual != nil {
		meta.Manual = *w.MetaFlags.Manual
	}

	prev := ""
	if w.PreviousHash != nil {
		prev = *w.PreviousHash
	}

	return Breadcrumb{
		Index:              w.Index,
		IdentityPublicKey:  w.IdentityPublicKey,
		Timestamp:          ts.UTC(),
		LocationCell:       w.LocationCell,
		LocationResolution: w.LocationResolution,
		ContextDigest:      w.ContextDigest,
		PreviousHash:       prev,
		MetaFlags:          meta,
		Signature:          w.Signature,
		BlockHash:          w.BlockHash,
	}, nil
}
