// Package events publishes verification decisions to a message stream.
// Publication is best-effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	TypeDecision     = "verification.decision"
	TypeUnknownToken = "verification.unknown_token"
	TypeRotation     = "product.token_rotated"
)

// DecisionEvent describes one engine decision or token rotation.
// SourceAddress is never serialized; publishers replace it with
// SourceFingerprint. PreviousToken is set on rotations only.
type DecisionEvent struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Token             string    `json:"token"`
	PreviousToken     string    `json:"previous_token,omitempty"`
	ProductID         string    `json:"product_id,omitempty"`
	VendorID          string    `json:"vendor_id,omitempty"`
	Outcome           string    `json:"outcome,omitempty"`
	Flagged           bool      `json:"flagged"`
	Location          string    `json:"location,omitempty"`
	Reasons           []string  `json:"reasons,omitempty"`
	SourceAddress     string    `json:"-"`
	SourceFingerprint string    `json:"source_fingerprint,omitempty"`
	At                time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev DecisionEvent) error
	Close() error
}

// Fingerprint is a keyed blake2b-128 digest of addr, hex encoded. The key
// keeps the mapping from being reversed by hashing the IPv4 space.
func Fingerprint(key []byte, addr string) string {
	if addr == "" {
		return ""
	}
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	h, err := blake2b.New(16, key)
	if err != nil {
		return ""
	}
	h.Write([]byte(addr))
	return hex.EncodeToString(h.Sum(nil))
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, DecisionEvent) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
