package models

import (
	"strings"
	"time"
)

// LifecycleState is the stored lifecycle state of a product token.
// Expiry is not a state; it is derived from ExpiresAt at read time.
type LifecycleState string

const (
	StateGenerated LifecycleState = "generated"
	StateActive    LifecycleState = "active"
	StateConsumed  LifecycleState = "consumed"
	StateBlocked   LifecycleState = "blocked"
)

func (s LifecycleState) Valid() bool {
	switch s {
	case StateGenerated, StateActive, StateConsumed, StateBlocked:
		return true
	}
	return false
}

// ParseLifecycleState accepts the stored lower-case names case-insensitively.
func ParseLifecycleState(s string) (LifecycleState, bool) {
	st := LifecycleState(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Outcome is the classification of a single presentation.
type Outcome string

const (
	OutcomeValid       Outcome = "Valid"
	OutcomeAlreadyUsed Outcome = "AlreadyUsed"
	OutcomeExpired     Outcome = "Expired"
	OutcomeBlocked     Outcome = "Blocked"
	OutcomeInvalid     Outcome = "Invalid"
)

// Product is a vendor's catalogue item together with its live token record.
type Product struct {
	ID              string
	VendorID        string
	VendorName      string
	ProductName     string
	Description     string
	Category        string
	BatchID         string
	ManufactureDate *time.Time
	ExpiresAt       time.Time

	Token      string
	QRImageURL string

	LifecycleState    LifecycleState
	VerificationCount int64
	LastVerifiedAt    *time.Time
	IsFlagged         bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (p *Product) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// ProductUpdate is a field-level partial write. Nil fields are left alone.
//
// RevealedAt records a legitimate reveal: it increments VerificationCount
// and sets LastVerifiedAt in the same write. ResetVerification zeroes the
// counter and clears LastVerifiedAt; it is used by rotation only.
//
// OnlyFrom and OnlyToken make the write conditional: it is applied only if
// the stored lifecycle state is one of the listed states and the stored
// token is still the one the caller read. Stores report
// common.ErrStateChanged otherwise.
type ProductUpdate struct {
	LifecycleState    *LifecycleState
	IsFlagged         *bool
	RevealedAt        *time.Time
	Token             *string
	QRImageURL        *string
	ResetVerification bool
	OnlyFrom          []LifecycleState
	OnlyToken         *string
}

// Guarded reports whether the write carries any precondition.
func (u ProductUpdate) Guarded() bool {
	return len(u.OnlyFrom) > 0 || u.OnlyToken != nil
}

// Admits reports whether the guards hold for the stored record p.
func (u ProductUpdate) Admits(p *Product) bool {
	if u.OnlyToken != nil && *u.OnlyToken != p.Token {
		return false
	}
	return u.Allows(p.LifecycleState)
}

// Allows reports whether the guard admits a record in state st.
func (u ProductUpdate) Allows(st LifecycleState) bool {
	if len(u.OnlyFrom) == 0 {
		return true
	}
	for _, s := range u.OnlyFrom {
		if s == st {
			return true
		}
	}
	return false
}

func (u ProductUpdate) IsEmpty() bool {
	return u.LifecycleState == nil && u.IsFlagged == nil && u.RevealedAt == nil &&
		u.Token == nil && u.QRImageURL == nil && !u.ResetVerification
}

// Apply mirrors the update onto an in-memory snapshot, the same way the
// store applies it to the persisted row.
func (u ProductUpdate) Apply(p *Product) {
	if u.LifecycleState != nil {
		p.LifecycleState = *u.LifecycleState
	}
	if u.IsFlagged != nil {
		p.IsFlagged = *u.IsFlagged
	}
	if u.Token != nil {
		p.Token = *u.Token
	}
	if u.QRImageURL != nil {
		p.QRImageURL = *u.QRImageURL
	}
	if u.ResetVerification {
		p.VerificationCount = 0
		p.LastVerifiedAt = nil
	}
	if u.RevealedAt != nil {
		t := *u.RevealedAt
		p.VerificationCount++
		p.LastVerifiedAt = &t
	}
}
