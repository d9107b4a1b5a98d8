package models

import (
	"time"

	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
)

// Record is the identity entry for one account.
//
// Invariants:
//   - Account is never the zero Address
//   - IdentityRef is non-empty (opaque handle to off-ledger identity data)
//   - removal deletes the whole record; a record never exists with partially
//     cleared fields
type Record struct {
	Account     domain.Address     `json:"account"`
	IdentityRef string             `json:"identity_ref"`
	Country     domain.CountryCode `json:"country"`
	Verified    bool               `json:"verified"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewRecord constructs a registration record. Registration auto-verifies:
// phase 1 delegates claim validation entirely to the off-ledger identity
// provider behind IdentityRef.
func NewRecord(account domain.Address, identityRef string, country domain.CountryCode, now time.Time) (Record, error) {
	if account.IsZero() {
		return Record{}, dErrors.New(dErrors.CodeInvariantViolation, "account cannot be the zero address")
	}
	if identityRef == "" {
		return Record{}, dErrors.New(dErrors.CodeInvariantViolation, "identity ref cannot be empty")
	}
	return Record{
		Account:     account,
		IdentityRef: identityRef,
		Country:     country,
		Verified:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
