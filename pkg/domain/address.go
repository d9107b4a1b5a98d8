package domain

import (
	"strings"

	dErrors "basalt/pkg/domain-errors"
)

// Address identifies an account on the ledger. It is an opaque address-like
// key; the ledger does not interpret its contents beyond emptiness.
//
// The zero Address is reserved: it is the mint sentinel when used as a
// transfer source and the burn sentinel when used as a destination. No real
// account may hold the zero Address.
//
// Usage: construct via ParseAddress at trust boundaries; direct casting
// bypasses validation.
type Address string

// ZeroAddress is the mint/burn sentinel.
const ZeroAddress Address = ""

// ParseAddress constructs an Address from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or longer than
// 128 characters; no other errors are expected.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if len(s) > 128 {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address must be 128 characters or less")
	}
	return Address(s), nil
}

// IsZero reports whether the address is the mint/burn sentinel.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
