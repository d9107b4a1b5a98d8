package domain

import (
	"strings"

	dErrors "basalt/pkg/domain-errors"
)

// AssetKey uniquely identifies an issuance line within the ledger.
// Keys are created once and never reused.
type AssetKey string

// ParseAssetKey constructs an AssetKey from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or longer than
// 64 characters.
func ParseAssetKey(s string) (AssetKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "asset key cannot be empty")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "asset key must be 64 characters or less")
	}
	return AssetKey(s), nil
}

func (k AssetKey) String() string {
	return string(k)
}

// CountryCode is an ISO 3166-1 numeric country code. The ledger stores it
// for identity records but never interprets it.
type CountryCode uint16
