package models

import (
	"time"

	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
)

// Asset is one capped issuance line within the ledger.
//
// Invariants:
//   - MaxSupply > 0 for any asset that exists
//   - MintedSupply <= MaxSupply after any sequence of mint/burn operations
//   - Key is immutable after creation
//
// PriceUSD and PriceAED are opaque reference values in minor currency
// units. The ledger never computes on them beyond the issuance transparency
// field (amount * PriceUSD).
type Asset struct {
	Key          domain.AssetKey `json:"key"`
	Name         string          `json:"name"`
	MetadataRef  string          `json:"metadata_ref"`
	PriceUSD     uint64          `json:"price_usd"`
	PriceAED     uint64          `json:"price_aed"`
	MintedSupply uint64          `json:"minted_supply"`
	MaxSupply    uint64          `json:"max_supply"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewAsset constructs an asset with zero minted supply, active.
func NewAsset(key domain.AssetKey, name, metadataRef string, priceUSD, priceAED, maxSupply uint64, now time.Time) (Asset, error) {
	if key == "" {
		return Asset{}, dErrors.New(dErrors.CodeInvariantViolation, "asset key cannot be empty")
	}
	if maxSupply == 0 {
		return Asset{}, dErrors.New(dErrors.CodeInvariantViolation, "max supply must be positive")
	}
	return Asset{
		Key:         key,
		Name:        name,
		MetadataRef: metadataRef,
		PriceUSD:    priceUSD,
		PriceAED:    priceAED,
		MaxSupply:   maxSupply,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanMint checks that amount more tokens fit under the supply cap.
// Overflow-safe: a sum that wraps is treated as exceeding the cap.
func (a *Asset) CanMint(amount uint64) error {
	next, ok := addChecked(a.MintedSupply, amount)
	if !ok || next > a.MaxSupply {
		return dErrors.New(dErrors.CodeInvariantViolation, "mint would exceed supply cap")
	}
	return nil
}

// ApplyMint increases the minted supply. Call CanMint first.
func (a *Asset) ApplyMint(amount uint64) {
	a.MintedSupply += amount
}

// ApplyBurn decreases the minted supply, clamping at zero. The clamp means
// the counter never underflows even if per-asset bookkeeping drifted.
func (a *Asset) ApplyBurn(amount uint64) {
	if amount > a.MintedSupply {
		a.MintedSupply = 0
		return
	}
	a.MintedSupply -= amount
}

// CanSetCap checks that a new supply cap does not fall below what has
// already been minted.
func (a *Asset) CanSetCap(maxSupply uint64) error {
	if maxSupply < a.MintedSupply {
		return dErrors.New(dErrors.CodeInvariantViolation, "cap cannot fall below minted supply")
	}
	return nil
}

// ApplySetCap raises (or lowers, within CanSetCap) the supply cap. Call
// CanSetCap first.
func (a *Asset) ApplySetCap(maxSupply uint64, now time.Time) {
	a.MaxSupply = maxSupply
	a.UpdatedAt = now
}
