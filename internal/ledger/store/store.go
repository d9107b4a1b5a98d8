// Package store defines the ledger's state store. Every mutating operation
// runs inside Update, which gives the operation an isolated writable view
// and commits it all-or-nothing: either every balance, holding, supply, and
// role change in the callback lands together, or none do.
package store

import (
	"context"

	"basalt/internal/ledger/models"
	"basalt/pkg/domain"
)

// ReadTx is a self-consistent snapshot of the ledger state. A reader never
// observes a balance decrement without its paired supply-counter decrement.
type ReadTx interface {
	// Account returns the account record, or a zero-balance record with
	// the address set when the account has never been touched. Accounts
	// spring into existence on first credit.
	Account(addr domain.Address) models.Account
	Asset(key domain.AssetKey) (models.Asset, bool)
	// Holding returns the per-asset amount held by the account. Holdings
	// are issuance bookkeeping, not a second source of truth for Balance.
	Holding(addr domain.Address, key domain.AssetKey) uint64
	Allowance(owner, spender domain.Address) uint64
	HasRole(addr domain.Address, role models.Role) bool
	Paused() bool
}

// Tx extends a snapshot with staged writes. Writes become visible to
// subsequent reads within the same Tx, so a batch validates each entry
// against the effects of the previous ones.
type Tx interface {
	ReadTx
	PutAccount(account models.Account)
	PutAsset(asset models.Asset)
	PutHolding(addr domain.Address, key domain.AssetKey, amount uint64)
	PutAllowance(owner, spender domain.Address, amount uint64)
	SetRole(addr domain.Address, role models.Role, granted bool)
	SetPaused(paused bool)
}

// Store serializes ledger state access. Update callbacks run one at a time;
// View callbacks run concurrently with each other but see only committed
// state.
type Store interface {
	View(ctx context.Context, fn func(tx ReadTx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
}
