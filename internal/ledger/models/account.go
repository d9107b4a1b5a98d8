package models

import (
	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
)

// Account is the balance record for one address.
//
// Invariants:
//   - Balance never goes negative (unsigned, all debits are guarded)
//   - FrozenAmount <= Balance at all times, enforced at every mutation
//   - Frozen blocks all transfer-initiated movement, in either direction
//
// FrozenAmount carves a portion out of Balance that cannot be spent even
// while the account is not fully frozen. The two freeze mechanisms are
// independent.
type Account struct {
	Address      domain.Address `json:"address"`
	Balance      uint64         `json:"balance"`
	Frozen       bool           `json:"frozen"`
	FrozenAmount uint64         `json:"frozen_amount"`
}

// Spendable returns the portion of the balance not carved out by a partial
// freeze.
func (a *Account) Spendable() uint64 {
	if a.FrozenAmount > a.Balance {
		// Never expected; the freeze invariant is enforced on every
		// mutation. Read it defensively anyway.
		return 0
	}
	return a.Balance - a.FrozenAmount
}

// CanCredit checks that crediting amount does not overflow the balance.
func (a *Account) CanCredit(amount uint64) error {
	if _, ok := addChecked(a.Balance, amount); !ok {
		return dErrors.New(dErrors.CodeInvariantViolation, "balance overflow")
	}
	return nil
}

// ApplyCredit adds amount to the balance. Call CanCredit first.
func (a *Account) ApplyCredit(amount uint64) {
	a.Balance += amount
}

// CanDebitSpendable checks that amount can leave the account without
// touching frozen tokens.
func (a *Account) CanDebitSpendable(amount uint64) error {
	if a.Spendable() < amount {
		return dErrors.New(dErrors.CodeInvariantViolation, "insufficient unfrozen balance")
	}
	return nil
}

// CanDebit checks the full balance, frozen portion included. Used by the
// agent recovery path and by redemption.
func (a *Account) CanDebit(amount uint64) error {
	if a.Balance < amount {
		return dErrors.New(dErrors.CodeInvariantViolation, "insufficient balance")
	}
	return nil
}

// ApplyDebit removes amount from the balance, clamping FrozenAmount down if
// the debit dips into the frozen carve-out. Callers that must not touch
// frozen tokens check CanDebitSpendable first; callers allowed to (forced
// transfer, burn) rely on the clamp to keep FrozenAmount <= Balance.
func (a *Account) ApplyDebit(amount uint64) {
	a.Balance -= amount
	if a.FrozenAmount > a.Balance {
		a.FrozenAmount = a.Balance
	}
}

// CanFreeze checks that amount more tokens can be carved out of the
// balance.
func (a *Account) CanFreeze(amount uint64) error {
	next, ok := addChecked(a.FrozenAmount, amount)
	if !ok || a.Balance < next {
		return dErrors.New(dErrors.CodeInvariantViolation, "freeze amount exceeds balance")
	}
	return nil
}

// ApplyFreeze increments the frozen carve-out. Call CanFreeze first.
func (a *Account) ApplyFreeze(amount uint64) {
	a.FrozenAmount += amount
}

// CanUnfreeze checks that amount tokens are currently frozen.
func (a *Account) CanUnfreeze(amount uint64) error {
	if a.FrozenAmount < amount {
		return dErrors.New(dErrors.CodeInvariantViolation, "unfreeze amount exceeds frozen balance")
	}
	return nil
}

// ApplyUnfreeze decrements the frozen carve-out. Call CanUnfreeze first.
func (a *Account) ApplyUnfreeze(amount uint64) {
	a.FrozenAmount -= amount
}
