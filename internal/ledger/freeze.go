package ledger

import (
	"context"

	"basalt/internal/audit"
	"basalt/internal/ledger/models"
	"basalt/internal/ledger/store"
	"basalt/pkg/domain"
	dErrors "basalt/pkg/domain-errors"
	"basalt/pkg/requestcontext"
)

// SetFrozen sets or clears the full-freeze flag on an account. Agent role.
// Unconditional: freezing an already-frozen account is a no-op, not an
// error.
func (s *Service) SetFrozen(ctx context.Context, account domain.Address, frozen bool) error {
	actor := requestcontext.Actor(ctx)
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "account cannot be the zero address")
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAgent); err != nil {
			return err
		}
		acct := tx.Account(account)
		acct.Frozen = frozen
		tx.PutAccount(acct)
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Action:  audit.ActionAddressFrozen,
		Account: account,
		Flag:    frozen,
		Actor:   actor,
	})
	return nil
}

// FreezePartial carves amount out of the account's balance so it cannot be
// spent. Agent role.
func (s *Service) FreezePartial(ctx context.Context, account domain.Address, amount uint64) error {
	actor := requestcontext.Actor(ctx)
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "account cannot be the zero address")
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAgent); err != nil {
			return err
		}
		acct := tx.Account(account)
		if err := acct.CanFreeze(amount); err != nil {
			return dErrors.New(dErrors.CodeCapacityExceeded, "freeze amount exceeds balance")
		}
		acct.ApplyFreeze(amount)
		tx.PutAccount(acct)
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Action:  audit.ActionTokensFrozen,
		Account: account,
		Amount:  amount,
		Actor:   actor,
	})
	return nil
}

// UnfreezePartial releases amount of the frozen carve-out. Agent role.
func (s *Service) UnfreezePartial(ctx context.Context, account domain.Address, amount uint64) error {
	actor := requestcontext.Actor(ctx)
	if account.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "account cannot be the zero address")
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAgent); err != nil {
			return err
		}
		acct := tx.Account(account)
		if err := acct.CanUnfreeze(amount); err != nil {
			return dErrors.New(dErrors.CodeCapacityExceeded, "unfreeze amount exceeds frozen balance")
		}
		acct.ApplyUnfreeze(amount)
		tx.PutAccount(acct)
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Action:  audit.ActionTokensUnfrozen,
		Account: account,
		Amount:  amount,
		Actor:   actor,
	})
	return nil
}
