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

// Transfer moves amount from the caller to another account. Blocked while
// paused. All five guards run before anything changes: freeze state,
// spendable balance, recipient verification, compliance decision, then the
// commit.
func (s *Service) Transfer(ctx context.Context, to domain.Address, amount uint64) error {
	from := requestcontext.Actor(ctx)
	if from.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not authenticated")
	}
	return s.transfer(ctx, from, to, amount)
}

// TransferFrom moves amount from one account to another on the strength of
// a pre-approved allowance held by the caller. The allowance is decremented
// in the same transaction as the balance movement.
func (s *Service) TransferFrom(ctx context.Context, from, to domain.Address, amount uint64) error {
	spender := requestcontext.Actor(ctx)
	if spender.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not authenticated")
	}
	if from.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "sender cannot be the zero address")
	}
	return s.transferWithSpender(ctx, from, to, amount, spender)
}

func (s *Service) transfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	return s.transferWithSpender(ctx, from, to, amount, domain.ZeroAddress)
}

func (s *Service) transferWithSpender(ctx context.Context, from, to domain.Address, amount uint64, spender domain.Address) error {
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient cannot be the zero address")
	}
	if from == to {
		// The commit below works on two account copies; aliasing them would
		// let the credit overwrite the debit.
		return dErrors.New(dErrors.CodeInvalidInput, "sender and recipient must differ")
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireNotPaused(tx); err != nil {
			return err
		}
		if !spender.IsZero() {
			allowance := tx.Allowance(from, spender)
			if allowance < amount {
				return dErrors.New(dErrors.CodeCapacityExceeded, "insufficient allowance")
			}
			tx.PutAllowance(from, spender, allowance-amount)
		}

		sender := tx.Account(from)
		recipient := tx.Account(to)
		if sender.Frozen {
			return dErrors.New(dErrors.CodeStateConflict, "sender account is frozen")
		}
		if recipient.Frozen {
			return dErrors.New(dErrors.CodeStateConflict, "recipient account is frozen")
		}
		if err := sender.CanDebitSpendable(amount); err != nil {
			return dErrors.New(dErrors.CodeCapacityExceeded, "insufficient unfrozen balance")
		}
		if err := s.requireVerified(ctx, to); err != nil {
			return err
		}
		if !s.policy.CanTransfer(from, to, amount) {
			if s.metrics != nil {
				s.metrics.ComplianceDenials.Inc()
			}
			return dErrors.New(dErrors.CodeStateConflict, "transfer denied by compliance policy")
		}
		if err := recipient.CanCredit(amount); err != nil {
			return dErrors.New(dErrors.CodeCapacityExceeded, "recipient balance would overflow")
		}

		sender.ApplyDebit(amount)
		recipient.ApplyCredit(amount)
		tx.PutAccount(sender)
		tx.PutAccount(recipient)
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, "transferred", func() error {
		return s.policy.Transferred(ctx, s.ref, from, to, amount)
	})
	if s.metrics != nil {
		s.metrics.Transfers.Inc()
	}
	return nil
}

// Approve sets the caller's spending allowance for a spender. Standard
// allowance semantics: an approval replaces the previous value outright.
func (s *Service) Approve(ctx context.Context, spender domain.Address, amount uint64) error {
	owner := requestcontext.Actor(ctx)
	if owner.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not authenticated")
	}
	if spender.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "spender cannot be the zero address")
	}
	return s.store.Update(ctx, func(tx store.Tx) error {
		tx.PutAllowance(owner, spender, amount)
		return nil
	})
}

// ForcedTransfer moves amount between accounts on agent authority. It is a
// deliberate escape hatch for lost-wallet recovery: it bypasses recipient
// verification and the compliance decision, ignores freeze state, and
// requires only that the sender holds the balance. The recovery event is
// non-optional and names the acting agent.
func (s *Service) ForcedTransfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	actor := requestcontext.Actor(ctx)
	if from.IsZero() || to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "sender and recipient must be non-zero addresses")
	}
	if from == to {
		return dErrors.New(dErrors.CodeInvalidInput, "sender and recipient must differ")
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAgent); err != nil {
			return err
		}
		sender := tx.Account(from)
		if err := sender.CanDebit(amount); err != nil {
			return dErrors.New(dErrors.CodeCapacityExceeded, "insufficient balance")
		}
		recipient := tx.Account(to)
		if err := recipient.CanCredit(amount); err != nil {
			return dErrors.New(dErrors.CodeCapacityExceeded, "recipient balance would overflow")
		}
		// ApplyDebit clamps the frozen carve-out if recovery dips into it,
		// keeping frozenAmount <= balance.
		sender.ApplyDebit(amount)
		recipient.ApplyCredit(amount)
		tx.PutAccount(sender)
		tx.PutAccount(recipient)
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, "transferred", func() error {
		return s.policy.Transferred(ctx, s.ref, from, to, amount)
	})
	s.emit(ctx, audit.Event{
		Action:       audit.ActionRecoverySuccess,
		Account:      from,
		Counterparty: to,
		Amount:       amount,
		Actor:        actor,
	})
	if s.metrics != nil {
		s.metrics.ForcedTransfers.Inc()
	}
	return nil
}
