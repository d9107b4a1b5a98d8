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

// Mint issues amount of an asset to a verified account. Minter role,
// blocked while paused.
func (s *Service) Mint(ctx context.Context, to domain.Address, key domain.AssetKey, amount uint64) error {
	actor := requestcontext.Actor(ctx)

	var priceUSD uint64
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleMinter); err != nil {
			return err
		}
		if err := requireNotPaused(tx); err != nil {
			return err
		}
		p, err := s.applyMint(ctx, tx, to, key, amount)
		if err != nil {
			return err
		}
		priceUSD = p
		return nil
	})
	if err != nil {
		return err
	}

	s.afterMint(ctx, to, key, amount, priceUSD)
	return nil
}

// BatchMint applies the single-mint procedure per entry. The batch is
// atomic: every entry is validated against the staged effects of the
// previous ones, and one failing entry aborts the whole batch with nothing
// committed.
func (s *Service) BatchMint(ctx context.Context, tos []domain.Address, keys []domain.AssetKey, amounts []uint64) error {
	actor := requestcontext.Actor(ctx)
	if len(tos) != len(keys) || len(tos) != len(amounts) {
		return dErrors.New(dErrors.CodeLengthMismatch, "batch input slices must have equal length")
	}

	prices := make([]uint64, len(tos))
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleMinter); err != nil {
			return err
		}
		if err := requireNotPaused(tx); err != nil {
			return err
		}
		for i := range tos {
			p, err := s.applyMint(ctx, tx, tos[i], keys[i], amounts[i])
			if err != nil {
				return err
			}
			prices[i] = p
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range tos {
		s.afterMint(ctx, tos[i], keys[i], amounts[i], prices[i])
	}
	return nil
}

// applyMint runs the per-entry issuance checks and stages the mutation.
// Returns the asset's unit price for the issuance event.
func (s *Service) applyMint(ctx context.Context, tx store.Tx, to domain.Address, key domain.AssetKey, amount uint64) (uint64, error) {
	if to.IsZero() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "recipient cannot be the zero address")
	}
	if amount == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	if err := s.requireVerified(ctx, to); err != nil {
		return 0, err
	}
	asset, ok := tx.Asset(key)
	if !ok {
		return 0, dErrors.New(dErrors.CodeNotFound, "asset not found")
	}
	if !asset.Active {
		return 0, dErrors.New(dErrors.CodeStateConflict, "asset is not active")
	}
	if err := asset.CanMint(amount); err != nil {
		return 0, dErrors.New(dErrors.CodeCapacityExceeded, "mint would exceed supply cap")
	}

	account := tx.Account(to)
	if err := account.CanCredit(amount); err != nil {
		return 0, dErrors.New(dErrors.CodeCapacityExceeded, "recipient balance would overflow")
	}

	asset.ApplyMint(amount)
	account.ApplyCredit(amount)
	tx.PutAsset(asset)
	tx.PutAccount(account)
	tx.PutHolding(to, key, tx.Holding(to, key)+amount)
	return asset.PriceUSD, nil
}

func (s *Service) afterMint(ctx context.Context, to domain.Address, key domain.AssetKey, amount, priceUSD uint64) {
	s.notify(ctx, "created", func() error {
		return s.policy.Created(ctx, s.ref, to, amount)
	})
	s.emit(ctx, audit.Event{
		Action:        audit.ActionTokenIssued,
		Account:       to,
		AssetKey:      key,
		Amount:        amount,
		TotalPriceUSD: models.MulSaturating(amount, priceUSD),
	})
	if s.metrics != nil {
		s.metrics.TokensIssued.WithLabelValues(key.String()).Add(float64(amount))
	}
}

// Burn redeems amount of an asset from an account. Admin role. Burn is
// deliberately not blocked by pause: redemption must remain available for
// exits even under an emergency pause.
func (s *Service) Burn(ctx context.Context, from domain.Address, key domain.AssetKey, amount uint64, reason string) error {
	actor := requestcontext.Actor(ctx)
	if from.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "account cannot be the zero address")
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAdmin); err != nil {
			return err
		}
		asset, ok := tx.Asset(key)
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		holding := tx.Holding(from, key)
		if holding < amount {
			return dErrors.New(dErrors.CodeCapacityExceeded, "insufficient asset balance")
		}
		account := tx.Account(from)
		if err := account.CanDebit(amount); err != nil {
			return dErrors.New(dErrors.CodeCapacityExceeded, "insufficient balance")
		}

		account.ApplyDebit(amount)
		// Clamp rather than underflow if holdings and supply ever drifted.
		asset.ApplyBurn(amount)
		tx.PutAccount(account)
		tx.PutAsset(asset)
		tx.PutHolding(from, key, holding-amount)
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, "destroyed", func() error {
		return s.policy.Destroyed(ctx, s.ref, from, amount)
	})
	s.emit(ctx, audit.Event{
		Action:   audit.ActionTokenBurned,
		Account:  from,
		AssetKey: key,
		Amount:   amount,
		Reason:   reason,
	})
	if s.metrics != nil {
		s.metrics.TokensBurned.WithLabelValues(key.String()).Add(float64(amount))
	}
	return nil
}
