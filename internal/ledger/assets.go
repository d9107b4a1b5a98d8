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

// CreateAsset registers a new issuance line. Admin only. Asset keys are
// created once; recreating an existing key is a conflict, not an update.
func (s *Service) CreateAsset(ctx context.Context, key domain.AssetKey, name, metadataRef string, priceUSD, priceAED, maxSupply uint64) error {
	if key == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "asset key cannot be empty")
	}
	if maxSupply == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "max supply must be positive")
	}
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAdmin); err != nil {
			return err
		}
		if _, ok := tx.Asset(key); ok {
			return dErrors.New(dErrors.CodeConflict, "asset already exists")
		}
		asset, err := models.NewAsset(key, name, metadataRef, priceUSD, priceAED, maxSupply, now)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, err.Error())
		}
		tx.PutAsset(asset)
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionAssetCreated,
		AssetKey:  key,
		Name:      name,
		PriceUSD:  priceUSD,
		PriceAED:  priceAED,
		MaxSupply: maxSupply,
	})
	return nil
}

// AssetUpdate carries the mutable asset fields for UpdateAsset. A MaxSupply
// of zero means "leave the cap unchanged"; it is never a real cap.
type AssetUpdate struct {
	Name        string
	MetadataRef string
	PriceUSD    uint64
	PriceAED    uint64
	MaxSupply   uint64
}

// UpdateAsset rewrites an asset's metadata and optionally its supply cap.
// Admin only. The cap can be raised freely but never set below the current
// minted supply.
func (s *Service) UpdateAsset(ctx context.Context, key domain.AssetKey, update AssetUpdate) error {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	var updated models.Asset
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAdmin); err != nil {
			return err
		}
		asset, ok := tx.Asset(key)
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		if update.MaxSupply != 0 {
			if err := asset.CanSetCap(update.MaxSupply); err != nil {
				return dErrors.New(dErrors.CodeCapacityExceeded, "new cap is below minted supply")
			}
			asset.ApplySetCap(update.MaxSupply, now)
		}
		asset.Name = update.Name
		asset.MetadataRef = update.MetadataRef
		asset.PriceUSD = update.PriceUSD
		asset.PriceAED = update.PriceAED
		asset.UpdatedAt = now
		tx.PutAsset(asset)
		updated = asset
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionAssetUpdated,
		AssetKey:  key,
		Name:      updated.Name,
		PriceUSD:  updated.PriceUSD,
		PriceAED:  updated.PriceAED,
		MaxSupply: updated.MaxSupply,
		Flag:      updated.Active,
	})
	return nil
}

// SetAssetActive gates further minting of an asset. Admin only. Inactive
// assets keep their balances and can still be burned.
func (s *Service) SetAssetActive(ctx context.Context, key domain.AssetKey, active bool) error {
	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	var updated models.Asset
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := requireRole(tx, actor, models.RoleAdmin); err != nil {
			return err
		}
		asset, ok := tx.Asset(key)
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		asset.Active = active
		asset.UpdatedAt = now
		tx.PutAsset(asset)
		updated = asset
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionAssetUpdated,
		AssetKey:  key,
		Name:      updated.Name,
		PriceUSD:  updated.PriceUSD,
		PriceAED:  updated.PriceAED,
		MaxSupply: updated.MaxSupply,
		Flag:      updated.Active,
	})
	return nil
}

// GetAsset returns an asset by key.
func (s *Service) GetAsset(ctx context.Context, key domain.AssetKey) (models.Asset, error) {
	var asset models.Asset
	err := s.store.View(ctx, func(tx store.ReadTx) error {
		a, ok := tx.Asset(key)
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "asset not found")
		}
		asset = a
		return nil
	})
	return asset, err
}
