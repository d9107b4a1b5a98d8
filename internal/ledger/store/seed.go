package store

import (
	"context"

	"basalt/internal/ledger/models"
	"basalt/pkg/domain"
)

// SeedAdmin grants the Admin role outside the service's authorization path.
// Used once at startup so the ledger is never born without an
// administrator able to grant further roles.
func SeedAdmin(ctx context.Context, s Store, admin domain.Address) error {
	if admin.IsZero() {
		return nil
	}
	return s.Update(ctx, func(tx Tx) error {
		tx.SetRole(admin, models.RoleAdmin, true)
		return nil
	})
}
