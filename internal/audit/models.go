package audit

import (
	"time"

	"github.com/google/uuid"

	"basalt/pkg/domain"
)

// Action names a ledger or identity event. The set mirrors the boundary
// observability contract: every state change emits exactly one of these.
type Action string

const (
	ActionAssetCreated    Action = "asset.created"
	ActionAssetUpdated    Action = "asset.updated"
	ActionTokenIssued     Action = "token.issued"
	ActionTokenBurned     Action = "token.burned"
	ActionAddressFrozen   Action = "address.frozen"
	ActionTokensFrozen    Action = "tokens.frozen"
	ActionTokensUnfrozen  Action = "tokens.unfrozen"
	ActionRecoverySuccess Action = "recovery.success"

	ActionIdentityRegistered Action = "identity.registered"
	ActionIdentityRemoved    Action = "identity.removed"
	ActionIdentityUpdated    Action = "identity.updated"
	ActionIdentityVerified   Action = "identity.verified"
	ActionIdentityUnverified Action = "identity.unverified"
	ActionCountryUpdated     Action = "identity.country_updated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Fields are a flat
// union across event kinds; an Action implies which fields are meaningful.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    Action         `json:"action"`
	Account   domain.Address `json:"account,omitempty"`
	// Counterparty is the recipient on transfers and recoveries.
	Counterparty domain.Address `json:"counterparty,omitempty"`
	// Actor is the admin/agent/minter whose call produced the event.
	Actor    domain.Address  `json:"actor,omitempty"`
	AssetKey domain.AssetKey `json:"asset_key,omitempty"`
	Name     string          `json:"name,omitempty"`
	Amount   uint64          `json:"amount,omitempty"`
	// TotalPriceUSD is a transparency field on issuance events
	// (amount * asset price); it is never used for accounting.
	TotalPriceUSD uint64             `json:"total_price_usd,omitempty"`
	PriceUSD      uint64             `json:"price_usd,omitempty"`
	PriceAED      uint64             `json:"price_aed,omitempty"`
	MaxSupply     uint64             `json:"max_supply,omitempty"`
	Flag          bool               `json:"flag,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	Country       domain.CountryCode `json:"country,omitempty"`
}
