package store

import (
	"context"
	"sync"

	"basalt/internal/ledger/models"
	"basalt/pkg/domain"
)

type holdingKey struct {
	account domain.Address
	asset   domain.AssetKey
}

type allowanceKey struct {
	owner   domain.Address
	spender domain.Address
}

type roleKey struct {
	account domain.Address
	role    models.Role
}

// Memory is the in-memory ledger store. A single RWMutex serializes
// writers, which is exactly the one-mutating-call-at-a-time execution model
// the ledger assumes; readers share the lock and therefore always see a
// committed snapshot.
//
// Update stages writes in an overlay and folds them into the base maps only
// when the callback returns nil, so a failed validation can never leave a
// partial mutation behind.
type Memory struct {
	mu         sync.RWMutex
	accounts   map[domain.Address]models.Account
	assets     map[domain.AssetKey]models.Asset
	holdings   map[holdingKey]uint64
	allowances map[allowanceKey]uint64
	roles      map[roleKey]bool
	paused     bool
}

func NewMemory() *Memory {
	return &Memory{
		accounts:   make(map[domain.Address]models.Account),
		assets:     make(map[domain.AssetKey]models.Asset),
		holdings:   make(map[holdingKey]uint64),
		allowances: make(map[allowanceKey]uint64),
		roles:      make(map[roleKey]bool),
	}
}

func (m *Memory) View(_ context.Context, fn func(tx ReadTx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&readTx{base: m})
}

func (m *Memory) Update(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := newWriteTx(m)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// readTx reads committed state directly. Only valid while the store lock is
// held.
type readTx struct {
	base *Memory
}

func (t *readTx) Account(addr domain.Address) models.Account {
	if account, ok := t.base.accounts[addr]; ok {
		return account
	}
	return models.Account{Address: addr}
}

func (t *readTx) Asset(key domain.AssetKey) (models.Asset, bool) {
	asset, ok := t.base.assets[key]
	return asset, ok
}

func (t *readTx) Holding(addr domain.Address, key domain.AssetKey) uint64 {
	return t.base.holdings[holdingKey{account: addr, asset: key}]
}

func (t *readTx) Allowance(owner, spender domain.Address) uint64 {
	return t.base.allowances[allowanceKey{owner: owner, spender: spender}]
}

func (t *readTx) HasRole(addr domain.Address, role models.Role) bool {
	return t.base.roles[roleKey{account: addr, role: role}]
}

func (t *readTx) Paused() bool {
	return t.base.paused
}

// writeTx overlays staged writes on the committed state.
type writeTx struct {
	base       *Memory
	accounts   map[domain.Address]models.Account
	assets     map[domain.AssetKey]models.Asset
	holdings   map[holdingKey]uint64
	allowances map[allowanceKey]uint64
	roles      map[roleKey]bool
	paused     bool
	pausedSet  bool
}

func newWriteTx(base *Memory) *writeTx {
	return &writeTx{
		base:       base,
		accounts:   make(map[domain.Address]models.Account),
		assets:     make(map[domain.AssetKey]models.Asset),
		holdings:   make(map[holdingKey]uint64),
		allowances: make(map[allowanceKey]uint64),
		roles:      make(map[roleKey]bool),
	}
}

func (t *writeTx) Account(addr domain.Address) models.Account {
	if account, ok := t.accounts[addr]; ok {
		return account
	}
	if account, ok := t.base.accounts[addr]; ok {
		return account
	}
	return models.Account{Address: addr}
}

func (t *writeTx) Asset(key domain.AssetKey) (models.Asset, bool) {
	if asset, ok := t.assets[key]; ok {
		return asset, true
	}
	asset, ok := t.base.assets[key]
	return asset, ok
}

func (t *writeTx) Holding(addr domain.Address, key domain.AssetKey) uint64 {
	k := holdingKey{account: addr, asset: key}
	if amount, ok := t.holdings[k]; ok {
		return amount
	}
	return t.base.holdings[k]
}

func (t *writeTx) Allowance(owner, spender domain.Address) uint64 {
	k := allowanceKey{owner: owner, spender: spender}
	if amount, ok := t.allowances[k]; ok {
		return amount
	}
	return t.base.allowances[k]
}

func (t *writeTx) HasRole(addr domain.Address, role models.Role) bool {
	k := roleKey{account: addr, role: role}
	if granted, ok := t.roles[k]; ok {
		return granted
	}
	return t.base.roles[k]
}

func (t *writeTx) Paused() bool {
	if t.pausedSet {
		return t.paused
	}
	return t.base.paused
}

func (t *writeTx) PutAccount(account models.Account) {
	t.accounts[account.Address] = account
}

func (t *writeTx) PutAsset(asset models.Asset) {
	t.assets[asset.Key] = asset
}

func (t *writeTx) PutHolding(addr domain.Address, key domain.AssetKey, amount uint64) {
	t.holdings[holdingKey{account: addr, asset: key}] = amount
}

func (t *writeTx) PutAllowance(owner, spender domain.Address, amount uint64) {
	t.allowances[allowanceKey{owner: owner, spender: spender}] = amount
}

func (t *writeTx) SetRole(addr domain.Address, role models.Role, granted bool) {
	t.roles[roleKey{account: addr, role: role}] = granted
}

func (t *writeTx) SetPaused(paused bool) {
	t.paused = paused
	t.pausedSet = true
}

func (t *writeTx) commit() {
	for addr, account := range t.accounts {
		t.base.accounts[addr] = account
	}
	for key, asset := range t.assets {
		t.base.assets[key] = asset
	}
	for k, amount := range t.holdings {
		t.base.holdings[k] = amount
	}
	for k, amount := range t.allowances {
		t.base.allowances[k] = amount
	}
	for k, granted := range t.roles {
		t.base.roles[k] = granted
	}
	if t.pausedSet {
		t.base.paused = t.paused
	}
}
