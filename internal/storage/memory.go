package storage

import (
	"context"
	"math/big"

	"github.com/lending-indexer/internal/models"
	"github.com/lending-indexer/internal/types"
)

// MemoryStore is an in-memory entity store. It backs unit tests and local
// runs without a database; access is single-writer like the engine itself,
// so there is no locking.
type MemoryStore struct {
	protocols  map[string]models.Protocol
	markets    map[string]models.Market
	tokens     map[string]models.Token
	classes    map[string]models.CollateralClass
	accounts   map[string]models.Account
	active     map[string]models.ActiveAccount
	usage      map[string]models.UsageSnapshot
	financials map[string]models.FinancialsSnapshot
	ledger     map[string]models.LedgerEntry
	ledgerIDs  []string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		protocols:  make(map[string]models.Protocol),
		markets:    make(map[string]models.Market),
		tokens:     make(map[string]models.Token),
		classes:    make(map[string]models.CollateralClass),
		accounts:   make(map[string]models.Account),
		active:     make(map[string]models.ActiveAccount),
		usage:      make(map[string]models.UsageSnapshot),
		financials: make(map[string]models.FinancialsSnapshot),
		ledger:     make(map[string]models.LedgerEntry),
	}
}

// usageKey scopes usage snapshot ids by granularity so day "19723" and hour
// "19723-0" can never collide with each other across kinds
func usageKey(granularity types.Granularity, id string) string {
	return string(granularity) + ":" + id
}

// GetProtocol returns the protocol with the given id, or nil when absent
func (s *MemoryStore) GetProtocol(_ context.Context, id string) (*models.Protocol, error) {
	p, ok := s.protocols[id]
	if !ok {
		return nil, nil
	}
	p.MarketIDList = append([]string(nil), p.MarketIDList...)
	return &p, nil
}

// SaveProtocol stores a copy of p
func (s *MemoryStore) SaveProtocol(_ context.Context, p *models.Protocol) error {
	cp := *p
	cp.MarketIDList = append([]string(nil), p.MarketIDList...)
	s.protocols[p.ID] = cp
	return nil
}

// GetMarket returns the market with the given id, or nil when absent
func (s *MemoryStore) GetMarket(_ context.Context, id string) (*models.Market, error) {
	m, ok := s.markets[id]
	if !ok {
		return nil, nil
	}
	if m.InputTokenBalance != nil {
		m.InputTokenBalance = new(big.Int).Set(m.InputTokenBalance)
	}
	return &m, nil
}

// SaveMarket stores a copy of m
func (s *MemoryStore) SaveMarket(_ context.Context, m *models.Market) error {
	cp := *m
	if m.InputTokenBalance != nil {
		cp.InputTokenBalance = new(big.Int).Set(m.InputTokenBalance)
	}
	s.markets[m.ID] = cp
	return nil
}

// GetToken returns the token with the given id, or nil when absent
func (s *MemoryStore) GetToken(_ context.Context, id string) (*models.Token, error) {
	t, ok := s.tokens[id]
	if !ok {
		return nil, nil
	}
	if t.LastPriceUSD != nil {
		price := *t.LastPriceUSD
		t.LastPriceUSD = &price
	}
	return &t, nil
}

// SaveToken stores a copy of t
func (s *MemoryStore) SaveToken(_ context.Context, t *models.Token) error {
	cp := *t
	if t.LastPriceUSD != nil {
		price := *t.LastPriceUSD
		cp.LastPriceUSD = &price
	}
	s.tokens[t.ID] = cp
	return nil
}

// GetCollateralClass returns the mapping for the given class id, or nil
func (s *MemoryStore) GetCollateralClass(_ context.Context, id string) (*models.CollateralClass, error) {
	c, ok := s.classes[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// SaveCollateralClass stores a copy of c
func (s *MemoryStore) SaveCollateralClass(_ context.Context, c *models.CollateralClass) error {
	s.classes[c.ID] = *c
	return nil
}

// GetAccount returns the account marker, or nil when the address is new
func (s *MemoryStore) GetAccount(_ context.Context, id string) (*models.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// SaveAccount stores a copy of a
func (s *MemoryStore) SaveAccount(_ context.Context, a *models.Account) error {
	s.accounts[a.ID] = *a
	return nil
}

// GetActiveAccount returns the per-bucket activity marker, or nil
func (s *MemoryStore) GetActiveAccount(_ context.Context, id string) (*models.ActiveAccount, error) {
	a, ok := s.active[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// SaveActiveAccount stores a copy of a
func (s *MemoryStore) SaveActiveAccount(_ context.Context, a *models.ActiveAccount) error {
	s.active[a.ID] = *a
	return nil
}

// GetUsageSnapshot returns the usage snapshot for the bucket, or nil
func (s *MemoryStore) GetUsageSnapshot(_ context.Context, granularity types.Granularity, id string) (*models.UsageSnapshot, error) {
	snap, ok := s.usage[usageKey(granularity, id)]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// SaveUsageSnapshot stores a copy of snap
func (s *MemoryStore) SaveUsageSnapshot(_ context.Context, snap *models.UsageSnapshot) error {
	s.usage[usageKey(snap.Granularity, snap.ID)] = *snap
	return nil
}

// GetFinancialsSnapshot returns the daily financials snapshot, or nil
func (s *MemoryStore) GetFinancialsSnapshot(_ context.Context, id string) (*models.FinancialsSnapshot, error) {
	snap, ok := s.financials[id]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// SaveFinancialsSnapshot stores a copy of snap
func (s *MemoryStore) SaveFinancialsSnapshot(_ context.Context, snap *models.FinancialsSnapshot) error {
	s.financials[snap.ID] = *snap
	return nil
}

// HasLedgerEntry reports whether a ledger row with the given id exists
func (s *MemoryStore) HasLedgerEntry(_ context.Context, id string) (bool, error) {
	_, ok := s.ledger[id]
	return ok, nil
}

// InsertLedgerEntry appends one immutable ledger row
func (s *MemoryStore) InsertLedgerEntry(_ context.Context, e *models.LedgerEntry) error {
	cp := *e
	if e.Amount != nil {
		cp.Amount = new(big.Int).Set(e.Amount)
	}
	s.ledger[e.ID] = cp
	s.ledgerIDs = append(s.ledgerIDs, e.ID)
	return nil
}

// LedgerEntries returns all ledger rows in insertion order (test helper)
func (s *MemoryStore) LedgerEntries() []*models.LedgerEntry {
	out := make([]*models.LedgerEntry, 0, len(s.ledgerIDs))
	for _, id := range s.ledgerIDs {
		e := s.ledger[id]
		out = append(out, &e)
	}
	return out
}
