// Package memory provides an in-memory epf.Store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/networth/epf"
	"github.com/warp/networth/generic"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	accounts map[generic.AccountID]epf.Account
	order    []generic.AccountID // insertion order, for stable ties
	rates    epf.RateSchedule
}

var _ epf.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		accounts: make(map[generic.AccountID]epf.Account),
		rates:    epf.RateSchedule{},
	}
}

func (m *Memory) CreateAccount(_ context.Context, a epf.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[a.ID]; exists {
		return generic.ErrDuplicateAccount
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	m.accounts[a.ID] = a
	m.order = append(m.order, a.ID)
	return nil
}

func (m *Memory) GetAccount(_ context.Context, userID generic.UserID, id generic.AccountID) (epf.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return epf.Account{}, generic.ErrAccountNotFound
	}
	return a, nil
}

func (m *Memory) ListAccounts(_ context.Context, userID generic.UserID) ([]epf.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []epf.Account{}
	for _, id := range m.order {
		if a := m.accounts[id]; a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

func (m *Memory) UpdateAccount(_ context.Context, a epf.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[a.ID]
	if !ok || existing.UserID != a.UserID {
		return generic.ErrAccountNotFound
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, userID generic.UserID, id generic.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return generic.ErrAccountNotFound
	}
	delete(m.accounts, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) SaveRates(_ context.Context, rates epf.RateSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rates = make(epf.RateSchedule, len(rates))
	for y, r := range rates {
		m.rates[y] = r
	}
	return nil
}

func (m *Memory) LoadRates(_ context.Context) (epf.RateSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(epf.RateSchedule, len(m.rates))
	for y, r := range m.rates {
		out[y] = r
	}
	return out, nil
}

// Reset drops all accounts and rates.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts = make(map[generic.AccountID]epf.Account)
	m.order = nil
	m.rates = epf.RateSchedule{}
	return nil
}
