// Package memory is an in-process ledger.Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/loan"
)

type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]core.Transaction
	sims  map[string]loan.Saved
}

func New() *Store {
	return &Store{
		now:   time.Now,
		items: make(map[string]core.Transaction),
		sims:  make(map[string]loan.Saved),
	}
}

// Seed inserts transactions for ownerID, skipping invalid ones.
func (s *Store) Seed(ctx context.Context, ownerID string, txs []core.Transaction) int {
	n := 0
	for _, tx := range txs {
		tx.OwnerID = ownerID
		if _, err := s.Create(ctx, tx); err == nil {
			n++
		}
	}
	return n
}

func (s *Store) Create(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	s.items[tx.ID] = tx
	return tx, nil
}

func (s *Store) Update(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[tx.ID]
	if !ok || cur.OwnerID != tx.OwnerID {
		return core.Transaction{}, ledger.ErrNotFound
	}
	tx.CreatedAt = cur.CreatedAt
	tx.UpdatedAt = s.now().UTC()
	if tx.LastOccurrence.IsZero() {
		tx.LastOccurrence = cur.LastOccurrence
	}
	s.items[tx.ID] = tx
	return tx, nil
}

func (s *Store) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok || cur.OwnerID != ownerID {
		return ledger.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Get(_ context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[id]
	if !ok || tx.OwnerID != ownerID {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return tx, nil
}

func (s *Store) List(_ context.Context, ownerID string, f ledger.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.items {
		if tx.OwnerID == ownerID && f.Match(tx) {
			out = append(out, tx)
		}
	}
	s.mu.Unlock()
	sortTransactions(out)
	return out, nil
}

func (s *Store) ListRecurring(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.items {
		if tx.IsRecurring {
			out = append(out, tx)
		}
	}
	s.mu.Unlock()
	sortTransactions(out)
	return out, nil
}

func (s *Store) MarkOccurrence(_ context.Context, ownerID, id string, last core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[id]
	if !ok || tx.OwnerID != ownerID {
		return ledger.ErrNotFound
	}
	tx.LastOccurrence = last
	tx.UpdatedAt = s.now().UTC()
	s.items[id] = tx
	return nil
}

func (s *Store) SaveSimulation(_ context.Context, sim loan.Saved) (loan.Saved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim.ID = uuid.NewString()
	sim.CreatedAt = s.now().UTC()
	s.sims[sim.ID] = sim
	return sim, nil
}

func (s *Store) ListSimulations(_ context.Context, ownerID string) ([]loan.Saved, error) {
	s.mu.Lock()
	out := make([]loan.Saved, 0)
	for _, sim := range s.sims {
		if sim.OwnerID == ownerID {
			out = append(out, sim)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteSimulation(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.sims[id]
	if !ok || sim.OwnerID != ownerID {
		return ledger.ErrNotFound
	}
	delete(s.sims, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func sortTransactions(txs []core.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
