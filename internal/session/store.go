// Package session keeps loaded datasets in memory for the lifetime of a
// dashboard session.
package session

import (
	"time"

	"github.com/google/uuid"

	"mfdash/internal/cache"
	"mfdash/internal/core"
	"mfdash/internal/reconcile"
)

// Dataset is one load: reconciled expenses and refunds plus the pairs that
// cancelled each other.
type Dataset struct {
	ID       string
	Files    []string
	LoadedAt time.Time
	Rows     int
	Expenses []core.Expense
	Refunds  []core.Expense
	Pairs    []reconcile.Pair
}

// Store holds datasets in an LRU cache with TTL; nothing is persisted.
type Store struct {
	datasets *cache.LRUCache[*Dataset]
}

func NewStore(maxSessions int, ttl time.Duration) *Store {
	return &Store{datasets: cache.NewLRUCache[*Dataset](maxSessions, ttl)}
}

// Cleaner exposes the underlying cache to a cache.Manager.
func (s *Store) Cleaner() cache.Cleaner {
	return s.datasets
}

// Put stores d under a fresh ID unless it already has one.
func (s *Store) Put(d *Dataset) string {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	s.datasets.Set(d.ID, d)
	return d.ID
}

// Get returns the dataset and extends its lifetime.
func (s *Store) Get(id string) (*Dataset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.ErrSessionNotFound
	}
	d, ok := s.datasets.Get(id)
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	s.datasets.Touch(id)
	return d, nil
}

func (s *Store) Delete(id string) {
	s.datasets.Delete(id)
}

func (s *Store) Len() int {
	return s.datasets.Size()
}
