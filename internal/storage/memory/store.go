// Package memory is a non-persistent lottery.Store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/lotto/internal/lottery"
	"github.com/cory-johannsen/lotto/internal/lotto/period"
	"github.com/cory-johannsen/lotto/internal/lotto/result"
	"github.com/cory-johannsen/lotto/internal/lotto/ticket"
)

// Store keeps every record in process memory behind a single mutex.
type Store struct {
	mu        sync.RWMutex
	draws     map[string]period.Draw
	results   []result.Result
	purchases []ticket.Purchase
	index     map[string]int
}

var _ lottery.Store = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		draws: make(map[string]period.Draw),
		index: make(map[string]int),
	}
}

// OpenDraw implements lottery.Store.
func (s *Store) OpenDraw(_ context.Context) (period.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.draws {
		if d.Active {
			return d, nil
		}
	}
	return period.Draw{}, lottery.ErrNoOpenDraw
}

// CreateDraw implements lottery.Store.
func (s *Store) CreateDraw(_ context.Context, d period.Draw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.draws[d.ID]; ok {
		return fmt.Errorf("%w: %s", lottery.ErrDrawExists, d.ID)
	}
	if d.Active && s.hasOpenLocked() {
		return fmt.Errorf("%w: another draw is open", lottery.ErrDrawExists)
	}
	s.draws[d.ID] = d
	return nil
}

// Announce implements lottery.Store.
func (s *Store) Announce(_ context.Context, r result.Result, next period.Draw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.draws[r.DrawID]
	if !ok || !current.Active {
		return fmt.Errorf("%w: %s", lottery.ErrDrawClosed, r.DrawID)
	}
	if _, ok := s.draws[next.ID]; ok {
		return fmt.Errorf("%w: %s", lottery.ErrDrawExists, next.ID)
	}
	current.Active = false
	s.draws[current.ID] = current
	next.Active = true
	s.draws[next.ID] = next
	s.results = append(s.results, cloneResult(r))
	return nil
}

// LatestResult implements lottery.Store.
func (s *Store) LatestResult(_ context.Context) (result.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.results) == 0 {
		return result.Result{}, lottery.ErrNotAnnounced
	}
	return cloneResult(s.results[len(s.results)-1]), nil
}

// ResultForDraw implements lottery.Store.
func (s *Store) ResultForDraw(_ context.Context, drawID string) (result.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.results) - 1; i >= 0; i-- {
		if s.results[i].DrawID == drawID {
			return cloneResult(s.results[i]), nil
		}
	}
	return result.Result{}, lottery.ErrNotAnnounced
}

// SavePurchase implements lottery.Store.
func (s *Store) SavePurchase(_ context.Context, p ticket.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[p.ID]; ok {
		return fmt.Errorf("purchase %s already exists", p.ID)
	}
	s.index[p.ID] = len(s.purchases)
	s.purchases = append(s.purchases, clonePurchase(p))
	return nil
}

// Purchase implements lottery.Store.
func (s *Store) Purchase(_ context.Context, id string) (ticket.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return ticket.Purchase{}, lottery.ErrPurchaseNotFound
	}
	return clonePurchase(s.purchases[i]), nil
}

// Purchases implements lottery.Store.
func (s *Store) Purchases(_ context.Context, limit int) ([]ticket.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirstLocked(func(ticket.Purchase) bool { return true }, limit), nil
}

// PurchasesForDraw implements lottery.Store.
func (s *Store) PurchasesForDraw(_ context.Context, drawID string) ([]ticket.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirstLocked(func(p ticket.Purchase) bool { return p.DrawID == drawID }, 0), nil
}

// RecordCheck implements lottery.Store.
func (s *Store) RecordCheck(_ context.Context, p ticket.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[p.ID]
	if !ok {
		return lottery.ErrPurchaseNotFound
	}
	stored := s.purchases[i]
	for j := range stored.Entries {
		if j < len(p.Entries) {
			stored.Entries[j].Status = p.Entries[j].Status
		}
	}
	stored.Status = p.Status
	stored.CheckedDrawID = p.CheckedDrawID
	if p.LastCheckedAt != nil {
		at := *p.LastCheckedAt
		stored.LastCheckedAt = &at
	}
	s.purchases[i] = stored
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) hasOpenLocked() bool {
	for _, d := range s.draws {
		if d.Active {
			return true
		}
	}
	return false
}

func (s *Store) newestFirstLocked(keep func(ticket.Purchase) bool, limit int) []ticket.Purchase {
	out := make([]ticket.Purchase, 0, len(s.purchases))
	for i := len(s.purchases) - 1; i >= 0; i-- {
		if keep(s.purchases[i]) {
			out = append(out, clonePurchase(s.purchases[i]))
		}
	}
	// later insertions win timestamp ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func clonePurchase(p ticket.Purchase) ticket.Purchase {
	p.Entries = append([]ticket.Entry(nil), p.Entries...)
	if p.LastCheckedAt != nil {
		at := *p.LastCheckedAt
		p.LastCheckedAt = &at
	}
	return p
}

func cloneResult(r result.Result) result.Result {
	r.FrontPair = append([]string(nil), r.FrontPair...)
	r.BackPair = append([]string(nil), r.BackPair...)
	return r
}
