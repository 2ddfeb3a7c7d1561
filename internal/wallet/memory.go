package wallet

import (
	"context"
	"sync"
	"time"
)

// MemoryService keeps the full ledger in process memory. Suitable for
// tests and single-binary play money deployments.
type MemoryService struct {
	mu       sync.Mutex
	balances map[string]int64
	applied  map[string]struct{} // uid + "\x00" + ref
	history  map[string][]Transaction
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		balances: make(map[string]int64),
		applied:  make(map[string]struct{}),
		history:  make(map[string][]Transaction),
	}
}

func (s *MemoryService) Balance(_ context.Context, uid string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[uid], nil
}

func (s *MemoryService) Credit(_ context.Context, uid string, amount int64, ref, memo string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.apply(uid, amount, ref, memo)
}

func (s *MemoryService) Debit(_ context.Context, uid string, amount int64, ref, memo string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	_, seen := s.balances[uid]
	s.mu.Unlock()
	if !seen {
		return 0, ErrUnknownAccount
	}
	return s.apply(uid, -amount, ref, memo)
}

func (s *MemoryService) apply(uid string, delta int64, ref, memo string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := uid + "\x00" + ref
	if ref != "" {
		if _, done := s.applied[key]; done {
			return s.balances[uid], nil
		}
	}
	next := s.balances[uid] + delta
	if next < 0 {
		return 0, ErrInsufficientFunds
	}
	s.balances[uid] = next
	if ref != "" {
		s.applied[key] = struct{}{}
	}
	s.history[uid] = append(s.history[uid], Transaction{
		UID:          uid,
		Amount:       delta,
		BalanceAfter: next,
		Ref:          ref,
		Memo:         memo,
		CreatedAt:    time.Now(),
	})
	return next, nil
}

func (s *MemoryService) Recent(_ context.Context, uid string, limit int) ([]Transaction, error) {
	limit = clampRecentLimit(limit)
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.history[uid]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	// Newest first, matching the sqlite backend's ordering.
	out := make([]Transaction, len(all))
	for i, tx := range all {
		out[len(all)-1-i] = tx
	}
	return out, nil
}

func (s *MemoryService) Close() error { return nil }
