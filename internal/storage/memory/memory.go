// Package memory is a process-local ledger backend for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
)

type Store struct {
	mu     sync.Mutex
	users  map[int64]core.User
	txs    map[int64]core.Transaction
	nextTx int64
	nextU  int64
	now    func() time.Time
}

func New() *Store {
	return &Store{
		users: map[int64]core.User{},
		txs:   map[int64]core.Transaction{},
		now:   time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[tx.UserID]; !ok {
		return core.Transaction{}, fmt.Errorf("create transaction: owner %d: %w", tx.UserID, core.ErrNotFound)
	}
	s.nextTx++
	now := s.now().UTC()
	tx.ID = s.nextTx
	tx.Date = tx.Date.UTC()
	tx.CreatedAt, tx.UpdatedAt = now, now
	s.txs[tx.ID] = tx
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.txs[tx.ID]
	if !ok || cur.UserID != tx.UserID {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", tx.ID, core.ErrNotFound)
	}
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = cur.CreatedAt
	tx.UpdatedAt = s.now().UTC()
	s.txs[tx.ID] = tx
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.txs[id]
	if !ok || cur.UserID != userID {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, f core.TransactionFilter, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(f.Search)
	out := []core.Transaction{}
	for _, tx := range s.txs {
		if tx.UserID != userID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.Category != "" && tx.Category != f.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(tx.Note), search) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SumByType(_ context.Context, userID int64, t core.TransactionType) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.Type == t {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (s *Store) ExpensesByCategory(_ context.Context, userID int64) ([]core.CategoryAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := map[string]core.Money{}
	for _, tx := range s.txs {
		if tx.UserID == userID && tx.Type == core.Expense {
			sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
		}
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for cat, total := range sums {
		out = append(out, core.CategoryAmount{Category: cat, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (s *Store) ExpensesBetween(_ context.Context, userID int64, from, to time.Time) ([]core.DatedAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.DatedAmount{}
	for _, tx := range s.txs {
		if tx.UserID != userID || tx.Type != core.Expense {
			continue
		}
		if tx.Date.Before(from) || !tx.Date.Before(to) {
			continue
		}
		out = append(out, core.DatedAmount{Date: tx.Date, Amount: tx.Amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, 0) {
		return core.User{}, fmt.Errorf("email %q already registered: %w", u.Email, core.ErrConflict)
	}
	s.nextU++
	now := s.now().UTC()
	u.ID = s.nextU
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", email, core.ErrNotFound)
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return core.User{}, fmt.Errorf("user %d: %w", u.ID, core.ErrNotFound)
	}
	if s.emailTaken(u.Email, u.ID) {
		return core.User{}, fmt.Errorf("email %q already registered: %w", u.Email, core.ErrConflict)
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = s.now().UTC()
	s.users[u.ID] = u
	return u, nil
}

// emailTaken reports whether another user than except owns email. Callers hold mu.
func (s *Store) emailTaken(email string, except int64) bool {
	for id, u := range s.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}
