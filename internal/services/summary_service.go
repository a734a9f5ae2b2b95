package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"

	"golang.org/x/sync/errgroup"
)

// SummaryService computes the dashboard aggregates of a user's ledger.
type SummaryService struct {
	reader storage.SummaryReader
	now    func() time.Time
	cache  cache.Cache[core.Summary]

	mu          sync.Mutex
	generations map[int64]uint64
}

// NewSummaryService builds the service. now defaults to time.Now.
func NewSummaryService(reader storage.SummaryReader, now func() time.Time) *SummaryService {
	if now == nil {
		now = time.Now
	}
	return &SummaryService{reader: reader, now: now, generations: map[int64]uint64{}}
}

// WithCache serves repeated summaries of a user from c until the entry
// expires or Invalidate drops it.
func (s *SummaryService) WithCache(c cache.Cache[core.Summary]) *SummaryService {
	s.cache = c
	return s
}

// Invalidate drops the cached summary of userID. A summary still being
// computed when Invalidate runs is never served from the cache.
func (s *SummaryService) Invalidate(userID int64) {
	if s.cache == nil {
		return
	}
	stale := s.cacheKey(userID, s.now())
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()
	s.cache.Delete(stale)
}

// cacheKey names the entry of userID for the month of now. Entries of older
// generations or months are never read again and age out of the cache.
func (s *SummaryService) cacheKey(userID int64, now time.Time) string {
	s.mu.Lock()
	gen := s.generations[userID]
	s.mu.Unlock()
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatUint(gen, 10) + ":" + core.MonthKey(now)
}

// Summarize returns the dashboard of userID, from the cache when one is set.
func (s *SummaryService) Summarize(ctx context.Context, userID int64) (core.Summary, error) {
	if s.cache == nil {
		return s.compute(ctx, userID, s.now())
	}
	now := s.now()
	key := s.cacheKey(userID, now)
	if sum, ok := s.cache.Get(key); ok {
		return sum, nil
	}
	sum, err := s.compute(ctx, userID, now)
	if err != nil {
		return core.Summary{}, err
	}
	s.cache.Set(key, sum)
	return sum, nil
}

// compute reads each aggregate concurrently. Every aggregate is a single
// store read; aggregates are not taken from one snapshot.
func (s *SummaryService) compute(ctx context.Context, userID int64, now time.Time) (core.Summary, error) {
	var (
		sum         core.Summary
		from, to    = core.TrendWindow(now)
		trendAmount []core.DatedAmount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.TotalIncome, err = s.reader.SumByType(gctx, userID, core.Income)
		return wrap("total income", err)
	})
	g.Go(func() (err error) {
		sum.TotalExpense, err = s.reader.SumByType(gctx, userID, core.Expense)
		return wrap("total expense", err)
	})
	g.Go(func() (err error) {
		sum.RecentTransactions, err = s.reader.ListTransactions(gctx, userID, core.TransactionFilter{}, core.RecentLimit)
		return wrap("recent transactions", err)
	})
	g.Go(func() (err error) {
		sum.CategoryBreakdown, err = s.reader.ExpensesByCategory(gctx, userID)
		return wrap("category breakdown", err)
	})
	g.Go(func() (err error) {
		trendAmount, err = s.reader.ExpensesBetween(gctx, userID, from, to)
		return wrap("monthly trend", err)
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}

	sum.Balance = sum.TotalIncome.Sub(sum.TotalExpense)
	sum.MonthlyTrend = monthlyTrend(trendAmount)
	if sum.RecentTransactions == nil {
		sum.RecentTransactions = []core.Transaction{}
	}
	if sum.CategoryBreakdown == nil {
		sum.CategoryBreakdown = []core.CategoryAmount{}
	}
	return sum, nil
}

// BudgetStatus compares budget with the current month's expenses in sum.
func (s *SummaryService) BudgetStatus(sum core.Summary, budget core.Money) core.BudgetStatus {
	current := core.MonthKey(s.now())
	var spent core.Money
	for _, m := range sum.MonthlyTrend {
		if m.Month == current {
			spent = m.Total
			break
		}
	}
	return core.NewBudgetStatus(budget, spent)
}

// monthlyTrend buckets amounts by calendar month, ascending. Months without
// expenses are omitted.
func monthlyTrend(amounts []core.DatedAmount) []core.MonthAmount {
	totals := map[string]core.Money{}
	for _, a := range amounts {
		key := core.MonthKey(a.Date)
		totals[key] = totals[key].Add(a.Amount)
	}
	out := make([]core.MonthAmount, 0, len(totals))
	for month, total := range totals {
		out = append(out, core.MonthAmount{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
