// Package storetest holds the behaviour every storage.Store must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("UserLifecycle", func(t *testing.T) { testUserLifecycle(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("TransactionCRUD", func(t *testing.T) { testTransactionCRUD(t, newStore(t)) })
	t.Run("OwnershipScopedWrites", func(t *testing.T) { testOwnershipScopedWrites(t, newStore(t)) })
	t.Run("ListFiltersAndOrder", func(t *testing.T) { testListFiltersAndOrder(t, newStore(t)) })
	t.Run("Aggregates", func(t *testing.T) { testAggregates(t, newStore(t)) })
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func mustUser(t *testing.T, s storage.Store, email string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{Name: "User " + email, Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	return u
}

func mustTx(t *testing.T, s storage.Store, userID int64, typ core.TransactionType, cents int64, category, note string, date time.Time) core.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), core.Transaction{
		UserID:   userID,
		Type:     typ,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Note:     note,
		Date:     date,
	})
	require.NoError(t, err)
	require.NotZero(t, tx.ID)
	return tx
}

func testUserLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "ann@example.com")

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, int64(0), got.MonthlyBudget.Cents)

	byEmail, err := s.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	got.Name = "Ann B"
	got.MonthlyBudget = core.Money{Cents: 50000}
	got.ProfileImage = "avatars/ann.png"
	_, err = s.UpdateUser(ctx, got)
	require.NoError(t, err)

	reloaded, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann B", reloaded.Name)
	assert.Equal(t, int64(50000), reloaded.MonthlyBudget.Cents)
	assert.Equal(t, "avatars/ann.png", reloaded.ProfileImage)

	_, err = s.GetUser(ctx, u.ID+100)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.UpdateUser(ctx, core.User{ID: u.ID + 100, Name: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mustUser(t, s, "a@example.com")
	b := mustUser(t, s, "b@example.com")

	_, err := s.CreateUser(ctx, core.User{Name: "dup", Email: "a@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, core.ErrConflict)

	b.Email = "a@example.com"
	_, err = s.UpdateUser(ctx, b)
	assert.ErrorIs(t, err, core.ErrConflict)

	// Keeping one's own email is not a conflict.
	b.Email = "b@example.com"
	_, err = s.UpdateUser(ctx, b)
	assert.NoError(t, err)
}

func testTransactionCRUD(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "crud@example.com")
	tx := mustTx(t, s, u.ID, core.Expense, 1250, "Food", "Lunch", day(2024, 1, 10))

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)
	assert.Equal(t, core.Expense, got.Type)
	assert.Equal(t, int64(1250), got.Amount.Cents)
	assert.Equal(t, "Lunch", got.Note)
	assert.True(t, got.Date.Equal(day(2024, 1, 10)), "date round-trip: %v", got.Date)

	got.Amount = core.Money{Cents: 1500}
	got.Category = "Restaurants"
	_, err = s.UpdateTransaction(ctx, got)
	require.NoError(t, err)

	reloaded, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), reloaded.Amount.Cents)
	assert.Equal(t, "Restaurants", reloaded.Category)

	require.NoError(t, s.DeleteTransaction(ctx, u.ID, tx.ID))
	_, err = s.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, u.ID, tx.ID), core.ErrNotFound)
}

func testOwnershipScopedWrites(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustUser(t, s, "owner@example.com")
	other := mustUser(t, s, "other@example.com")
	tx := mustTx(t, s, owner.ID, core.Income, 10000, "Salary", "", day(2024, 1, 5))

	hijack := tx
	hijack.UserID = other.ID
	hijack.Amount = core.Money{Cents: 1}
	_, err := s.UpdateTransaction(ctx, hijack)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, other.ID, tx.ID), core.ErrNotFound)

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Equal(t, int64(10000), got.Amount.Cents)
}

func testListFiltersAndOrder(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "list@example.com")
	other := mustUser(t, s, "noise@example.com")

	a := mustTx(t, s, u.ID, core.Income, 10000, "Salary", "January pay", day(2024, 1, 5))
	b := mustTx(t, s, u.ID, core.Expense, 4000, "Food", "GROCERIES at market", day(2024, 1, 10))
	c := mustTx(t, s, u.ID, core.Expense, 2000, "Food", "groceries", day(2024, 2, 3))
	d := mustTx(t, s, u.ID, core.Expense, 300, "Fun", "100% fun_stuff", day(2024, 2, 3))
	e := mustTx(t, s, u.ID, core.Expense, 850, "Food", "CAFÉ lunch", day(2024, 1, 2))
	mustTx(t, s, other.ID, core.Expense, 999, "Food", "groceries", day(2024, 2, 4))

	all, err := s.ListTransactions(ctx, u.ID, core.TransactionFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	// Same date: newer id first.
	assert.Equal(t, []int64{d.ID, c.ID, b.ID, a.ID, e.ID}, ids(all))

	incomes, err := s.ListTransactions(ctx, u.ID, core.TransactionFilter{Type: core.Income}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(incomes))

	food, err := s.ListTransactions(ctx, u.ID, core.TransactionFilter{Category: "Food"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, b.ID, e.ID}, ids(food))

	search, err := s.ListTransactions(ctx, u.ID, core.TransactionFilter{Search: "Groc"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, b.ID}, ids(search))

	for _, term := range []string{"café", "CAFÉ", "Café Lunch"} {
		accented, err := s.ListTransactions(ctx, u.ID, core.TransactionFilter{Search: term}, 0)
		require.NoError(t, err)
		assert.Equal(t, []int64{e.ID}, ids(accented), "search %q", term)
	}

	literal, err := s.ListTransactions(ctx, u.ID, core.TransactionFilter{Search: "0% fun_"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{d.ID}, ids(literal))

	noMatch, err := s.ListTransactions(ctx, u.ID, core.TransactionFilter{Search: "_%"}, 0)
	require.NoError(t, err)
	assert.Empty(t, noMatch)
	assert.NotNil(t, noMatch)

	limited, err := s.ListTransactions(ctx, u.ID, core.TransactionFilter{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{d.ID, c.ID}, ids(limited))
}

func testAggregates(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "agg@example.com")
	empty := mustUser(t, s, "empty@example.com")

	mustTx(t, s, u.ID, core.Income, 10000, "Salary", "", day(2024, 1, 5))
	mustTx(t, s, u.ID, core.Expense, 4000, "Food", "", day(2024, 1, 10))
	mustTx(t, s, u.ID, core.Expense, 2000, "Food", "", day(2024, 2, 3))
	mustTx(t, s, u.ID, core.Expense, 500, "Travel", "", day(2023, 6, 1))

	income, err := s.SumByType(ctx, u.ID, core.Income)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), income.Cents)
	expense, err := s.SumByType(ctx, u.ID, core.Expense)
	require.NoError(t, err)
	assert.Equal(t, int64(6500), expense.Cents)

	zero, err := s.SumByType(ctx, empty.ID, core.Income)
	require.NoError(t, err)
	assert.Equal(t, int64(0), zero.Cents)

	cats, err := s.ExpensesByCategory(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{
		{Category: "Food", Total: core.Money{Cents: 6000}},
		{Category: "Travel", Total: core.Money{Cents: 500}},
	}, cats)

	none, err := s.ExpensesByCategory(ctx, empty.ID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	from, to := core.TrendWindow(day(2024, 2, 15))
	dated, err := s.ExpensesBetween(ctx, u.ID, from, to)
	require.NoError(t, err)
	require.Len(t, dated, 2)
	assert.Equal(t, int64(4000), dated[0].Amount.Cents)
	assert.Equal(t, "2024-01", core.MonthKey(dated[0].Date))
	assert.Equal(t, int64(2000), dated[1].Amount.Cents)

	// The window end is exclusive.
	mustTx(t, s, u.ID, core.Expense, 700, "Food", "", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	dated, err = s.ExpensesBetween(ctx, u.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, dated, 2)
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}
