package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) actions() []amqp.EventAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventAction, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Action
	}
	return out
}

func money(cents int64) *core.Money { return &core.Money{Cents: cents} }

func ptr[T any](v T) *T { return &v }

func newUsers(t *testing.T, store *memory.Store, emails ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(emails))
	for _, e := range emails {
		u, err := store.CreateUser(context.Background(), core.User{Name: e, Email: e, PasswordHash: "x"})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	return ids
}

func TestTransactionServiceAdd(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)
	fixed := time.Date(2024, 2, 15, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	user := newUsers(t, store, "a@example.com")[0]

	tx, err := svc.Add(context.Background(), user, NewTransaction{
		Type:     core.Expense,
		Amount:   money(6000),
		Category: "  Food ",
		Note:     "Groceries",
	})
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
	assert.Equal(t, user, tx.UserID)
	assert.Equal(t, "Food", tx.Category)
	assert.True(t, tx.Date.Equal(fixed), "date defaults to now")
	assert.Equal(t, []amqp.EventAction{amqp.ActionCreated}, pub.actions())

	zero, err := svc.Add(context.Background(), user, NewTransaction{Type: core.Income, Amount: money(0), Category: "Gift"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), zero.Amount.Cents)

	cases := map[string]NewTransaction{
		"missing amount":  {Type: core.Expense, Category: "Food"},
		"negative amount": {Type: core.Expense, Amount: money(-1), Category: "Food"},
		"bad type":        {Type: "loan", Amount: money(100), Category: "Food"},
		"no category":     {Type: core.Expense, Amount: money(100), Category: " "},
	}
	for name, in := range cases {
		_, err := svc.Add(context.Background(), user, in)
		assert.ErrorIs(t, err, core.ErrValidation, name)
	}
	assert.Len(t, pub.actions(), 2, "rejected input publishes nothing")
}

func TestTransactionServicePublishFailureIsNotFatal(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, &recordingPublisher{err: errors.New("broker down")})
	user := newUsers(t, store, "a@example.com")[0]

	tx, err := svc.Add(context.Background(), user, NewTransaction{Type: core.Income, Amount: money(100), Category: "Salary"})
	require.NoError(t, err)

	got, err := store.GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Amount.Cents)
}

func TestTransactionServiceUpdate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)
	ids := newUsers(t, store, "a@example.com", "b@example.com")
	owner, intruder := ids[0], ids[1]

	tx, err := svc.Add(ctx, owner, NewTransaction{Type: core.Expense, Amount: money(4000), Category: "Food", Note: "Groceries"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, owner, tx.ID, TransactionPatch{Amount: money(4500), Note: ptr("Big groceries")})
	require.NoError(t, err)
	assert.Equal(t, int64(4500), updated.Amount.Cents)
	assert.Equal(t, "Big groceries", updated.Note)
	assert.Equal(t, "Food", updated.Category, "untouched fields are kept")

	_, err = svc.Update(ctx, intruder, tx.ID, TransactionPatch{Amount: money(1)})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.Update(ctx, owner, tx.ID+99, TransactionPatch{Amount: money(1)})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Update(ctx, owner, tx.ID, TransactionPatch{Amount: money(-5)})
	assert.ErrorIs(t, err, core.ErrValidation)

	income := core.Income
	_, err = svc.Update(ctx, owner, tx.ID, TransactionPatch{Type: &income})
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, int64(4500), got.Amount.Cents, "failed updates leave the record unchanged")
	assert.Equal(t, core.Income, got.Type)
	assert.Equal(t, []amqp.EventAction{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionUpdated}, pub.actions())
}

func TestTransactionServiceRemove(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)
	ids := newUsers(t, store, "a@example.com", "b@example.com")
	owner, intruder := ids[0], ids[1]

	tx, err := svc.Add(ctx, owner, NewTransaction{Type: core.Expense, Amount: money(2000), Category: "Food"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Remove(ctx, intruder, tx.ID), core.ErrUnauthorized)
	_, err = store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err, "foreign delete must not remove the record")

	require.NoError(t, svc.Remove(ctx, owner, tx.ID))
	assert.ErrorIs(t, svc.Remove(ctx, owner, tx.ID), core.ErrNotFound)

	// Once gone, a foreign caller sees NotFound too.
	assert.ErrorIs(t, svc.Remove(ctx, intruder, tx.ID), core.ErrNotFound)
	assert.Equal(t, []amqp.EventAction{amqp.ActionCreated, amqp.ActionDeleted}, pub.actions())
}

func TestTransactionServiceList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTransactionService(store, nil)
	ids := newUsers(t, store, "a@example.com", "b@example.com")
	a, b := ids[0], ids[1]

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	_, err := svc.Add(ctx, a, NewTransaction{Type: core.Income, Amount: money(10000), Category: "Salary", Date: day(5)})
	require.NoError(t, err)
	_, err = svc.Add(ctx, a, NewTransaction{Type: core.Expense, Amount: money(4000), Category: "Food", Note: "Groceries", Date: day(10)})
	require.NoError(t, err)
	_, err = svc.Add(ctx, b, NewTransaction{Type: core.Expense, Amount: money(999), Category: "Food", Note: "groceries", Date: day(11)})
	require.NoError(t, err)

	all, err := svc.List(ctx, a, core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Food", all[0].Category, "newest first")
	for _, tx := range all {
		assert.Equal(t, a, tx.UserID)
	}

	found, err := svc.List(ctx, a, core.TransactionFilter{Search: "groc"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Groceries", found[0].Note)

	expenses, err := svc.List(ctx, a, core.TransactionFilter{Type: core.Expense, Category: "Food"})
	require.NoError(t, err)
	assert.Len(t, expenses, 1)

	_, err = svc.List(ctx, a, core.TransactionFilter{Type: "refund"})
	assert.ErrorIs(t, err, core.ErrValidation)

	none, err := svc.List(ctx, b+100, core.TransactionFilter{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
