package storage

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports implemented by every ledger backend.
//
// Lookups of missing rows return an error wrapping core.ErrNotFound. Writes
// that would duplicate a user's email return one wrapping core.ErrConflict.
type (
	TransactionRepository interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		// UpdateTransaction rewrites the mutable fields of tx. The row must
		// exist and belong to tx.UserID.
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// DeleteTransaction removes id only if it belongs to userID.
		DeleteTransaction(ctx context.Context, userID, id int64) error
		// ListTransactions returns userID's rows newest first. limit <= 0 means no limit.
		ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter, limit int) ([]core.Transaction, error)
	}

	// SummaryReader provides the aggregates behind the dashboard.
	SummaryReader interface {
		SumByType(ctx context.Context, userID int64, t core.TransactionType) (core.Money, error)
		ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter, limit int) ([]core.Transaction, error)
		ExpensesByCategory(ctx context.Context, userID int64) ([]core.CategoryAmount, error)
		// ExpensesBetween returns expenses dated in [from, to), oldest first.
		ExpensesBetween(ctx context.Context, userID int64, from, to time.Time) ([]core.DatedAmount, error)
	}

	UserRepository interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
	}

	// Store is a complete backend.
	Store interface {
		TransactionRepository
		SummaryReader
		UserRepository
		Ping(ctx context.Context) error
		Close() error
	}
)
