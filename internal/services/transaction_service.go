package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// EventPublisher receives a snapshot of every committed ledger change.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// NewTransaction is the validated input of TransactionService.Add.
type NewTransaction struct {
	Type      core.TransactionType
	Amount    *core.Money
	Category  string
	Note      string
	Date      time.Time // zero means now
	BillImage string
}

// TransactionPatch carries the fields a caller wants to change. Nil fields are kept.
type TransactionPatch struct {
	Type      *core.TransactionType
	Amount    *core.Money
	Category  *string
	Note      *string
	Date      *time.Time
	BillImage *string
}

// SummaryInvalidator drops derived data of a user after a ledger change.
type SummaryInvalidator interface {
	Invalidate(userID int64)
}

// TransactionService lists and mutates a user's ledger and enforces ownership.
type TransactionService struct {
	repo      storage.TransactionRepository
	publisher EventPublisher
	summaries SummaryInvalidator
	now       func() time.Time
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(repo storage.TransactionRepository, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithSummaryInvalidator makes every committed change drop the owner's
// cached summary.
func (s *TransactionService) WithSummaryInvalidator(inv SummaryInvalidator) *TransactionService {
	s.summaries = inv
	return s
}

// List returns the user's transactions matching f, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	f.Category = strings.TrimSpace(f.Category)
	txs, err := s.repo.ListTransactions(ctx, userID, f, 0)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Add stores a new transaction owned by userID.
func (s *TransactionService) Add(ctx context.Context, userID int64, in NewTransaction) (core.Transaction, error) {
	if in.Amount == nil {
		return core.Transaction{}, core.NewValidationError("amount", "is required")
	}
	tx := core.Transaction{
		UserID:    userID,
		Type:      in.Type,
		Amount:    *in.Amount,
		Category:  strings.TrimSpace(in.Category),
		Note:      in.Note,
		Date:      in.Date,
		BillImage: in.BillImage,
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	// Save first, the event is best effort
	saved, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.committed(ctx, log.OpCreate, amqp.ActionCreated, saved)
	return saved, nil
}

// Update merges patch into transaction id. The caller must own it.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, patch TransactionPatch) (core.Transaction, error) {
	tx, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Category != nil {
		tx.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Note != nil {
		tx.Note = *patch.Note
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	if patch.BillImage != nil {
		tx.BillImage = *patch.BillImage
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.repo.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.committed(ctx, log.OpUpdate, amqp.ActionUpdated, updated)
	return updated, nil
}

// Remove permanently deletes transaction id. The caller must own it.
func (s *TransactionService) Remove(ctx context.Context, userID, id int64) error {
	tx, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.committed(ctx, log.OpDelete, amqp.ActionDeleted, tx)
	return nil
}

// owned loads id and checks it belongs to userID. A missing row is
// reported before a foreign one.
func (s *TransactionService) owned(ctx context.Context, userID, id int64) (core.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.UserID != userID {
		log.FromContext(ctx).WarnContext(ctx, "Transaction access denied",
			log.FieldTransactionID, id,
			log.FieldUserID, userID,
			log.FieldErrorType, log.ErrorTypeAuth)
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrUnauthorized)
	}
	return tx, nil
}

func (s *TransactionService) committed(ctx context.Context, op string, action amqp.EventAction, tx core.Transaction) {
	sl := log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentTransaction))
	sl.LogTransactionWritten(ctx, op, tx.UserID, tx.ID, string(tx.Type), tx.Amount.Cents, tx.Category)

	if s.summaries != nil {
		s.summaries.Invalidate(tx.UserID)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, tx)); err != nil {
		// Don't fail the request - the ledger is already updated
		sl.LogError(ctx, "Failed to publish transaction event", err, log.OpPublish,
			log.NewFields().WithTransaction(tx.ID, string(tx.Type), tx.Amount.Cents, tx.Category))
	}
}
