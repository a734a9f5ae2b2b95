package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
)

// MirrorWorker copies ledger events into the audit sheet.
type MirrorWorker struct {
	audit sheets.AuditWriter
}

func NewMirrorWorker(audit sheets.AuditWriter) *MirrorWorker {
	return &MirrorWorker{audit: audit}
}

// HandleTransactionEvent appends one audit row per event. An error makes the
// consumer requeue the message.
func (w *MirrorWorker) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", ev.Action,
		"transaction_id", ev.Transaction.ID,
		"user_id", ev.Transaction.UserID)

	ref, err := w.audit.Append(ctx, sheets.AuditEntry{
		At:          ev.Timestamp,
		Action:      string(ev.Action),
		Transaction: ev.Transaction,
	})
	if err != nil {
		return fmt.Errorf("mirror %s event for transaction %d: %w", ev.Action, ev.Transaction.ID, err)
	}

	slog.InfoContext(ctx, "Mirrored transaction event",
		"action", ev.Action,
		"transaction_id", ev.Transaction.ID,
		"row", ref)
	return nil
}
