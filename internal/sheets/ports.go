package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// AuditEntry is one ledger change as it appears in the audit sheet.
type AuditEntry struct {
	At          time.Time
	Action      string
	Transaction core.Transaction
}

// Ports for outbound adapters.
type (
	AuditWriter interface {
		Append(ctx context.Context, e AuditEntry) (rowRef string, err error)
	}
)
