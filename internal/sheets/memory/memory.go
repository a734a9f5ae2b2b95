package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/sheets"
)

// AuditLog keeps audit entries in process memory. The worker falls back to it
// when no spreadsheet is configured.
type AuditLog struct {
	mu    sync.Mutex
	items []sheets.AuditEntry
}

func New() *AuditLog {
	return &AuditLog{}
}

// Append stores the entry and returns a synthetic row reference.
func (l *AuditLog) Append(_ context.Context, e sheets.AuditEntry) (string, error) {
	if e.Transaction.ID <= 0 {
		return "", fmt.Errorf("audit entry without transaction id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, e)
	return fmt.Sprintf("mem:%d", len(l.items)), nil
}

// Entries returns a copy of everything appended so far.
func (l *AuditLog) Entries() []sheets.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.AuditEntry(nil), l.items...)
}
