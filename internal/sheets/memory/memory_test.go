package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

func TestAuditLogAppend(t *testing.T) {
	l := New()
	ref, err := l.Append(context.Background(), sheets.AuditEntry{
		At:          time.Now(),
		Action:      "created",
		Transaction: core.Transaction{ID: 1, UserID: 2, Type: core.Expense, Amount: core.Money{Cents: 123}, Category: "Food"},
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	ref, err = l.Append(context.Background(), sheets.AuditEntry{Action: "deleted", Transaction: core.Transaction{ID: 1}})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	entries := l.Entries()
	if len(entries) != 2 || entries[1].Action != "deleted" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	// Entries is a copy.
	entries[0].Action = "changed"
	if l.Entries()[0].Action != "created" {
		t.Fatal("Entries must not expose internal state")
	}
}

func TestAuditLogRejectsMissingID(t *testing.T) {
	if _, err := New().Append(context.Background(), sheets.AuditEntry{Action: "created"}); err == nil {
		t.Fatal("expected error for entry without transaction id")
	}
}
