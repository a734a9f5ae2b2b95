package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_InvalidOAuthClient(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{
		SpreadsheetID:   "test-id",
		OAuthClientJSON: "invalid-json",
		OAuthTokenJSON:  `{"access_token":"test"}`,
	})
	if err == nil {
		t.Fatal("expected error with invalid JSON")
	}
	if !strings.Contains(err.Error(), "oauth config") {
		t.Errorf("expected oauth config error, got: %v", err)
	}
}

func TestNew_NoCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{SpreadsheetID: "test-id"})
	if err == nil || !strings.Contains(err.Error(), "missing credentials") {
		t.Fatalf("expected missing credentials error, got: %v", err)
	}
}

func TestClient_AppendValidation(t *testing.T) {
	c := &Client{spreadsheetID: "test", auditSheet: "2024 Ledger"} // svc is nil

	if _, err := c.Append(context.Background(), ports.AuditEntry{Action: "created"}); err == nil {
		t.Error("expected error for entry without transaction id")
	}

	_, err := c.Append(context.Background(), ports.AuditEntry{Action: "created", Transaction: core.Transaction{ID: 1}})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got: %v", err)
	}
}

func TestAuditRow(t *testing.T) {
	row := auditRow(ports.AuditEntry{
		At:     time.Date(2024, 2, 3, 10, 4, 5, 0, time.FixedZone("CET", 3600)),
		Action: "updated",
		Transaction: core.Transaction{
			ID:       9,
			UserID:   4,
			Type:     core.Expense,
			Amount:   core.Money{Cents: 4050},
			Category: "Food",
			Note:     "Groceries",
			Date:     time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		},
	})

	want := []any{"2024-02-03T09:04:05Z", "updated", int64(9), int64(4), "2024-02-03", "expense", "Food", "Groceries", "40.50", ""}
	if len(row) != len(want) {
		t.Fatalf("row has %d columns, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %#v, want %#v", i, row[i], want[i])
		}
	}
}

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2024, "2024 Ledger"},
		{"2023 Ledger", 2024, "2023 Ledger"},
		{"  Audit ", 2025, "2025 Audit"},
		{"", 2024, ""},
		{"12345", 2024, "2024 12345"},
	}
	for _, tc := range cases {
		if got := yearPrefixedName(tc.base, tc.year); got != tc.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tc.base, tc.year, got, tc.want)
		}
	}
}
