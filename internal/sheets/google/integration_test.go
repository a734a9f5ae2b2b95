//go:build integration

package google

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendAuditRow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	cfg := Config{
		SpreadsheetID:      spreadsheetID,
		SheetName:          os.Getenv("GOOGLE_SHEET_NAME"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if cfg.ServiceAccountJSON == "" && cfg.ServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	ref, err := client.Append(ctx, ports.AuditEntry{
		At:     time.Now(),
		Action: "created",
		Transaction: core.Transaction{
			ID:       time.Now().Unix(),
			UserID:   1,
			Type:     core.Expense,
			Amount:   core.Money{Cents: 123},
			Category: "Integration",
			Note:     "integration test row",
			Date:     time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !strings.Contains(ref, "!") {
		t.Errorf("unexpected row reference %q", ref)
	}
}
