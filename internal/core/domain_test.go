package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected zero to be ok, got %v", err)
	}
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"income", Income, true},
		{"Expense", Expense, true},
		{" expense ", Expense, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", tc.in, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID:   1,
		Type:     Expense,
		Amount:   Money{Cents: 6000},
		Category: "Food",
		Note:     "Groceries",
		Date:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"bad type", func(tx *Transaction) { tx.Type = "gift" }, ErrInvalidType},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"blank category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"long category", func(tx *Transaction) { tx.Category = strings.Repeat("x", MaxCategoryLength+1) }, ErrCategoryTooLong},
		{"long note", func(tx *Transaction) { tx.Note = strings.Repeat("x", MaxNoteLength+1) }, ErrNoteTooLong},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrMissingDate},
	}
	for _, tc := range cases {
		tx := good
		tc.mutate(&tx)
		err := tx.Validate()
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation kind, got %v", tc.name, err)
		}
	}
}

func TestUserValidate(t *testing.T) {
	good := User{Name: "Ann", Email: "ann@example.com"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []User{
		{Name: "", Email: "ann@example.com"},
		{Name: "Ann", Email: "not-an-email"},
		{Name: "Ann", Email: "Ann <ann@example.com>"},
		{Name: "Ann", Email: "ann@example.com", MonthlyBudget: Money{Cents: -100}},
	}
	for i, u := range bads {
		if err := u.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestTransactionFilterValidate(t *testing.T) {
	if err := (TransactionFilter{}).Validate(); err != nil {
		t.Fatalf("empty filter: %v", err)
	}
	if err := (TransactionFilter{Type: Income}).Validate(); err != nil {
		t.Fatalf("income filter: %v", err)
	}
	if err := (TransactionFilter{Type: "other"}).Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := NewValidationError("id", "must be numeric")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ValidationError to match ErrValidation")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("ValidationError must not match ErrNotFound")
	}
	if got := err.Error(); got != "id must be numeric" {
		t.Fatalf("unexpected message %q", got)
	}
}
