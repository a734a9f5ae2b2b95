package core

import (
	"net/mail"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	MaxCategoryLength = 100
	MaxNoteLength     = 500
	MinPasswordLength = 6
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID        int64           `json:"id"`
		UserID    int64           `json:"userId"`
		Type      TransactionType `json:"type"`
		Amount    Money           `json:"amount"`
		Category  string          `json:"category"`
		Note      string          `json:"note"`
		Date      time.Time       `json:"date"`
		BillImage string          `json:"billImage"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}

	User struct {
		ID            int64     `json:"id"`
		Name          string    `json:"name"`
		Email         string    `json:"email"`
		PasswordHash  string    `json:"-"`
		ProfileImage  string    `json:"profileImage"`
		MonthlyBudget Money     `json:"monthlyBudget"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// TransactionFilter narrows a listing. Zero-valued fields match everything.
	TransactionFilter struct {
		Type     TransactionType
		Category string
		Search   string // case-insensitive substring of the note
	}
)

var (
	ErrInvalidAmount    = &ValidationError{Field: "amount", Msg: "must be a non-negative number"}
	ErrInvalidType      = &ValidationError{Field: "type", Msg: "must be income or expense"}
	ErrEmptyCategory    = &ValidationError{Field: "category", Msg: "is required"}
	ErrCategoryTooLong  = &ValidationError{Field: "category", Msg: "is too long"}
	ErrNoteTooLong      = &ValidationError{Field: "note", Msg: "is too long"}
	ErrMissingDate      = &ValidationError{Field: "date", Msg: "is required"}
	ErrEmptyName        = &ValidationError{Field: "name", Msg: "is required"}
	ErrInvalidEmail     = &ValidationError{Field: "email", Msg: "is not a valid address"}
	ErrPasswordTooShort = &ValidationError{Field: "password", Msg: "is too short"}
	ErrInvalidBudget    = &ValidationError{Field: "monthlyBudget", Msg: "must not be negative"}
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// ParseTransactionType accepts the wire spelling in any letter case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate rejects negative amounts. Zero is a legal amount.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	category := strings.TrimSpace(t.Category)
	if category == "" {
		return ErrEmptyCategory
	}
	if len(category) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	if len(t.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.MonthlyBudget.Cents < 0 {
		return ErrInvalidBudget
	}
	return nil
}

// ValidateEmail accepts a bare address only, no display name.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Validate checks the optional type filter. Unknown values are rejected
// rather than silently matching nothing.
func (f TransactionFilter) Validate() error {
	if f.Type == "" {
		return nil
	}
	return f.Type.Validate()
}
