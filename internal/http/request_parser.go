// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, path ids and listing filters.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

const maxBodyBytes = 1 << 20

const dateLayout = "2006-01-02"

// decodeJSON reads a single JSON object from the body into dst. Unknown
// fields, trailing data and bodies over maxBodyBytes are rejected. Every
// failure wraps core.ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var (
			ve      *core.ValidationError
			tooBig  *http.MaxBytesError
			typeErr *json.UnmarshalTypeError
		)
		switch {
		case errors.As(err, &ve):
			return err
		case errors.As(err, &tooBig):
			return core.NewValidationError("body", "must not exceed 1 MiB")
		case errors.Is(err, io.EOF):
			return core.NewValidationError("body", "is required")
		case errors.As(err, &typeErr):
			return core.NewValidationError(typeErr.Field, "has the wrong type")
		default:
			return core.NewValidationError("body", strings.TrimPrefix(err.Error(), "json: "))
		}
	}
	if dec.More() {
		return core.NewValidationError("body", "must contain a single JSON object")
	}
	return nil
}

// jsonDate accepts "YYYY-MM-DD" or an RFC 3339 timestamp.
type jsonDate struct {
	time.Time
}

func (d *jsonDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return core.NewValidationError("date", "must be a string")
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return core.NewValidationError("date", "must be YYYY-MM-DD or RFC 3339")
	}
	d.Time = t
	return nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req registerRequest) registration() services.Registration {
	return services.Registration{
		Name:     sanitizeInput(req.Name),
		Email:    req.Email,
		Password: req.Password,
	}
}

type profileRequest struct {
	Name          *string     `json:"name"`
	Email         *string     `json:"email"`
	Password      *string     `json:"password"`
	ProfileImage  *string     `json:"profileImage"`
	MonthlyBudget *core.Money `json:"monthlyBudget"`
}

func (req profileRequest) patch() services.ProfilePatch {
	p := services.ProfilePatch{
		Email:         req.Email,
		Password:      req.Password,
		ProfileImage:  req.ProfileImage,
		MonthlyBudget: req.MonthlyBudget,
	}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		p.Name = &name
	}
	return p
}

// transactionRequest is the body of both add and update. On update absent
// fields keep their stored value.
type transactionRequest struct {
	Type      *string     `json:"type"`
	Amount    *core.Money `json:"amount"`
	Category  *string     `json:"category"`
	Note      *string     `json:"note"`
	Date      *jsonDate   `json:"date"`
	BillImage *string     `json:"billImage"`
}

func (req transactionRequest) newTransaction() (services.NewTransaction, error) {
	in := services.NewTransaction{Amount: req.Amount}
	if req.Type != nil {
		t, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			return services.NewTransaction{}, err
		}
		in.Type = t
	}
	if req.Category != nil {
		in.Category = sanitizeInput(*req.Category)
	}
	if req.Note != nil {
		in.Note = sanitizeInput(*req.Note)
	}
	if req.Date != nil {
		in.Date = req.Date.Time
	}
	if req.BillImage != nil {
		in.BillImage = strings.TrimSpace(*req.BillImage)
	}
	return in, nil
}

func (req transactionRequest) patch() (services.TransactionPatch, error) {
	p := services.TransactionPatch{Amount: req.Amount}
	if req.Type != nil {
		t, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			return services.TransactionPatch{}, err
		}
		p.Type = &t
	}
	if req.Category != nil {
		c := sanitizeInput(*req.Category)
		p.Category = &c
	}
	if req.Note != nil {
		n := sanitizeInput(*req.Note)
		p.Note = &n
	}
	if req.Date != nil {
		d := req.Date.Time
		p.Date = &d
	}
	if req.BillImage != nil {
		b := strings.TrimSpace(*req.BillImage)
		p.BillImage = &b
	}
	return p, nil
}

// parseID reads a positive integer path value.
func parseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// parseTransactionFilter reads ?type=&category=&search=. An empty or "all"
// type matches both kinds.
func parseTransactionFilter(query url.Values) (core.TransactionFilter, error) {
	f := core.TransactionFilter{
		Category: sanitizeInput(query.Get("category")),
		Search:   sanitizeInput(query.Get("search")),
	}
	if v := strings.TrimSpace(query.Get("type")); v != "" && !strings.EqualFold(v, "all") {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			return core.TransactionFilter{}, err
		}
		f.Type = t
	}
	return f, nil
}
