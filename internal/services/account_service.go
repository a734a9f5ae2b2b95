package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TokenSigner issues bearer tokens for a user id.
type TokenSigner interface {
	Issue(userID int64) (string, error)
}

// Registration is the input of AccountService.Register.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// ProfilePatch carries the profile fields a user wants to change. Nil fields
// are kept; a blank name or email is treated as absent.
type ProfilePatch struct {
	Name          *string
	Email         *string
	Password      *string
	ProfileImage  *string
	MonthlyBudget *core.Money
}

// AccountService registers users, logs them in and edits their profile.
type AccountService struct {
	users  storage.UserRepository
	tokens TokenSigner
}

func NewAccountService(users storage.UserRepository, tokens TokenSigner) *AccountService {
	return &AccountService{users: users, tokens: tokens}
}

// Register creates a user and returns it with a fresh token. A taken email
// fails with core.ErrConflict.
func (s *AccountService) Register(ctx context.Context, in Registration) (core.User, string, error) {
	u := core.User{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, "", err
	}
	if err := core.ValidatePassword(in.Password); err != nil {
		return core.User{}, "", err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, "", err
	}
	u.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, "", fmt.Errorf("register: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", created.ID)

	return s.withToken(created)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, "", fmt.Errorf("invalid email or password: %w", core.ErrUnauthenticated)
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("login: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return core.User{}, "", fmt.Errorf("invalid email or password: %w", core.ErrUnauthenticated)
	}
	return s.withToken(u)
}

func (s *AccountService) Get(ctx context.Context, userID int64) (core.User, error) {
	return s.users.GetUser(ctx, userID)
}

// UpdateProfile applies patch to the user and returns it with a fresh token.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, patch ProfilePatch) (core.User, string, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, "", err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.ProfileImage != nil {
		u.ProfileImage = *patch.ProfileImage
	}
	if patch.MonthlyBudget != nil {
		u.MonthlyBudget = *patch.MonthlyBudget
	}
	if err := u.Validate(); err != nil {
		return core.User{}, "", err
	}
	if patch.Password != nil && *patch.Password != "" {
		if err := core.ValidatePassword(*patch.Password); err != nil {
			return core.User{}, "", err
		}
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return core.User{}, "", err
		}
		u.PasswordHash = hash
	}

	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return core.User{}, "", fmt.Errorf("update profile: %w", err)
	}
	return s.withToken(updated)
}

func (s *AccountService) withToken(u core.User) (core.User, string, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return core.User{}, "", err
	}
	return u, token, nil
}
