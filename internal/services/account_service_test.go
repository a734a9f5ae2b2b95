package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccounts(t *testing.T) (*AccountService, *auth.TokenIssuer) {
	t.Helper()
	tokens := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	return NewAccountService(memory.New(), tokens), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newAccounts(t)

	u, token, err := svc.Register(ctx, Registration{Name: " Ann ", Email: "ann@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.NotEqual(t, "hunter22", u.PasswordHash)
	assert.Zero(t, u.MonthlyBudget.Cents)

	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, _, err = svc.Register(ctx, Registration{Name: "Other", Email: "ann@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, core.ErrConflict)

	logged, token, err := svc.Login(ctx, "ann@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "ann@example.com", "wrong-pass")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAccounts(t)
	cases := map[string]Registration{
		"no name":        {Email: "a@example.com", Password: "hunter22"},
		"bad email":      {Name: "A", Email: "a-at-example", Password: "hunter22"},
		"short password": {Name: "A", Email: "a@example.com", Password: "123"},
	}
	for name, in := range cases {
		_, _, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, core.ErrValidation, name)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccounts(t)
	ann, _, err := svc.Register(ctx, Registration{Name: "Ann", Email: "ann@example.com", Password: "hunter22"})
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, Registration{Name: "Bob", Email: "bob@example.com", Password: "hunter22"})
	require.NoError(t, err)

	t.Run("budget and image", func(t *testing.T) {
		u, token, err := svc.UpdateProfile(ctx, ann.ID, ProfilePatch{
			MonthlyBudget: &core.Money{Cents: 150000},
			ProfileImage:  ptr("avatars/ann.png"),
			Name:          ptr("  "),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, int64(150000), u.MonthlyBudget.Cents)
		assert.Equal(t, "avatars/ann.png", u.ProfileImage)
		assert.Equal(t, "Ann", u.Name, "blank name keeps the old one")
	})

	t.Run("budget back to unset", func(t *testing.T) {
		u, _, err := svc.UpdateProfile(ctx, ann.ID, ProfilePatch{MonthlyBudget: &core.Money{}})
		require.NoError(t, err)
		assert.Zero(t, u.MonthlyBudget.Cents)
	})

	t.Run("negative budget", func(t *testing.T) {
		_, _, err := svc.UpdateProfile(ctx, ann.ID, ProfilePatch{MonthlyBudget: &core.Money{Cents: -1}})
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := svc.UpdateProfile(ctx, ann.ID, ProfilePatch{Email: ptr("bob@example.com")})
		assert.ErrorIs(t, err, core.ErrConflict)

		u, err := svc.Get(ctx, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", u.Email)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, _, err := svc.UpdateProfile(ctx, ann.ID, ProfilePatch{Email: ptr("nope")})
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("password change", func(t *testing.T) {
		_, _, err := svc.UpdateProfile(ctx, ann.ID, ProfilePatch{Password: ptr("new-secret")})
		require.NoError(t, err)

		_, _, err = svc.Login(ctx, "ann@example.com", "hunter22")
		assert.ErrorIs(t, err, core.ErrUnauthenticated)
		_, _, err = svc.Login(ctx, "ann@example.com", "new-secret")
		assert.NoError(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		_, _, err := svc.UpdateProfile(ctx, 9999, ProfilePatch{Name: ptr("Ghost")})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
