// ABOUTME: Tests for signup and login
// ABOUTME: Covers validation, duplicate emails, and credential checking

package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patiochat/patio/internal/store"
)

func setupAuthService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewService(st, NewJWTVerifier([]byte("test-secret")), nil)
}

func TestSignupAndLogin(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Signup(ctx, "Alice", "Alice@Example.com", "correct horse")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	// Token identifies the new user
	userID, err := svc.verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	logged, token2, err := svc.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token2)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "Other Alice", "alice@example.com", "battery staple")
	assert.ErrorIs(t, err, store.ErrDuplicateUser)
}

func TestSignupValidation(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"no at sign", "aliceexample.com", "correct horse", ErrInvalidEmail},
		{"no domain dot", "alice@example", "correct horse", ErrInvalidEmail},
		{"empty local part", "@example.com", "correct horse", ErrInvalidEmail},
		{"trailing at", "alice@", "correct horse", ErrInvalidEmail},
		{"short password", "alice@example.com", "short", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Signup(ctx, "Alice", tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := setupAuthService(t)

	// Unknown accounts and bad passwords are indistinguishable
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
