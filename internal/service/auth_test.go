package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
	"github.com/neurowatch-systems/neurowatch/pkg/tokens"
)

func newAuthService() (*AuthService, *repository.InMemoryRepository) {
	repo := repository.NewInMemoryRepository()
	tokenGen := tokens.NewTokenGenerator("test-secret-key-that-is-long-enough", time.Hour)
	return NewAuthService(repo, tokenGen), repo
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := newAuthService()

	user, err := svc.Register(context.Background(), &models.RegisterRequest{
		Username: "alice",
		Password: "hunter2-but-longer",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "hunter2-but-longer", user.PasswordHash, "password must be hashed")
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "pass-one"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "pass-two"})
	assert.ErrorIs(t, err, repository.ErrUserExists)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Password: "hunter2-but-longer",
		IsAdmin:  true,
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &models.LoginRequest{
		Username: "alice",
		Password: "hunter2-but-longer",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{Username: "alice", Password: "correct-password"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong-password"},
		{"unknown user", "mallory", "correct-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &models.LoginRequest{Username: tt.username, Password: tt.password})
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}
