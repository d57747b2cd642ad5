package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/neurowatch-systems/neurowatch/internal/models"
	"github.com/neurowatch-systems/neurowatch/internal/repository"
	"github.com/neurowatch-systems/neurowatch/pkg/tokens"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService struct {
	repo     repository.Repository
	tokenGen *tokens.TokenGenerator
}

func NewAuthService(repo repository.Repository, tokenGen *tokens.TokenGenerator) *AuthService {
	return &AuthService{
		repo:     repo,
		tokenGen: tokenGen,
	}
}

func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userID, _ := uuid.NewV7()
	user := &models.User{
		ID:           userID.String(),
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		IsAdmin:      req.IsAdmin,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokenGen.GenerateAccessToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenGen.AccessTTL().Seconds()),
	}, nil
}

// ValidateToken resolves an access token to its claims.
func (s *AuthService) ValidateToken(tokenString string) (*tokens.Claims, error) {
	return s.tokenGen.ValidateAccessToken(tokenString)
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}
