// Package auth implements credential login, token refresh and the
// authentication gate that every protected request passes through.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/savemo/identity/internal/credential"
	"github.com/savemo/identity/internal/shared"
	"github.com/savemo/identity/internal/token"
	"github.com/savemo/identity/internal/users"
)

// TokenPair is the issued access/refresh token bundle.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Service wraps authentication business rules.
type Service struct {
	users  users.RepositoryPort
	hasher *credential.Hasher
	tokens *token.Service
}

// NewService constructs a new Service.
func NewService(userRepo users.RepositoryPort, hasher *credential.Hasher, tokens *token.Service) *Service {
	return &Service{users: userRepo, hasher: hasher, tokens: tokens}
}

// Login validates email/password credentials and issues a token pair.
// Unknown email, wrong password and deactivated account are all reported
// as shared.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, shared.ErrInvalidCredentials
	}
	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RegisterParams describes a self-service registration.
type RegisterParams struct {
	Email    string
	FullName string
	Phone    *string
	Password string
}

// Register creates a new active user account. A taken email or phone
// surfaces as shared.ErrDuplicate.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*users.User, error) {
	hashed, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	user := &users.User{
		ID:           uuid.New(),
		Email:        params.Email,
		FullName:     params.FullName,
		Phone:        params.Phone,
		PasswordHash: hashed,
		IsActive:     true,
		IsSuperuser:  false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Refresh exchanges a refresh token for a fresh pair. The old refresh token
// is not blacklisted; it stays usable until its expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}
	if claims.Type != token.TypeRefresh {
		return nil, shared.ErrUnauthenticated
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || !user.IsActive {
		return nil, shared.ErrUnauthenticated
	}
	return s.issuePair(user.ID)
}

// Authenticate maps an access token to a live, active user record. It is
// the sole authentication gate: every decode, parse or lookup failure
// collapses to shared.ErrUnauthenticated.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*users.User, error) {
	claims, err := s.tokens.DecodeAccess(accessToken)
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrUnauthenticated
	}
	return user, nil
}

func (s *Service) issuePair(userID uuid.UUID) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}
