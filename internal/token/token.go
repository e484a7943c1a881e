// Package token issues and validates the signed bearer tokens that
// authenticate every API request. Tokens are stateless: validity is derived
// from the signature and expiry claim alone, so verification never touches
// the database.
package token

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrTokenInvalid indicates a malformed token, a bad signature or a
	// wrong token type.
	ErrTokenInvalid = errors.New("token: invalid")
	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token: expired")
)

// Claims is the payload carried by both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type,omitempty"`
}

// UserID parses the subject claim as a user identifier.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	return id, nil
}

// Config holds the signing material and lifetimes for issued tokens.
// Rotating Secret invalidates every previously issued token.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DecodeObserver receives the outcome of each decode attempt
// ("ok", "expired" or "invalid").
type DecodeObserver interface {
	ObserveTokenDecode(outcome string)
}

// Service signs and verifies tokens with a symmetric HS256 secret.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	observer   DecodeObserver
}

// NewService constructs a Service. Zero TTLs fall back to 24h access and
// 7d refresh lifetimes.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{
		secret:     cfg.Secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock overrides the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithMetrics attaches an observer for decode outcomes.
func (s *Service) WithMetrics(obs DecodeObserver) *Service {
	s.observer = obs
	return s
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveTokenDecode(outcome)
	}
}

// IssueAccess signs a new access token for the subject.
func (s *Service) IssueAccess(subject uuid.UUID) (string, error) {
	return s.issue(subject, TypeAccess, s.accessTTL)
}

// IssueRefresh signs a new refresh token for the subject.
func (s *Service) IssueRefresh(subject uuid.UUID) (string, error) {
	return s.issue(subject, TypeRefresh, s.refreshTTL)
}

func (s *Service) issue(subject uuid.UUID, typ string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry and returns the claims.
func (s *Service) Decode(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.observe("expired")
			return nil, ErrTokenExpired
		}
		s.observe("invalid")
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		s.observe("invalid")
		return nil, ErrTokenInvalid
	}
	s.observe("ok")
	return claims, nil
}

// DecodeAccess verifies an access token. A token whose type claim is set to
// anything other than "access" is rejected; a missing type is accepted for
// compatibility with tokens issued before the claim existed.
func (s *Service) DecodeAccess(tokenString string) (*Claims, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != "" && claims.Type != TypeAccess {
		return nil, fmt.Errorf("%w: wrong token type", ErrTokenInvalid)
	}
	return claims, nil
}
