package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the fixed lifetime of a session token.
const TokenTTL = 365 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("revoked token")
)

// Identity is what a client asserts when asking for a token.
type Identity struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
}

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
	jwt.RegisteredClaims
}

// Denylist records revoked token ids until their natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenService issues and verifies HS256 session tokens. A nil denylist
// disables revocation.
type TokenService struct {
	key      []byte
	ttl      time.Duration
	denylist Denylist
	now      func() time.Time
}

func NewTokenService(secret string, denylist Denylist) (*TokenService, error) {
	key, err := DeriveSigningKey(secret)
	if err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return &TokenService{key: key, ttl: TokenTTL, denylist: denylist, now: time.Now}, nil
}

func (s *TokenService) Issue(id Identity) (string, error) {
	now := s.now()
	claims := Claims{
		Email: id.Email,
		Name:  id.Name,
		Photo: id.Photo,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Parse checks signature, algorithm and expiry but not revocation.
func (s *TokenService) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify is Parse plus the denylist check.
func (s *TokenService) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	if s.denylist == nil || claims.ID == "" {
		return claims, nil
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke denylists the token for the rest of its lifetime. It is a no-op
// without a denylist or for tokens that are already invalid.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	if s.denylist == nil {
		return nil
	}
	claims, err := s.Parse(token)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, ttl)
}
