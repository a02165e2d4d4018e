// Package auth issues and validates the bearer tokens that guard the HTTP
// API. Tokens are HS256 JWTs signed with a shared secret; the subject names
// the calling client.
package auth

import (
	"context"
	"errors"
	"time"
)

// Token validation failures. Callers map all of them to 401.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
)

// ErrInvalidSecret is returned by NewJWTService for a signing secret shorter
// than minSecretLength.
var ErrInvalidSecret = errors.New("jwt signing secret too short")

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for subject.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the provided access token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims holds the validated claims of a token.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
