package jwt

import (
	"context"
	"time"
)

// RevocationStore reports whether a token has been invalidated before its
// natural expiry, and records new revocations with a bounded TTL.
type RevocationStore interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// Service issues and verifies bearer credentials
type Service struct {
	secretKey string
	expiry    time.Duration
	revoked   RevocationStore
}

// NewService creates a new JWT service. The revocation store may be nil,
// in which case Verify skips the revocation check.
func NewService(secretKey string, expiry time.Duration, revoked RevocationStore) *Service {
	if secretKey == "" {
		secretKey = getSecretKey()
	}

	if expiry == 0 {
		expiry = 24 * time.Hour // Default to 24 hours
	}

	return &Service{
		secretKey: secretKey,
		expiry:    expiry,
		revoked:   revoked,
	}
}

// GenerateToken generates a JWT token for a user
func (s *Service) GenerateToken(userID uint, name, email string) (string, error) {
	return GenerateToken(userID, name, email, s.secretKey, s.expiry)
}

// ValidateToken validates a JWT token signature and expiry and returns the claims
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	return ValidateToken(tokenString, s.secretKey)
}

// Verify validates a token against both the revocation store and the signing
// secret. The revocation check runs first so a known-dead token never pays
// for signature verification.
func (s *Service) Verify(ctx context.Context, tokenString string) (*JWTClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, tokenString)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	return s.ValidateToken(tokenString)
}

// Revoke invalidates a token until its natural expiry. The revocation entry
// carries a TTL matching the token's remaining lifetime so the store does
// not accumulate entries for tokens that have already expired.
func (s *Service) Revoke(ctx context.Context, tokenString string) error {
	if s.revoked == nil {
		return nil
	}

	ttl := s.expiry
	if claims, err := s.ValidateToken(tokenString); err == nil && claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}

	return s.revoked.Revoke(ctx, tokenString, ttl)
}
