package auth

import "alpwiki/internal/domain/models"

// JWTVerifier checks bearer tokens on write requests. The middleware only
// depends on this interface, so deployments can verify against a JWKS
// endpoint or a static key without touching the HTTP layer.
type JWTVerifier interface {
	// VerifyToken parses and validates a token string, returning its claims.
	// Invalid, expired or wrongly-signed tokens fail with ErrUnauthorized.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases verifier resources on shutdown
	Close() error
}
