// Package auth provides JWT token generation/validation and password hashing.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Client registers or logs in with email/password
// 2. Server verifies credentials and issues a signed JWT access token
// 3. Client sends "Authorization: Bearer <token>" on subsequent API calls
// 4. Middleware validates the JWT and puts the user identity in the request
//    context — no DB lookup needed to authenticate a request
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't store session data.
// Everything needed (user ID, username, expiry) is inside the signed token,
// and the HMAC signature ensures nobody can tamper with it without the
// server secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel validation failures. Callers that care about the distinction
// (e.g. so a client knows to re-login rather than retry) check with
// errors.Is; everything else can treat both as "not authenticated".
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

const issuer = "dailybite"

// TokenService signs and verifies JWT access tokens.
//
// It holds the HMAC secret and the token lifetime. The same secret must be
// used for both signing and verifying — keep it out of source control and
// rotate it periodically in production.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production (e.g. JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Identity is what a validated token proves about the caller.
type Identity struct {
	UserID   string
	Username string
}

// claims is the JWT payload. jwt.RegisteredClaims carries the standard
// fields (Subject, ExpiresAt, IssuedAt, Issuer); we add the username as a
// private claim so handlers can display it without a user lookup.
//
// "sub" holds the internal user ID — the standard claim for identifying
// who the token belongs to.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Generate creates and signs an access token for the given identity,
// expiring after the configured TTL.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies. Fine for a single-server deployment; RS256 would be the choice
// if other services needed to verify tokens without the secret.
func (s *TokenService) Generate(userID, username string) (string, error) {
	return s.GenerateWithDuration(userID, username, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID, username string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning the identity it
// encodes.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (token wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches "dailybite" (rejects tokens minted by other apps)
//   - Algorithm is HS256 — jwt.WithValidMethods prevents the classic
//     algorithm-confusion attack where an attacker submits an alg:none token
//
// Returns ErrTokenExpired for expired tokens and ErrTokenInvalid for
// everything else that fails verification.
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: bad claims", ErrTokenInvalid)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrTokenInvalid)
	}

	return &Identity{UserID: c.Subject, Username: c.Username}, nil
}
