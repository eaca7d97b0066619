package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. With a plain string key like
// "identity", ANY package that knows the string could read or shadow the
// value. A package-private type means only this package can create the key,
// so only this package controls what lives under it.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header,
// validates it, and stores the caller's Identity in the request context.
// Missing, malformed, expired, or tampered tokens all end the request with
// 401 before the handler runs.
//
// WHY A HEADER, NOT A COOKIE?
// The primary clients are mobile apps, which hold the token in their own
// secure storage and attach it per request — the standard OAuth2 bearer
// scheme. (A browser SPA would want an HttpOnly cookie instead.)
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := extractIdentity(r, tokens)
			if err != nil {
				// Same JSON error shape the handlers produce. http.Error
				// would stamp text/plain, so the response is written by hand.
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated caller from the request
// context.
//
// Returns (nil, false) if the request never went through RequireAuth —
// which would be a routing bug, so handlers treat that as unauthenticated.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*Identity)
	return ident, ok && ident != nil
}

// extractIdentity reads and validates the bearer token from the
// Authorization header.
func extractIdentity(r *http.Request, tokens *TokenService) (*Identity, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, ErrTokenInvalid
	}

	return tokens.Validate(strings.TrimSpace(header[len(prefix):]))
}
