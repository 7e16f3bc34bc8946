package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
)

// Principal identifies the authenticated caller of a request
type Principal struct {
	ID   string
	Role string
}

// Roles carried in the token's "role" claim
const (
	RoleProvider  = "provider"
	RoleRequester = "requester"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFromContext returns the authenticated principal, if any
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*Principal)
	return principal, ok
}

// ContextWithPrincipal returns a context carrying the principal
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// AuthMiddleware validates the Bearer token and resolves the request
// principal. Token issuance happens elsewhere; this only validates HS256
// tokens signed with the shared secret.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respondUnauthorized(w, "missing bearer token")
				return
			}

			principal, err := resolvePrincipal(strings.TrimPrefix(authHeader, "Bearer "), key)
			if err != nil {
				respondUnauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects requests whose principal does not carry the given role
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal.Role != role {
				respondUnauthorized(w, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolvePrincipal(tokenString string, key []byte) (*Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}

	role, _ := claims["role"].(string)
	if role != RoleProvider && role != RoleRequester {
		return nil, errors.New("token does not carry a known role")
	}

	return &Principal{ID: sub, Role: role}, nil
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
