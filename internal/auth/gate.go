package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type contextKey struct{}

// Verifier turns a bearer token into a user id.
type Verifier interface {
	Verify(token string) (int64, error)
}

// RejectFunc writes the response for a request that failed authentication.
type RejectFunc func(w http.ResponseWriter, r *http.Request, err error)

// Gate authenticates requests and places the principal in their context.
type Gate struct {
	verifier Verifier
	reject   RejectFunc
}

func NewGate(v Verifier, reject RejectFunc) *Gate {
	if reject == nil {
		reject = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}
	return &Gate{verifier: v, reject: reject}
}

// Middleware rejects requests without a valid "Authorization: Bearer" token.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			g.reject(w, r, core.ErrUnauthenticated)
			return
		}
		userID, err := g.verifier.Verify(token)
		if err != nil {
			slog.DebugContext(r.Context(), "Token rejected", "error", err)
			g.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUser returns a context carrying userID as the authenticated principal.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the authenticated principal stored by the Gate.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok && id > 0
}
