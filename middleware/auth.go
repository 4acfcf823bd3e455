package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/bookshelf/models"
	"github.com/kevinaaaquil/bookshelf/service"
)

type contextKey string

const identityKey contextKey = "identity"

const bearerPrefix = "bearer "

// TokenVerifier is implemented by service.TokenService.
type TokenVerifier interface {
	Verify(token string) (*models.Identity, error)
}

// Resolver turns the Authorization header of a request into an identity. It never
// rejects a request: a missing, malformed or expired token leaves the request
// anonymous and each operation decides whether it needs a user.
type Resolver struct {
	tokens TokenVerifier
	logger *slog.Logger
}

func NewResolver(tokens TokenVerifier, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{tokens: tokens, logger: logger}
}

// Resolve returns the identity carried by header, or nil for an anonymous request.
// The token may come with or without the Bearer scheme.
func (res *Resolver) Resolve(ctx context.Context, header string) *models.Identity {
	token := strings.TrimSpace(header)
	if len(token) >= len(bearerPrefix) && strings.EqualFold(token[:len(bearerPrefix)], bearerPrefix) {
		token = strings.TrimSpace(token[len(bearerPrefix):])
	}
	if token == "" {
		return nil
	}
	who, err := res.tokens.Verify(token)
	if err != nil {
		var ve *service.VerificationError
		if errors.As(err, &ve) {
			res.logger.DebugContext(ctx, "token rejected, continuing anonymously", "kind", string(ve.Kind))
		} else {
			res.logger.DebugContext(ctx, "token rejected, continuing anonymously", "error", err)
		}
		return nil
	}
	return who
}

// Auth stores the resolved identity in the request context.
func Auth(res *Resolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who := res.Resolve(r.Context(), r.Header.Get("Authorization"))
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), who)))
		})
	}
}

// WithIdentity returns ctx carrying who. A nil identity leaves ctx anonymous.
func WithIdentity(ctx context.Context, who *models.Identity) context.Context {
	if who == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, who)
}

func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	who, ok := ctx.Value(identityKey).(*models.Identity)
	return who, ok && who != nil
}

// RequireUser returns the caller's identity or an AuthenticationError with msg.
// Operations scope reads and writes by the returned identity only.
func RequireUser(ctx context.Context, msg string) (*models.Identity, error) {
	who, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, service.NewAuthenticationError(msg)
	}
	return who, nil
}
