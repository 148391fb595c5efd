package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/model"
)

type contextKey string

const UserContextKey contextKey = "userContext"

type IdentityResolver interface {
	Authenticate(ctx context.Context, credential string) (*model.UserDTO, error)
}

type AuthMiddleware struct {
	identity  IdentityResolver
	jwtSecret string
}

func NewAuthMiddleware(identity IdentityResolver, cfg *config.AppConfig) *AuthMiddleware {
	return &AuthMiddleware{
		identity:  identity,
		jwtSecret: cfg.JWTSecret,
	}
}

// VerifyToken requires a bearer JWT whose subject is an existing user and
// stores that user under UserContextKey.
func (m *AuthMiddleware) VerifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		claims, err := helper.ParseJWT(m.jwtSecret, parts[1])
		if err != nil {
			slog.Debug("Rejected bearer token", "error", err)
			helper.WriteError(w, helper.NewUnauthorizedError("Invalid or expired token"))
			return
		}

		userContext, err := m.identity.Authenticate(r.Context(), claims.UserID.String())
		if err != nil {
			helper.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserFromContext(ctx context.Context) (*model.UserDTO, bool) {
	user, ok := ctx.Value(UserContextKey).(*model.UserDTO)
	return user, ok && user != nil
}
