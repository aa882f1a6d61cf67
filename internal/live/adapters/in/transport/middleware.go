package transport

import (
	"context"
	"net/http"
	"strings"

	"fieldtrack/internal/shared/auth"
	"fieldtrack/internal/shared/logger"
)

type contextKey string

const contextKeyUserID contextKey = "user_id"

// OperatorAuthMiddleware validates the bearer token and requires the
// operator role. The live map is an operator-only surface.
func OperatorAuthMiddleware(jwtService *auth.JWTService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				log.Warn(logger.Entry{
					Action:  "operator_auth_invalid_token",
					Message: err.Error(),
				})
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if claims.Role != auth.RoleOperator {
				log.Warn(logger.Entry{
					Action:  "operator_auth_forbidden_role",
					Message: "operator role required",
					Additional: map[string]any{
						"user_id": claims.UserID,
						"role":    claims.Role,
					},
				})
				respondError(w, http.StatusForbidden, "access denied: operator role required")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUserID, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
