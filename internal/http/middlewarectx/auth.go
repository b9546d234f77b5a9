// Package middlewarectx содержит HTTP middleware: проверку JWT-токена,
// ограничение частоты запросов и счётчики Prometheus.
//
// JWTMiddleware проверяет токен из заголовка Authorization и при успехе
// кладёт в контекст идентификатор счёта кредитора и роль. При ошибке
// возвращает HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/jwt"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// LenderUID — ключ идентификатора счёта кредитора в контексте.
	LenderUID Key = "lender_uid"
	// Role — ключ роли пользователя в контексте.
	Role Key = "role"
)

// LenderUIDFromContext достаёт идентификатор кредитора из контекста запроса.
func LenderUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(LenderUID).(string)
	return uid, ok && uid != ""
}

// JWTMiddleware возвращает middleware, проверяющий JWT в Authorization.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), LenderUID, claims.LenderUID)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
