package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/pkg/util"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Auth is a middleware factory that returns a new authentication middleware.
// It validates the bearer token, rejects revoked sessions and stores the
// resulting session in the request context.
func Auth(sessions domain.SessionRepository, m *metrics.ServerMetrics, logger *slog.Logger, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				logger.Warn("bearer token missing from request", "remote_addr", r.RemoteAddr)
				writeAuthError(w, http.StatusUnauthorized, "a bearer token is required")
				return
			}

			claims, err := util.ValidateToken(token, jwtSecret)
			if err != nil {
				m.AuthFailures.WithLabelValues("token").Inc()
				logger.Warn("invalid session token", "remote_addr", r.RemoteAddr, "error", err)
				writeAuthError(w, http.StatusUnauthorized, "invalid session token")
				return
			}

			revoked, err := sessions.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				logger.Error("failed to check session revocation", "error", err)
				writeAuthError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if revoked {
				m.AuthFailures.WithLabelValues("revoked").Inc()
				logger.Warn("revoked session token used", "remote_addr", r.RemoteAddr, "user_id", claims.UserID)
				writeAuthError(w, http.StatusUnauthorized, "session has been signed out")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims.Session())))
		})
	}
}

// WithSession returns a context carrying the given session.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the session stored by the Auth middleware.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*domain.Session)
	return session, ok
}

// bearerToken extracts the token from the Authorization header. SSE clients
// cannot set headers, so the access_token query parameter is accepted too.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	kind := "unauthorized"
	if status == http.StatusInternalServerError {
		kind = "internal"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}
