package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/domain/mocks"
	"github.com/elm042025/sales-dashboard/internal/pkg/util"
)

var testMetrics = metrics.NewServerMetrics()

func TestAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	const secret = "test-secret"

	user := &domain.UserProfile{ID: uuid.New(), Name: "Ana Reyes", AccountType: domain.AccountRep}
	token, err := util.GenerateToken(user, secret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	newHandler := func(sessions domain.SessionRepository, captured **domain.Session) http.Handler {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := SessionFromContext(r.Context()); ok {
				*captured = s
			}
			w.WriteHeader(http.StatusOK)
		})
		return Auth(sessions, testMetrics, logger, secret)(next)
	}

	t.Run("Valid Token", func(t *testing.T) {
		var captured *domain.Session
		handler := newHandler(&mocks.MockSessionRepository{}, &captured)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if captured == nil {
			t.Fatal("expected session in the request context")
		}
		if captured.UserID != user.ID {
			t.Errorf("session user: got %v, want %v", captured.UserID, user.ID)
		}
		if captured.AccountType != domain.AccountRep {
			t.Errorf("session account type: got %v, want rep", captured.AccountType)
		}
		if captured.TokenID == "" {
			t.Error("session must carry the token id for sign-out")
		}
	})

	t.Run("Token Via Query Parameter", func(t *testing.T) {
		var captured *domain.Session
		handler := newHandler(&mocks.MockSessionRepository{}, &captured)

		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stream?access_token="+token, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if captured == nil {
			t.Fatal("expected session in the request context")
		}
	})

	t.Run("Missing Token", func(t *testing.T) {
		var captured *domain.Session
		handler := newHandler(&mocks.MockSessionRepository{}, &captured)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if captured != nil {
			t.Error("the protected handler must not run")
		}
	})

	t.Run("Malformed Authorization Header", func(t *testing.T) {
		var captured *domain.Session
		handler := newHandler(&mocks.MockSessionRepository{}, &captured)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		req.Header.Set("Authorization", "Token "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Invalid Token", func(t *testing.T) {
		var captured *domain.Session
		handler := newHandler(&mocks.MockSessionRepository{}, &captured)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		expired, err := util.GenerateToken(user, secret, -time.Minute)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}

		var captured *domain.Session
		handler := newHandler(&mocks.MockSessionRepository{}, &captured)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("Revoked Token", func(t *testing.T) {
		var captured *domain.Session
		handler := newHandler(&mocks.MockSessionRepository{AlwaysGone: true}, &captured)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if captured != nil {
			t.Error("the protected handler must not run with a revoked session")
		}
	})

	t.Run("Revocation Check Failure", func(t *testing.T) {
		var captured *domain.Session
		sessions := &mocks.MockSessionRepository{CheckErr: io.ErrUnexpectedEOF}
		handler := newHandler(sessions, &captured)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
	})
}
