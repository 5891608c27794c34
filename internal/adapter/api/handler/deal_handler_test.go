package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/adapter/api/middleware"
	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/usecase"
)

var testMetrics = metrics.NewServerMetrics()

// MockDealUseCase is a mock implementation of usecase.DealUseCase.
type MockDealUseCase struct {
	SubmitFunc func(ctx context.Context, session *domain.Session, req usecase.SubmitDealRequest) (*domain.Deal, error)
	ListFunc   func(ctx context.Context) ([]domain.Deal, error)
}

func (m *MockDealUseCase) Submit(ctx context.Context, session *domain.Session, req usecase.SubmitDealRequest) (*domain.Deal, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, session, req)
	}
	return &domain.Deal{ID: uuid.New(), RepID: req.RepID, Value: req.Value}, nil
}

func (m *MockDealUseCase) CurrentQuarterDeals(ctx context.Context) ([]domain.Deal, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func TestDealHandler_Submit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repID := uuid.New()
	session := &domain.Session{UserID: repID, AccountType: domain.AccountRep}

	tests := []struct {
		name           string
		body           string
		session        *domain.Session
		mockSubmitErr  error
		maxBodySize    int64
		expectedStatus int
		expectedKind   string
	}{
		{
			name:           "Valid Submission",
			body:           fmt.Sprintf(`{"rep_id": %q, "value": 500}`, repID),
			session:        session,
			maxBodySize:    1024,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "No Session",
			body:           fmt.Sprintf(`{"rep_id": %q, "value": 500}`, repID),
			session:        nil,
			maxBodySize:    1024,
			expectedStatus: http.StatusUnauthorized,
			expectedKind:   "unauthorized",
		},
		{
			name:           "Malformed Body",
			body:           `{"rep_id": "not-closed`,
			session:        session,
			maxBodySize:    1024,
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "validation",
		},
		{
			name:           "Validation Rejection",
			body:           fmt.Sprintf(`{"rep_id": %q, "value": -1}`, repID),
			session:        session,
			mockSubmitErr:  fmt.Errorf("%w: deal value must be positive", domain.ErrValidation),
			maxBodySize:    1024,
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "validation",
		},
		{
			name:           "Store Policy Rejection",
			body:           fmt.Sprintf(`{"rep_id": %q, "value": 500}`, repID),
			session:        session,
			mockSubmitErr:  fmt.Errorf("%w: rep %s does not exist", domain.ErrInsertRejected, repID),
			maxBodySize:    1024,
			expectedStatus: http.StatusForbidden,
			expectedKind:   "insert_rejected",
		},
		{
			name:           "Internal Error",
			body:           fmt.Sprintf(`{"rep_id": %q, "value": 500}`, repID),
			session:        session,
			mockSubmitErr:  fmt.Errorf("connection refused"),
			maxBodySize:    1024,
			expectedStatus: http.StatusInternalServerError,
			expectedKind:   "internal",
		},
		{
			name:           "Payload Too Large",
			body:           fmt.Sprintf(`{"rep_id": %q, "value": 500, "padding": "xxxxxxxxxxxxxxxxxxxxxxxx"}`, repID),
			session:        session,
			maxBodySize:    50,
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedKind:   "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUseCase := &MockDealUseCase{
				SubmitFunc: func(ctx context.Context, session *domain.Session, req usecase.SubmitDealRequest) (*domain.Deal, error) {
					if tt.mockSubmitErr != nil {
						return nil, tt.mockSubmitErr
					}
					return &domain.Deal{ID: uuid.New(), RepID: req.RepID, Value: req.Value}, nil
				},
			}
			h := NewDealHandler(mockUseCase, logger, tt.maxBodySize)

			req := httptest.NewRequest(http.MethodPost, "/api/deals", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.session != nil {
				req = req.WithContext(middleware.WithSession(req.Context(), tt.session))
			}
			rr := httptest.NewRecorder()

			h.Submit(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}

			if tt.expectedKind != "" {
				var envelope struct {
					Error struct {
						Kind string `json:"kind"`
					} `json:"error"`
				}
				if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
					t.Fatalf("error body is not the envelope: %v (%s)", err, rr.Body.String())
				}
				if envelope.Error.Kind != tt.expectedKind {
					t.Errorf("error kind: got %q want %q", envelope.Error.Kind, tt.expectedKind)
				}
			}

			if tt.expectedStatus == http.StatusCreated {
				if !strings.Contains(rr.Body.String(), "deal_id") {
					t.Errorf("expected deal_id in response, got %s", rr.Body.String())
				}
			}
		})
	}
}

func TestDealHandler_List(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Returns Deals", func(t *testing.T) {
		deals := []domain.Deal{
			{ID: uuid.New(), RepID: uuid.New(), Value: 100},
			{ID: uuid.New(), RepID: uuid.New(), Value: 200},
		}
		h := NewDealHandler(&MockDealUseCase{
			ListFunc: func(ctx context.Context) ([]domain.Deal, error) { return deals, nil },
		}, logger, 1024)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var got []domain.Deal
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("response is not a deal list: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 deals, got %d", len(got))
		}
	})

	t.Run("Store Failure", func(t *testing.T) {
		h := NewDealHandler(&MockDealUseCase{
			ListFunc: func(ctx context.Context) ([]domain.Deal, error) { return nil, fmt.Errorf("db down") },
		}, logger, 1024)

		req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
	})
}
