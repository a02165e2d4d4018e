package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/scry-lexicon/internal/api/shared"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJWTService struct {
	claims      *auth.Claims
	validateErr error
	gotToken    string
}

func (s *stubJWTService) GenerateToken(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubJWTService) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	s.gotToken = token
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return s.claims, nil
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		authHeader      string
		validateErr     error
		expectedStatus  int
		expectedMessage string
	}{
		{name: "valid token", authHeader: "Bearer good-token", expectedStatus: http.StatusOK},
		{name: "lowercase scheme", authHeader: "bearer good-token", expectedStatus: http.StatusOK},
		{
			name:            "missing header",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Authorization header required",
		},
		{
			name:            "wrong scheme",
			authHeader:      "Basic dXNlcjpwYXNz",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid authorization format",
		},
		{
			name:            "no token",
			authHeader:      "Bearer",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid authorization format",
		},
		{
			name:            "expired",
			authHeader:      "Bearer old-token",
			validateErr:     auth.ErrExpiredToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Token expired",
		},
		{
			name:            "wrapped invalid",
			authHeader:      "Bearer bad-token",
			validateErr:     errors.Join(auth.ErrInvalidToken, errors.New("signature mismatch")),
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid token",
		},
		{
			name:            "not yet valid",
			authHeader:      "Bearer future-token",
			validateErr:     auth.ErrTokenNotYetValid,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid token",
		},
		{
			name:            "unexpected failure",
			authHeader:      "Bearer good-token",
			validateErr:     errors.New("boom"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Authentication error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jwtService := &stubJWTService{
				claims:      &auth.Claims{Subject: "lexictl"},
				validateErr: tt.validateErr,
			}

			var subject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				subject, _ = GetSubject(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/batches/current", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "lexictl", subject)
				assert.Equal(t, "good-token", jwtService.gotToken)
				return
			}

			var body shared.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedMessage, body.Error)
		})
	}
}

func TestTrace(t *testing.T) {
	log, logBuf := logger.NewTestLogger(t)

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).InfoContext(r.Context(), "handled")
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	Trace(log)(next).ServeHTTP(w, req)

	require.Len(t, traceID, 32)
	assert.Equal(t, traceID, w.Header().Get("X-Trace-ID"))

	entries, err := logBuf.EntriesWithMessage("handled")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, traceID, entries[0]["trace_id"])
}
