package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"mmjira/appctx"
)

func TestWithAuth(t *testing.T) {
	verifier := func(ctx context.Context, token string) (string, error) {
		if token == "good" {
			return "user_123", nil
		}
		return "", errors.New("bad signature")
	}
	m := NewAuthMiddlewareWithVerifier(verifier)

	var subject string
	handler := m.WithAuth(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := appctx.GetAdmin(r.Context())
		if ok {
			subject = admin.AuthProviderID
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject = ""
			req := httptest.NewRequest(http.MethodGet, "/api/mappings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler(recorder, req)

			assert.Equal(t, tt.expectedStatus, recorder.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Equal(t, "user_123", subject)
			} else {
				assert.Empty(t, subject)
				assert.Contains(t, recorder.Body.String(), `"error"`)
			}
		})
	}
}
