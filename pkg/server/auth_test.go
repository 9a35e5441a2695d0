package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
)

func rejectAll(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
	return nil, assert.AnError
}

func acceptToken(token, subject string) tokenVerifier {
	return func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
		if rawIDToken == token {
			return &oidc.IDToken{Subject: subject}, nil
		}
		return nil, assert.AnError
	}
}

func TestAuthMiddleware(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subject, ok := r.Context().Value(subjectContextKey).(string); ok {
			w.Header().Set("X-Subject", subject)
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Open Without Verifiers", func(t *testing.T) {
		srv := newTestServer()
		req := httptest.NewRequest("GET", "/api/providers", nil)
		w := httptest.NewRecorder()
		srv.authMiddleware(testHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Subject"))
	})

	t.Run("Missing Token", func(t *testing.T) {
		srv := newTestServer()
		srv.oidcVerifiers = map[string]tokenVerifier{"test": acceptToken("good", "user-1")}
		req := httptest.NewRequest("GET", "/api/providers", nil)
		w := httptest.NewRecorder()
		srv.authMiddleware(testHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"missing auth token"}`, w.Body.String())
	})

	t.Run("Not Bearer", func(t *testing.T) {
		srv := newTestServer()
		srv.oidcVerifiers = map[string]tokenVerifier{"test": acceptToken("good", "user-1")}
		req := httptest.NewRequest("GET", "/api/providers", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
		w := httptest.NewRecorder()
		srv.authMiddleware(testHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		srv := newTestServer()
		srv.oidcVerifiers = map[string]tokenVerifier{
			"test":  acceptToken("good", "user-1"),
			"other": rejectAll,
		}
		req := httptest.NewRequest("GET", "/api/providers", nil)
		req.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		srv.authMiddleware(testHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid auth token"}`, w.Body.String())
	})

	t.Run("Valid Token", func(t *testing.T) {
		srv := newTestServer()
		srv.oidcVerifiers = map[string]tokenVerifier{
			"other": rejectAll,
			"test":  acceptToken("good", "user-1"),
		}
		req := httptest.NewRequest("GET", "/api/providers", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		srv.authMiddleware(testHandler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1", w.Header().Get("X-Subject"))
	})

	t.Run("Healthz Is Public", func(t *testing.T) {
		srv := newTestServer()
		srv.oidcVerifiers = map[string]tokenVerifier{"test": rejectAll}
		req := httptest.NewRequest("GET", "/healthz", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthenticateToken(t *testing.T) {
	srv := newTestServer()
	_, err := srv.authenticateToken(context.Background(), "anything")
	assert.Error(t, err)

	srv.oidcVerifiers = map[string]tokenVerifier{"a": rejectAll, "b": rejectAll}
	_, err = srv.authenticateToken(context.Background(), "anything")
	assert.ErrorIs(t, err, assert.AnError)

	srv.oidcVerifiers["c"] = acceptToken("tok", "sub")
	subject, err := srv.authenticateToken(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, "sub", subject)
}
