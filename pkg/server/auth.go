package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/raterudder/solartracker/pkg/log"
)

// authMiddleware requires a valid bearer ID token on every API request when any verifiers
// are configured. Without verifiers the API is open.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("reqPath", r.URL.Path)))

		if len(s.oidcVerifiers) == 0 {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Ctx(ctx).WarnContext(ctx, "no auth header found")
			writeJSONError(w, "missing auth token", http.StatusUnauthorized)
			return
		}
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			log.Ctx(ctx).WarnContext(ctx, "invalid auth header")
			writeJSONError(w, "invalid auth header", http.StatusBadRequest)
			return
		}

		subject, err := s.authenticateToken(ctx, token)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
			writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
			return
		}

		ctx = context.WithValue(ctx, subjectContextKey, subject)
		ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("subject", subject)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticateToken returns the subject of the first verifier that accepts token.
func (s *Server) authenticateToken(ctx context.Context, token string) (string, error) {
	var errs []error
	for issuer, verifier := range s.oidcVerifiers {
		idToken, err := verifier(ctx, token)
		if err == nil {
			return idToken.Subject, nil
		}
		errs = append(errs, fmt.Errorf("%s verifier failed: %w", issuer, err))
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return "", errors.New("no verifiers configured")
}
