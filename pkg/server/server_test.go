package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raterudder/solartracker/pkg/ephemeris"
	"github.com/raterudder/solartracker/pkg/ephemeris/ephemerismock"
	"github.com/raterudder/solartracker/pkg/log"
	"github.com/raterudder/solartracker/pkg/simulator"
	"github.com/raterudder/solartracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

func newTestServer() *Server {
	providers := ephemeris.NewMap()
	providers.SetProvider(ephemeris.ProviderMeeus, ephemeris.NewMeeus())
	providers.SetProvider(ephemeris.ProviderNOAA, ephemeris.NewNOAA())
	providers.SetProvider("fixed", ephemerismock.Fixed{Azimuth: math.Pi, Elevation: 0.5})

	broken := &ephemerismock.MockProvider{}
	broken.On("SunPosition", mock.Anything, mock.Anything, mock.Anything).Return(types.SunPosition{}, assert.AnError)
	providers.SetProvider("broken", broken)

	return &Server{
		providers: providers,
		simConfig: &simulator.Config{
			Model:       simulator.DefaultEnergyModel(),
			StepsPerDay: simulator.DefaultStepsPerDay,
		},
		maxSteps:   DefaultMaxSteps,
		serverName: "solartracker-test",
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer()
	handler := srv.setupHandler()

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "solartracker-test", w.Header().Get("Server"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestListProviders(t *testing.T) {
	srv := newTestServer()
	handler := srv.setupHandler()

	req := httptest.NewRequest("GET", "/api/providers", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		Default   string   `json:"default"`
		Providers []string `json:"providers"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, ephemeris.ProviderMeeus, body.Default)
	assert.Equal(t, []string{"broken", "fixed", ephemeris.ProviderMeeus, ephemeris.ProviderNOAA}, body.Providers)
}

func TestCORS(t *testing.T) {
	t.Run("Disabled Without Origins", func(t *testing.T) {
		srv := newTestServer()
		handler := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/providers", nil)
		req.Header.Set("Origin", "https://plots.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Allowed Origin", func(t *testing.T) {
		srv := newTestServer()
		srv.corsOrigins = []string{"https://plots.example.com"}
		handler := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/providers", nil)
		req.Header.Set("Origin", "https://plots.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://plots.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Other Origin", func(t *testing.T) {
		srv := newTestServer()
		srv.corsOrigins = []string{"https://plots.example.com"}
		handler := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/providers", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight Skips Auth", func(t *testing.T) {
		srv := newTestServer()
		srv.corsOrigins = []string{"https://plots.example.com"}
		srv.oidcVerifiers = map[string]tokenVerifier{"test": rejectAll}
		handler := srv.setupHandler()

		req := httptest.NewRequest("OPTIONS", "/api/simulate", nil)
		req.Header.Set("Origin", "https://plots.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.NotEqual(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "https://plots.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func TestWriteJSON(t *testing.T) {
	t.Run("Encodes", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSON(context.Background(), w, map[string]float64{"x": 1.5})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"x":1.5}`, w.Body.String())
	})

	t.Run("Unencodable Value", func(t *testing.T) {
		w := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			writeJSON(context.Background(), w, map[string]float64{"x": math.NaN()})
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"failed to encode response"}`, w.Body.String())
	})
}
