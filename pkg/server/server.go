package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/solartracker/pkg/common"
	"github.com/raterudder/solartracker/pkg/ephemeris"
	"github.com/raterudder/solartracker/pkg/log"
	"github.com/raterudder/solartracker/pkg/simulator"
)

// DefaultMaxSteps is one leap year of one-minute steps.
const DefaultMaxSteps = 366 * 24 * 60

// maxBodyBytes limits request bodies to 1MB.
const maxBodyBytes = 1 << 20

type contextKey string

const subjectContextKey contextKey = "subject"

// tokenVerifier is a function that validates an OIDC ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server exposes the simulator over an HTTP JSON API.
type Server struct {
	providers *ephemeris.Map
	simConfig *simulator.Config

	listenAddr string
	httpServer *http.Server

	maxSteps      int
	corsOrigins   []string
	oidcVerifiers map[string]tokenVerifier
	serverName    string
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(providers *ephemeris.Map, cfg *simulator.Config) *Server {
	srv := &Server{
		providers:  providers,
		simConfig:  cfg,
		maxSteps:   DefaultMaxSteps,
		serverName: "solartracker/" + common.Version(),
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	maxSteps := lflag.String("max-steps", strconv.Itoa(DefaultMaxSteps), "Maximum number of steps a single simulate request may run")
	corsOrigins := lflag.String("cors-origins", "", "comma-delimited list of origins allowed to call the API from a browser")
	oidcIssuer := lflag.String("oidc-issuer", "https://accounts.google.com", "OIDC issuer used to verify bearer tokens")
	oidcAudience := lflag.String("oidc-audience", "", "audience to validate on bearer id tokens; empty disables auth")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr

		n, err := strconv.Atoi(*maxSteps)
		if err != nil || n <= 0 {
			log.Ctx(context.Background()).Error("max-steps must be a positive integer", slog.String("max-steps", *maxSteps))
			os.Exit(1)
		}
		srv.maxSteps = n

		if *corsOrigins != "" {
			for _, origin := range strings.Split(*corsOrigins, ",") {
				if origin = strings.TrimSpace(origin); origin != "" {
					srv.corsOrigins = append(srv.corsOrigins, origin)
				}
			}
		}

		if *oidcAudience != "" {
			ctx := oidc.ClientContext(context.Background(), common.HTTPClient(10*time.Second))
			provider, err := oidc.NewProvider(ctx, *oidcIssuer)
			if err != nil {
				log.Ctx(ctx).Error("failed to initialize OIDC provider", slog.String("issuer", *oidcIssuer), slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcVerifiers = map[string]tokenVerifier{
				*oidcIssuer: provider.Verifier(&oidc.Config{ClientID: *oidcAudience}).Verify,
			}
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/simulate", s.handleSimulate)
	apiMux.HandleFunc("GET /api/providers", s.handleListProviders)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.corsMiddleware(s.securityHeadersMiddleware(mux))))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  15 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

// writeJSON encodes v before writing the status so an encoding failure becomes a 500.
func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to encode response", slog.Any("error", err))
		writeJSONError(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(b, '\n')); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
