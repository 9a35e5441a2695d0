package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/raterudder/solartracker/pkg/log"
	"github.com/raterudder/solartracker/pkg/scenario"
	"github.com/raterudder/solartracker/pkg/types"
)

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	includeRecords := true
	if v := r.URL.Query().Get("records"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, "records must be a boolean", http.StatusBadRequest)
			return
		}
		includeRecords = b
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var sc scenario.Scenario
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode scenario", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	run, err := sc.Build(s.providers, *s.simConfig)
	if err != nil {
		if types.IsValidationError(err) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to build simulation", slog.Any("error", err))
		writeJSONError(w, "failed to build simulation", http.StatusInternalServerError)
		return
	}
	if steps := run.Steps(); steps > s.maxSteps {
		writeJSONError(w, fmt.Sprintf("simulation spans %d steps, the limit is %d", steps, s.maxSteps), http.StatusBadRequest)
		return
	}

	ctx = log.With(ctx, log.Ctx(ctx).With(slog.String("run", run.String())))
	began := time.Now()
	res, err := run.Execute(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Ctx(ctx).WarnContext(ctx, "simulation canceled", slog.Any("error", err))
			writeJSONError(w, "simulation canceled", http.StatusServiceUnavailable)
			return
		}
		if types.IsValidationError(err) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "simulation failed", slog.Any("error", err))
		writeJSONError(w, "simulation failed", http.StatusInternalServerError)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "simulation complete",
		slog.Int("records", len(res.Records)),
		slog.Duration("elapsed", time.Since(began)),
	)

	if !includeRecords {
		res.Records = []types.Record{}
	}
	writeJSON(ctx, w, res)
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, struct {
		Default   string   `json:"default"`
		Providers []string `json:"providers"`
	}{
		Default:   s.providers.Default(),
		Providers: s.providers.Names(),
	})
}
