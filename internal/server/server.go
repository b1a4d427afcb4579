// Package server exposes the optimizer over HTTP and maps internal results
// to the response contract.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iwvelando/portfolio-optimizer/internal/config"
	"github.com/iwvelando/portfolio-optimizer/internal/governor"
	"github.com/iwvelando/portfolio-optimizer/internal/portfolio"
	"github.com/iwvelando/portfolio-optimizer/internal/swarm"
	"github.com/iwvelando/portfolio-optimizer/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Submitter runs one optimization job to completion. *governor.Governor is
// the production implementation.
type Submitter interface {
	Submit(ctx context.Context, req *portfolio.Request) (*swarm.Result, error)
}

type handler struct {
	logger       *zap.Logger
	submitter    Submitter
	maxBodyBytes int64
	version      string
	limiter      *rate.Limiter
}

// NewHandler constructs the HTTP handler serving the optimization API.
func NewHandler(logger *zap.Logger, submitter Submitter, cfg config.ServerConfig, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = constants.DefaultMaxBodyBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), burst)
	}

	h := &handler{
		logger:       logger,
		submitter:    submitter,
		maxBodyBytes: maxBodyBytes,
		version:      trimmedVersion,
		limiter:      limiter,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/optimize", h.handleOptimize)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/version", h.handleVersion)

	return mux
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if h.limiter != nil && !h.limiter.Allow() {
		h.respondError(w, http.StatusTooManyRequests, errorResponse{
			Error:     "request rate limit exceeded",
			Retryable: true,
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req portfolio.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodyBytes),
			})
			return
		}
		h.respondError(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("failed to decode request: %v", err),
		})
		return
	}

	if err := req.Validate(); err != nil {
		var vErr *portfolio.ValidationError
		if errors.As(err, &vErr) {
			h.respondError(w, http.StatusBadRequest, errorResponse{
				Error: vErr.Reason,
				Field: vErr.Field,
			})
			return
		}
		h.respondError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.submitter.Submit(r.Context(), &req)
	switch {
	case err == nil:
	case errors.Is(err, governor.ErrQueueFull):
		h.respondError(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "optimizer at capacity, retry later",
			Retryable: true,
		})
		return
	case errors.Is(err, governor.ErrClosed), errors.Is(err, context.Canceled):
		h.respondError(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "service shutting down",
			Retryable: true,
		})
		return
	case errors.Is(err, context.DeadlineExceeded):
		// The deadline elapsed before a worker picked the job up.
		h.respondError(w, http.StatusServiceUnavailable, errorResponse{
			Error:     "job deadline elapsed while queued, retry later",
			Retryable: true,
		})
		return
	default:
		// Numeric faults and anything unexpected: a defect, not an outcome.
		h.respondError(w, http.StatusInternalServerError, errorResponse{
			Error: fmt.Sprintf("optimization failed: %v", err),
		})
		return
	}

	h.logger.Info("optimization completed",
		zap.String("op", "server.handleOptimize"),
		zap.Int("dimension", req.Dimension),
		zap.Int("iterations", result.Iterations),
		zap.String("termination", string(result.Termination)),
		zap.Bool("feasible", result.Score.Feasible),
	)

	h.writeJSON(w, http.StatusOK, buildResponse(result))
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

func (h *handler) respondError(w http.ResponseWriter, status int, body errorResponse) {
	h.logger.Error("optimize request failed",
		zap.String("op", "server.handleOptimize"),
		zap.Int("status", status),
		zap.String("error", body.Error),
		zap.String("field", body.Field),
	)

	h.writeJSON(w, status, body)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
