package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/contract-analytics/internal/analytics"
	"github.com/iwvelando/contract-analytics/internal/record"
	"github.com/iwvelando/contract-analytics/internal/source"
	"github.com/iwvelando/contract-analytics/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Engine runs analytics cycles on behalf of the handler.
type Engine interface {
	Run(ctx context.Context, raw record.RawBatch) (analytics.Result, error)
	Submit(ctx context.Context, raw record.RawBatch) uint64
	Snapshot() analytics.Snapshot
}

type handler struct {
	logger        *zap.Logger
	engine        Engine
	maxUploadSize int64
	version       string
	limiter       *rate.Limiter
}

// Option customizes the handler.
type Option func(*handler)

// WithRateLimit throttles the analysis endpoints to rps requests per second
// with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *handler) {
		if rps > 0 && burst > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewHandler constructs the HTTP handler that serves the analytics API.
func NewHandler(logger *zap.Logger, engine Engine, maxUploadSize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		engine:        engine,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		limiter:       rate.NewLimiter(rate.Limit(constants.DefaultRequestsPerSecond), constants.DefaultRequestBurst),
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()

	// Synchronous analysis of an uploaded batch
	mux.HandleFunc("/api/analytics", h.handleAnalyze)

	// Background analysis; progress is polled through the status endpoint
	mux.HandleFunc("/api/analytics/submit", h.handleSubmit)

	mux.HandleFunc("/api/analytics/status", h.handleStatus)

	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type submitResponse struct {
	Seq uint64 `json:"seq"`
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalyze"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, op) {
		return
	}

	start := time.Now()
	raw, ok := h.readBatch(w, r, op)
	if !ok {
		return
	}

	result, err := h.engine.Run(r.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, analytics.ErrSuperseded):
			h.respondErrorWithOp(w, http.StatusConflict, "analysis superseded by a newer request", op)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			h.respondErrorWithOp(w, http.StatusServiceUnavailable, fmt.Sprintf("analysis cancelled: %v", err), op)
		default:
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("analysis failed: %v", err), op)
		}
		return
	}

	h.logger.Info("analysis completed",
		zap.String("op", op),
		zap.Int("contracts", result.Stats.Total),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSubmit"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if !h.allow(w, op) {
		return
	}

	raw, ok := h.readBatch(w, r, op)
	if !ok {
		return
	}

	// The cycle outlives the request.
	seq := h.engine.Submit(context.WithoutCancel(r.Context()), raw)
	w.Header().Set("Location", "/api/analytics/status")
	h.writeJSON(w, http.StatusAccepted, submitResponse{Seq: seq})
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) allow(w http.ResponseWriter, op string) bool {
	if h.limiter.Allow() {
		return true
	}
	w.Header().Set("Retry-After", "1")
	h.respondErrorWithOp(w, http.StatusTooManyRequests, "too many analysis requests", op)
	return false
}

// readBatch decodes a JSON body, or a YAML body when the content type says
// so, into a raw batch.
func (h *handler) readBatch(w http.ResponseWriter, r *http.Request, op string) (record.RawBatch, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return record.RawBatch{}, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return record.RawBatch{}, false
	}

	var raw record.RawBatch
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		raw, err = source.Decode(data)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error decoding records, %v", err), op)
		return record.RawBatch{}, false
	}

	h.logger.Debug("decoded batch",
		zap.String("op", op),
		zap.Int("contracts", len(raw.Contracts)),
		zap.Int("vendors", len(raw.Vendors)),
		zap.Int("bytes", len(data)),
	)
	return raw, true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("analytics request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}

// Serve listens on cfg.Address until ctx is done, then shuts down
// gracefully.
func Serve(ctx context.Context, cfg *Config, logger *zap.Logger, engine Engine, version string) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           NewHandler(logger, engine, cfg.UploadSizeBytes(), version, WithRateLimit(cfg.RequestsPerSecond, cfg.Burst)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("op", "server.Serve"), zap.String("address", cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	<-errCh
	return nil
}
