package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/config"
)

// Pipeline is the set of runs a trigger can start.
type Pipeline interface {
	RunResults(ctx context.Context) error
	RunTicket(ctx context.Context) error
}

type response struct {
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
}

type TriggerHandler struct {
	pipeline Pipeline
	timeout  time.Duration
	logger   *zap.Logger
}

func NewTriggerHandler(pipeline Pipeline, timeout time.Duration, logger *zap.Logger) *TriggerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &TriggerHandler{
		pipeline: pipeline,
		timeout:  timeout,
		logger:   logger,
	}
}

// Register adds one POST route per configured hook plus GET /healthz.
func (h *TriggerHandler) Register(router *mux.Router, hooks []config.WebhookConfig) error {
	router.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)

	for _, hook := range hooks {
		switch hook.Name {
		case config.HookResults:
			router.HandleFunc(hook.Path, h.HandleResults).Methods(http.MethodPost)
		case config.HookTicket:
			router.HandleFunc(hook.Path, h.HandleTicket).Methods(http.MethodPost)
		default:
			return apperr.Configuration(nil, "unknown hook %q", hook.Name)
		}
		h.logger.Info("Registered trigger route",
			zap.String("name", hook.Name),
			zap.String("path", hook.Path))
	}
	return nil
}

func (h *TriggerHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, config.HookResults, h.pipeline.RunResults)
}

func (h *TriggerHandler) HandleTicket(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, config.HookTicket, h.pipeline.RunTicket)
}

func (h *TriggerHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, response{Status: "ok"})
}

func (h *TriggerHandler) run(w http.ResponseWriter, r *http.Request, name string, run func(context.Context) error) {
	// A caller hanging up must not abort a run halfway through delivery.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()

	started := time.Now()
	if err := run(ctx); err != nil {
		kind := apperr.Kind(err)
		h.logger.Error("Triggered run failed",
			zap.String("pipeline", name),
			zap.String("kind", kind),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))

		status := http.StatusInternalServerError
		if apperr.Is(err, apperr.ErrConfiguration) {
			status = http.StatusBadRequest
		}
		h.write(w, status, response{Status: "error", Kind: kind, Error: err.Error()})
		return
	}

	h.logger.Info("Triggered run completed",
		zap.String("pipeline", name),
		zap.Duration("elapsed", time.Since(started)))
	h.write(w, http.StatusOK, response{Status: "success"})
}

func (h *TriggerHandler) write(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
