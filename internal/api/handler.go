package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"llmarena/internal/catalog"
	"llmarena/internal/domain"
	"llmarena/internal/evaluator"
	"llmarena/internal/leaderboard"
	"llmarena/internal/metrics"
	"llmarena/internal/notifications"
	"llmarena/internal/ratelimit"
	"llmarena/internal/storage"
	"llmarena/internal/stream"
	"llmarena/internal/telemetry"
)

// Upstream is the slice of the provider the handler needs for health
// probing.
type Upstream interface {
	HealthCheck(ctx context.Context) error
}

type HandlerConfig struct {
	Evaluator   *evaluator.Evaluator
	Store       *storage.Store
	Catalog     *catalog.Catalog
	RateLimiter ratelimit.RateLimiter
	Notifier    notifications.Notifier
	Upstream    Upstream
	EvaluateRPM int
}

type Handler struct {
	evaluator   *evaluator.Evaluator
	store       *storage.Store
	catalog     *catalog.Catalog
	rateLimiter ratelimit.RateLimiter
	notifier    notifications.Notifier
	upstream    Upstream
	evaluateRPM int
	mux         *http.ServeMux
}

func NewHandler(cfg HandlerConfig) *Handler {
	evaluateRPM := cfg.EvaluateRPM
	if evaluateRPM == 0 {
		evaluateRPM = 30
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notifications.NewInMemoryNotifier()
	}

	h := &Handler{
		evaluator:   cfg.Evaluator,
		store:       cfg.Store,
		catalog:     cfg.Catalog,
		rateLimiter: cfg.RateLimiter,
		notifier:    notifier,
		upstream:    cfg.Upstream,
		evaluateRPM: evaluateRPM,
		mux:         http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /api/evaluate", h.handleEvaluate)
	h.mux.HandleFunc("GET /api/models", h.handleListModels)
	h.mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	h.mux.HandleFunc("PUT /api/settings", h.handleSaveSettings)
	h.mux.HandleFunc("GET /api/conversations", h.handleListConversations)
	h.mux.HandleFunc("POST /api/conversations", h.handleSaveConversation)
	h.mux.HandleFunc("GET /api/jokes", h.handleListJokes)
	h.mux.HandleFunc("POST /api/jokes", h.handleSaveJoke)
	h.mux.HandleFunc("POST /api/jokes/{id}/comments", h.handleAddComment)
	h.mux.HandleFunc("POST /api/jokes/{id}/vote", h.handleVoteJoke)
	h.mux.HandleFunc("GET /api/leaderboard", h.handleLeaderboard)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /health/live", h.handleHealthLive)
	h.mux.HandleFunc("GET /health/ready", h.handleHealthReady)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// evaluateRequest is the inbound evaluation payload. ModelID evaluates a
// single model; ModelIDs fans out. Settings are optional and default to
// the stored ones.
type evaluateRequest struct {
	ModelID    string           `json:"modelId,omitempty"`
	ModelIDs   []string         `json:"modelIds,omitempty"`
	Messages   []domain.Message `json:"messages"`
	IsJokeMode bool             `json:"isJokeMode,omitempty"`
	Settings   *domain.Settings `json:"settings,omitempty"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	if h.rateLimiter != nil {
		allowed, remaining, resetAt, err := h.rateLimiter.Allow(ctx, clientIP(r), h.evaluateRPM)
		if err != nil {
			slog.Error("rate limiter error", "error", err, "request_id", requestID)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.evaluateRPM))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if !allowed {
			metrics.RecordRateLimitHit()
			slog.Warn("rate limit exceeded", "client", clientIP(r), "request_id", requestID)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	modelIDs := req.ModelIDs
	if len(modelIDs) == 0 && req.ModelID != "" {
		modelIDs = []string{req.ModelID}
	}
	if len(modelIDs) == 0 {
		writeError(w, http.StatusBadRequest, "modelId or modelIds required")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages required")
		return
	}

	settings := h.store.GetSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	if req.IsJokeMode && settings.JokeSystemPrompt != "" {
		settings.GlobalSystemPrompt = settings.JokeSystemPrompt
	}

	mode := "multi"
	if len(modelIDs) == 1 {
		mode = "single"
	}
	metrics.RecordEvaluation(mode)

	ctx, span := telemetry.StartSpan(ctx, "api.evaluate",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.Int("model_count", len(modelIDs)),
			attribute.Bool("joke_mode", req.IsJokeMode),
		))
	defer span.End()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Request-ID", requestID)

	start := time.Now()
	sw := stream.NewWriter(w)
	collector := stream.NewCollector()

	var events <-chan domain.StreamEvent
	if mode == "single" {
		events = h.evaluator.EvaluateModel(ctx, modelIDs[0], req.Messages, settings)
	} else {
		events = h.evaluator.Evaluate(ctx, domain.EvaluationRequest{
			ModelIDs: modelIDs,
			Messages: req.Messages,
			Settings: settings,
		})
	}

	for ev := range events {
		collector.Observe(ev)
		if err := sw.WriteEvent(ev); err != nil {
			// Client is gone; the request context cancellation tears
			// down the upstream streams.
			slog.Debug("client disconnected mid-stream", "request_id", requestID, "error", err)
			return
		}
	}

	responses := collector.Responses()

	if mode == "multi" {
		conv := domain.Conversation{
			Prompt:    lastUserPrompt(req.Messages),
			Responses: responses,
		}
		if err := h.store.SaveConversation(conv); err != nil {
			slog.Warn("failed to persist conversation", "error", err, "request_id", requestID)
		}
	}

	h.notifyFailures(responses)

	slog.Info("evaluation completed",
		"request_id", requestID,
		"models", len(modelIDs),
		"mode", mode,
		"latency_ms", time.Since(start).Milliseconds(),
	)
}

func (h *Handler) notifyFailures(responses map[string]domain.ModelResponse) {
	for modelID, resp := range responses {
		if resp.Error == "" {
			continue
		}
		n := notifications.Notification{
			Type:    notifications.NotificationModelFailed,
			ModelID: modelID,
			Message: resp.Error,
		}
		go func(n notifications.Notification) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.notifier.Send(ctx, n); err != nil {
				slog.Warn("failed to send notification", "error", err, "model", n.ModelID)
			}
		}(n)
	}
}

func lastUserPrompt(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}
	return ""
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.catalog.FreeModels(r.Context())
	if err != nil {
		slog.Error("failed to list models", "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch model catalog")
		return
	}

	writeJSON(w, http.StatusOK, models)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.GetSettings())
}

func (h *Handler) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings body")
		return
	}

	if err := h.store.SaveSettings(settings); err != nil {
		slog.Error("failed to save settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.store.Conversations()
	if err != nil {
		slog.Error("failed to list conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load conversations")
		return
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}

	writeJSON(w, http.StatusOK, conversations)
}

func (h *Handler) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	var conv domain.Conversation
	if err := json.NewDecoder(r.Body).Decode(&conv); err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation body")
		return
	}

	if err := h.store.SaveConversation(conv); err != nil {
		slog.Error("failed to save conversation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save conversation")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleListJokes(w http.ResponseWriter, r *http.Request) {
	jokes, err := h.store.Jokes()
	if err != nil {
		slog.Error("failed to list jokes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load jokes")
		return
	}
	if jokes == nil {
		jokes = []domain.Joke{}
	}

	writeJSON(w, http.StatusOK, jokes)
}

func (h *Handler) handleSaveJoke(w http.ResponseWriter, r *http.Request) {
	var joke domain.Joke
	if err := json.NewDecoder(r.Body).Decode(&joke); err != nil {
		writeError(w, http.StatusBadRequest, "invalid joke body")
		return
	}
	if joke.Content == "" {
		writeError(w, http.StatusBadRequest, "joke content required")
		return
	}

	saved, err := h.store.SaveJoke(joke)
	if err != nil {
		slog.Error("failed to save joke", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save joke")
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var comment domain.JokeComment
	if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment body")
		return
	}
	if comment.Text == "" {
		writeError(w, http.StatusBadRequest, "comment text required")
		return
	}

	joke, err := h.store.AddComment(r.PathValue("id"), comment)
	if err != nil {
		if err == domain.ErrJokeNotFound {
			writeError(w, http.StatusNotFound, "joke not found")
			return
		}
		slog.Error("failed to add comment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add comment")
		return
	}

	writeJSON(w, http.StatusOK, joke)
}

func (h *Handler) handleVoteJoke(w http.ResponseWriter, r *http.Request) {
	var vote struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&vote); err != nil {
		writeError(w, http.StatusBadRequest, "invalid vote body")
		return
	}
	if vote.Delta != 1 && vote.Delta != -1 {
		writeError(w, http.StatusBadRequest, "delta must be 1 or -1")
		return
	}

	joke, err := h.store.VoteJoke(r.PathValue("id"), vote.Delta)
	if err != nil {
		if err == domain.ErrJokeNotFound {
			writeError(w, http.StatusNotFound, "joke not found")
			return
		}
		slog.Error("failed to vote", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to vote")
		return
	}

	writeJSON(w, http.StatusOK, joke)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.store.Conversations()
	if err != nil {
		slog.Error("failed to load conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, leaderboard.Build(conversations))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	upstream := "ok"

	if h.upstream != nil {
		if err := h.upstream.HealthCheck(r.Context()); err != nil {
			status = "degraded"
			upstream = "unhealthy"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   status,
		"upstream": upstream,
	})
}

func (h *Handler) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(ip)
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "error",
			"code":    status,
		},
	})
}
