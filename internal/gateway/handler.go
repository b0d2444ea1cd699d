// Package gateway implements the public chat endpoint: a thin, rate-limited
// proxy in front of the Anthropic Messages API.
//
// The endpoint speaks a fixed wire contract with the calendar frontend, so
// responses here are flat JSON objects rather than the structured error
// envelopes used on the operational surfaces (health, version, metrics).
package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/calgate/calgate/internal/anthropic"
	"github.com/calgate/calgate/internal/gateway/prompt"
	"github.com/calgate/calgate/internal/metrics"
	"github.com/calgate/calgate/internal/ratelimit"
)

const (
	// DefaultModel is the upstream model used for calendar extraction.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens bounds the completion size.
	DefaultMaxTokens = 2048

	// defaultSharedKeyEnv names the environment variable holding the
	// server-side credential. It is read per request so the key can be
	// rotated without a restart.
	defaultSharedKeyEnv = "ANTHROPIC_API_KEY"
)

// Config assembles a chat handler.
type Config struct {
	Limiter      *ratelimit.Limiter
	Client       *anthropic.Client
	Model        string
	MaxTokens    int
	SystemPrompt string
	SharedKeyEnv string
	Logger       *logging.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Handler serves POST /api/chat.
type Handler struct {
	limiter      *ratelimit.Limiter
	client       *anthropic.Client
	model        string
	maxTokens    int
	system       string
	sharedKeyEnv string
	logger       *logging.Logger
	now          func() time.Time
}

// New builds a chat handler with defaults applied.
func New(cfg Config) *Handler {
	h := &Handler{
		limiter:      cfg.Limiter,
		client:       cfg.Client,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		system:       cfg.SystemPrompt,
		sharedKeyEnv: cfg.SharedKeyEnv,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}
	if h.limiter == nil {
		h.limiter = ratelimit.New(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	}
	if h.client == nil {
		h.client = anthropic.NewClient("")
	}
	if h.model == "" {
		h.model = DefaultModel
	}
	if h.maxTokens <= 0 {
		h.maxTokens = DefaultMaxTokens
	}
	if h.system == "" {
		h.system = prompt.Default()
	}
	if h.sharedKeyEnv == "" {
		h.sharedKeyEnv = defaultSharedKeyEnv
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// ServeHTTP implements the chat contract: CORS on every response, OPTIONS
// preflight, POST only, admission only when the shared credential is used.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
		// fall through
	default:
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Messages are required"})
		metrics.RecordChatRequest("validation_error", false)
		return
	}

	messages, ok := decodeMessages(req.Messages)
	if !ok {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Messages are required"})
		metrics.RecordChatRequest("validation_error", false)
		return
	}

	// A caller-supplied key bypasses admission entirely: the caller spends
	// their own quota, so the shared budget is untouched.
	usingUserKey := req.UserAPIKey != ""
	apiKey := req.UserAPIKey

	if !usingUserKey {
		apiKey = os.Getenv(h.sharedKeyEnv)
		if apiKey == "" {
			h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server API key not configured"})
			metrics.RecordChatRequest("missing_server_key", false)
			return
		}

		clientKey := ratelimit.ClientKey(r)
		decision := h.limiter.Check(clientKey)
		metrics.SetTrackedIdentities(int64(h.limiter.Size()))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(h.limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			resetIn := minutesUntil(decision.ResetAt, h.now())
			if h.logger != nil {
				h.logger.Info("Rate limit exceeded",
					zap.String("client", clientKey),
					zap.Int("reset_in_minutes", resetIn))
			}
			metrics.RecordChatRequest("rate_limited", false)
			metrics.RecordRateLimitDenial()
			h.writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:   fmt.Sprintf("Rate limit exceeded. Try again in %d minutes, or use your own API key.", resetIn),
				ResetIn: resetIn,
			})
			return
		}
	}

	upstreamReq := &anthropic.Request{
		Model:     h.model,
		MaxTokens: h.maxTokens,
		System:    h.system,
		Messages:  messages,
	}

	start := h.now()
	resp, err := h.client.Complete(r.Context(), apiKey, upstreamReq)
	metrics.ObserveUpstreamLatency(time.Since(start))

	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			// Provider-reported errors pass through so the frontend can show
			// the real reason (bad user key, oversized input, and so on).
			if h.logger != nil {
				h.logger.Warn("Upstream rejected chat request",
					zap.String("error_type", apiErr.Type),
					zap.Int("upstream_status", apiErr.StatusCode),
					zap.Bool("using_user_key", usingUserKey))
			}
			metrics.RecordChatRequest("upstream_error", usingUserKey)
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: apiErr.Message})
			return
		}

		if h.logger != nil {
			h.logger.Error("Chat request failed", zap.Error(err))
		}
		metrics.RecordChatRequest("transport_error", usingUserKey)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to process request"})
		return
	}

	metrics.RecordChatRequest("ok", usingUserKey)
	h.writeJSON(w, http.StatusOK, chatResponse{
		Content:      resp.Text(),
		UsingUserKey: usingUserKey,
	})
}

// decodeMessages enforces that messages is present and is a JSON array.
// An empty array is valid and passes through to the provider's own
// validation.
func decodeMessages(raw json.RawMessage) ([]anthropic.Message, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}

	var messages []anthropic.Message
	if err := json.Unmarshal(trimmed, &messages); err != nil {
		return nil, false
	}
	if messages == nil {
		messages = []anthropic.Message{}
	}
	return messages, true
}

func minutesUntil(resetAt, now time.Time) int {
	minutes := int(math.Ceil(resetAt.Sub(now).Minutes()))
	if minutes < 0 {
		return 0
	}
	return minutes
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && h.logger != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
