package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"foodbot/internal/logger"
)

// Pinger reports backend connectivity for the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles HTTP requests for the webhook service
type Handler struct {
	dispatcher *Dispatcher
	db         Pinger
	logger     *logger.Logger
	timeout    time.Duration
}

// NewHandler creates a new webhook handler. timeout bounds the
// persistence work done on behalf of a single request.
func NewHandler(dispatcher *Dispatcher, db Pinger, log *logger.Logger, timeout time.Duration) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		db:         db,
		logger:     log,
		timeout:    timeout,
	}
}

// HandleWebhook handles POST /webhook requests. Every decodable request
// gets HTTP 200 with a fulfillmentText body, including validation
// failures: the NLU layer echoes that text to the user and treats
// non-200 responses as outages.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse webhook body", requestID, err, nil)
		h.writeFulfillment(w, MsgInvalidRequest, requestID)
		return
	}

	intent := req.QueryResult.Intent.DisplayName
	params := req.QueryResult.Parameters
	sessionID := ExtractSessionID(req.QueryResult.OutputContexts)

	if intent == "" || params == nil || sessionID == "" {
		h.logger.Debug("validation_failed", "Request missing intent, parameters, or session id", requestID, map[string]interface{}{
			"intent":     intent,
			"has_params": params != nil,
			"session_id": sessionID,
		})
		h.writeFulfillment(w, MsgInvalidRequest, requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	text := h.dispatcher.Dispatch(ctx, intent, params, sessionID, requestID)

	h.logger.Debug("intent_dispatched", "Dispatched webhook intent", requestID, map[string]interface{}{
		"intent":     intent,
		"session_id": sessionID,
	})

	h.writeFulfillment(w, text, requestID)
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := true
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		healthy = false
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "webhook-service",
		"healthy":   healthy,
	}

	w.Header().Set("Content-Type", "application/json")

	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		response["status"] = "unhealthy"
	}

	json.NewEncoder(w).Encode(response)
}

// writeFulfillment writes the response envelope the NLU layer expects
func (h *Handler) writeFulfillment(w http.ResponseWriter, text, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(WebhookResponse{FulfillmentText: text}); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// SetupRoutes sets up the HTTP routes
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/webhook", h.withLogging(h.HandleWebhook))
	mux.HandleFunc("/health", h.withLogging(h.HealthCheck))

	return mux
}

// withLogging adds request logging middleware
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.Header.Get("User-Agent"),
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next(rw, r)

		duration := time.Since(start)
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
