package analytics

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Emitter publishes product-analytics events. Emission is fire-and-forget:
// it never blocks the request path and failures are only logged.
type Emitter interface {
	Emit(event string, userID uuid.UUID, props map[string]interface{})
}

// HTTPEmitter posts events as JSON to an ingestion endpoint.
type HTTPEmitter struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPEmitter(endpoint, apiKey string) *HTTPEmitter {
	return &HTTPEmitter{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type eventPayload struct {
	Event      string                 `json:"event"`
	UserID     string                 `json:"user_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

func (e *HTTPEmitter) Emit(event string, userID uuid.UUID, props map[string]interface{}) {
	payload := eventPayload{
		Event:      event,
		UserID:     userID.String(),
		Properties: props,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	go func() {
		body, err := json.Marshal(payload)
		if err != nil {
			slog.Error("analytics marshal failed", "event", event, "error", err)
			return
		}

		req, err := http.NewRequest(http.MethodPost, e.endpoint, bytes.NewReader(body))
		if err != nil {
			slog.Error("analytics request build failed", "event", event, "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if e.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+e.apiKey)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			slog.Error("analytics emit failed", "event", event, "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			slog.Error("analytics sink rejected event", "event", event, "status", resp.StatusCode)
		}
	}()
}

// Nop discards all events. Used when no endpoint is configured.
type Nop struct{}

func (Nop) Emit(string, uuid.UUID, map[string]interface{}) {}

// FromConfig picks the HTTP emitter when an endpoint is set, Nop otherwise.
func FromConfig(endpoint, apiKey string) Emitter {
	if endpoint == "" {
		return Nop{}
	}
	return NewHTTPEmitter(endpoint, apiKey)
}
