package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPInvoker calls the agent-execution endpoint over HTTP POST. It carries
// no retry logic by design — per-call failures are surfaced directly so the
// caller can leave state coherent for the next natural re-scan.
type HTTPInvoker struct {
	endpoint string
	client   *http.Client
}

// NewHTTPInvoker creates an HTTPInvoker against endpoint with the given
// per-call timeout.
func NewHTTPInvoker(endpoint string, timeout time.Duration) *HTTPInvoker {
	return &HTTPInvoker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Invoke POSTs req as JSON and unwraps the nested success/data/result
// envelope.
func (h *HTTPInvoker) Invoke(ctx context.Context, req Request) (Response, error) {
	correlationID := uuid.New().String()
	log := slog.With("correlation_id", correlationID, "model", req.Model)

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling LLM request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("building LLM request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Correlation-Id", correlationID)

	log.Debug("dispatching LLM call")
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("calling LLM endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading LLM response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("LLM endpoint returned status %d: %s", resp.StatusCode, respBody)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return Response{}, fmt.Errorf("parsing LLM response envelope: %w", err)
	}

	if !env.Success || !env.Data.Success {
		msg := env.Data.Error
		if msg == "" {
			msg = "LLM call reported failure with no error detail"
		}
		return Response{}, fmt.Errorf("LLM call failed: %s", msg)
	}

	log.Debug("LLM call complete", "result_len", len(env.Data.Result))
	return Response{Result: env.Data.Result}, nil
}
