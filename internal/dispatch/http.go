package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/actiond/actiond/internal/registry"
	"github.com/actiond/actiond/pkg/errors"
)

// Compile-time interface assertion.
var _ Gateway = (*HTTPGateway)(nil)

const defaultTimeout = 30 * time.Second

// maxResponseSize bounds how much of a backend response we buffer.
const maxResponseSize = 1 << 20

// HTTPGateway dispatches live actions over HTTP: POST /liveactions to
// run, DELETE /liveactions/{ref} to cancel. Every call carries a bounded
// timeout; a timeout is a failure, never an indeterminate state.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Config contains gateway configuration.
type Config struct {
	// BaseURL is the execution backend root (e.g. http://localhost:9101).
	BaseURL string

	// Timeout bounds each gateway call (default: 30s).
	Timeout time.Duration
}

// NewHTTPGateway creates a gateway against the given backend.
func NewHTTPGateway(cfg Config, logger *slog.Logger) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// liveActionRequest is the wire form of a run request.
type liveActionRequest struct {
	ActionID   string         `json:"action_id"`
	ActionName string         `json:"action_name"`
	EntryPoint string         `json:"entry_point"`
	RunnerType string         `json:"runner_type"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// liveActionResponse is the wire form of the backend's acknowledgment.
type liveActionResponse struct {
	Ref      string `json:"ref"`
	Deferred bool   `json:"deferred"`
}

// Issue starts a run of the action.
func (g *HTTPGateway) Issue(ctx context.Context, action *registry.Action, params map[string]any) (Outcome, error) {
	body, err := json.Marshal(liveActionRequest{
		ActionID:   action.ID,
		ActionName: action.Name,
		EntryPoint: action.EntryPoint,
		RunnerType: action.RunnerType,
		Parameters: params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode live action: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/liveactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &errors.DispatchError{Reason: "live action post failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &errors.DispatchError{Reason: "reading live action response", Cause: err}
	}

	// 202 means the backend queued the run; everything else is a
	// synchronous terminal answer.
	var ack liveActionResponse
	if resp.StatusCode == http.StatusAccepted {
		if err := json.Unmarshal(respBody, &ack); err != nil || ack.Ref == "" {
			return nil, &errors.DispatchError{
				StatusCode: resp.StatusCode,
				Reason:     "deferred acknowledgment without a tracking ref",
			}
		}
		g.logger.Debug("live action deferred", "ref", ack.Ref)
		return Deferred{Ref: ack.Ref}, nil
	}

	if json.Unmarshal(respBody, &ack) == nil && ack.Deferred && ack.Ref != "" {
		g.logger.Debug("live action deferred", "ref", ack.Ref)
		return Deferred{Ref: ack.Ref}, nil
	}

	return Completed{
		StatusCode: resp.StatusCode,
		Reason:     resp.Status,
		Body:       respBody,
	}, nil
}

// Cancel stops a live action. Non-2xx responses are reported as a
// Completed outcome; only transport failures are errors.
func (g *HTTPGateway) Cancel(ctx context.Context, ref string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	target := g.baseURL + "/liveactions/" + url.PathEscape(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &errors.DispatchError{Reason: "live action delete failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if resp.StatusCode >= 300 {
		g.logger.Warn("live action cancel rejected", "ref", ref, "status", resp.StatusCode)
	}
	return Completed{
		StatusCode: resp.StatusCode,
		Reason:     resp.Status,
		Body:       respBody,
	}, nil
}
