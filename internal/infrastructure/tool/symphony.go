// Package tool implements the agent.Tool surface offered to the Agent
// Runtime: the symphony_save client against the hosted symphony
// platform (§6.2), and the macro/price fixtures exercising the
// data-heavy tool compression path (§4.1) in tests. Grounded on the
// teacher's HTTPCallbackObserver
// (internal/application/observer/http_observer.go): a plain *http.Client
// wrapped in a small struct, functional-option configuration, JSON body,
// context-aware request construction.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainerrors "github.com/quantpipeline/tradingagent/internal/domain/errors"
)

// SymphonySave is the agent.Tool client for symphony_save(payload) ->
// {symphony_id, version_id} (§6.2). It makes exactly one HTTP call per
// Invoke; the bounded-retry policy around rate limits lives one layer up
// in stages.Deploy (agent.DeploySaveBackoff), matching the teacher's own
// split between a thin transport and a caller-owned retry policy.
type SymphonySave struct {
	url     string
	apiKey  string
	client  *http.Client
}

// SymphonySaveOption configures a SymphonySave client.
type SymphonySaveOption func(*SymphonySave)

// WithSymphonySaveTimeout overrides the default 15s request timeout.
func WithSymphonySaveTimeout(d time.Duration) SymphonySaveOption {
	return func(s *SymphonySave) { s.client.Timeout = d }
}

// WithSymphonySaveHTTPClient overrides the http.Client entirely, for tests.
func WithSymphonySaveHTTPClient(c *http.Client) SymphonySaveOption {
	return func(s *SymphonySave) { s.client = c }
}

// NewSymphonySave builds a symphony_save client posting to url,
// authenticated with apiKey.
func NewSymphonySave(url, apiKey string, opts ...SymphonySaveOption) *SymphonySave {
	s := &SymphonySave{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SymphonySave) Name() string { return "symphony_save" }

func (s *SymphonySave) Description() string {
	return "Saves a finalized symphony_score payload to the hosted symphony platform and returns its symphony_id."
}

func (s *SymphonySave) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symphony_score": map[string]any{"type": "object"},
			"color":          map[string]any{"type": "string"},
			"hashtag":        map[string]any{"type": "string"},
			"asset_class":    map[string]any{"type": "string"},
			"name":           map[string]any{"type": "string"},
			"description":    map[string]any{"type": "string"},
		},
		"required": []string{"symphony_score", "name"},
	}
}

// Invoke posts args as the request body and returns the raw JSON
// response body as a string; stages.Deploy parses symphony_id out of it.
func (s *SymphonySave) Invoke(ctx context.Context, args map[string]any) (string, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("symphony_save: marshal args: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("symphony_save: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &domainerrors.ProviderError{Provider: "symphony_save", Class: domainerrors.ProviderErrorNetwork, Cause: fmt.Errorf("symphony_save: request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("symphony_save: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		class := domainerrors.ProviderErrorBadRequest
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			class = domainerrors.ProviderErrorRateLimit
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			class = domainerrors.ProviderErrorAuth
		case resp.StatusCode >= 500:
			class = domainerrors.ProviderErrorNetwork
		}
		return "", &domainerrors.ProviderError{Provider: "symphony_save", Class: class, Cause: fmt.Errorf("symphony_save: platform returned status %d: %s", resp.StatusCode, string(respBody))}
	}

	return string(respBody), nil
}
