// Package fixer is the outbound client for the external code-generation
// service that rewrites failed SQL. The service is opaque to the core: one
// JSON call in, a candidate statement (or nothing) out.
package fixer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/querypilot/querypilot/pkg/core"
)

// DefaultTimeout bounds one rewrite call; the collaborator is on the
// critical path of a failed query, not a place to wait.
const DefaultTimeout = 30 * time.Second

// Client calls the regeneration endpoint. Implements executor.Regenerator.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// New creates a Client for the given endpoint URL.
// If logger is nil, a discard logger is used.
func New(endpoint string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   logger,
	}
}

type regenerateRequest struct {
	SQL    string `json:"sql"`
	Error  string `json:"error"`
	Engine string `json:"engine"`
}

type regenerateResponse struct {
	SQL string `json:"sql"`
}

// Regenerate asks the service for a corrected rewrite of sql given the raw
// error text. An empty result means no fix is available.
func (c *Client) Regenerate(ctx context.Context, sql, errText string, engine core.EngineType) (string, error) {
	body, err := json.Marshal(regenerateRequest{SQL: sql, Error: errText, Engine: string(engine)})
	if err != nil {
		return "", fmt.Errorf("failed to encode rewrite request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build rewrite request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("rewrite request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("rewrite service returned %d: %s", resp.StatusCode, payload)
	}

	var out regenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode rewrite response: %w", err)
	}

	c.logger.Debug("rewrite received", "engine", engine, "empty", out.SQL == "")
	return out.SQL, nil
}
