// Package compute invokes the downstream compute backend: one synchronous
// call per text turn, with the response normalized into a reply or one of the
// terminal error classes.
package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/larkbridge/larkbridge/internal/config"
)

// Client calls the compute gateway over HTTP.
type Client struct {
	cfg        config.ComputeConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a compute client from the static backend configuration.
func NewClient(log *slog.Logger, cfg config.ComputeConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     log.With(slog.String("component", "compute")),
	}
}

// Invoke performs one synchronous backend call. A *BackendError means the
// backend reported the failure itself; any other error is a transport or
// protocol failure. No retries in either case.
func (c *Client) Invoke(ctx context.Context, req Request) (Reply, error) {
	payload := wireRequest{
		APIKey:        c.cfg.APIKey,
		WSURL:         c.cfg.WSEndpoint,
		MsgID:         req.MessageID,
		UserID:        req.UserID,
		ChatName:      req.SessionID,
		Prompt:        req.Prompt,
		MaxTokens:     c.cfg.MaxTokens,
		Model:         c.cfg.Model,
		QAMode:        c.cfg.QAMode,
		MultiRound:    c.cfg.MultiRound,
		Trace:         c.cfg.Trace,
		TemplateID:    c.cfg.TemplateID,
		Temperature:   c.cfg.Temperature,
		HideRefDoc:    c.cfg.HideRefDoc,
		FeatureConfig: req.FeatureLabel,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Reply{}, fmt.Errorf("encode compute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build compute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Reply{}, fmt.Errorf("call compute backend: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read compute response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("compute backend http error",
			slog.Int("status", resp.StatusCode),
			slog.String("body_prefix", truncate(string(respBody), 300)),
		)
		return Reply{}, fmt.Errorf("compute backend http error: status %d", resp.StatusCode)
	}

	var parsed wireResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.logger.Error("compute response parse failed",
			slog.String("body_prefix", truncate(string(respBody), 300)),
			slog.Any("error", err),
		)
		return Reply{}, fmt.Errorf("parse compute response: %w", err)
	}

	if msg := strings.TrimSpace(parsed.ErrorMessage); msg != "" {
		return Reply{}, &BackendError{Message: msg}
	}
	if parsed.StatusCode != http.StatusOK {
		return Reply{}, &BackendError{Message: fmt.Sprintf("internal error %d", parsed.StatusCode)}
	}
	if len(parsed.Body) == 0 || len(parsed.Body[0].Choices) == 0 {
		return Reply{}, fmt.Errorf("compute response has no choices")
	}

	return Reply{
		Text:    strings.TrimSpace(parsed.Body[0].Choices[0].Text),
		UseTime: parsed.Body[0].UseTime,
	}, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
