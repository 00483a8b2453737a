package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/larkbridge/larkbridge/internal/relay"
)

// EventDispatcher handles one normalized inbound event.
type EventDispatcher interface {
	Handle(ctx context.Context, ev relay.InboundEvent) error
}

// WebhookHandler receives inbound message notifications. The transport does
// not retry, so every well-formed request is acknowledged with 200 regardless
// of how handling went.
type WebhookHandler struct {
	dispatcher EventDispatcher
	logger     *slog.Logger
}

func NewWebhookHandler(log *slog.Logger, dispatcher EventDispatcher) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		dispatcher: dispatcher,
		logger:     log.With(slog.String("handler", "webhook")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook/event", h.Event)
}

func (h *WebhookHandler) Event(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "read body"})
	}

	// Endpoint registration probe.
	var probe struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Type == "url_verification" {
		return c.JSON(http.StatusOK, map[string]string{"challenge": probe.Challenge})
	}

	ev, err := relay.ParseEnvelope(body)
	if err != nil {
		h.logger.Warn("envelope rejected", slog.Any("error", err))
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	if err := h.dispatcher.Handle(c.Request().Context(), ev); err != nil {
		h.logger.Error("event handling failed",
			slog.String("app_id", ev.AppID),
			slog.String("message_id", ev.MessageID),
			slog.Any("error", err),
		)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
