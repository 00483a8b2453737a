package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/larkbridge/larkbridge/internal/card"
	"github.com/larkbridge/larkbridge/internal/compute"
	"github.com/larkbridge/larkbridge/internal/correlate"
	"github.com/larkbridge/larkbridge/internal/enrich"
	"github.com/larkbridge/larkbridge/internal/storage"
	"github.com/larkbridge/larkbridge/internal/tenant"
)

// Localized reply texts.
const (
	msgUnsupportedKind = "暂不支持该类型的消息。"
	msgImageAck        = "已收到图片，可在 1 小时内通过链接查看：%s"
	msgAudioAck        = "已收到语音消息，时长 %.1f 秒。"
	msgImageFailed     = "图片处理失败：%v"
	msgComputeFailed   = "调用下游服务失败：%v"
)

// Sender delivers outbound messages for one tenant and returns the platform
// message id.
type Sender interface {
	SendCard(ctx context.Context, chatID string, cardJSON []byte) (string, error)
	SendText(ctx context.Context, chatID, text string) (string, error)
}

// ResourceFetcher downloads a message-attached binary from the platform.
type ResourceFetcher interface {
	FetchResource(ctx context.Context, messageID, fileKey, kind string) ([]byte, error)
}

// Outbound bundles the per-tenant platform operations the dispatcher needs.
type Outbound interface {
	Sender
	ResourceFetcher
	enrich.Uploader
}

// Invoker is the downstream compute backend.
type Invoker interface {
	Invoke(ctx context.Context, req compute.Request) (compute.Reply, error)
}

// Enricher rewrites a raw response for delivery.
type Enricher interface {
	Rewrite(ctx context.Context, response string) enrich.Result
}

// Correlator persists the card → session correlation records.
type Correlator interface {
	PutRecord(ctx context.Context, messageID string, record correlate.Record) error
}

// OutboundFactory builds the platform operations bound to one tenant profile.
type OutboundFactory func(profile tenant.Profile) Outbound

// EnricherFactory builds an enrichment pipeline bound to one tenant's
// uploader.
type EnricherFactory func(uploader enrich.Uploader) Enricher

// Dispatcher handles one inbound event per invocation: it routes by tenant,
// classifies by message kind, and produces exactly one outbound reply.
type Dispatcher struct {
	registry    *tenant.Registry
	invoker     Invoker
	correlator  Correlator
	objects     storage.Store
	newOutbound OutboundFactory
	newEnricher EnricherFactory
	logger      *slog.Logger
}

// NewDispatcher wires the event dispatcher.
func NewDispatcher(
	log *slog.Logger,
	registry *tenant.Registry,
	invoker Invoker,
	correlator Correlator,
	objects storage.Store,
	newOutbound OutboundFactory,
	newEnricher EnricherFactory,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry:    registry,
		invoker:     invoker,
		correlator:  correlator,
		objects:     objects,
		newOutbound: newOutbound,
		newEnricher: newEnricher,
		logger:      log.With(slog.String("component", "relay")),
	}
}

// Handle processes one inbound event. Routing failures are the only errors it
// reports; everything after routing resolves into a reply, and a failure of
// the outbound send itself is logged and swallowed because the transport that
// delivered the event expects a non-retrying acknowledgement.
func (d *Dispatcher) Handle(ctx context.Context, ev InboundEvent) error {
	profile, err := d.registry.Resolve(ev.AppID)
	if err != nil {
		return fmt.Errorf("route event: %w", err)
	}
	out := d.newOutbound(profile)

	log := d.logger.With(
		slog.String("app_id", ev.AppID),
		slog.String("message_id", ev.MessageID),
		slog.String("msg_type", ev.Kind),
	)

	switch ev.Kind {
	case KindText:
		d.handleText(ctx, log, profile, out, ev)
	case KindImage:
		d.handleImage(ctx, log, out, ev)
	case KindAudio:
		d.handleAudio(ctx, log, out, ev)
	default:
		d.sendText(ctx, log, out, ev.ChatID, msgUnsupportedKind)
	}
	return nil
}

func (d *Dispatcher) handleText(ctx context.Context, log *slog.Logger, profile tenant.Profile, out Outbound, ev InboundEvent) {
	prompt := StripMentions(ev.Text)

	reply, err := d.invoker.Invoke(ctx, compute.Request{
		MessageID:    ev.MessageID,
		UserID:       ev.UserID,
		SessionID:    ev.SessionID,
		Prompt:       prompt,
		FeatureLabel: profile.FeatureLabel,
	})
	if err != nil {
		var backendErr *compute.BackendError
		if errors.As(err, &backendErr) {
			d.sendText(ctx, log, out, ev.ChatID, backendErr.Message)
			return
		}
		log.Error("downstream invocation failed", slog.Any("error", err))
		d.sendText(ctx, log, out, ev.ChatID, fmt.Sprintf(msgComputeFailed, err))
		return
	}

	enriched := d.newEnricher(out).Rewrite(ctx, reply.Text)

	cardJSON, err := card.Build(card.Input{
		Body:    enriched.Body,
		OpenID:  ev.OpenID,
		UseTime: reply.UseTime,
	})
	if err != nil {
		log.Error("card build failed", slog.Any("error", err))
		d.sendText(ctx, log, out, ev.ChatID, enriched.Body)
		return
	}

	cardMessageID, err := out.SendCard(ctx, ev.ChatID, cardJSON)
	if err != nil {
		log.Error("card send failed", slog.Any("error", err))
		return
	}

	record := correlate.Record{
		SessionID:       ev.SessionID,
		CreatedAt:       time.Now(),
		SourceMessageID: ev.MessageID,
		ChatType:        ev.ChatType,
		RefDoc:          enriched.RefDoc,
		Card:            cardJSON,
	}
	if err := d.correlator.PutRecord(ctx, cardMessageID, record); err != nil {
		log.Error("correlation write failed",
			slog.String("card_message_id", cardMessageID),
			slog.Any("error", err),
		)
	}
}

func (d *Dispatcher) handleImage(ctx context.Context, log *slog.Logger, out Outbound, ev InboundEvent) {
	data, err := out.FetchResource(ctx, ev.MessageID, ev.ImageKey, "image")
	if err != nil {
		log.Error("image fetch failed", slog.String("image_key", ev.ImageKey), slog.Any("error", err))
		d.sendText(ctx, log, out, ev.ChatID, fmt.Sprintf(msgImageFailed, err))
		return
	}

	objectKey := "image/" + ev.ImageKey
	if err := d.objects.Put(ctx, objectKey, bytes.NewReader(data)); err != nil {
		log.Error("image store failed", slog.String("object_key", objectKey), slog.Any("error", err))
		d.sendText(ctx, log, out, ev.ChatID, fmt.Sprintf(msgImageFailed, err))
		return
	}

	signed, err := d.objects.SignedURL(objectKey, time.Now())
	if err != nil {
		log.Error("signed url failed", slog.String("object_key", objectKey), slog.Any("error", err))
		d.sendText(ctx, log, out, ev.ChatID, fmt.Sprintf(msgImageFailed, err))
		return
	}
	d.sendText(ctx, log, out, ev.ChatID, fmt.Sprintf(msgImageAck, signed))
}

func (d *Dispatcher) handleAudio(ctx context.Context, log *slog.Logger, out Outbound, ev InboundEvent) {
	// The binary is fetched to validate the key but not persisted for this
	// kind.
	if _, err := out.FetchResource(ctx, ev.MessageID, ev.FileKey, "file"); err != nil {
		log.Warn("audio fetch failed", slog.String("file_key", ev.FileKey), slog.Any("error", err))
	}
	d.sendText(ctx, log, out, ev.ChatID, fmt.Sprintf(msgAudioAck, float64(ev.DurationMs)/1000))
}

func (d *Dispatcher) sendText(ctx context.Context, log *slog.Logger, out Sender, chatID, text string) {
	if _, err := out.SendText(ctx, chatID, text); err != nil {
		log.Error("text send failed", slog.Any("error", err))
	}
}
