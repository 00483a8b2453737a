package feishu

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"

	"github.com/larkbridge/larkbridge/internal/relay"
	"github.com/larkbridge/larkbridge/internal/tenant"
)

const reconnectDelay = 3 * time.Second

// InboundHandler receives one normalized inbound event.
type InboundHandler func(ctx context.Context, ev relay.InboundEvent) error

// RunWebsocket holds a long connection for one tenant, normalizing received
// messages and handing them off. It reconnects until ctx is cancelled.
func RunWebsocket(ctx context.Context, log *slog.Logger, profile tenant.Profile, handle InboundHandler) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "feishu_ws"), slog.String("app_id", profile.AppID))

	newClient := func() *larkws.Client {
		eventDispatcher := dispatcher.NewEventDispatcher(
			profile.Config.VerificationToken,
			profile.Config.EncryptKey,
		)
		eventDispatcher.OnP2MessageReceiveV1(func(_ context.Context, event *larkim.P2MessageReceiveV1) error {
			if ctx.Err() != nil {
				return nil
			}
			ev, ok := normalizeEvent(profile.AppID, event)
			if !ok {
				return nil
			}
			go func() {
				if err := handle(ctx, ev); err != nil {
					log.Error("handle inbound failed",
						slog.String("message_id", ev.MessageID),
						slog.Any("error", err),
					)
				}
			}()
			return nil
		})
		eventDispatcher.OnP2MessageReadV1(func(_ context.Context, _ *larkim.P2MessageReadV1) error {
			return nil
		})
		return larkws.NewClient(
			profile.Config.AppID,
			profile.Config.AppSecret,
			larkws.WithEventHandler(eventDispatcher),
			larkws.WithLogLevel(larkcore.LogLevelInfo),
		)
	}

	for {
		if ctx.Err() != nil {
			return
		}
		client := newClient()
		err := client.Start(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Error("websocket start failed", slog.Any("error", err))
		} else {
			log.Warn("websocket exited without error; reconnecting")
		}
		timer := time.NewTimer(reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// normalizeEvent converts an SDK message event into an InboundEvent. The chat
// id doubles as the session id on this path.
func normalizeEvent(appID string, event *larkim.P2MessageReceiveV1) (relay.InboundEvent, bool) {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return relay.InboundEvent{}, false
	}
	msg := event.Event.Message

	ev := relay.InboundEvent{AppID: appID}
	if msg.ChatId != nil {
		ev.ChatID = *msg.ChatId
		ev.SessionID = *msg.ChatId
	}
	if msg.ChatType != nil {
		ev.ChatType = *msg.ChatType
	}
	if msg.MessageId != nil {
		ev.MessageID = *msg.MessageId
	}
	if msg.MessageType != nil {
		ev.Kind = strings.TrimSpace(*msg.MessageType)
	}
	if sender := event.Event.Sender; sender != nil && sender.SenderId != nil {
		if sender.SenderId.UserId != nil {
			ev.UserID = *sender.SenderId.UserId
		}
		if sender.SenderId.OpenId != nil {
			ev.OpenID = *sender.SenderId.OpenId
		}
	}
	if ev.ChatID == "" {
		return relay.InboundEvent{}, false
	}

	content := ""
	if msg.Content != nil {
		content = *msg.Content
	}
	switch ev.Kind {
	case relay.KindText:
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return relay.InboundEvent{}, false
		}
		ev.Text = payload.Text
	case relay.KindImage:
		var payload struct {
			ImageKey string `json:"image_key"`
		}
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return relay.InboundEvent{}, false
		}
		ev.ImageKey = payload.ImageKey
	case relay.KindAudio:
		var payload struct {
			FileKey  string `json:"file_key"`
			Duration int    `json:"duration"`
		}
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return relay.InboundEvent{}, false
		}
		ev.FileKey = payload.FileKey
		ev.DurationMs = payload.Duration
	}
	return ev, true
}
