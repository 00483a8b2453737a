package relay

import (
	"encoding/json"
	"fmt"
	"strings"
)

// envelope is the notification payload delivered for one inbound message.
// The msg field is itself a JSON string whose shape depends on msg_type.
type envelope struct {
	OpenChatID string `json:"open_chat_id"`
	MessageID  string `json:"message_id"`
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	OpenID     string `json:"open_id"`
	MsgType    string `json:"msg_type"`
	ChatType   string `json:"chat_type"`
	AppID      string `json:"app_id"`
	Msg        string `json:"msg"`
}

type textPayload struct {
	Text string `json:"text"`
}

type imagePayload struct {
	ImageKey string `json:"image_key"`
}

type audioPayload struct {
	FileKey  string `json:"file_key"`
	Duration int    `json:"duration"`
}

// ParseEnvelope decodes a transport envelope into an InboundEvent.
func ParseEnvelope(body []byte) (InboundEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return InboundEvent{}, fmt.Errorf("decode envelope: %w", err)
	}
	if strings.TrimSpace(env.AppID) == "" {
		return InboundEvent{}, fmt.Errorf("envelope missing app_id")
	}
	if strings.TrimSpace(env.OpenChatID) == "" {
		return InboundEvent{}, fmt.Errorf("envelope missing open_chat_id")
	}

	ev := InboundEvent{
		AppID:     env.AppID,
		ChatID:    env.OpenChatID,
		ChatType:  env.ChatType,
		UserID:    env.UserID,
		OpenID:    env.OpenID,
		MessageID: env.MessageID,
		SessionID: env.SessionID,
		Kind:      env.MsgType,
	}

	switch env.MsgType {
	case KindText:
		var payload textPayload
		if err := json.Unmarshal([]byte(env.Msg), &payload); err != nil {
			return InboundEvent{}, fmt.Errorf("decode text payload: %w", err)
		}
		ev.Text = payload.Text
	case KindImage:
		var payload imagePayload
		if err := json.Unmarshal([]byte(env.Msg), &payload); err != nil {
			return InboundEvent{}, fmt.Errorf("decode image payload: %w", err)
		}
		ev.ImageKey = payload.ImageKey
	case KindAudio:
		var payload audioPayload
		if err := json.Unmarshal([]byte(env.Msg), &payload); err != nil {
			return InboundEvent{}, fmt.Errorf("decode audio payload: %w", err)
		}
		ev.FileKey = payload.FileKey
		ev.DurationMs = payload.Duration
	}
	return ev, nil
}
