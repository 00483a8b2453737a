// Package feishu adapts the chat platform SDK: outbound sends, media
// transfer, and the websocket inbound connection.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// Messenger performs platform calls for one tenant application.
type Messenger struct {
	client *lark.Client
	logger *slog.Logger
}

// NewMessenger wraps a tenant's platform client.
func NewMessenger(log *slog.Logger, client *lark.Client) *Messenger {
	if log == nil {
		log = slog.Default()
	}
	return &Messenger{
		client: client,
		logger: log.With(slog.String("component", "feishu")),
	}
}

// SendCard sends an interactive card to a chat and returns the created
// message id.
func (m *Messenger) SendCard(ctx context.Context, chatID string, cardJSON []byte) (string, error) {
	return m.createMessage(ctx, chatID, larkim.MsgTypeInteractive, string(cardJSON))
}

// SendText sends a plain-text message to a chat and returns the created
// message id.
func (m *Messenger) SendText(ctx context.Context, chatID, text string) (string, error) {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("marshal text content: %w", err)
	}
	return m.createMessage(ctx, chatID, larkim.MsgTypeText, string(content))
}

func (m *Messenger) createMessage(ctx context.Context, chatID, msgType, content string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(content).
			Uuid(uuid.NewString()).
			Build()).
		Build()

	resp, err := m.client.Im.V1.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send %s message: %w", msgType, err)
	}
	if resp == nil || !resp.Success() {
		code, msg := 0, ""
		if resp != nil {
			code, msg = resp.Code, resp.Msg
		}
		return "", fmt.Errorf("send %s message failed: %s (code: %d)", msgType, msg, code)
	}
	if resp.Data == nil || resp.Data.MessageId == nil {
		return "", fmt.Errorf("send %s message: response missing message id", msgType)
	}
	return *resp.Data.MessageId, nil
}

// UploadImage pushes image bytes to the platform and returns the media
// handle.
func (m *Messenger) UploadImage(ctx context.Context, data []byte) (string, error) {
	req := larkim.NewCreateImageReqBuilder().
		Body(larkim.NewCreateImageReqBodyBuilder().
			ImageType(larkim.ImageTypeMessage).
			Image(bytes.NewReader(data)).
			Build()).
		Build()

	resp, err := m.client.Im.V1.Image.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if resp == nil || !resp.Success() {
		code, msg := 0, ""
		if resp != nil {
			code, msg = resp.Code, resp.Msg
		}
		return "", fmt.Errorf("upload image failed: %s (code: %d)", msg, code)
	}
	if resp.Data == nil || resp.Data.ImageKey == nil {
		return "", fmt.Errorf("upload image: response missing image key")
	}
	return *resp.Data.ImageKey, nil
}

// FetchResource downloads a message-attached binary. kind is the platform
// resource type, "image" or "file".
func (m *Messenger) FetchResource(ctx context.Context, messageID, fileKey, kind string) ([]byte, error) {
	req := larkim.NewGetMessageResourceReqBuilder().
		MessageId(messageID).
		FileKey(fileKey).
		Type(kind).
		Build()

	resp, err := m.client.Im.V1.MessageResource.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch resource: %w", err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("fetch resource failed: %s (code: %d)", resp.Msg, resp.Code)
	}
	if resp.File == nil {
		return nil, fmt.Errorf("fetch resource: empty payload")
	}
	data, err := io.ReadAll(resp.File)
	if err != nil {
		return nil, fmt.Errorf("read resource: %w", err)
	}
	return data, nil
}
