package feishu

import (
	"testing"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larkbridge/larkbridge/internal/relay"
)

func ptr[T any](v T) *T { return &v }

func receiveEvent(msgType, content string) *larkim.P2MessageReceiveV1 {
	return &larkim.P2MessageReceiveV1{
		Event: &larkim.P2MessageReceiveV1Data{
			Sender: &larkim.EventSender{
				SenderId: &larkim.UserId{
					UserId: ptr("u_1"),
					OpenId: ptr("ou_1"),
				},
			},
			Message: &larkim.EventMessage{
				MessageId:   ptr("om_1"),
				ChatId:      ptr("oc_1"),
				ChatType:    ptr("group"),
				MessageType: ptr(msgType),
				Content:     ptr(content),
			},
		},
	}
}

func TestNormalizeTextEvent(t *testing.T) {
	t.Parallel()

	ev, ok := normalizeEvent("cli_a", receiveEvent("text", `{"text":"@_user_1 hi"}`))
	require.True(t, ok)
	assert.Equal(t, relay.KindText, ev.Kind)
	assert.Equal(t, "cli_a", ev.AppID)
	assert.Equal(t, "oc_1", ev.ChatID)
	assert.Equal(t, "oc_1", ev.SessionID)
	assert.Equal(t, "om_1", ev.MessageID)
	assert.Equal(t, "u_1", ev.UserID)
	assert.Equal(t, "ou_1", ev.OpenID)
	assert.Equal(t, "@_user_1 hi", ev.Text)
}

func TestNormalizeImageEvent(t *testing.T) {
	t.Parallel()

	ev, ok := normalizeEvent("cli_a", receiveEvent("image", `{"image_key":"img_k"}`))
	require.True(t, ok)
	assert.Equal(t, relay.KindImage, ev.Kind)
	assert.Equal(t, "img_k", ev.ImageKey)
}

func TestNormalizeAudioEvent(t *testing.T) {
	t.Parallel()

	ev, ok := normalizeEvent("cli_a", receiveEvent("audio", `{"file_key":"f_k","duration":2300}`))
	require.True(t, ok)
	assert.Equal(t, relay.KindAudio, ev.Kind)
	assert.Equal(t, "f_k", ev.FileKey)
	assert.Equal(t, 2300, ev.DurationMs)
}

func TestNormalizeRejectsEmptyEvent(t *testing.T) {
	t.Parallel()

	_, ok := normalizeEvent("cli_a", nil)
	assert.False(t, ok)

	_, ok = normalizeEvent("cli_a", &larkim.P2MessageReceiveV1{})
	assert.False(t, ok)
}
