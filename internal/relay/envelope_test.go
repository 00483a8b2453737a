package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelopeText(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"open_chat_id": "oc_1",
		"message_id": "om_1",
		"session_id": "sess_1",
		"user_id": "u_1",
		"open_id": "ou_1",
		"msg_type": "text",
		"chat_type": "group",
		"app_id": "cli_a",
		"msg": "{\"text\":\"@_user_1 hello\"}"
	}`)

	ev, err := ParseEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, "cli_a", ev.AppID)
	assert.Equal(t, "oc_1", ev.ChatID)
	assert.Equal(t, "group", ev.ChatType)
	assert.Equal(t, "om_1", ev.MessageID)
	assert.Equal(t, "sess_1", ev.SessionID)
	assert.Equal(t, "u_1", ev.UserID)
	assert.Equal(t, "ou_1", ev.OpenID)
	assert.Equal(t, KindText, ev.Kind)
	assert.Equal(t, "@_user_1 hello", ev.Text)
}

func TestParseEnvelopeImage(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"open_chat_id": "oc_1",
		"message_id": "om_2",
		"msg_type": "image",
		"app_id": "cli_a",
		"msg": "{\"image_key\":\"img_k\"}"
	}`)

	ev, err := ParseEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, KindImage, ev.Kind)
	assert.Equal(t, "img_k", ev.ImageKey)
}

func TestParseEnvelopeAudio(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"open_chat_id": "oc_1",
		"message_id": "om_3",
		"msg_type": "audio",
		"app_id": "cli_a",
		"msg": "{\"file_key\":\"file_k\",\"duration\":2300}"
	}`)

	ev, err := ParseEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, KindAudio, ev.Kind)
	assert.Equal(t, "file_k", ev.FileKey)
	assert.Equal(t, 2300, ev.DurationMs)
}

func TestParseEnvelopeUnknownKindKeepsPayloadOpaque(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"open_chat_id": "oc_1",
		"msg_type": "sticker",
		"app_id": "cli_a",
		"msg": "{\"sticker_id\":\"s\"}"
	}`)

	ev, err := ParseEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, "sticker", ev.Kind)
}

func TestParseEnvelopeRejectsMissingTenant(t *testing.T) {
	t.Parallel()

	_, err := ParseEnvelope([]byte(`{"open_chat_id":"oc_1","msg_type":"text","msg":"{}"}`))
	assert.Error(t, err)
}

func TestStripMentionsIdempotent(t *testing.T) {
	t.Parallel()

	once := StripMentions("@_user_1 hello")
	assert.Equal(t, "hello", once)
	assert.Equal(t, once, StripMentions(once))

	assert.Equal(t, "hello @_user", StripMentions("@_user_2  hello @_user"))
	assert.Equal(t, "a b", StripMentions("a @_user_10 b"))
	assert.Equal(t, "", StripMentions("@_user_1"))
}
