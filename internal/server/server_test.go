package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larkbridge/larkbridge/internal/handlers"
	"github.com/larkbridge/larkbridge/internal/relay"
	"github.com/larkbridge/larkbridge/internal/storage"
	"github.com/larkbridge/larkbridge/internal/storage/providers/localfs"
)

type recordingDispatcher struct {
	events []relay.InboundEvent
	err    error
}

func (d *recordingDispatcher) Handle(_ context.Context, ev relay.InboundEvent) error {
	d.events = append(d.events, ev)
	return d.err
}

func newTestServer(t *testing.T, dispatcher *recordingDispatcher) (*Server, *storage.Signer, storage.Store) {
	t.Helper()

	signer, err := storage.NewSigner("secret", "http://relay.example", time.Hour)
	require.NoError(t, err)
	store, err := localfs.New(t.TempDir(), signer)
	require.NoError(t, err)

	srv := NewServer(
		"",
		handlers.NewPingHandler(),
		handlers.NewWebhookHandler(nil, dispatcher),
		handlers.NewObjectsHandler(nil, store, signer),
	)
	return srv, signer, store
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDispatchesEvent(t *testing.T) {
	t.Parallel()

	dispatcher := &recordingDispatcher{}
	srv, _, _ := newTestServer(t, dispatcher)

	body := []byte(`{
		"open_chat_id": "oc_1",
		"message_id": "om_1",
		"msg_type": "text",
		"app_id": "cli_a",
		"msg": "{\"text\":\"hello\"}"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/event", bytes.NewReader(body))
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "cli_a", dispatcher.events[0].AppID)
	assert.Equal(t, "hello", dispatcher.events[0].Text)
}

func TestWebhookAlways200(t *testing.T) {
	t.Parallel()

	dispatcher := &recordingDispatcher{err: fmt.Errorf("unknown app_id")}
	srv, _, _ := newTestServer(t, dispatcher)

	// Handling failure still acknowledges: the transport does not retry.
	body := []byte(`{"open_chat_id":"oc_1","msg_type":"text","app_id":"cli_x","msg":"{\"text\":\"hi\"}"}`)
	rec := doRequest(srv, httptest.NewRequest(http.MethodPost, "/webhook/event", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	// So does a malformed envelope.
	rec = doRequest(srv, httptest.NewRequest(http.MethodPost, "/webhook/event", bytes.NewReader([]byte(`{"msg_type":"text"}`))))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookURLVerification(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, &recordingDispatcher{})

	body := []byte(`{"type":"url_verification","challenge":"c-123"}`)
	rec := doRequest(srv, httptest.NewRequest(http.MethodPost, "/webhook/event", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "c-123")
}

func TestObjectsServeSigned(t *testing.T) {
	t.Parallel()

	srv, signer, store := newTestServer(t, &recordingDispatcher{})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "image/img_k", bytes.NewReader([]byte("png-bytes"))))

	signed, err := signer.SignedURL("image/img_k", time.Now())
	require.NoError(t, err)
	parsed, err := url.Parse(signed)
	require.NoError(t, err)

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, parsed.Path+"?"+parsed.RawQuery, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestObjectsRejectsBadSignature(t *testing.T) {
	t.Parallel()

	srv, signer, store := newTestServer(t, &recordingDispatcher{})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "image/img_k", bytes.NewReader([]byte("png-bytes"))))

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/objects/image/img_k?expires=9999999999&sig=bogus", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A signature for one key does not open another.
	signed, err := signer.SignedURL("image/img_k", time.Now())
	require.NoError(t, err)
	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	rec = doRequest(srv, httptest.NewRequest(http.MethodGet, "/objects/image/other?"+parsed.RawQuery, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPing(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, &recordingDispatcher{})
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
