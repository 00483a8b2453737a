package correlate

import (
	"encoding/json"
	"time"
)

// Record links a sent card back to the conversation that produced it. Records
// are written once after a successful card send and read later by the
// interaction handler that answers button callbacks.
type Record struct {
	SessionID       string          `json:"session_id"`
	CreatedAt       time.Time       `json:"created_at"`
	SourceMessageID string          `json:"source_message_id"`
	ChatType        string          `json:"chat_type"`
	RefDoc          string          `json:"ref_doc"`
	Card            json.RawMessage `json:"card"`
}

// mediaEntry is the payload stored under a url_<hash> key.
type mediaEntry struct {
	MediaHandle string `json:"media_handle"`
}

// mediaKeyPrefix namespaces cached media entries apart from card message ids
// in the shared table.
const mediaKeyPrefix = "url_"

// MediaKey builds the durable key for a cached media entry.
func MediaKey(urlHash string) string {
	return mediaKeyPrefix + urlHash
}
