// Package relay turns inbound chat messages into outbound replies: it
// classifies each event by message kind and drives the downstream invocation,
// enrichment, card assembly, and correlation bookkeeping for it.
package relay

// Message kinds the dispatcher distinguishes. Anything else gets the
// unsupported-kind reply.
const (
	KindText  = "text"
	KindImage = "image"
	KindAudio = "audio"
)

// InboundEvent is one normalized chat message. Built once per invocation from
// the transport envelope and read-only afterwards.
type InboundEvent struct {
	AppID     string
	ChatID    string
	ChatType  string
	UserID    string
	OpenID    string
	MessageID string
	SessionID string
	Kind      string

	// Kind-specific payload.
	Text       string
	ImageKey   string
	FileKey    string
	DurationMs int
}
