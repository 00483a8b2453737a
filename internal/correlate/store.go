// Package correlate persists the durable relay state: correlation records for
// sent cards and the url-hash media cache. Both kinds share one key-value
// table, distinguished by key namespace.
package correlate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// KV is the raw durable key-value access the store is built on.
type KV interface {
	Put(ctx context.Context, key, payload string) error
	Get(ctx context.Context, key string) (string, error)
}

// Store provides the typed operations used by the relay.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// NewStore creates a correlation store over the given key-value backend.
func NewStore(log *slog.Logger, kv KV) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		kv:     kv,
		logger: log.With(slog.String("component", "correlate")),
	}
}

// PutRecord persists a correlation record under the sent card's message id.
func (s *Store) PutRecord(ctx context.Context, messageID string, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal correlation record: %w", err)
	}
	if err := s.kv.Put(ctx, messageID, string(payload)); err != nil {
		return fmt.Errorf("put correlation record: %w", err)
	}
	return nil
}

// GetRecord returns the correlation record for a card message id.
func (s *Store) GetRecord(ctx context.Context, messageID string) (Record, error) {
	payload, err := s.kv.Get(ctx, messageID)
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return Record{}, fmt.Errorf("unmarshal correlation record: %w", err)
	}
	return record, nil
}

// GetHandle returns the cached media handle for a url hash.
func (s *Store) GetHandle(ctx context.Context, urlHash string) (string, error) {
	payload, err := s.kv.Get(ctx, MediaKey(urlHash))
	if err != nil {
		return "", err
	}
	var entry mediaEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return "", fmt.Errorf("unmarshal media entry: %w", err)
	}
	if entry.MediaHandle == "" {
		return "", ErrNotFound
	}
	return entry.MediaHandle, nil
}

// PutHandle caches a media handle under a url hash. Concurrent writers for the
// same hash overwrite each other; both handles reference the same content, so
// last-write-wins is acceptable.
func (s *Store) PutHandle(ctx context.Context, urlHash, handle string) error {
	payload, err := json.Marshal(mediaEntry{MediaHandle: handle})
	if err != nil {
		return fmt.Errorf("marshal media entry: %w", err)
	}
	if err := s.kv.Put(ctx, MediaKey(urlHash), string(payload)); err != nil {
		return fmt.Errorf("put media entry: %w", err)
	}
	return nil
}
