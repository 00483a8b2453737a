// Package storage is the private object store for inbound media binaries.
// Objects are written under an opaque key and retrieved through time-limited
// signed URLs served by the HTTP layer.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound reports a retrieval of a key that was never stored.
var ErrObjectNotFound = errors.New("storage: object not found")

// Store persists binary objects and issues retrieval URLs for them.
type Store interface {
	Put(ctx context.Context, key string, reader io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// SignedURL returns an externally reachable URL for key that stops
	// working after the store's configured TTL.
	SignedURL(key string, now time.Time) (string, error)
}
