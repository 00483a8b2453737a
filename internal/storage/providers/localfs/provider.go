// Package localfs implements storage.Store on a local directory tree, with
// retrieval URLs signed for the HTTP object route.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/larkbridge/larkbridge/internal/storage"
)

// Provider stores objects as files under a data root.
type Provider struct {
	dataRoot string
	signer   *storage.Signer
}

// New creates a local filesystem store rooted at dataRoot.
func New(dataRoot string, signer *storage.Signer) (*Provider, error) {
	abs, err := filepath.Abs(dataRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve data root: %w", err)
	}
	if signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	return &Provider{dataRoot: abs, signer: signer}, nil
}

// Put writes an object, creating parent directories as needed.
func (p *Provider) Put(_ context.Context, key string, reader io.Reader) error {
	dest, err := p.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

// Open reads an object back.
func (p *Provider) Open(_ context.Context, key string) (io.ReadCloser, error) {
	dest, err := p.objectPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

// SignedURL issues a time-limited retrieval URL for key.
func (p *Provider) SignedURL(key string, now time.Time) (string, error) {
	if _, err := p.objectPath(key); err != nil {
		return "", err
	}
	return p.signer.SignedURL(key, now)
}

// objectPath converts a storage key into a file path, refusing keys that
// would escape the data root.
func (p *Provider) objectPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.TrimSpace(clean) == "" {
		return "", fmt.Errorf("object key is required")
	}
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute key is forbidden: %s", key)
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal is forbidden: %s", key)
	}
	joined := filepath.Join(p.dataRoot, clean)
	if !strings.HasPrefix(joined, p.dataRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("key escapes data root: %s", key)
	}
	return joined, nil
}
