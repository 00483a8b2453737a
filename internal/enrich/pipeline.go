// Package enrich rewrites a raw compute response for chat-platform delivery:
// it splits off the reference-doc section and resolves markdown image
// references to platform media handles.
package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/larkbridge/larkbridge/internal/correlate"
)

// MaxImageBytes bounds a single downloaded image payload.
const MaxImageBytes int64 = 10 * 1024 * 1024

// MediaCache is the durable url-hash → media-handle mapping.
type MediaCache interface {
	GetHandle(ctx context.Context, urlHash string) (string, error)
	PutHandle(ctx context.Context, urlHash, handle string) error
}

// Downloader fetches image bytes from a source URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Uploader pushes image bytes to the chat platform and returns a media handle.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte) (string, error)
}

// Result is the enriched response: cleaned body, reference-doc text, and the
// media handles resolved for it, in reference order.
type Result struct {
	Body    string
	RefDoc  string
	Handles []string
}

// Pipeline resolves the image references of one response. It never reports an
// error past its own boundary; failures degrade the text instead.
type Pipeline struct {
	cache      MediaCache
	downloader Downloader
	uploader   Uploader
	logger     *slog.Logger
}

// NewPipeline creates an image enrichment pipeline.
func NewPipeline(log *slog.Logger, cache MediaCache, downloader Downloader, uploader Uploader) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		cache:      cache,
		downloader: downloader,
		uploader:   uploader,
		logger:     log.With(slog.String("component", "enrich")),
	}
}

// URLHash returns the stable content hash used to key cached media entries.
func URLHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Rewrite splits the response into body and reference doc and substitutes
// every distinct image reference, strictly sequentially and in first-to-last
// order. On the first upload or download failure every remaining image
// reference in both halves is rewritten into plain link form and processing
// stops; no cache entry is written for the failed URL.
func (p *Pipeline) Rewrite(ctx context.Context, response string) Result {
	body, refDoc := SplitReference(response)

	refs := FindImageRefs(body)
	refs = append(refs, FindImageRefs(refDoc)...)
	urls := distinctURLs(refs)

	var handles []string
	for i, url := range urls {
		handle, err := p.resolve(ctx, url)
		if err != nil {
			p.logger.Warn("image enrichment degraded to links",
				slog.String("url", url),
				slog.Any("error", err),
			)
			for _, remaining := range urls[i:] {
				body = linkifyURL(body, remaining)
				refDoc = linkifyURL(refDoc, remaining)
			}
			break
		}
		body = substituteURL(body, url, handle)
		refDoc = substituteURL(refDoc, url, handle)
		handles = append(handles, handle)
	}

	return Result{Body: body, RefDoc: refDoc, Handles: handles}
}

// resolve maps a source URL to a platform media handle, consulting the durable
// cache before uploading.
func (p *Pipeline) resolve(ctx context.Context, url string) (string, error) {
	hash := URLHash(url)

	handle, err := p.cache.GetHandle(ctx, hash)
	if err == nil {
		return handle, nil
	}
	if !errors.Is(err, correlate.ErrNotFound) {
		// A broken cache read is treated as a miss; the upload path below
		// still produces a usable handle.
		p.logger.Warn("media cache read failed", slog.String("url_hash", hash), slog.Any("error", err))
	}

	data, err := p.downloader.Download(ctx, url)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	handle, err = p.uploader.UploadImage(ctx, data)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if err := p.cache.PutHandle(ctx, hash, handle); err != nil {
		p.logger.Warn("media cache write failed", slog.String("url_hash", hash), slog.Any("error", err))
	}
	return handle, nil
}

// HTTPDownloader fetches image bytes over HTTP with a size limit.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates a downloader with a bounded request timeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDownloader{client: &http.Client{Timeout: timeout}}
}

// Download implements Downloader.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}
	limited := &io.LimitedReader{R: resp.Body, N: MaxImageBytes + 1}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read download: %w", err)
	}
	if int64(len(data)) > MaxImageBytes {
		return nil, fmt.Errorf("download: payload exceeds %d bytes", MaxImageBytes)
	}
	return data, nil
}
