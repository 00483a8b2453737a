package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Signature errors surfaced to the HTTP layer; they map to 403 responses.
var (
	ErrSignatureInvalid = errors.New("storage: signature invalid")
	ErrSignatureExpired = errors.New("storage: signature expired")
)

// Signer issues and checks time-limited retrieval URLs. The signature binds
// the object key and the expiry instant with an HMAC, so neither can be
// altered without the secret.
type Signer struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
}

// NewSigner creates a URL signer. baseURL is the externally reachable prefix
// the HTTP layer serves objects under, without a trailing slash.
func NewSigner(secret, baseURL string, ttl time.Duration) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
	}, nil
}

// SignedURL returns the retrieval URL for key, valid for the signer's TTL
// from now.
func (s *Signer) SignedURL(key string, now time.Time) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("object key is required")
	}
	expires := now.Add(s.ttl).Unix()
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires, 10))
	query.Set("sig", s.sign(key, expires))
	return fmt.Sprintf("%s/objects/%s?%s", s.baseURL, key, query.Encode()), nil
}

// Verify checks a presented key/expiry/signature triple against now.
func (s *Signer) Verify(key string, expires int64, sig string, now time.Time) error {
	if !hmac.Equal([]byte(s.sign(key, expires)), []byte(sig)) {
		return ErrSignatureInvalid
	}
	if now.Unix() > expires {
		return ErrSignatureExpired
	}
	return nil
}

func (s *Signer) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
