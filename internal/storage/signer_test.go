package storage

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestSignedURLRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner("secret", "https://relay.example", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signed, err := signer.SignedURL("image/img_key_1", now)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	if !strings.HasPrefix(signed, "https://relay.example/objects/image/img_key_1?") {
		t.Fatalf("unexpected url %q", signed)
	}

	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	expires, err := strconv.ParseInt(parsed.Query().Get("expires"), 10, 64)
	if err != nil {
		t.Fatalf("parse expires: %v", err)
	}
	if want := now.Add(time.Hour).Unix(); expires != want {
		t.Errorf("expires = %d, want %d", expires, want)
	}

	sig := parsed.Query().Get("sig")
	if err := signer.Verify("image/img_key_1", expires, sig, now); err != nil {
		t.Errorf("Verify: %v", err)
	}
	if err := signer.Verify("image/img_key_1", expires, sig, now.Add(2*time.Hour)); err != ErrSignatureExpired {
		t.Errorf("expired check: got %v, want ErrSignatureExpired", err)
	}
	if err := signer.Verify("image/other", expires, sig, now); err != ErrSignatureInvalid {
		t.Errorf("key tamper check: got %v, want ErrSignatureInvalid", err)
	}
	if err := signer.Verify("image/img_key_1", expires+60, sig, now); err != ErrSignatureInvalid {
		t.Errorf("expiry tamper check: got %v, want ErrSignatureInvalid", err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewSigner("  ", "https://relay.example", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
