package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"object":"whatsapp_business_account"}`)
	secret := "top-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	validSig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	// The provider's hex casing must not matter.
	if !VerifySignature(payload, strings.ToUpper(validSig[len("sha256="):]), secret) {
		t.Fatalf("expected signature without prefix and upper-cased to validate")
	}
	if VerifySignature(payload, "sha256=deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifySignature(payload, "", secret) {
		t.Fatalf("expected missing header to fail closed")
	}
	if VerifySignature(payload, validSig, "") {
		t.Fatalf("expected missing secret to fail closed")
	}
	if VerifySignature(payload, "sha256=not-hex!", secret) {
		t.Fatalf("expected undecodable signature to fail")
	}
}

func TestVerifySignatureRawBodyOnly(t *testing.T) {
	// Whitespace-only differences change the digest: the raw bytes are
	// signed, not the JSON value.
	secret := "top-secret"
	sig := ComputeSignature([]byte(`{"a": 1}`), secret)

	if VerifySignature([]byte(`{"a":1}`), sig, secret) {
		t.Fatalf("expected re-serialized payload to fail verification")
	}
}

func TestComputeSignatureFormat(t *testing.T) {
	sig := ComputeSignature([]byte("x"), "k")
	if !strings.HasPrefix(sig, "sha256=") {
		t.Fatalf("expected sha256= prefix, got %q", sig)
	}
	if len(sig) != len("sha256=")+64 {
		t.Fatalf("expected 64 hex chars, got %q", sig)
	}
	if !VerifySignature([]byte("x"), sig, "k") {
		t.Fatalf("expected computed signature to verify")
	}
}
