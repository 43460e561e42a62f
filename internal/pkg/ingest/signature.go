package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature checks a delivery signature header against the HMAC-SHA256
// of the raw request body keyed with the per-config app secret. The digest
// must be computed over the bytes as received; re-serializing the JSON first
// breaks the signature. A missing header or secret fails closed.
func VerifySignature(payload []byte, signatureHeader, appSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(appSecret)
	if sig == "" || secret == "" {
		return false
	}

	sig = strings.TrimPrefix(sig, signaturePrefix)
	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// ComputeSignature returns the header value the provider would send for
// payload. Used by tests and operator tooling.
func ComputeSignature(payload []byte, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
