package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	ModeHMAC   = "hmac"
	ModeShared = "shared"
)

// Verifier authenticates the sender of a webhook delivery.
type Verifier interface {
	Verify(payload []byte, signature string) bool
}

// SharedSecretVerifier accepts a delivery whose signature equals the configured secret.
// It does not bind the signature to the payload.
type SharedSecretVerifier struct {
	secret []byte
}

func NewSharedSecretVerifier(secret string) *SharedSecretVerifier {
	return &SharedSecretVerifier{secret: []byte(secret)}
}

func (v *SharedSecretVerifier) Verify(_ []byte, signature string) bool {
	if len(v.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(v.secret, []byte(signature)) == 1
}

// HMACVerifier expects the hex encoded HMAC-SHA256 of the raw payload, as sent in X-Signature.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(payload []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(got, v.Sign(payload))
}

func (v *HMACVerifier) Sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

func NewVerifier(mode, secret string) (Verifier, error) {
	switch strings.ToLower(mode) {
	case "", ModeHMAC:
		return NewHMACVerifier(secret), nil
	case ModeShared:
		return NewSharedSecretVerifier(secret), nil
	default:
		return nil, fmt.Errorf("unknown webhook signature mode %q", mode)
	}
}
