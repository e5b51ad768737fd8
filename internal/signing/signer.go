package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrEmptySecret rejects construction with a missing shared secret. A blank
// secret is a deployment fault and must surface immediately, not at the
// first message.
var ErrEmptySecret = errors.New("signing: secret is empty")

// Signer holds the immutable shared secret and produces signatures.
// Safe for unsynchronized concurrent use. The secret is never part of the
// canonical string and must never be logged or returned to callers.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign computes HMAC-SHA256 over the UTF-8 bytes of the canonical string and
// renders the digest as lowercase hex, always 64 characters.
func (s *Signer) Sign(canonical string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateSignature canonicalizes params with the default rules and signs
// the result.
func (s *Signer) GenerateSignature(params Params) string {
	return s.Sign(Canonicalize(params, Options{}))
}

// GenerateSignatureWith is GenerateSignature with explicit options, used by
// outbound calls that inject a fresh timestamp.
func (s *Signer) GenerateSignatureWith(params Params, opts Options) string {
	return s.Sign(Canonicalize(params, opts))
}
