package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Reason classifies a verification outcome for audit logs and metrics.
// It never carries the expected signature value.
type Reason string

const (
	ReasonOK                 Reason = "ok"
	ReasonMissingSignature   Reason = "missing_signature"
	ReasonMalformedTimestamp Reason = "malformed_timestamp"
	ReasonStaleTimestamp     Reason = "stale_timestamp"
	ReasonSignatureMismatch  Reason = "signature_mismatch"
)

// Verdict is the outcome of one verification call.
type Verdict struct {
	Authentic bool
	Reason    Reason
	// Age holds the observed |now - timestamp| distance when staleness
	// caused the rejection; zero otherwise.
	Age time.Duration
}

// Validator verifies inbound message signatures against the shared secret.
// Safe for unsynchronized concurrent use.
type Validator struct {
	signer *Signer
}

func NewValidator(secret string) (*Validator, error) {
	s, err := NewSigner(secret)
	if err != nil {
		return nil, err
	}
	return &Validator{signer: s}, nil
}

// Validate reports whether signature matches params. Malformed input of any
// shape resolves to false; nothing here panics or returns an error, because
// the caller sits on a trust boundary with the sender.
func (v *Validator) Validate(params Params, signature string) bool {
	return v.Check(params, signature, 0).Authentic
}

// ValidateFresh additionally rejects messages whose timestamp lies more than
// tolerance away from now. The staleness check runs before any signature
// computation. tolerance <= 0 disables the check, as does an absent
// timestamp field.
func (v *Validator) ValidateFresh(params Params, signature string, tolerance time.Duration) bool {
	return v.Check(params, signature, tolerance).Authentic
}

// Check is ValidateFresh with the failure class exposed, so operators can
// tell a forged message from a replayed one without the expected signature
// ever leaving this package.
func (v *Validator) Check(params Params, signature string, tolerance time.Duration) Verdict {
	if strings.TrimSpace(signature) == "" {
		return Verdict{Reason: ReasonMissingSignature}
	}
	if tolerance > 0 {
		if ts, ok := params[TimestampKey]; ok && !ts.IsEmpty() {
			sec, valid := timestampSeconds(ts)
			if !valid {
				return Verdict{Reason: ReasonMalformedTimestamp}
			}
			age := time.Since(time.Unix(sec, 0))
			if age < 0 {
				age = -age
			}
			if age > tolerance {
				return Verdict{Reason: ReasonStaleTimestamp, Age: age}
			}
		}
	}
	expected := v.signer.GenerateSignature(params)
	if !equalSignature(expected, signature) {
		return Verdict{Reason: ReasonSignatureMismatch}
	}
	return Verdict{Authentic: true, Reason: ReasonOK}
}

// timestampSeconds extracts integer epoch seconds from a number or string
// value. Anything else is malformed.
func timestampSeconds(v Value) (int64, bool) {
	switch v.kind {
	case KindNumber, KindString:
	default:
		return 0, false
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
	if err != nil {
		return 0, false
	}
	return sec, true
}

// equalSignature compares hex signatures in constant time. The provided
// value is hex-decoded first, so casing never matters and bad hex or a
// wrong-length digest fails closed without erroring.
func equalSignature(expectedHex, provided string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(provided))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	want, err := hex.DecodeString(expectedHex)
	if err != nil {
		return false
	}
	return hmac.Equal(got, want)
}
