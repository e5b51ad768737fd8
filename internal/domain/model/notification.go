package model

import "time"

// Notification is the audit record of one webhook delivery, kept for
// accepted and rejected messages alike so operators can tell a forged
// delivery from a replayed or stale one.
type Notification struct {
	ID         string // UUID
	OrderID    string // gateway order id from the payload; empty when the payload never parsed
	OutOrderNo string
	StatusCode int
	Status     PaymentStatus
	Amount     string
	Currency   string
	Verdict    string // ok | signature_mismatch | stale_timestamp | malformed_timestamp | missing_signature | replayed | invalid_payload | order_not_found | amount_mismatch | state_conflict
	Accepted   bool
	RawBody    []byte // original payload as received, stored as JSONB
	PaidAt     *time.Time
	ReceivedAt time.Time
}

// Verdicts recorded by the webhook flow on top of the signature checks.
const (
	VerdictReplayed       = "replayed"
	VerdictInvalidPayload = "invalid_payload"
	VerdictOrderNotFound  = "order_not_found"
	VerdictAmountMismatch = "amount_mismatch"
	VerdictStateConflict  = "state_conflict"
)
