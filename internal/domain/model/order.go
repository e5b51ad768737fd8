package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // order created; no payment reported yet
	PaymentStatusCompleted PaymentStatus = "completed" // gateway confirmed payment
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway reported failure
	PaymentStatusTimedOut  PaymentStatus = "timed_out" // checkout expired unpaid
	PaymentStatusUnknown   PaymentStatus = "unknown"   // unrecognized gateway code
)

// Gateway wire codes carried in webhook payloads and query responses.
const (
	StatusCodeCompleted = 1
	StatusCodeUnpaid    = 0
	StatusCodeFailed    = -1
	StatusCodeTimedOut  = -2
)

// PaymentStatusFromCode maps a gateway status code to the domain status.
// Unpaid keeps the order pending; anything unrecognized is unknown.
func PaymentStatusFromCode(code int) PaymentStatus {
	switch code {
	case StatusCodeCompleted:
		return PaymentStatusCompleted
	case StatusCodeUnpaid:
		return PaymentStatusPending
	case StatusCodeFailed:
		return PaymentStatusFailed
	case StatusCodeTimedOut:
		return PaymentStatusTimedOut
	default:
		return PaymentStatusUnknown
	}
}

// Terminal reports whether the status ends the order lifecycle.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusTimedOut:
		return true
	}
	return false
}

// Order records one checkout created with the payment gateway.
type Order struct {
	ID             string // UUID
	OutOrderNo     string // merchant order number (ULID); unique, travels in signed messages
	GatewayOrderID string // assigned by the gateway when the order is accepted
	Amount         string // decimal literal; signed byte-for-byte, so never reformatted
	Currency       string
	Subject        string
	Status         PaymentStatus
	PayURL         string // hosted checkout page for the payer
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         *time.Time // set when completed
}
