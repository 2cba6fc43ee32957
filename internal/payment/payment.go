// Package payment captures session payments when a held booking is confirmed.
package payment

import (
	"context" // Request-scoped cancellation
	"errors"  // Error handling
	"strings" // String manipulation
	"sync"    // Mutex

	"github.com/google/uuid" // UUID generation
)

// ErrDeclined is returned when the provider refuses the charge
var ErrDeclined = errors.New("payment declined")

// ChargeRequest describes a single capture
type ChargeRequest struct {
	BookingID       string
	Amount          int64 // Minor units
	Currency        string
	PaymentMethodID string // Card token or payment method reference from the client
	IdempotencyKey  string // Same key for retries of one capture; the provider charges once
}

// CaptureKey derives a stable idempotency key for capturing bookingID with paymentRef
func CaptureKey(bookingID, paymentRef string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(bookingID+":"+paymentRef)).String()
}

// Charge is the provider's record of a successful capture
type Charge struct {
	ID     string
	Status string
}

// Gateway captures payments
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
}

// Sandbox accepts every payment method except those prefixed with "pm_fail".
// It backs local development when no provider keys are configured and, like
// a real provider, replays the original charge for a repeated idempotency key.
type Sandbox struct {
	mu      sync.Mutex
	charges map[string]*Charge
}

// Charge implements Gateway
func (s *Sandbox) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.PaymentMethodID == "" || strings.HasPrefix(req.PaymentMethodID, "pm_fail") {
		return nil, ErrDeclined
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.charges[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return c, nil
	}
	c := &Charge{ID: "chrg_sandbox_" + uuid.NewString(), Status: "successful"}
	if req.IdempotencyKey != "" {
		if s.charges == nil {
			s.charges = make(map[string]*Charge)
		}
		s.charges[req.IdempotencyKey] = c
	}
	return c, nil
}
