package payment

import (
	"context" // Capture deadline
	"fmt"     // Error wrapping

	"github.com/omise/omise-go"            // Omise SDK
	"github.com/omise/omise-go/operations" // Omise API operations
)

// Omise captures card charges through the Omise API
type Omise struct {
	publicKey string
	secretKey string
}

// NewOmise builds a gateway from a public/secret key pair
func NewOmise(publicKey, secretKey string) (*Omise, error) {
	// Validate the keys once up front
	if _, err := omise.NewClient(publicKey, secretKey); err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	return &Omise{publicKey: publicKey, secretKey: secretKey}, nil
}

// Charge creates and captures a card charge. Each call gets its own client
// since the context and headers are client state.
func (o *Omise) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	client, err := omise.NewClient(o.publicKey, o.secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	client.WithContext(ctx) // Bounds the HTTP round trip
	if req.IdempotencyKey != "" {
		client.WithCustomHeaders(map[string]string{"Idempotency-Key": req.IdempotencyKey})
	}

	ch := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:   req.Amount,
		Currency: req.Currency,
		Card:     req.PaymentMethodID,
		Metadata: map[string]any{"booking_id": req.BookingID},
	}
	if err := client.Do(ch, op); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}

	// pending / awaiting_authorize need a 3-D Secure round trip we do not drive
	switch string(ch.Status) {
	case "successful":
		return &Charge{ID: ch.ID, Status: string(ch.Status)}, nil
	case "failed":
		msg := "charge failed"
		if ch.FailureMessage != nil {
			msg = *ch.FailureMessage
		}
		return nil, fmt.Errorf("%w: %s", ErrDeclined, msg)
	default:
		return nil, fmt.Errorf("%w: charge %s is %s", ErrDeclined, ch.ID, ch.Status)
	}
}
