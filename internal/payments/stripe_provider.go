package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

// StripeLogger defines the logging contract for Stripe provider operations.
type StripeLogger func(ctx context.Context, event string, fields map[string]any)

// Currency is fixed: the storefront sells in euros only.
const currency = "eur"

type stripePaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeClients struct {
	intents stripePaymentIntentAPI
	refunds stripeRefundAPI
}

// StripeProviderConfig configures the StripeProvider.
type StripeProviderConfig struct {
	APIKey   string
	Backends *stripe.Backends
	Logger   StripeLogger
	Clients  *stripeClients
}

// StripeProvider creates card charges for checkout orders via Stripe
// Payment Intents. It implements services.PaymentProvider.
type StripeProvider struct {
	api    stripeClients
	logger StripeLogger
}

// NewStripeProvider constructs a Stripe provider using the given configuration.
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}

	var clients stripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, cfg.Backends)
		clients = stripeClients{
			intents: sc.PaymentIntents,
			refunds: sc.Refunds,
		}
	}
	if clients.intents == nil || clients.refunds == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeProvider{api: clients, logger: logger}, nil
}

// CreateIntent prepares a card charge for one order. The order id doubles as
// the idempotency key so a retried checkout never double-charges.
func (p *StripeProvider) CreateIntent(ctx context.Context, req services.PaymentIntentRequest) (services.PaymentIntent, error) {
	if p == nil {
		return services.PaymentIntent{}, errors.New("stripe: provider is nil")
	}
	if req.AmountCents <= 0 {
		return services.PaymentIntent{}, fmt.Errorf("stripe: amount must be positive, got %d", req.AmountCents)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if orderID := strings.TrimSpace(req.OrderID); orderID != "" {
		params.SetIdempotencyKey("intent-" + orderID)
		params.Metadata = map[string]string{"orderId": orderID}
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		params.ReceiptEmail = stripe.String(email)
	}

	intent, err := p.api.intents.New(params)
	if err != nil {
		return services.PaymentIntent{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	p.logger(ctx, "payments.stripe.intent.created", map[string]any{
		"paymentIntent": intent.ID,
		"order":         req.OrderID,
		"amount":        req.AmountCents,
	})
	return services.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// Refund returns the money of a cancelled or reprinted order back to the card.
func (p *StripeProvider) Refund(ctx context.Context, intentID string, amountCents *int64) error {
	if p == nil {
		return errors.New("stripe: provider is nil")
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return errors.New("stripe: payment intent id is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + intentID)
	if amountCents != nil {
		params.Amount = stripe.Int64(*amountCents)
	}

	if _, err := p.api.refunds.New(params); err != nil {
		return fmt.Errorf("stripe: refund payment intent: %w", err)
	}
	p.logger(ctx, "payments.stripe.intent.refunded", map[string]any{
		"paymentIntent": intentID,
	})
	return nil
}

// IntentStatus reports whether the gateway has collected the money yet.
type IntentStatus struct {
	IntentID   string
	Succeeded  bool
	Amount     int64
	CapturedAt *time.Time
}

// LookupIntent retrieves the current charge state of a payment intent.
func (p *StripeProvider) LookupIntent(ctx context.Context, intentID string) (IntentStatus, error) {
	if p == nil {
		return IntentStatus{}, errors.New("stripe: provider is nil")
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := p.api.intents.Get(strings.TrimSpace(intentID), params)
	if err != nil {
		return IntentStatus{}, fmt.Errorf("stripe: lookup payment intent: %w", err)
	}

	status := IntentStatus{
		IntentID:  intent.ID,
		Succeeded: intent.Status == stripe.PaymentIntentStatusSucceeded,
		Amount:    intent.Amount,
	}
	if charge := intent.LatestCharge; charge != nil && (charge.Paid || charge.Captured) {
		t := time.Unix(charge.Created, 0).UTC()
		status.CapturedAt = &t
	}
	return status, nil
}
