// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/javajoker/bricolage-backend/internal/config"
)

type PaymentIntent struct {
	ID     string
	Status string
}

// PaymentGateway charges a finalized cart.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*PaymentIntent, error)
	Cancel(ctx context.Context, id string) error
}

// NewPaymentGateway returns nil when no payment provider is configured.
func NewPaymentGateway(cfg config.PaymentConfig) PaymentGateway {
	if cfg.StripeSecretKey == "" {
		return nil
	}
	return NewStripeGateway(cfg.StripeSecretKey)
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents(amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntent{ID: pi.ID, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) Cancel(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := g.api.PaymentIntents.Cancel(id, params); err != nil {
		return fmt.Errorf("failed to cancel payment intent %s: %w", id, err)
	}
	return nil
}

// amountInCents converts euros to the smallest currency unit without float drift.
func amountInCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
