package billing

import (
	"context"
	"errors"
)

// SubscriptionItem is one recurring line on an external subscription.
// Amounts are in minor currency units. Addon is empty for base plan items.
// MaxQuantity bounds the quantity a newly created price accepts.
type SubscriptionItem struct {
	PriceID     string
	Quantity    int64
	Addon       string
	UnitAmount  int64
	Currency    string
	Description string
	MaxQuantity int64
}

// Gateway reads and rewrites the line items of a payment subscription.
type Gateway interface {
	SubscriptionItems(ctx context.Context, subscriptionID string) ([]SubscriptionItem, error)
	// ReplaceSubscriptionItems sets the full item list. The provider prorates
	// the difference for the rest of the billing period. Items without a
	// PriceID are created as new recurring monthly prices.
	ReplaceSubscriptionItems(ctx context.Context, subscriptionID string, items []SubscriptionItem) error
}

// ErrNoGateway is returned by UnconfiguredGateway.
var ErrNoGateway = errors.New("billing.no_gateway")

// UnconfiguredGateway stands in when no payment provider is configured.
// Tenants without a subscription never reach it; for those with one it
// fails, so the stored add-ons cannot drift from the provider.
type UnconfiguredGateway struct{}

func (UnconfiguredGateway) SubscriptionItems(context.Context, string) ([]SubscriptionItem, error) {
	return nil, ErrNoGateway
}

func (UnconfiguredGateway) ReplaceSubscriptionItems(context.Context, string, []SubscriptionItem) error {
	return ErrNoGateway
}
