package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// addonKeyField marks add-on prices in Paddle custom data.
const addonKeyField = "addon_key"

var ErrInvalidPaddleConfig = errors.New("billing.invalid_paddle_config")

// PaddleConfig configures the Paddle Billing gateway. Add-on prices are
// created on the fly under AddonProductID. BaseURL overrides the API host
// of the selected environment.
type PaddleConfig struct {
	APIKey         string `env:"PADDLE_API_KEY"`
	Environment    string `env:"PADDLE_ENVIRONMENT" envDefault:"sandbox"`
	AddonProductID string `env:"PADDLE_ADDON_PRODUCT_ID"`
	BaseURL        string `env:"PADDLE_BASE_URL"`
}

// Enabled reports whether an API key is configured.
func (c PaddleConfig) Enabled() bool { return c.APIKey != "" }

// PaddleGateway implements Gateway on the Paddle Billing API.
type PaddleGateway struct {
	client    *paddle.SDK
	productID string
}

func NewPaddleGateway(cfg PaddleConfig) (*PaddleGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrInvalidPaddleConfig)
	}
	if cfg.AddonProductID == "" {
		return nil, fmt.Errorf("%w: add-on product id is required", ErrInvalidPaddleConfig)
	}

	var (
		client *paddle.SDK
		err    error
		opts   []paddle.Option
	)
	if cfg.BaseURL != "" {
		opts = append(opts, paddle.WithBaseURL(cfg.BaseURL))
	}
	switch strings.ToLower(cfg.Environment) {
	case "sandbox", "":
		client, err = paddle.NewSandbox(cfg.APIKey, opts...)
	case "production":
		client, err = paddle.New(cfg.APIKey, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown environment %q", ErrInvalidPaddleConfig, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("create paddle client: %w", err)
	}
	return &PaddleGateway{client: client, productID: cfg.AddonProductID}, nil
}

func (g *PaddleGateway) SubscriptionItems(ctx context.Context, subscriptionID string) ([]SubscriptionItem, error) {
	sub, err := g.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return nil, err
	}

	items := make([]SubscriptionItem, 0, len(sub.Items))
	for _, it := range sub.Items {
		amount, err := strconv.ParseInt(it.Price.UnitPrice.Amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("price %s: unit amount %q: %w", it.Price.ID, it.Price.UnitPrice.Amount, err)
		}
		key, _ := it.Price.CustomData[addonKeyField].(string)
		items = append(items, SubscriptionItem{
			PriceID:     it.Price.ID,
			Quantity:    int64(it.Quantity),
			Addon:       key,
			UnitAmount:  amount,
			Currency:    string(it.Price.UnitPrice.CurrencyCode),
			Description: it.Price.Description,
		})
	}
	return items, nil
}

func (g *PaddleGateway) ReplaceSubscriptionItems(ctx context.Context, subscriptionID string, items []SubscriptionItem) error {
	reqItems := make([]paddle.UpdateSubscriptionItems, 0, len(items))
	for _, it := range items {
		if it.PriceID != "" {
			reqItems = append(reqItems, *paddle.NewUpdateSubscriptionItemsSubscriptionUpdateItemFromCatalog(
				&paddle.SubscriptionUpdateItemFromCatalog{
					PriceID:  it.PriceID,
					Quantity: int(it.Quantity),
				},
			))
			continue
		}
		price := paddle.TransactionPriceCreateWithProductID{
			Description: it.Description,
			ProductID:   g.productID,
			UnitPrice: paddle.Money{
				Amount:       strconv.FormatInt(it.UnitAmount, 10),
				CurrencyCode: paddle.CurrencyCode(it.Currency),
			},
			BillingCycle: &paddle.Duration{Interval: paddle.IntervalMonth, Frequency: 1},
			CustomData:   paddle.CustomData{addonKeyField: it.Addon},
		}
		if it.MaxQuantity > 0 {
			price.Quantity = paddle.PriceQuantity{Minimum: 1, Maximum: int(max(it.MaxQuantity, it.Quantity))}
		}
		reqItems = append(reqItems, *paddle.NewUpdateSubscriptionItemsSubscriptionUpdateItemCreateWithPrice(
			&paddle.SubscriptionUpdateItemCreateWithPrice{
				Price:    price,
				Quantity: int(it.Quantity),
			},
		))
	}

	_, err := g.client.SubscriptionsClient.UpdateSubscription(ctx, &paddle.UpdateSubscriptionRequest{
		SubscriptionID:       subscriptionID,
		Items:                paddle.NewPatchField(reqItems),
		ProrationBillingMode: paddle.NewPatchField(paddle.ProrationBillingModeProratedImmediately),
	})
	return err
}
