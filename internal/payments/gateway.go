package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/lankapos/pos-backend/pkg/config"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Intent is the gateway-neutral view of a card payment attempt.
type Intent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Gateway is the card-payment boundary the checkout engine talks to.
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, terminal string) (*Intent, error)
	Confirm(ctx context.Context, intentID string) (*Intent, error)
}

// Client wraps Stripe's API client plus env-specific metadata.
type Client struct {
	api         *stripe.Client
	environment string
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := stripe.NewClient(apiKey)

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		api:         api,
		environment: env,
	}, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreateIntent opens a payment intent for the amount in the store currency.
func (c *Client) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, terminal string) (*Intent, error) {
	if c == nil || c.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card gateway not configured")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card amount must be positive")
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency: stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		Metadata: map[string]string{
			"terminal": terminal,
		},
	}
	intent, err := c.api.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDependency, "creating payment intent")
	}
	return fromStripe(intent), nil
}

// Confirm finalizes the payment intent.
func (c *Client) Confirm(ctx context.Context, intentID string) (*Intent, error) {
	if c == nil || c.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card gateway not configured")
	}
	if strings.TrimSpace(intentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "intent id is required")
	}

	intent, err := c.api.V1PaymentIntents.Confirm(ctx, intentID, &stripe.PaymentIntentConfirmParams{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDependency, "confirming payment intent")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded && intent.Status != stripe.PaymentIntentStatusRequiresCapture {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment intent not settled (status %s)", intent.Status))
	}
	return fromStripe(intent), nil
}

func fromStripe(intent *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           intent.ID,
		Status:       string(intent.Status),
		ClientSecret: intent.ClientSecret,
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
