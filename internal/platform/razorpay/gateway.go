package razorpay

import (
	"context"
	"encoding/json"
	"fmt"

	rzp "github.com/razorpay/razorpay-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/csinmamit/membership/pkg/config"
)

// Gateway is the subset of the payment gateway API the membership flow uses.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// orderAPI and paymentAPI match the resource clients of razorpay-go, which speak
// map[string]interface{}.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type paymentAPI interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Client struct {
	orders   orderAPI
	payments paymentAPI
}

var _ Gateway = (*Client)(nil)

func NewClient(l *zap.SugaredLogger, cfg *cfgpkg.Config) *Client {
	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		l.Warnw("razorpay credentials are not configured, gateway calls will fail")
	}
	c := rzp.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	return &Client{orders: c.Order, payments: c.Payment}
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	raw, err := c.orders.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	var o Order
	if err := decode(raw, &o); err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	return &o, nil
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := c.orders.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch order %s: %w", orderID, err)
	}
	var o Order
	if err := decode(raw, &o); err != nil {
		return nil, fmt.Errorf("razorpay fetch order %s: %w", orderID, err)
	}
	if o.ID == "" {
		return nil, fmt.Errorf("razorpay fetch order %s: empty response", orderID)
	}
	return &o, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := c.payments.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch payment %s: %w", paymentID, err)
	}
	var p Payment
	if err := decode(raw, &p); err != nil {
		return nil, fmt.Errorf("razorpay fetch payment %s: %w", paymentID, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("razorpay fetch payment %s: empty response", paymentID)
	}
	return &p, nil
}

// decode re-encodes the SDK's generic map into a typed entity.
func decode(raw map[string]interface{}, out any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

var Module = fx.Options(
	fx.Provide(
		NewClient,
		func(c *Client) Gateway { return c },
	),
)
