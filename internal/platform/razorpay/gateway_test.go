package razorpay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	created map[string]interface{}
	resp    map[string]interface{}
	err     error
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.created = data
	return f.resp, f.err
}

func (f *fakeOrders) Fetch(string, map[string]interface{}, map[string]string) (map[string]interface{}, error) {
	return f.resp, f.err
}

type fakePayments struct {
	resp map[string]interface{}
	err  error
}

func (f *fakePayments) Fetch(string, map[string]interface{}, map[string]string) (map[string]interface{}, error) {
	return f.resp, f.err
}

func TestClient_CreateOrder(t *testing.T) {
	orders := &fakeOrders{resp: map[string]interface{}{
		"id":       "order_1",
		"entity":   "order",
		"amount":   float64(35800),
		"currency": "INR",
		"receipt":  "rcpt_1",
		"status":   "created",
		"notes":    map[string]interface{}{"userId": "uid-1", "selectedYears": "1"},
	}}
	c := &Client{orders: orders}

	o, err := c.CreateOrder(context.Background(), OrderRequest{
		Amount: 35800, Currency: "INR", Receipt: "rcpt_1",
		Notes: map[string]string{"userId": "uid-1", "selectedYears": "1"},
	})
	require.NoError(t, err)
	require.Equal(t, "order_1", o.ID)
	require.Equal(t, int64(35800), o.Amount)
	require.Equal(t, "uid-1", o.Notes[NoteUserID])

	require.Equal(t, int64(35800), orders.created["amount"])
	require.Equal(t, "INR", orders.created["currency"])
	require.Equal(t, map[string]interface{}{"userId": "uid-1", "selectedYears": "1"}, orders.created["notes"])
}

func TestClient_FetchOrder_EmptyNotesArray(t *testing.T) {
	c := &Client{orders: &fakeOrders{resp: map[string]interface{}{
		"id":     "order_2",
		"amount": float64(66400),
		"notes":  []interface{}{},
	}}}
	o, err := c.FetchOrder(context.Background(), "order_2")
	require.NoError(t, err)
	require.Empty(t, o.Notes)
}

func TestClient_FetchPayment(t *testing.T) {
	c := &Client{payments: &fakePayments{resp: map[string]interface{}{
		"id":         "pay_1",
		"order_id":   "order_1",
		"amount":     float64(35800),
		"currency":   "INR",
		"status":     "captured",
		"captured":   true,
		"created_at": float64(1735689600),
	}}}
	p, err := c.FetchPayment(context.Background(), "pay_1")
	require.NoError(t, err)
	require.True(t, p.IsCaptured())
	require.Equal(t, "order_1", p.OrderID)
	require.Equal(t, int64(1735689600), p.CreatedAt)
}

func TestClient_FetchErrors(t *testing.T) {
	c := &Client{
		orders:   &fakeOrders{err: errors.New("BAD_REQUEST_ERROR")},
		payments: &fakePayments{resp: map[string]interface{}{}},
	}
	_, err := c.FetchOrder(context.Background(), "order_x")
	require.ErrorContains(t, err, "order_x")

	_, err = c.FetchPayment(context.Background(), "pay_x")
	require.ErrorContains(t, err, "empty response")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.FetchPayment(ctx, "pay_x")
	require.ErrorIs(t, err, context.Canceled)
}
