package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/framecast/internal/crypto"
	"github.com/alanyoungcy/framecast/internal/domain"
)

type fakeSigner struct {
	payloads []crypto.OrderPayload
}

func (f *fakeSigner) SignOrder(p crypto.OrderPayload) (string, error) {
	f.payloads = append(f.payloads, p)
	return "0xsigned", nil
}

func (f *fakeSigner) Address() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000aa")
}

type fakeClob struct {
	mu        sync.Mutex
	posted    []domain.Order
	postErr   error
	cancelled []string
}

func (f *fakeClob) PostOrder(_ context.Context, o domain.Order) (domain.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return domain.OrderResult{Success: false, Message: f.postErr.Error()}, f.postErr
	}
	f.posted = append(f.posted, o)
	return domain.OrderResult{Success: true, OrderID: "exch-1", Status: domain.OrderStatusOpen}, nil
}

func (f *fakeClob) CancelOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeClob) CancelAll(context.Context) error { return nil }

func (f *fakeClob) GetOpenOrders(context.Context) ([]domain.Order, error) {
	return []domain.Order{}, nil
}

func testSession() domain.Session {
	return domain.Session{
		ID:           "sess-1",
		FID:          42,
		OwnerAddress: "0x00000000000000000000000000000000000000bb",
		SafeAddress:  "0x00000000000000000000000000000000000000cc",
	}
}

func newTestOrderService(clob *fakeClob) (*OrderService, *fakeSigner) {
	signer := &fakeSigner{}
	svc := NewOrderService(signer, clob, nil, newMemBus(), 2, testLogger())
	return svc, signer
}

func TestPlaceOrderBuyAmounts(t *testing.T) {
	clob := &fakeClob{}
	svc, signer := newTestOrderService(clob)

	result, err := svc.PlaceOrder(context.Background(), testSession(), domain.OrderRequest{
		TokenID: "tok-1",
		Side:    domain.OrderSideBuy,
		Type:    domain.OrderTypeGTC,
		Price:   0.55,
		Size:    10,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !result.Success {
		t.Fatalf("result not successful: %+v", result)
	}

	if len(clob.posted) != 1 {
		t.Fatalf("posted orders = %d, want 1", len(clob.posted))
	}
	posted := clob.posted[0]
	if posted.Wallet != testSession().SafeAddress {
		t.Errorf("maker = %s, want safe address", posted.Wallet)
	}
	// BUY of 10 shares at 0.55: spend 5.50 USDC for 10 shares.
	if got := posted.MakerAmount.Int64(); got != 5_500_000 {
		t.Errorf("maker amount = %d, want 5500000", got)
	}
	if got := posted.TakerAmount.Int64(); got != 10_000_000 {
		t.Errorf("taker amount = %d, want 10000000", got)
	}
	if posted.Signature != "0xsigned" {
		t.Errorf("signature = %q, want signed placeholder", posted.Signature)
	}

	if len(signer.payloads) != 1 {
		t.Fatalf("signed payloads = %d, want 1", len(signer.payloads))
	}
	p := signer.payloads[0]
	if p.Side != 0 {
		t.Errorf("payload side = %d, want 0 (BUY)", p.Side)
	}
	if p.SignatureType != 2 {
		t.Errorf("payload signature type = %d, want 2", p.SignatureType)
	}
	if p.Maker != testSession().SafeAddress {
		t.Errorf("payload maker = %s, want safe address", p.Maker)
	}
}

func TestPlaceOrderSellAmountsReversed(t *testing.T) {
	clob := &fakeClob{}
	svc, _ := newTestOrderService(clob)

	_, err := svc.PlaceOrder(context.Background(), testSession(), domain.OrderRequest{
		TokenID: "tok-1",
		Side:    domain.OrderSideSell,
		Type:    domain.OrderTypeFOK,
		Price:   0.25,
		Size:    4,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	posted := clob.posted[0]
	// SELL of 4 shares at 0.25: offer 4 shares for 1.00 USDC.
	if got := posted.MakerAmount.Int64(); got != 4_000_000 {
		t.Errorf("maker amount = %d, want 4000000", got)
	}
	if got := posted.TakerAmount.Int64(); got != 1_000_000 {
		t.Errorf("taker amount = %d, want 1000000", got)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, _ := newTestOrderService(&fakeClob{})

	cases := []struct {
		name string
		req  domain.OrderRequest
	}{
		{"missing token", domain.OrderRequest{Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 0.5, Size: 1}},
		{"bad side", domain.OrderRequest{TokenID: "t", Side: "HOLD", Type: domain.OrderTypeGTC, Price: 0.5, Size: 1}},
		{"bad type", domain.OrderRequest{TokenID: "t", Side: domain.OrderSideBuy, Type: "IOC", Price: 0.5, Size: 1}},
		{"price zero", domain.OrderRequest{TokenID: "t", Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 0, Size: 1}},
		{"price one", domain.OrderRequest{TokenID: "t", Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 1, Size: 1}},
		{"size zero", domain.OrderRequest{TokenID: "t", Side: domain.OrderSideBuy, Type: domain.OrderTypeGTC, Price: 0.5, Size: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), testSession(), tc.req)
			if !errors.Is(err, domain.ErrInvalidOrder) {
				t.Errorf("err = %v, want ErrInvalidOrder", err)
			}
		})
	}
}

func TestPlaceOrderPostFailure(t *testing.T) {
	clob := &fakeClob{postErr: errors.New("exchange down")}
	svc, _ := newTestOrderService(clob)

	_, err := svc.PlaceOrder(context.Background(), testSession(), domain.OrderRequest{
		TokenID: "tok-1",
		Side:    domain.OrderSideBuy,
		Type:    domain.OrderTypeGTC,
		Price:   0.5,
		Size:    1,
	})
	if err == nil || !strings.Contains(err.Error(), "exchange down") {
		t.Errorf("err = %v, want wrapped exchange error", err)
	}
}

func TestCancelOrderDelegates(t *testing.T) {
	clob := &fakeClob{}
	svc, _ := newTestOrderService(clob)

	if err := svc.CancelOrder(context.Background(), "ord-1"); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if len(clob.cancelled) != 1 || clob.cancelled[0] != "ord-1" {
		t.Errorf("cancelled = %v, want [ord-1]", clob.cancelled)
	}
}

func TestOrderSaltDeterministic(t *testing.T) {
	id := "0f14d0ab-9605-4a62-a9e4-5ed26688389b"
	a := orderSalt(id)
	b := orderSalt(id)
	if a != b {
		t.Errorf("salt not deterministic: %s vs %s", a, b)
	}
	if a == "" || a[0] == '-' {
		t.Errorf("salt = %q, want positive decimal", a)
	}
}
