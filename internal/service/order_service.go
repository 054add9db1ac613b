package service

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/alanyoungcy/framecast/internal/crypto"
	"github.com/alanyoungcy/framecast/internal/domain"
)

// orderChannel is the SignalBus channel order lifecycle events publish to.
const orderChannel = "orders"

// zeroAddress is the taker for public (non-negotiated) orders.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// Signer abstracts EIP-712 order signing so the service layer never depends
// on concrete key-management implementations.
type Signer interface {
	SignOrder(payload crypto.OrderPayload) (string, error)
	Address() common.Address
}

// ClobGateway is the exchange surface the order service drives.
type ClobGateway interface {
	PostOrder(ctx context.Context, order domain.Order) (domain.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	CancelAll(ctx context.Context) error
	GetOpenOrders(ctx context.Context) ([]domain.Order, error)
}

// OrderService builds, signs, and submits orders against the CLOB on behalf
// of a session's Safe wallet. The exchange is the source of truth for live
// order state; the optional store keeps a local audit trail.
type OrderService struct {
	signer        Signer
	clob          ClobGateway
	store         domain.OrderStore // nil disables the audit trail
	bus           domain.SignalBus
	signatureType int
	logger        *slog.Logger
}

// NewOrderService creates an OrderService. store may be nil when Postgres
// is not configured.
func NewOrderService(
	signer Signer,
	clob ClobGateway,
	store domain.OrderStore,
	bus domain.SignalBus,
	signatureType int,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		signer:        signer,
		clob:          clob,
		store:         store,
		bus:           bus,
		signatureType: signatureType,
		logger:        logger.With(slog.String("component", "order_service")),
	}
}

// PlaceOrder validates a request, signs the resulting order with the
// session's Safe as maker, and submits it to the CLOB.
func (s *OrderService) PlaceOrder(ctx context.Context, session domain.Session, req domain.OrderRequest) (domain.OrderResult, error) {
	if err := validateRequest(req); err != nil {
		return domain.OrderResult{
			Success: false,
			Message: err.Error(),
		}, fmt.Errorf("order_service: %w", err)
	}

	order := buildOrder(session, req)

	payload := crypto.OrderPayload{
		Salt:          orderSalt(order.ID),
		Maker:         order.Wallet,
		Signer:        s.signer.Address().Hex(),
		Taker:         zeroAddress,
		TokenID:       order.TokenID,
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          sideInt(order.Side),
		SignatureType: s.signatureType,
	}

	signature, err := s.signer.SignOrder(payload)
	if err != nil {
		return domain.OrderResult{
			Success: false,
			Message: "signing failed",
		}, fmt.Errorf("order_service: %w: %v", domain.ErrSigningFailed, err)
	}
	order.Signature = signature

	result, err := s.clob.PostOrder(ctx, order)
	if err != nil {
		s.audit(ctx, order, domain.OrderStatusFailed)
		return result, fmt.Errorf("order_service: post order: %w", err)
	}
	if result.OrderID == "" {
		result.OrderID = order.ID
	}
	if result.Status != "" {
		order.Status = result.Status
	}

	s.audit(ctx, order, order.Status)
	s.publishEvent(ctx, "order_placed", result.OrderID, map[string]string{
		"token_id": order.TokenID,
		"side":     string(order.Side),
		"status":   string(order.Status),
	})

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", result.OrderID),
		slog.String("token_id", order.TokenID),
		slog.String("side", string(order.Side)),
		slog.String("status", string(order.Status)),
	)

	return result, nil
}

// CancelOrder cancels a single order on the exchange.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) error {
	if err := s.clob.CancelOrder(ctx, orderID); err != nil {
		return fmt.Errorf("order_service: cancel %q: %w", orderID, err)
	}

	if s.store != nil {
		if err := s.store.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled); err != nil {
			s.logger.WarnContext(ctx, "audit status update failed",
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.publishEvent(ctx, "order_cancelled", orderID, nil)
	return nil
}

// CancelAll cancels every open order for the authenticated wallet.
func (s *OrderService) CancelAll(ctx context.Context) error {
	if err := s.clob.CancelAll(ctx); err != nil {
		return fmt.Errorf("order_service: cancel all: %w", err)
	}
	s.publishEvent(ctx, "orders_cancelled", "", nil)
	return nil
}

// OpenOrders returns the live open orders from the exchange.
func (s *OrderService) OpenOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.clob.GetOpenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("order_service: open orders: %w", err)
	}
	return orders, nil
}

// History returns the locally recorded order history for a wallet. It
// returns an empty slice when no audit store is configured.
func (s *OrderService) History(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.Order, error) {
	if s.store == nil {
		return []domain.Order{}, nil
	}
	orders, err := s.store.ListByWallet(ctx, wallet, opts)
	if err != nil {
		return nil, fmt.Errorf("order_service: history for %q: %w", wallet, err)
	}
	return orders, nil
}

// audit records the order locally. Failures are logged, never fatal.
func (s *OrderService) audit(ctx context.Context, order domain.Order, status domain.OrderStatus) {
	if s.store == nil {
		return
	}
	order.Status = status
	if err := s.store.Create(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "order audit write failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *OrderService) publishEvent(ctx context.Context, event, orderID string, extra map[string]string) {
	msg := map[string]string{"event": event}
	if orderID != "" {
		msg["order_id"] = orderID
	}
	for k, v := range extra {
		msg[k] = v
	}
	payload, _ := json.Marshal(msg)
	if err := s.bus.Publish(ctx, orderChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "publish order event failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// validateRequest enforces the request invariants before signing anything.
func validateRequest(req domain.OrderRequest) error {
	if req.TokenID == "" {
		return fmt.Errorf("%w: token_id required", domain.ErrInvalidOrder)
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return fmt.Errorf("%w: side must be BUY or SELL", domain.ErrInvalidOrder)
	}
	if req.Type != domain.OrderTypeGTC && req.Type != domain.OrderTypeFOK {
		return fmt.Errorf("%w: order_type must be GTC or FOK", domain.ErrInvalidOrder)
	}
	if req.Price <= 0 || req.Price >= 1 {
		return fmt.Errorf("%w: price must be in (0, 1)", domain.ErrInvalidOrder)
	}
	if req.Size <= 0 {
		return fmt.Errorf("%w: size must be positive", domain.ErrInvalidOrder)
	}
	return nil
}

// buildOrder converts a validated request into an unsigned order. Amounts
// use the exchange's 6-decimal fixed point: a BUY's maker amount is the
// USDC spent (price * size), a SELL's maker amount is the shares offered.
func buildOrder(session domain.Session, req domain.OrderRequest) domain.Order {
	priceTicks := int64(math.Round(req.Price * 1e6))
	sizeUnits := int64(math.Round(req.Size * 1e6))
	notional := int64(math.Round(req.Price * req.Size * 1e6))

	order := domain.Order{
		ID:         uuid.NewString(),
		TokenID:    req.TokenID,
		Wallet:     session.SafeAddress,
		Side:       req.Side,
		Type:       req.Type,
		PriceTicks: priceTicks,
		SizeUnits:  sizeUnits,
		Status:     domain.OrderStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if req.Side == domain.OrderSideBuy {
		order.MakerAmount = big.NewInt(notional)
		order.TakerAmount = big.NewInt(sizeUnits)
	} else {
		order.MakerAmount = big.NewInt(sizeUnits)
		order.TakerAmount = big.NewInt(notional)
	}
	return order
}

func sideInt(side domain.OrderSide) int {
	if side == domain.OrderSideSell {
		return 1
	}
	return 0
}

// orderSalt derives a decimal salt from the order's UUID so the signed
// payload is unique per order and reproducible from its ID.
func orderSalt(orderID string) string {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%d", binary.BigEndian.Uint64(id[:8])>>1)
}
