package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// OrderService defines the methods the order handler requires from the
// service layer.
type OrderService interface {
	PlaceOrder(ctx context.Context, session domain.Session, req domain.OrderRequest) (domain.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	CancelAll(ctx context.Context) error
	OpenOrders(ctx context.Context) ([]domain.Order, error)
	History(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.Order, error)
}

// OrderHandler serves order-related HTTP endpoints. Mutating endpoints
// require a session issued by POST /api/connect, passed as X-Session-ID.
type OrderHandler struct {
	orders   OrderService
	sessions SessionResolver
	logger   *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given services and logger.
func NewOrderHandler(orders OrderService, sessions SessionResolver, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		sessions: sessions,
		logger:   logger,
	}
}

// listOrdersResponse wraps the list orders response.
type listOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// ListOrders returns live open orders, or the local history for the
// session's wallet when history=true.
// GET /api/orders?history=true&limit=50&offset=0
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var orders []domain.Order
	var err error

	if r.URL.Query().Get("history") == "true" {
		orders, err = h.orders.History(r.Context(), session.SafeAddress, parseListOpts(r))
	} else {
		orders, err = h.orders.OpenOrders(r.Context())
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list orders failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, listOrdersResponse{Orders: orders})
}

// PlaceOrder creates a new order from a JSON request body.
// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), session, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidOrder):
			writeError(w, http.StatusBadRequest, result.Message)
		case errors.Is(err, domain.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "rate limited")
		default:
			h.logger.ErrorContext(r.Context(), "handler: place order failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadGateway, "failed to place order")
		}
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// CancelOrder cancels an existing order by its ID.
// DELETE /api/orders/{id}
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSession(w, r); !ok {
		return
	}

	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.orders.CancelOrder(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: cancel order failed",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to cancel order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "cancelled",
		"order_id": id,
	})
}

// CancelAll cancels every open order for the authenticated wallet.
// DELETE /api/orders
func (h *OrderHandler) CancelAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSession(w, r); !ok {
		return
	}

	if err := h.orders.CancelAll(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: cancel all failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to cancel orders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// requireSession resolves the X-Session-ID header, writing the error
// response itself when the session is missing or expired.
func (h *OrderHandler) requireSession(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing X-Session-ID header")
		return domain.Session{}, false
	}

	session, err := h.sessions.SessionByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "session expired or unknown")
			return domain.Session{}, false
		}
		h.logger.ErrorContext(r.Context(), "handler: session lookup failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		return domain.Session{}, false
	}
	return session, true
}
