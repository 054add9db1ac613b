package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// SessionResolver looks sessions up by ID. Declared separately so the order
// handler can share it without pulling in the connect flow.
type SessionResolver interface {
	SessionByID(ctx context.Context, id string) (domain.Session, error)
}

// SessionService defines the methods the session handler requires from the
// service layer.
type SessionService interface {
	SessionResolver
	Connect(ctx context.Context, fid int64, ownerAddress string) (domain.Session, error)
	Balance(ctx context.Context, session domain.Session) (float64, error)
}

// SessionHandler serves the connect and balance endpoints.
type SessionHandler struct {
	sessions SessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler with the given service and logger.
func NewSessionHandler(sessions SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// connectRequest is the POST /api/connect body.
type connectRequest struct {
	FID     int64  `json:"fid"`
	Address string `json:"address"`
}

// Connect resolves (or deploys) the caller's Safe and issues a session.
// POST /api/connect
func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	session, err := h.sessions.Connect(r.Context(), req.FID, req.Address)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: connect failed",
			slog.Int64("fid", req.FID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to connect")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Balance returns the USDC balance of the session's Safe.
// GET /api/balance
func (h *SessionHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing X-Session-ID header")
		return
	}

	session, err := h.sessions.SessionByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "session expired or unknown")
			return
		}
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}

	balance, err := h.sessions.Balance(r.Context(), session)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: balance failed",
			slog.String("safe", session.SafeAddress),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"safe_address": session.SafeAddress,
		"balance":      balance,
		"currency":     "USDC",
	})
}
