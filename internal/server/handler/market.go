package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// MarketService defines the methods the market handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type MarketService interface {
	FeaturedMarkets(ctx context.Context) (domain.ResolvedBatch, error)
	MarketDetails(ctx context.Context, tokenID string) (domain.BookSummary, error)
	NextRefresh() (int64, time.Duration)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logger,
	}
}

// featuredResponse wraps the featured batch with refresh metadata.
type featuredResponse struct {
	Markets     []domain.Market `json:"markets"`
	Misses      []string        `json:"misses,omitempty"`
	WindowStart int64           `json:"window_start"`
	NextRefresh int64           `json:"next_refresh"`
}

// ListMarkets returns the currently-active instances of the featured
// identifiers.
// GET /api/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	batch, err := h.markets.FeaturedMarkets(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: featured markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to resolve markets")
		return
	}

	next, _ := h.markets.NextRefresh()
	writeJSON(w, http.StatusOK, featuredResponse{
		Markets:     batch.Markets,
		Misses:      batch.Misses,
		WindowStart: batch.WindowStart,
		NextRefresh: next,
	})
}

// NextRefresh reports when the current window rolls over.
// GET /api/markets/next-refresh
func (h *MarketHandler) NextRefresh(w http.ResponseWriter, r *http.Request) {
	next, until := h.markets.NextRefresh()
	writeJSON(w, http.StatusOK, map[string]any{
		"next_refresh": next,
		"seconds_left": int64(until.Seconds()),
	})
}

// MarketDetails returns the live book snapshot for a token.
// GET /api/markets/details/{tokenID}
func (h *MarketHandler) MarketDetails(w http.ResponseWriter, r *http.Request) {
	tokenID := pathParam(r, "tokenID")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "missing token id")
		return
	}

	summary, err := h.markets.MarketDetails(r.Context(), tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "token not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: market details failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch market details")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
