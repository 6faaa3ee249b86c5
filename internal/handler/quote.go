package handler

import (
	"errors"
	"net/http"
	"strings"

	"coinpricebot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetQuote godoc
// @Summary      Get the aggregated quote for a tracked currency
// @Description  Returns the cached price, burn-adjusted market cap, and percent changes
// @Tags         quotes
// @Produce      json
// @Param        symbol  path  string  true  "Currency symbol (e.g., BABYDOGE)"
// @Success      200  {object}  domain.Quote
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/quotes/{symbol} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-quote")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	quote, err := h.quotes.GetPriceQuote(ctx, symbol)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetBalance godoc
// @Summary      Get the token balance of an address
// @Description  Returns the balance of a tracked currency for an address, valued in USD/EUR
// @Tags         balances
// @Produce      json
// @Param        symbol   path  string  true  "Currency symbol (e.g., BABYDOGE)"
// @Param        address  path  string  true  "BEP-20 account address"
// @Success      200  {object}  domain.BalanceResult
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/balances/{symbol}/{address} [get]
func (h *Handler) GetBalance(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-balance")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	address := c.Param("address")
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("address", address))

	result, err := h.quotes.GetBalance(ctx, symbol, address)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownCurrency):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuoteUnavailable), errors.Is(err, domain.ErrRateLimited):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
