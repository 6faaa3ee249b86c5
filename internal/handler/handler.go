package handler

import (
	"context"

	"coinpricebot/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type QuoteService interface {
	GetPriceQuote(ctx context.Context, symbol string) (*domain.Quote, error)
	GetBalance(ctx context.Context, symbol, address string) (*domain.BalanceResult, error)
}

type Registry interface {
	Descriptors() []domain.CurrencyDescriptor
}

type Handler struct {
	tracer   trace.Tracer
	quotes   QuoteService
	registry Registry
}

func New(tracer trace.Tracer, quotes QuoteService, registry Registry) *Handler {
	return &Handler{
		tracer:   tracer,
		quotes:   quotes,
		registry: registry,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/currencies", h.ListCurrencies)
	r.GET("/api/quotes/:symbol", h.GetQuote)
	r.GET("/api/balances/:symbol/:address", h.GetBalance)
}
