package service

import (
	"context"
	"fmt"
	"log"

	"coinpricebot/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

// QuoteProvider fetches raw price data for a currency descriptor.
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, d domain.CurrencyDescriptor) (*domain.RawQuote, error)
}

// BalanceProvider fetches a raw integer token balance from an explorer.
type BalanceProvider interface {
	FetchBalance(ctx context.Context, contractAddress, address string) (decimal.Decimal, error)
}

// Converter converts amounts between fiat currencies.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// Registry resolves symbols to currency descriptors.
type Registry interface {
	Resolve(symbol string) (domain.CurrencyDescriptor, error)
}

// QuoteCache memoizes aggregated quotes per symbol.
type QuoteCache interface {
	GetOrRefresh(ctx context.Context, symbol string, refresh func(context.Context) (*domain.Quote, error)) (*domain.Quote, error)
}

// QuoteService aggregates registry lookups, cached price data, burn
// balances and fiat conversion into quotes and balance results.
type QuoteService struct {
	tracer    trace.Tracer
	registry  Registry
	primary   QuoteProvider
	secondary QuoteProvider
	balances  BalanceProvider
	rates     Converter
	cache     QuoteCache
}

func NewQuoteService(
	tracer trace.Tracer,
	registry Registry,
	primary QuoteProvider,
	secondary QuoteProvider,
	balances BalanceProvider,
	rates Converter,
	quoteCache QuoteCache,
) *QuoteService {
	return &QuoteService{
		tracer:    tracer,
		registry:  registry,
		primary:   primary,
		secondary: secondary,
		balances:  balances,
		rates:     rates,
		cache:     quoteCache,
	}
}

// GetPriceQuote returns the cached quote for symbol, refreshing it from
// the upstream providers when expired.
func (s *QuoteService) GetPriceQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-price-quote")
	defer span.End()

	d, err := s.registry.Resolve(symbol)
	if err != nil {
		return nil, err
	}

	return s.cache.GetOrRefresh(ctx, d.Symbol, func(ctx context.Context) (*domain.Quote, error) {
		return s.refreshQuote(ctx, d)
	})
}

// GetBalance returns the token balance of address for the given symbol,
// valued at the current quote.
func (s *QuoteService) GetBalance(ctx context.Context, symbol, address string) (*domain.BalanceResult, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-balance")
	defer span.End()

	d, err := s.registry.Resolve(symbol)
	if err != nil {
		return nil, err
	}

	quote, err := s.GetPriceQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	raw, err := s.balances.FetchBalance(ctx, d.ContractAddress, address)
	if err != nil {
		return nil, err
	}

	human := d.HumanUnits(raw)
	result := &domain.BalanceResult{
		Symbol:        d.Symbol,
		Address:       address,
		RawBalance:    raw,
		HumanBalance:  human,
		ValueUSD:      human.Mul(quote.PriceUSD),
		IsBurnAddress: d.BurnAddress != nil && address == *d.BurnAddress,
	}
	if quote.PriceEUR != nil {
		eur := human.Mul(*quote.PriceEUR)
		result.ValueEUR = &eur
	}
	return result, nil
}

// refreshQuote performs the full upstream fetch for one currency: price
// with provider fallback, burn balance when tracked, fiat conversion and
// the burn-adjusted market cap.
func (s *QuoteService) refreshQuote(ctx context.Context, d domain.CurrencyDescriptor) (*domain.Quote, error) {
	_, span := s.tracer.Start(ctx, "quote-service.refresh-quote")
	defer span.End()

	raw, err := s.primary.FetchQuote(ctx, d)
	if err != nil {
		log.Printf("primary provider %s failed for %s, trying %s: %v", s.primary.Name(), d.Symbol, s.secondary.Name(), err)
		raw, err = s.secondary.FetchQuote(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", domain.ErrQuoteUnavailable, d.Symbol, err)
		}
	}

	quote := &domain.Quote{
		Symbol:         d.Symbol,
		PriceUSD:       raw.PriceUSD,
		Supply:         raw.Supply,
		PercentChanges: nonZeroChanges(raw.PercentChanges),
		MarketCap:      raw.Supply.Mul(raw.PriceUSD),
		LastUpdatedAt:  raw.LastUpdatedAt,
		Source:         raw.Source,
	}

	if d.BurnAddress != nil {
		rawBurn, err := s.balances.FetchBalance(ctx, d.ContractAddress, *d.BurnAddress)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: burn balance: %w", domain.ErrQuoteUnavailable, d.Symbol, err)
		}
		burn := d.HumanUnits(rawBurn)
		quote.BurnBalance = &burn
		quote.MarketCap = quote.MarketCap.Sub(burn.Mul(raw.PriceUSD))
	}

	if eur, err := s.rates.Convert(ctx, raw.PriceUSD, "USD", "EUR"); err != nil {
		// Conversion failure degrades the quote instead of failing it.
		log.Printf("EUR conversion unavailable for %s: %v", d.Symbol, err)
	} else {
		quote.PriceEUR = &eur
	}

	return quote, nil
}

// nonZeroChanges drops intervals whose value is exactly zero; they carry
// no information and are not rendered.
func nonZeroChanges(changes map[string]float64) map[string]float64 {
	if len(changes) == 0 {
		return nil
	}
	out := make(map[string]float64, len(changes))
	for label, v := range changes {
		if v != 0 {
			out[label] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
