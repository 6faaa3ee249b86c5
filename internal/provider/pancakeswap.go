package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coinpricebot/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const pancakeSwapBaseURL = "https://api.pancakeswap.info/api/v2"

// PancakeSwapProvider is the secondary quote provider, consulted when the
// primary fails. It queries the DEX price feed by contract address and
// reports only a spot price and update timestamp; supply comes from the
// descriptor's fixed supply.
type PancakeSwapProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewPancakeSwapProvider(tracer trace.Tracer) *PancakeSwapProvider {
	return &PancakeSwapProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: pancakeSwapBaseURL,
		tracer:  tracer,
	}
}

func (p *PancakeSwapProvider) Name() string { return domain.SourcePancakeSwap.String() }

func (p *PancakeSwapProvider) FetchQuote(ctx context.Context, d domain.CurrencyDescriptor) (*domain.RawQuote, error) {
	_, span := p.tracer.Start(ctx, "pancakeswap.fetch-quote")
	defer span.End()

	if d.FixedSupply == nil {
		return nil, fmt.Errorf("%w for %s", domain.ErrMissingSupply, d.Symbol)
	}

	url := fmt.Sprintf("%s/tokens/%s", p.baseURL, d.ContractAddress)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.ProviderError{
			Provider: p.Name(),
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var payload struct {
		UpdatedAt int64 `json:"updated_at"`
		Data      struct {
			Symbol string `json:"symbol"`
			Price  string `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: fmt.Errorf("decode payload: %w", err)}
	}

	price, err := decimal.NewFromString(payload.Data.Price)
	if err != nil {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: fmt.Errorf("parse price %q: %w", payload.Data.Price, err)}
	}

	return &domain.RawQuote{
		PriceUSD:      price,
		Supply:        *d.FixedSupply,
		LastUpdatedAt: time.UnixMilli(payload.UpdatedAt).UTC(),
		Source:        domain.SourcePancakeSwap,
	}, nil
}
