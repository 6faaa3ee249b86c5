package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"coinpricebot/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const coinMarketCapBaseURL = "https://pro-api.coinmarketcap.com/v1"

// CoinMarketCapProvider is the primary quote provider. It queries by the
// descriptor's numeric id and reports price, supply and the full set of
// percent-change intervals.
type CoinMarketCapProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

func NewCoinMarketCapProvider(tracer trace.Tracer, apiKey string) *CoinMarketCapProvider {
	return &CoinMarketCapProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: coinMarketCapBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
	}
}

func (p *CoinMarketCapProvider) Name() string { return domain.SourceCoinMarketCap.String() }

func (p *CoinMarketCapProvider) FetchQuote(ctx context.Context, d domain.CurrencyDescriptor) (*domain.RawQuote, error) {
	_, span := p.tracer.Start(ctx, "coinmarketcap.fetch-quote")
	defer span.End()

	url := fmt.Sprintf("%s/cryptocurrency/quotes/latest?id=%d&convert=USD", p.baseURL, d.ProviderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", p.apiKey)

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
		Status struct {
			ErrorCode    int     `json:"error_code"`
			ErrorMessage *string `json:"error_message"`
		} `json:"status"`
		Data map[string]struct {
			MaxSupply   *float64                  `json:"max_supply"`
			TotalSupply *float64                  `json:"total_supply"`
			LastUpdated string                    `json:"last_updated"`
			Quote       map[string]map[string]any `json:"quote"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: fmt.Errorf("decode payload: %w", err)}
	}
	if payload.Status.ErrorCode != 0 {
		msg := "unknown error"
		if payload.Status.ErrorMessage != nil {
			msg = *payload.Status.ErrorMessage
		}
		return nil, &domain.ProviderError{
			Provider: p.Name(),
			Err:      fmt.Errorf("api error %d: %s", payload.Status.ErrorCode, msg),
		}
	}

	entry, ok := payload.Data[strconv.Itoa(d.ProviderID)]
	if !ok {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: fmt.Errorf("id %d missing from response", d.ProviderID)}
	}

	usd, ok := entry.Quote["USD"]
	if !ok {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: fmt.Errorf("no USD quote for id %d", d.ProviderID)}
	}

	price, ok := usd["price"]
	if !ok {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: fmt.Errorf("no price for id %d", d.ProviderID)}
	}

	supply := entry.MaxSupply
	if supply == nil {
		supply = entry.TotalSupply
	}
	if supply == nil {
		return nil, &domain.ProviderError{Provider: p.Name(), Err: fmt.Errorf("no supply data for id %d", d.ProviderID)}
	}

	updated, err := time.Parse(time.RFC3339, entry.LastUpdated)
	if err != nil {
		updated = time.Now().UTC()
	}

	changes := make(map[string]float64)
	for key, v := range usd {
		if label, ok := strings.CutPrefix(key, "percent_change_"); ok {
			changes[label] = asFloat(v)
		}
	}

	return &domain.RawQuote{
		PriceUSD:       decimal.NewFromFloat(asFloat(price)),
		Supply:         decimal.NewFromFloat(*supply),
		PercentChanges: changes,
		LastUpdatedAt:  updated,
		Source:         domain.SourceCoinMarketCap,
	}, nil
}
