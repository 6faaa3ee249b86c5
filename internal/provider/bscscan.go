package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coinpricebot/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const bscScanBaseURL = "https://api.bscscan.com/api"

// BscScanProvider fetches token balances from the BscScan explorer API.
// The free tier is throttled hard, so every call goes through a shared
// token bucket; a throttled response still slipping through maps to
// ErrRateLimited.
type BscScanProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewBscScanProvider creates a provider paced at 5 requests per second.
func NewBscScanProvider(tracer trace.Tracer, apiKey string) *BscScanProvider {
	return &BscScanProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: bscScanBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(5, 200*time.Millisecond),
	}
}

// FetchBalance returns the raw integer token balance of address for the
// given contract. Division into human units is the caller's concern.
func (p *BscScanProvider) FetchBalance(ctx context.Context, contractAddress, address string) (decimal.Decimal, error) {
	_, span := p.tracer.Start(ctx, "bscscan.fetch-balance")
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return decimal.Zero, &domain.ProviderError{Provider: "BscScan", Err: err}
	}

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "tokenbalance")
	q.Set("contractaddress", contractAddress)
	q.Set("address", address)
	q.Set("tag", "latest")
	q.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, &domain.ProviderError{Provider: "BscScan", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, &domain.ProviderError{Provider: "BscScan", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, &domain.ProviderError{
			Provider: "BscScan",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Result  string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, &domain.ProviderError{Provider: "BscScan", Err: fmt.Errorf("decode payload: %w", err)}
	}

	if payload.Status != "1" {
		if strings.Contains(strings.ToLower(payload.Result), "rate limit") {
			return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrRateLimited, payload.Result)
		}
		return decimal.Zero, &domain.ProviderError{
			Provider: "BscScan",
			Err:      fmt.Errorf("api error: %s (%s)", payload.Message, payload.Result),
		}
	}

	balance, err := decimal.NewFromString(payload.Result)
	if err != nil {
		return decimal.Zero, &domain.ProviderError{Provider: "BscScan", Err: fmt.Errorf("parse balance %q: %w", payload.Result, err)}
	}
	return balance, nil
}
