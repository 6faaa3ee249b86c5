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

const frankfurterBaseURL = "https://api.frankfurter.dev/v1"

// FrankfurterRateSource fetches daily fiat reference rates. The upstream
// publishes once per working day, so callers refresh at most daily.
type FrankfurterRateSource struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFrankfurterRateSource(tracer trace.Tracer) *FrankfurterRateSource {
	return &FrankfurterRateSource{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: frankfurterBaseURL,
		tracer:  tracer,
	}
}

// FetchRates returns the latest rate table for the given base currency.
// The base itself is included with rate 1.
func (s *FrankfurterRateSource) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	_, span := s.tracer.Start(ctx, "frankfurter.fetch-rates")
	defer span.End()

	url := fmt.Sprintf("%s/latest?base=%s", s.baseURL, base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "Frankfurter", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "Frankfurter", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.ProviderError{
			Provider: "Frankfurter",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var payload struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.ProviderError{Provider: "Frankfurter", Err: fmt.Errorf("decode payload: %w", err)}
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates)+1)
	rates[strings.ToUpper(base)] = decimal.NewFromInt(1)
	for cur, rate := range payload.Rates {
		rates[strings.ToUpper(cur)] = decimal.NewFromFloat(rate)
	}
	return rates, nil
}
