package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinpricebot/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type fakeQuotes struct {
	quote       *domain.Quote
	balance     *domain.BalanceResult
	err         error
	lastSymbol  string
	lastAddress string
}

func (f *fakeQuotes) GetPriceQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	f.lastSymbol = symbol
	return f.quote, f.err
}

func (f *fakeQuotes) GetBalance(ctx context.Context, symbol, address string) (*domain.BalanceResult, error) {
	f.lastSymbol = symbol
	f.lastAddress = address
	return f.balance, f.err
}

type fakeRegistry struct {
	descriptors []domain.CurrencyDescriptor
}

func (f *fakeRegistry) Descriptors() []domain.CurrencyDescriptor {
	return f.descriptors
}

func newTestRouter(quotes QuoteService, registry Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), quotes, registry)
	h.RegisterRoutes(r)
	return r
}

func TestGetQuote(t *testing.T) {
	quotes := &fakeQuotes{quote: &domain.Quote{
		Symbol:    "BABYDOGE",
		PriceUSD:  decimal.NewFromInt(2),
		Supply:    decimal.NewFromInt(1_000_000),
		MarketCap: decimal.NewFromInt(1_800_000),
		CachedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
	router := newTestRouter(quotes, &fakeRegistry{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/quotes/babydoge", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if quotes.lastSymbol != "BABYDOGE" {
		t.Fatalf("symbol not canonicalized, got %q", quotes.lastSymbol)
	}

	var body struct {
		Symbol    string `json:"symbol"`
		MarketCap string `json:"market_cap"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Symbol != "BABYDOGE" || body.MarketCap != "1800000" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetQuoteErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: NOPE", domain.ErrUnknownCurrency), http.StatusNotFound},
		{fmt.Errorf("%w for NOPE", domain.ErrQuoteUnavailable), http.StatusBadGateway},
		{domain.ErrRateLimited, http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		router := newTestRouter(&fakeQuotes{err: tc.err}, &fakeRegistry{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/quotes/NOPE", nil)
		router.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Fatalf("error %v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestGetBalance(t *testing.T) {
	quotes := &fakeQuotes{balance: &domain.BalanceResult{
		Symbol:        "BABYDOGE",
		Address:       "0x000000000000000000000000000000000000dEaD",
		HumanBalance:  decimal.NewFromInt(100_000),
		ValueUSD:      decimal.NewFromInt(200_000),
		IsBurnAddress: true,
	}}
	router := newTestRouter(quotes, &fakeRegistry{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/balances/babydoge/0x000000000000000000000000000000000000dEaD", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if quotes.lastAddress != "0x000000000000000000000000000000000000dEaD" {
		t.Fatalf("address must be passed through untouched, got %q", quotes.lastAddress)
	}

	var body struct {
		IsBurnAddress bool `json:"is_burn_address"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !body.IsBurnAddress {
		t.Fatal("expected burn-address flag in body")
	}
}

func TestListCurrencies(t *testing.T) {
	registry := &fakeRegistry{descriptors: []domain.CurrencyDescriptor{
		{Symbol: "BABYDOGE", ProviderID: 10407, ContractAddress: "0xc748673057861a797275cd8a068abb95a902e8de", Decimals: 1_000_000_000},
	}}
	router := newTestRouter(&fakeQuotes{}, registry)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/currencies", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Currencies []struct {
			Symbol string `json:"symbol"`
		} `json:"currencies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Currencies) != 1 || body.Currencies[0].Symbol != "BABYDOGE" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyAuth("secret"))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	cases := []struct {
		key  string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusForbidden},
		{"secret", http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if tc.key != "" {
			req.Header.Set("X-API-Key", tc.key)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("key %q: expected %d, got %d", tc.key, tc.want, w.Code)
		}
	}
}
