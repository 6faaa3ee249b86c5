package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"coinpricebot/internal/domain"

	"github.com/shopspring/decimal"
)

type fakeQuotes struct {
	quote      *domain.Quote
	balance    *domain.BalanceResult
	err        error
	lastSymbol string
}

func (f *fakeQuotes) GetPriceQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	f.lastSymbol = symbol
	return f.quote, f.err
}

func (f *fakeQuotes) GetBalance(ctx context.Context, symbol, address string) (*domain.BalanceResult, error) {
	f.lastSymbol = symbol
	return f.balance, f.err
}

type fakeRegistry struct {
	descriptors map[string]domain.CurrencyDescriptor
	removed     bool
	removeErr   error
	upsertErr   error
	lastUpsert  domain.CurrencyDescriptor
	lastRemove  string
}

func (f *fakeRegistry) Resolve(symbol string) (domain.CurrencyDescriptor, error) {
	d, ok := f.descriptors[symbol]
	if !ok {
		return domain.CurrencyDescriptor{}, domain.ErrUnknownCurrency
	}
	return d, nil
}

func (f *fakeRegistry) Symbols() []string {
	out := make([]string, 0, len(f.descriptors))
	for s := range f.descriptors {
		out = append(out, s)
	}
	return out
}

func (f *fakeRegistry) Upsert(d domain.CurrencyDescriptor) error {
	f.lastUpsert = d
	return f.upsertErr
}

func (f *fakeRegistry) Remove(symbol string) (bool, error) {
	f.lastRemove = symbol
	return f.removed, f.removeErr
}

func registryWith(symbols ...string) *fakeRegistry {
	descriptors := make(map[string]domain.CurrencyDescriptor, len(symbols))
	for _, s := range symbols {
		descriptors[s] = domain.CurrencyDescriptor{Symbol: s, Decimals: 1_000_000_000}
	}
	return &fakeRegistry{descriptors: descriptors}
}

func sampleQuote() *domain.Quote {
	return &domain.Quote{
		Symbol:        "BABYDOGE",
		PriceUSD:      decimal.NewFromInt(2),
		Supply:        decimal.NewFromInt(1_000_000),
		MarketCap:     decimal.NewFromInt(2_000_000),
		LastUpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	StartTelegramBot("", nil)
}

func TestPrice(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{quote: sampleQuote()}
	r := NewResponder(quotes, registryWith("BABYDOGE"), 1, "test")

	got := r.Price(context.Background(), []string{"babydoge"})
	if !strings.Contains(got, "Price (CoinMarketCap):") {
		t.Fatalf("unexpected reply:\n%s", got)
	}
	if quotes.lastSymbol != "BABYDOGE" {
		t.Fatalf("symbol not canonicalized, got %q", quotes.lastSymbol)
	}
}

func TestPriceSyntax(t *testing.T) {
	t.Parallel()

	r := NewResponder(&fakeQuotes{}, registryWith(), 1, "test")
	if got := r.Price(context.Background(), nil); got != "Incorrect syntax. Usage: /price <symbol>" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestPriceUnknownCurrency(t *testing.T) {
	t.Parallel()

	r := NewResponder(&fakeQuotes{}, registryWith("BABYDOGE"), 1, "test")
	got := r.Price(context.Background(), []string{"NOPE"})
	if !strings.Contains(got, "Unknown currency: NOPE") || !strings.Contains(got, "BABYDOGE") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestPriceFailure(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{err: errors.New("upstream down")}
	r := NewResponder(quotes, registryWith("BABYDOGE"), 1, "test")
	if got := r.Price(context.Background(), []string{"BABYDOGE"}); got != "Something went wrong." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestBalance(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{balance: &domain.BalanceResult{
		Symbol:       "BABYDOGE",
		Address:      "0x1234000000000000000000000000000000005678",
		HumanBalance: decimal.NewFromInt(42),
		ValueUSD:     decimal.NewFromInt(84),
	}}
	r := NewResponder(quotes, registryWith("BABYDOGE"), 1, "test")

	got := r.Balance(context.Background(), []string{"BABYDOGE", "0x1234000000000000000000000000000000005678"})
	if !strings.Contains(got, "The address 0x1234000000000000000000000000000000005678 has:") {
		t.Fatalf("unexpected reply:\n%s", got)
	}
}

func TestBalanceSyntax(t *testing.T) {
	t.Parallel()

	r := NewResponder(&fakeQuotes{}, registryWith(), 1, "test")
	if got := r.Balance(context.Background(), []string{"BABYDOGE"}); got != "Incorrect syntax. Usage: /balance <symbol> <address>" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestBalanceFailure(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{err: errors.New("bad address")}
	r := NewResponder(quotes, registryWith("BABYDOGE"), 1, "test")
	got := r.Balance(context.Background(), []string{"BABYDOGE", "oops"})
	if got != "Something went wrong. Is the address correct?" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestRemoveCurrency(t *testing.T) {
	t.Parallel()

	reg := registryWith("BABYDOGE")
	reg.removed = true
	r := NewResponder(&fakeQuotes{}, reg, 1, "test")

	if got := r.RemoveCurrency([]string{"babydoge"}); got != "BABYDOGE has been removed." {
		t.Fatalf("unexpected reply: %q", got)
	}
	if reg.lastRemove != "BABYDOGE" {
		t.Fatalf("symbol not canonicalized, got %q", reg.lastRemove)
	}
}

func TestRemoveCurrencyAbsent(t *testing.T) {
	t.Parallel()

	r := NewResponder(&fakeQuotes{}, registryWith(), 1, "test")
	got := r.RemoveCurrency([]string{"NOPE"})
	if got != "NOPE hasn't been removed as it wasn't even present." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestRemoveCurrencySyntax(t *testing.T) {
	t.Parallel()

	r := NewResponder(&fakeQuotes{}, registryWith(), 1, "test")
	if got := r.RemoveCurrency(nil); got != "Incorrect syntax. Usage: /removecurrency <symbol>" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestUpdateCurrency(t *testing.T) {
	t.Parallel()

	reg := registryWith()
	r := NewResponder(&fakeQuotes{}, reg, 1, "test")

	got := r.UpdateCurrency([]string{
		"babydoge", "10407",
		"0xc748673057861a797275cd8a068abb95a902e8de",
		"0x000000000000000000000000000000000000dEaD",
		"1000000000", "true", "420000000000000000",
	})
	if got != "BABYDOGE has been updated." {
		t.Fatalf("unexpected reply: %q", got)
	}

	d := reg.lastUpsert
	if d.Symbol != "BABYDOGE" || d.ProviderID != 10407 || d.Decimals != 1_000_000_000 {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if d.BurnAddress == nil || *d.BurnAddress != "0x000000000000000000000000000000000000dEaD" {
		t.Fatalf("unexpected burn address: %v", d.BurnAddress)
	}
	if d.DisplayMode != domain.DisplayBigNumber {
		t.Fatal("expected big-number display mode")
	}
	if d.FixedSupply == nil || !d.FixedSupply.Equal(decimal.RequireFromString("420000000000000000")) {
		t.Fatalf("unexpected supply: %v", d.FixedSupply)
	}
}

func TestUpdateCurrencyNullBurn(t *testing.T) {
	t.Parallel()

	reg := registryWith()
	r := NewResponder(&fakeQuotes{}, reg, 1, "test")

	got := r.UpdateCurrency([]string{
		"WBNB", "7192",
		"0xc748673057861a797275cd8a068abb95a902e8de",
		"null", "1000000000", "false",
	})
	if got != "WBNB has been updated." {
		t.Fatalf("unexpected reply: %q", got)
	}
	if reg.lastUpsert.BurnAddress != nil {
		t.Fatal("expected nil burn address")
	}
	if reg.lastUpsert.DisplayMode != domain.DisplayStandard {
		t.Fatal("expected standard display mode")
	}
	if reg.lastUpsert.FixedSupply != nil {
		t.Fatal("expected nil supply")
	}
}

func TestUpdateCurrencySyntax(t *testing.T) {
	t.Parallel()

	r := NewResponder(&fakeQuotes{}, registryWith(), 1, "test")
	cases := [][]string{
		{"BABYDOGE", "10407", "0xc7", "null", "1000000000"},
		{"BABYDOGE", "10407", "0xc7", "null", "1000000000", "true", "42", "extra"},
		{"BABYDOGE", "abc", "0xc7", "null", "1000000000", "true"},
		{"BABYDOGE", "10407", "0xc7", "null", "abc", "true"},
		{"BABYDOGE", "10407", "0xc7", "null", "1000000000", "true", "notanumber"},
	}
	for _, args := range cases {
		if got := r.UpdateCurrency(args); got != updateCurrencyUsage {
			t.Fatalf("args %v: unexpected reply: %q", args, got)
		}
	}
}

func TestUpdateCurrencyUpsertFailure(t *testing.T) {
	t.Parallel()

	reg := registryWith()
	reg.upsertErr = errors.New("validation failed")
	r := NewResponder(&fakeQuotes{}, reg, 1, "test")

	got := r.UpdateCurrency([]string{
		"WBNB", "7192",
		"0xc748673057861a797275cd8a068abb95a902e8de",
		"null", "1000000000", "false",
	})
	if got != "Something went wrong." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestHelp(t *testing.T) {
	t.Parallel()

	r := NewResponder(&fakeQuotes{}, registryWith("BABYDOGE"), 1, "1.2.3")
	got := r.Help()
	if !strings.Contains(got, "Coin Price Bot (Version: 1.2.3)") {
		t.Fatalf("missing version line:\n%s", got)
	}
	if !strings.Contains(got, "/price <symbol>") || !strings.Contains(got, "/balance <symbol> <address>") {
		t.Fatalf("missing command help:\n%s", got)
	}
	if !strings.Contains(got, "Supported: BABYDOGE") {
		t.Fatalf("missing supported list:\n%s", got)
	}
}
