package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCurrency is returned when a symbol is not in the registry.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrMissingSupply is returned by the secondary price provider when a
	// descriptor has no fixed supply configured.
	ErrMissingSupply = errors.New("no fixed supply configured")

	// ErrQuoteUnavailable is returned when every price provider failed.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrRateUnavailable is returned when no fiat exchange rate exists for
	// the requested pair. Quote aggregation degrades instead of failing.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrRateLimited is returned when the balance explorer throttles us.
	ErrRateLimited = errors.New("rate limited by upstream")
)

// ProviderError wraps a transient upstream failure (network, auth,
// rate limit, malformed response) with the provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PersistenceError wraps a registry write failure. The mutation that
// triggered it has been rolled back.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist registry %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
