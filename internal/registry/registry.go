package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"coinpricebot/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Registry holds the currency descriptors keyed by canonical upper-case
// symbol. Mutations persist the whole file before the in-memory swap, so
// concurrent readers never observe a partially written registry and the
// file never disagrees with memory.
type Registry struct {
	path     string
	validate *validator.Validate

	mu      sync.RWMutex
	entries map[string]domain.CurrencyDescriptor
}

// fileEntry is the on-disk representation of a descriptor.
type fileEntry struct {
	ID              int              `json:"id"`
	ContractAddress string           `json:"contract_address"`
	BurnAddress     *string          `json:"burn_address"`
	Decimals        int64            `json:"decimals"`
	UseBigNumbers   bool             `json:"use_big_numbers"`
	Supply          *decimal.Decimal `json:"supply,omitempty"`
}

// Load reads the registry file at path. A missing file yields an empty
// registry so the first administrative upsert can create it.
func Load(path string) (*Registry, error) {
	r := &Registry{
		path:     path,
		validate: validator.New(),
		entries:  make(map[string]domain.CurrencyDescriptor),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var raw map[string]fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}

	for symbol, fe := range raw {
		d := fe.toDescriptor(symbol)
		if err := r.validate.Struct(d); err != nil {
			return nil, fmt.Errorf("registry %s: invalid descriptor for %s: %w", path, symbol, err)
		}
		r.entries[canonical(symbol)] = d
	}
	return r, nil
}

// Resolve looks up a descriptor by symbol, case-insensitively.
func (r *Registry) Resolve(symbol string) (domain.CurrencyDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.entries[canonical(symbol)]
	if !ok {
		return domain.CurrencyDescriptor{}, fmt.Errorf("%w: %s", domain.ErrUnknownCurrency, symbol)
	}
	return d, nil
}

// Symbols returns all registered symbols in sorted order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	symbols := make([]string, 0, len(r.entries))
	for s := range r.entries {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Descriptors returns a snapshot of all descriptors, sorted by symbol.
func (r *Registry) Descriptors() []domain.CurrencyDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.CurrencyDescriptor, 0, len(r.entries))
	for _, d := range r.entries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Upsert validates d, persists the updated registry and installs the new
// entry. On persistence failure the in-memory registry is untouched.
func (r *Registry) Upsert(d domain.CurrencyDescriptor) error {
	d.Symbol = canonical(d.Symbol)
	if err := r.validate.Struct(d); err != nil {
		return fmt.Errorf("invalid descriptor for %s: %w", d.Symbol, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]domain.CurrencyDescriptor, len(r.entries)+1)
	for k, v := range r.entries {
		next[k] = v
	}
	next[d.Symbol] = d

	if err := r.persist(next); err != nil {
		return err
	}
	r.entries = next
	return nil
}

// Remove deletes a symbol. Removing an absent symbol reports false and
// performs no write.
func (r *Registry) Remove(symbol string) (bool, error) {
	key := canonical(symbol)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; !ok {
		return false, nil
	}

	next := make(map[string]domain.CurrencyDescriptor, len(r.entries)-1)
	for k, v := range r.entries {
		if k != key {
			next[k] = v
		}
	}

	if err := r.persist(next); err != nil {
		return false, err
	}
	r.entries = next
	return true, nil
}

// persist writes the whole registry to a temp file in the same directory
// and renames it over the target, so readers of the file never see a
// partial write. Caller holds the write lock.
func (r *Registry) persist(entries map[string]domain.CurrencyDescriptor) error {
	raw := make(map[string]fileEntry, len(entries))
	for symbol, d := range entries {
		raw[symbol] = fileEntry{
			ID:              d.ProviderID,
			ContractAddress: d.ContractAddress,
			BurnAddress:     d.BurnAddress,
			Decimals:        d.Decimals,
			UseBigNumbers:   d.DisplayMode == domain.DisplayBigNumber,
			Supply:          d.FixedSupply,
		}
	}

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return &domain.PersistenceError{Path: r.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return &domain.PersistenceError{Path: r.path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &domain.PersistenceError{Path: r.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.PersistenceError{Path: r.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return &domain.PersistenceError{Path: r.path, Err: err}
	}
	return nil
}

func (fe fileEntry) toDescriptor(symbol string) domain.CurrencyDescriptor {
	mode := domain.DisplayStandard
	if fe.UseBigNumbers {
		mode = domain.DisplayBigNumber
	}
	return domain.CurrencyDescriptor{
		Symbol:          canonical(symbol),
		ProviderID:      fe.ID,
		ContractAddress: fe.ContractAddress,
		BurnAddress:     fe.BurnAddress,
		Decimals:        fe.Decimals,
		DisplayMode:     mode,
		FixedSupply:     fe.Supply,
	}
}

// canonical folds a symbol to its registry key form.
func canonical(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
