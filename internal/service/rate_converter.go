package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"coinpricebot/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const (
	rateTableTTL = 24 * time.Hour
	rateTableKey = "fxrates:USD"
)

// RateSource fetches a fiat rate table for a base currency.
type RateSource interface {
	FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RateConverter converts between fiat currencies via a USD-based rate
// table refreshed at most once per day. A Redis mirror (optional) lets
// restarts within the same day skip the upstream call.
type RateConverter struct {
	tracer trace.Tracer
	source RateSource
	redis  RedisClient
	base   string
	now    func() time.Time

	mu        sync.Mutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

func NewRateConverter(tracer trace.Tracer, source RateSource, redisClient RedisClient) *RateConverter {
	return &RateConverter{
		tracer: tracer,
		source: source,
		redis:  redisClient,
		base:   "USD",
		now:    time.Now,
	}
}

// Convert converts amount from one currency to another using the daily
// table. Fails with ErrRateUnavailable when the pair cannot be served;
// callers degrade rather than failing the surrounding operation.
func (c *RateConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	rates, err := c.table(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", domain.ErrRateUnavailable, err)
	}

	rf, okFrom := rates[from]
	rt, okTo := rates[to]
	if !okFrom || !okTo || rf.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s/%s", domain.ErrRateUnavailable, from, to)
	}
	return amount.Mul(rt).DivRound(rf, 18), nil
}

// Refresh forces a fetch from the upstream source, bypassing the daily
// check. Used by the background rate poller.
func (c *RateConverter) Refresh(ctx context.Context) error {
	_, span := c.tracer.Start(ctx, "rate-converter.refresh")
	defer span.End()

	rates, err := c.source.FetchRates(ctx, c.base)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.rates = rates
	c.fetchedAt = c.now()
	c.mu.Unlock()

	c.mirror(ctx, rates)
	return nil
}

// mirroredTable is the Redis representation of a fetched rate table.
type mirroredTable struct {
	FetchedAt time.Time                  `json:"fetched_at"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

func (c *RateConverter) table(ctx context.Context) (map[string]decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rates != nil && c.now().Sub(c.fetchedAt) < rateTableTTL {
		return c.rates, nil
	}

	if rates, fetchedAt, ok := c.readMirror(ctx); ok {
		c.rates = rates
		c.fetchedAt = fetchedAt
		return c.rates, nil
	}

	rates, err := c.source.FetchRates(ctx, c.base)
	if err != nil {
		// A stale table still beats refusing every conversion.
		if c.rates != nil {
			log.Printf("rate refresh failed, serving stale table from %s: %v", c.fetchedAt.Format(time.RFC3339), err)
			return c.rates, nil
		}
		return nil, err
	}

	c.rates = rates
	c.fetchedAt = c.now()
	c.mirror(ctx, rates)
	return c.rates, nil
}

func (c *RateConverter) readMirror(ctx context.Context) (map[string]decimal.Decimal, time.Time, bool) {
	if c.redis == nil {
		return nil, time.Time{}, false
	}
	data, err := c.redis.Get(ctx, rateTableKey).Bytes()
	if err == redis.Nil {
		return nil, time.Time{}, false
	}
	if err != nil {
		log.Printf("rate mirror read error: %v", err)
		return nil, time.Time{}, false
	}

	var mt mirroredTable
	if err := json.Unmarshal(data, &mt); err != nil {
		log.Printf("rate mirror decode error: %v", err)
		return nil, time.Time{}, false
	}
	if c.now().Sub(mt.FetchedAt) >= rateTableTTL || len(mt.Rates) == 0 {
		return nil, time.Time{}, false
	}
	return mt.Rates, mt.FetchedAt, true
}

func (c *RateConverter) mirror(ctx context.Context, rates map[string]decimal.Decimal) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(mirroredTable{FetchedAt: c.now(), Rates: rates})
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, rateTableKey, data, rateTableTTL).Err(); err != nil {
		log.Printf("rate mirror write error: %v", err)
	}
}
