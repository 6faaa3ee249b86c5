package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// RatePoller keeps the fiat rate table warm by refreshing it on a fixed
// interval, so user-facing lookups never wait on the upstream rate API.
type RatePoller struct {
	tracer          trace.Tracer
	rates           RateRefresher
	refreshInterval time.Duration
}

type RateRefresher interface {
	Refresh(ctx context.Context) error
}

func NewRatePoller(tracer trace.Tracer, rates RateRefresher, refreshIntervalSecs int) *RatePoller {
	return &RatePoller{
		tracer:          tracer,
		rates:           rates,
		refreshInterval: time.Duration(refreshIntervalSecs) * time.Second,
	}
}

// Start launches the refresh loop. Blocks until ctx is cancelled.
func (p *RatePoller) Start(ctx context.Context) {
	log.Println("Rate poller starting...")

	// Run immediately on start
	if err := p.rates.Refresh(ctx); err != nil {
		log.Printf("rate poller initial run error: %v", err)
	}

	ticker := time.NewTicker(p.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Rate poller stopped")
			return
		case <-ticker.C:
			if err := p.rates.Refresh(ctx); err != nil {
				log.Printf("rate poller error: %v", err)
			}
		}
	}
}
