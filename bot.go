package main

import (
	"context"
	"math"
	"time"

	"funding-arb-bot/catalog"
	"funding-arb-bot/metrics"
	"funding-arb-bot/strategy"

	"go.uber.org/zap"
)

// topOpportunityLogCount is how many leaders are logged each cycle.
const topOpportunityLogCount = 5

// quoteFeed is the slice of marketdata.Feed the loop needs.
type quoteFeed interface {
	Refresh(ctx context.Context, cat *catalog.Catalog) (int, error)
}

// hedgeOpener is the slice of execution.Engine the loop needs.
type hedgeOpener interface {
	OpenHedge(ctx context.Context, m catalog.Market, observedRate float64) error
}

// positionBook is the slice of execution.Ledger the loop needs.
type positionBook interface {
	HasOpen(symbol string) bool
	Len() int
}

// bot is the control loop: fetch, rank, filter, execute, sleep,
// forever. Per-cycle failures are logged and swallowed so the process
// survives transient exchange trouble; only context cancellation ends
// the loop.
type bot struct {
	cat    *catalog.Catalog
	feed   quoteFeed
	engine hedgeOpener
	ledger positionBook
	met    *metrics.Metrics
	health *metrics.Health
	logger *zap.Logger

	minFundingRate float64
	interval       time.Duration
}

// run executes cycles at a fixed interval until ctx is cancelled. The
// interval does not stretch with cycle duration; slow cycles simply
// eat into the idle time.
func (b *bot) run(ctx context.Context) {
	b.cycle(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("control loop stopped",
				zap.Int("open_positions", b.ledger.Len()))
			return
		case <-ticker.C:
			b.cycle(ctx)
		}
	}
}

// cycle is the per-tick error boundary: every failure below it becomes
// a log entry, never a crash.
func (b *bot) cycle(ctx context.Context) {
	b.met.CyclesTotal.Inc()

	if _, err := b.feed.Refresh(ctx, b.cat); err != nil {
		// No data this cycle, which is not the same as no
		// opportunities. Wait for the next tick.
		b.met.QuoteFailures.Inc()
		b.logger.Warn("quote refresh failed, skipping cycle", zap.Error(err))
		return
	}

	opps := strategy.Rank(b.cat.Snapshot())
	if len(opps) == 0 {
		b.logger.Info("no opportunities found")
		return
	}

	b.met.TopFundingRate.Set(math.Abs(opps[0].FundingRate))
	b.logTopOpportunities(opps)

	for _, opp := range opps {
		if !strategy.Qualifies(opp, b.minFundingRate) {
			// Sorted by |rate| descending, nothing further qualifies.
			break
		}
		if b.ledger.HasOpen(opp.Symbol) {
			continue
		}

		b.logger.Info("opportunity found",
			zap.String("symbol", opp.Symbol),
			zap.Float64("funding_apr", opp.FundingRate))

		if err := b.engine.OpenHedge(ctx, opp.Market, opp.FundingRate); err != nil {
			b.logger.Error("hedge attempt failed",
				zap.String("symbol", opp.Symbol), zap.Error(err))
			continue
		}
	}

	b.met.OpenPositions.Set(float64(b.ledger.Len()))
	b.health.SetLastCycle(time.Now())
}

func (b *bot) logTopOpportunities(opps []strategy.Opportunity) {
	n := len(opps)
	if n > topOpportunityLogCount {
		n = topOpportunityLogCount
	}
	for i := 0; i < n; i++ {
		b.logger.Info("top funding rate",
			zap.Int("rank", i+1),
			zap.String("symbol", opps[i].Symbol),
			zap.Float64("funding_apr", opps[i].FundingRate),
			zap.Float64("mark_price", opps[i].MarkPrice))
	}
}
