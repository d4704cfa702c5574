// Package catalog maps tradable underlyings to their spot and
// perpetual asset identifiers on Hyperliquid.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when the exchange metadata cannot be
// retrieved. It is fatal at startup: without a catalog the bot cannot
// trade anything.
var ErrUnavailable = errors.New("instrument catalog unavailable")

// SpotAssetOffset separates spot asset ids from perpetual asset ids in
// the exchange's unified id space. A spot asset's id is this offset
// plus its index in the spot universe.
const SpotAssetOffset = 10000

// PerpAsset is one entry of the perpetual universe.
type PerpAsset struct {
	Name       string `json:"name"`
	SzDecimals int    `json:"szDecimals"`
}

// SpotPair is one entry of the spot universe. Name is "BASE/QUOTE".
type SpotPair struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Source supplies the instrument universes the catalog is built from.
type Source interface {
	PerpMeta(ctx context.Context) ([]PerpAsset, error)
	SpotMeta(ctx context.Context) ([]SpotPair, error)
}

// Market is one tradable underlying present in both universes. The
// identity fields are fixed at build time; FundingRate (annualized,
// percent) and MarkPrice are refreshed every poll cycle.
type Market struct {
	Symbol      string
	PerpAssetID int
	SpotAssetID int
	SzDecimals  int
	FundingRate float64
	MarkPrice   float64
}

// Catalog holds every Market keyed by underlying symbol. Quote updates
// may arrive from the poll loop and the mids watcher, so access is
// guarded.
type Catalog struct {
	mu      sync.RWMutex
	markets map[string]*Market
}

// Build constructs the catalog from the perpetual and spot universes.
// A perpetual is included only when a spot pair exists whose base
// asset matches the perpetual's name. Failure to fetch either universe
// yields ErrUnavailable.
func Build(ctx context.Context, src Source, logger *zap.Logger) (*Catalog, error) {
	perps, err := src.PerpMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: perp metadata: %v", ErrUnavailable, err)
	}

	spots, err := src.SpotMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: spot metadata: %v", ErrUnavailable, err)
	}

	spotByBase := make(map[string]SpotPair, len(spots))
	for _, s := range spots {
		base, _, _ := strings.Cut(s.Name, "/")
		if _, dup := spotByBase[base]; !dup {
			spotByBase[base] = s
		}
	}

	c := &Catalog{markets: make(map[string]*Market)}
	for perpIdx, p := range perps {
		spot, ok := spotByBase[p.Name]
		if !ok {
			continue
		}
		c.markets[p.Name] = &Market{
			Symbol:      p.Name,
			PerpAssetID: perpIdx,
			SpotAssetID: SpotAssetOffset + spot.Index,
			SzDecimals:  p.SzDecimals,
		}
	}

	logger.Info("catalog initialized",
		zap.Int("markets", len(c.markets)),
		zap.Int("perps", len(perps)),
		zap.Int("spot_pairs", len(spots)))

	return c, nil
}

// Get returns a copy of the market for symbol.
func (c *Catalog) Get(symbol string) (Market, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.markets[symbol]
	if !ok {
		return Market{}, false
	}
	return *m, true
}

// Len returns the number of markets in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.markets)
}

// Snapshot returns value copies of every market, suitable for ranking
// without holding the lock.
func (c *Catalog) Snapshot() []Market {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Market, 0, len(c.markets))
	for _, m := range c.markets {
		out = append(out, *m)
	}
	return out
}

// UpdateQuote refreshes the funding rate and mark price of a known
// market. Unknown symbols are ignored and reported as false.
func (c *Catalog) UpdateQuote(symbol string, annualizedRate, markPrice float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.markets[symbol]
	if !ok {
		return false
	}
	m.FundingRate = annualizedRate
	m.MarkPrice = markPrice
	return true
}

// UpdatePrice refreshes only the mark price, leaving the funding rate
// as of the last snapshot. Used by the live mids watcher.
func (c *Catalog) UpdatePrice(symbol string, markPrice float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.markets[symbol]
	if !ok {
		return false
	}
	m.MarkPrice = markPrice
	return true
}
