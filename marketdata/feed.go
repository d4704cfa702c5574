// Package marketdata provides funding rate and mark price collection
// for Hyperliquid markets: a polled snapshot feed over REST and an
// optional live mids watcher over WebSocket.
package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"funding-arb-bot/catalog"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrQuoteFetchFailed is returned when the combined snapshot cannot be
// fetched or parsed. It is recoverable: the caller skips the cycle.
var ErrQuoteFetchFailed = errors.New("quote snapshot fetch failed")

// FeedConfig holds the snapshot feed settings.
type FeedConfig struct {
	BaseURL string
	Timeout time.Duration

	// PeriodsPerYear converts the raw per-period funding rate into an
	// annualized percentage: annualized = raw * periods * 100.
	PeriodsPerYear int
}

// Feed fetches one combined metadata+contexts snapshot per cycle and
// pushes the quotes into the catalog.
type Feed struct {
	cfg        FeedConfig
	httpClient *http.Client
	logger     *zap.Logger
	periods    decimal.Decimal
}

// NewFeed creates a snapshot feed.
func NewFeed(cfg FeedConfig, logger *zap.Logger) *Feed {
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = 365
	}
	return &Feed{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		periods:    decimal.NewFromInt(int64(cfg.PeriodsPerYear)),
	}
}

type assetMeta struct {
	Universe []struct {
		Name string `json:"name"`
	} `json:"universe"`
}

type assetCtx struct {
	Funding string `json:"funding"`
	MarkPx  string `json:"markPx"`
}

// Refresh fetches the combined snapshot and updates every known market
// in place. It returns the number of markets updated. Instruments not
// present in the catalog are ignored. Any transport or parse failure
// yields ErrQuoteFetchFailed and leaves the catalog untouched.
func (f *Feed) Refresh(ctx context.Context, cat *catalog.Catalog) (int, error) {
	raw, err := f.fetchSnapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQuoteFetchFailed, err)
	}

	// The endpoint returns a two-element tuple: [meta, contexts],
	// index-aligned with each other.
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) != 2 {
		return 0, fmt.Errorf("%w: malformed snapshot tuple", ErrQuoteFetchFailed)
	}

	var meta assetMeta
	if err := json.Unmarshal(tuple[0], &meta); err != nil {
		return 0, fmt.Errorf("%w: parse universe: %v", ErrQuoteFetchFailed, err)
	}

	var ctxs []assetCtx
	if err := json.Unmarshal(tuple[1], &ctxs); err != nil {
		return 0, fmt.Errorf("%w: parse contexts: %v", ErrQuoteFetchFailed, err)
	}

	updated := 0
	for idx, ac := range ctxs {
		if idx >= len(meta.Universe) {
			break
		}
		symbol := meta.Universe[idx].Name

		rate, err := f.Annualize(ac.Funding)
		if err != nil {
			f.logger.Debug("skipping unparsable funding rate",
				zap.String("symbol", symbol), zap.String("funding", ac.Funding))
			continue
		}
		markPx, err := decimal.NewFromString(ac.MarkPx)
		if err != nil {
			f.logger.Debug("skipping unparsable mark price",
				zap.String("symbol", symbol), zap.String("mark_px", ac.MarkPx))
			continue
		}

		if cat.UpdateQuote(symbol, rate, markPx.InexactFloat64()) {
			updated++
		}
	}

	f.logger.Debug("snapshot refreshed",
		zap.Int("instruments", len(ctxs)), zap.Int("updated", updated))

	return updated, nil
}

// Annualize converts a raw per-period funding rate string into an
// annualized percentage.
func (f *Feed) Annualize(raw string) (float64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	return d.Mul(f.periods).Mul(decimal.NewFromInt(100)).InexactFloat64(), nil
}

func (f *Feed) fetchSnapshot(ctx context.Context) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"type": "metaAndAssetCtxs"})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.BaseURL+"/info", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, data)
	}

	return data, nil
}
