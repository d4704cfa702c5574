// Package execution places paired hedge orders on Hyperliquid and
// tracks the resulting positions.
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"funding-arb-bot/catalog"
	"funding-arb-bot/metrics"
	"funding-arb-bot/notification"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrOrderRejected means the exchange acknowledged the order and
	// refused it.
	ErrOrderRejected = errors.New("order rejected")

	// ErrOrderSubmissionFailed means the order never got a usable
	// acknowledgment (transport, signing or parse failure). Treated
	// identically to a rejection by callers.
	ErrOrderSubmissionFailed = errors.New("order submission failed")

	// ErrUnwindFailed marks a failed emergency close. It is logged and
	// alerted on but never changes the outward result of the hedge
	// attempt.
	ErrUnwindFailed = errors.New("emergency close failed")
)

// Config holds the execution engine settings.
type Config struct {
	BaseURL     string
	NotionalUSD float64
	MaxSlippage float64
	Timeout     time.Duration
}

// Engine opens delta-neutral hedges: one spot leg and one perpetual
// leg in opposite directions, sized to a fixed notional. The ledger
// only gains an entry when both legs were accepted; a lone accepted
// leg is always followed by an emergency close attempt.
type Engine struct {
	cfg        Config
	signer     Signer
	ledger     *Ledger
	httpClient *http.Client
	logger     *zap.Logger
	notifier   notification.Notifier
	met        *metrics.Metrics

	nonceMu   sync.Mutex
	lastNonce int64
}

// NewEngine creates a hedge execution engine. All collaborators are
// injected; the signer in particular is never constructed here.
func NewEngine(cfg Config, signer Signer, ledger *Ledger, logger *zap.Logger,
	notifier notification.Notifier, met *metrics.Metrics) *Engine {
	return &Engine{
		cfg:        cfg,
		signer:     signer,
		ledger:     ledger,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		notifier:   notifier,
		met:        met,
	}
}

// Hyperliquid order wire format.
type wireOrder struct {
	Asset      int       `json:"a"`
	IsBuy      bool      `json:"b"`
	Price      string    `json:"p"`
	Size       string    `json:"s"`
	ReduceOnly bool      `json:"r"`
	Type       orderType `json:"t"`
}

type orderType struct {
	Limit limitType `json:"limit"`
}

type limitType struct {
	Tif string `json:"tif"`
}

type orderAction struct {
	Type     string      `json:"type"`
	Orders   []wireOrder `json:"orders"`
	Grouping string      `json:"grouping"`
}

type signedRequest struct {
	Action    orderAction `json:"action"`
	Nonce     int64       `json:"nonce"`
	Signature string      `json:"signature"`
}

type exchangeResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// OpenHedge opens a hedge for the market: notional/markPrice tokens on
// each leg, slippage-bounded limit prices. The perp side is derived
// from the sign of the observed funding rate — positive funding is
// collected short perp / long spot, negative funding inverts both
// legs. Returns nil only when both legs were accepted and the position
// was recorded.
func (e *Engine) OpenHedge(ctx context.Context, m catalog.Market, observedRate float64) error {
	if m.MarkPrice <= 0 {
		return fmt.Errorf("%w: no mark price for %s", ErrOrderRejected, m.Symbol)
	}

	markPx := decimal.NewFromFloat(m.MarkPrice)
	qty := decimal.NewFromFloat(e.cfg.NotionalUSD).Div(markPx).Truncate(int32(m.SzDecimals))
	if qty.IsZero() {
		return fmt.Errorf("%w: notional %.2f too small for %s at %.4f",
			ErrOrderRejected, e.cfg.NotionalUSD, m.Symbol, m.MarkPrice)
	}
	size := qty.StringFixed(int32(m.SzDecimals))

	perpIsBuy := observedRate < 0
	spotIsBuy := !perpIsBuy

	one := decimal.NewFromInt(1)
	slip := decimal.NewFromFloat(e.cfg.MaxSlippage)
	spotPx := limitPrice(markPx, one, slip, spotIsBuy)
	perpPx := limitPrice(markPx, one, slip, perpIsBuy)

	e.logger.Info("opening hedge",
		zap.String("symbol", m.Symbol),
		zap.Float64("funding_apr", observedRate),
		zap.String("size", size),
		zap.Bool("spot_buy", spotIsBuy),
		zap.Float64("mark_price", m.MarkPrice))

	if err := e.placeOrder(ctx, m.SpotAssetID, spotIsBuy, spotPx.String(), size); err != nil {
		e.met.HedgesFailed.Inc()
		return fmt.Errorf("spot leg for %s: %w", m.Symbol, err)
	}

	if err := e.placeOrder(ctx, m.PerpAssetID, perpIsBuy, perpPx.String(), size); err != nil {
		e.emergencyClose(ctx, m, spotIsBuy, size)
		e.met.HedgesFailed.Inc()
		return fmt.Errorf("perp leg for %s: %w", m.Symbol, err)
	}

	e.ledger.Record(m.Symbol, &Position{
		Market:           m,
		EntryTime:        time.Now(),
		EntryFundingRate: observedRate,
		EntryMarkPrice:   m.MarkPrice,
		Quantity:         qty,
		PerpIsBuy:        perpIsBuy,
	})
	e.met.HedgesOpened.Inc()

	e.logger.Info("hedge opened",
		zap.String("symbol", m.Symbol),
		zap.String("size", size),
		zap.Float64("funding_apr", observedRate))

	return nil
}

// limitPrice bounds the fill price: buys are capped above the mark,
// sells floored below it.
func limitPrice(markPx, one, slip decimal.Decimal, isBuy bool) decimal.Decimal {
	if isBuy {
		return markPx.Mul(one.Add(slip))
	}
	return markPx.Mul(one.Sub(slip))
}

// emergencyClose submits an opposite-direction order at market price
// for the already-filled spot leg. Exactly one attempt; its failure is
// escalated but does not alter the hedge attempt's result.
func (e *Engine) emergencyClose(ctx context.Context, m catalog.Market, spotWasBuy bool, size string) {
	e.met.UnwindAttempts.Inc()

	if err := e.placeOrder(ctx, m.SpotAssetID, !spotWasBuy, "0", size); err != nil {
		e.met.UnwindFailures.Inc()
		wrapped := fmt.Errorf("%w for %s: %v", ErrUnwindFailed, m.Symbol, err)
		e.logger.Error("unhedged spot leg left open", zap.Error(wrapped),
			zap.String("symbol", m.Symbol), zap.String("size", size))

		if nerr := e.notifier.Send(ctx, notification.Alert{
			Level: notification.AlertCritical,
			Title: "unhedged leg",
			Message: fmt.Sprintf("emergency close of %s spot leg (size %s) failed: %v",
				m.Symbol, size, err),
		}); nerr != nil {
			e.logger.Error("alert delivery failed", zap.Error(nerr))
		}
		return
	}

	e.logger.Warn("spot leg unwound after perp rejection",
		zap.String("symbol", m.Symbol), zap.String("size", size))
}

// placeOrder submits one signed limit order and reports acceptance.
func (e *Engine) placeOrder(ctx context.Context, assetID int, isBuy bool, limitPx, size string) error {
	action := orderAction{
		Type: "order",
		Orders: []wireOrder{{
			Asset:      assetID,
			IsBuy:      isBuy,
			Price:      limitPx,
			Size:       size,
			ReduceOnly: false,
			Type:       orderType{Limit: limitType{Tif: "Gtc"}},
		}},
		Grouping: "na",
	}

	nonce := e.nextNonce()

	toSign, err := json.Marshal(struct {
		Action orderAction `json:"action"`
		Nonce  int64       `json:"nonce"`
	}{action, nonce})
	if err != nil {
		return fmt.Errorf("%w: marshal action: %v", ErrOrderSubmissionFailed, err)
	}

	signature, err := e.signer.Sign(toSign)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOrderSubmissionFailed, err)
	}

	body, err := json.Marshal(signedRequest{Action: action, Nonce: nonce, Signature: signature})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrOrderSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/exchange", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOrderSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.met.OrdersRejected.Inc()
		return fmt.Errorf("%w: %v", ErrOrderSubmissionFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.met.OrdersRejected.Inc()
		return fmt.Errorf("%w: read response: %v", ErrOrderSubmissionFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		e.met.OrdersRejected.Inc()
		return fmt.Errorf("%w: status %d: %s", ErrOrderSubmissionFailed, resp.StatusCode, data)
	}

	var parsed exchangeResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		e.met.OrdersRejected.Inc()
		return fmt.Errorf("%w: parse response: %v", ErrOrderSubmissionFailed, err)
	}

	if parsed.Status != "ok" {
		e.met.OrdersRejected.Inc()
		return fmt.Errorf("%w: status %q: %s", ErrOrderRejected, parsed.Status, parsed.Response)
	}

	return nil
}

// nextNonce returns a strictly increasing millisecond nonce, even for
// calls landing within the same millisecond.
func (e *Engine) nextNonce() int64 {
	e.nonceMu.Lock()
	defer e.nonceMu.Unlock()

	n := time.Now().UnixMilli()
	if n <= e.lastNonce {
		n = e.lastNonce + 1
	}
	e.lastNonce = n
	return n
}
