package marketdata

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"funding-arb-bot/catalog"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WatcherConfig holds the live mids watcher settings.
type WatcherConfig struct {
	WSURL             string
	ReconnectInterval time.Duration
	MaxReconnects     int
}

// MidsWatcher keeps mark prices fresh between poll cycles by consuming
// the exchange's allMids stream. Funding rates still come exclusively
// from the snapshot feed; the watcher only tightens price staleness.
type MidsWatcher struct {
	cfg    WatcherConfig
	cat    *catalog.Catalog
	logger *zap.Logger
	dialer *websocket.Dialer
}

// NewMidsWatcher creates a watcher bound to the given catalog.
func NewMidsWatcher(cfg WatcherConfig, cat *catalog.Catalog, logger *zap.Logger) *MidsWatcher {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 5 * time.Second
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = 10
	}
	return &MidsWatcher{
		cfg:    cfg,
		cat:    cat,
		logger: logger,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

type subscriptionMessage struct {
	Method       string            `json:"method"`
	Subscription map[string]string `json:"subscription"`
}

type allMidsMessage struct {
	Channel string `json:"channel"`
	Data    struct {
		Mids map[string]string `json:"mids"`
	} `json:"data"`
}

// Run consumes the stream until the context is cancelled or the
// reconnect budget is exhausted. Intended to be run in its own
// goroutine; failures degrade the bot to snapshot-only prices.
func (w *MidsWatcher) Run(ctx context.Context) {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		err := w.consume(ctx)
		if ctx.Err() != nil {
			return
		}

		attempts++
		if attempts > w.cfg.MaxReconnects {
			w.logger.Warn("mids watcher giving up, falling back to snapshot prices",
				zap.Int("attempts", attempts-1), zap.Error(err))
			return
		}

		w.logger.Warn("mids stream dropped, reconnecting",
			zap.Int("attempt", attempts), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.ReconnectInterval):
		}
	}
}

func (w *MidsWatcher) consume(ctx context.Context) error {
	conn, _, err := w.dialer.DialContext(ctx, w.cfg.WSURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Drop the connection promptly when the bot shuts down.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	sub := subscriptionMessage{
		Method:       "subscribe",
		Subscription: map[string]string{"type": "allMids"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	w.logger.Info("mids watcher connected", zap.String("url", w.cfg.WSURL))

	for {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		w.handleMessage(data)
	}
}

// handleMessage applies one allMids frame to the catalog and returns
// how many markets were updated. Non-allMids frames are ignored.
func (w *MidsWatcher) handleMessage(data []byte) int {
	var msg allMidsMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Channel != "allMids" {
		return 0
	}

	updated := 0
	for symbol, pxStr := range msg.Data.Mids {
		px, err := strconv.ParseFloat(pxStr, 64)
		if err != nil || px <= 0 {
			continue
		}
		if w.cat.UpdatePrice(symbol, px) {
			updated++
		}
	}
	return updated
}
