package execution

import (
	"sync"
	"time"

	"funding-arb-bot/catalog"

	"github.com/shopspring/decimal"
)

// Position is one open delta-neutral hedge. A position exists only
// after both legs were accepted by the exchange.
type Position struct {
	Market           catalog.Market
	EntryTime        time.Time
	EntryFundingRate float64
	EntryMarkPrice   float64
	Quantity         decimal.Decimal
	PerpIsBuy        bool
}

// Ledger is the in-memory record of open hedges, keyed by underlying
// symbol. At most one position per underlying; the control loop checks
// HasOpen before attempting a hedge.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*Position
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{positions: make(map[string]*Position)}
}

// HasOpen reports whether a hedge is already open for symbol.
func (l *Ledger) HasOpen(symbol string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.positions[symbol]
	return ok
}

// Record inserts a position, overwriting any prior entry for the
// symbol. Overwrites should not occur while the one-position-per-
// underlying invariant holds.
func (l *Ledger) Record(symbol string, p *Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[symbol] = p
}

// Get returns the open position for symbol, if any.
func (l *Ledger) Get(symbol string) (*Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.positions[symbol]
	return p, ok
}

// Len returns the number of open positions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}
