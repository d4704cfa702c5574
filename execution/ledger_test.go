package execution

import (
	"testing"
	"time"

	"funding-arb-bot/catalog"

	"github.com/shopspring/decimal"
)

func TestLedgerRecordAndLookup(t *testing.T) {
	l := NewLedger()

	if l.HasOpen("BTC") {
		t.Error("empty ledger reports an open position")
	}
	if l.Len() != 0 {
		t.Errorf("empty ledger Len = %d", l.Len())
	}

	l.Record("BTC", &Position{
		Market:           catalog.Market{Symbol: "BTC"},
		EntryTime:        time.Now(),
		EntryFundingRate: 36.5,
		EntryMarkPrice:   50000,
		Quantity:         decimal.RequireFromString("0.020"),
		PerpIsBuy:        false,
	})

	if !l.HasOpen("BTC") {
		t.Error("recorded position not reported as open")
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}

	p, ok := l.Get("BTC")
	if !ok {
		t.Fatal("Get missed the recorded position")
	}
	if p.EntryFundingRate != 36.5 || p.PerpIsBuy {
		t.Errorf("unexpected position: %+v", p)
	}

	if _, ok := l.Get("ETH"); ok {
		t.Error("Get returned a position for an unknown symbol")
	}
}
