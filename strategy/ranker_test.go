package strategy

import (
	"math"
	"testing"

	"funding-arb-bot/catalog"
)

func markets() []catalog.Market {
	return []catalog.Market{
		{Symbol: "ETH", FundingRate: 12.0, MarkPrice: 3000},
		{Symbol: "BTC", FundingRate: 36.5, MarkPrice: 50000},
		{Symbol: "SOL", FundingRate: -45.0, MarkPrice: 100},
		{Symbol: "DOGE", FundingRate: 2.0, MarkPrice: 0.1},
	}
}

func TestRankOrdersByAbsoluteRate(t *testing.T) {
	opps := Rank(markets())

	want := []string{"SOL", "BTC", "ETH", "DOGE"}
	if len(opps) != len(want) {
		t.Fatalf("got %d opportunities, want %d", len(opps), len(want))
	}
	for i, symbol := range want {
		if opps[i].Symbol != symbol {
			t.Errorf("rank %d = %s, want %s", i+1, opps[i].Symbol, symbol)
		}
	}

	for i := 1; i < len(opps); i++ {
		if math.Abs(opps[i].FundingRate) > math.Abs(opps[i-1].FundingRate) {
			t.Errorf("output not sorted at index %d", i)
		}
	}
}

func TestRankIsDeterministic(t *testing.T) {
	// Same input in any order, including ties, must produce the same
	// ranking.
	in := []catalog.Market{
		{Symbol: "BBB", FundingRate: 10},
		{Symbol: "AAA", FundingRate: -10},
		{Symbol: "CCC", FundingRate: 10},
	}

	first := Rank(in)
	for i := 0; i < 10; i++ {
		shuffled := []catalog.Market{in[(i+1)%3], in[(i+2)%3], in[i%3]}
		again := Rank(shuffled)
		for j := range first {
			if again[j].Symbol != first[j].Symbol {
				t.Fatalf("ranking unstable: run %d rank %d = %s, want %s",
					i, j, again[j].Symbol, first[j].Symbol)
			}
		}
	}
}

func TestRankCopiesQuoteFields(t *testing.T) {
	opps := Rank(markets())
	top := opps[0]
	if top.FundingRate != top.Market.FundingRate || top.MarkPrice != top.Market.MarkPrice {
		t.Error("opportunity fields diverge from the underlying market")
	}
}

func TestQualifies(t *testing.T) {
	cases := []struct {
		rate float64
		min  float64
		want bool
	}{
		{36.5, 5, true},
		{-45.0, 5, true},
		{4.9, 5, false},
		{-4.9, 5, false},
		{5.0, 5, true},
	}

	for _, tc := range cases {
		got := Qualifies(Opportunity{FundingRate: tc.rate}, tc.min)
		if got != tc.want {
			t.Errorf("Qualifies(rate=%v, min=%v) = %v, want %v", tc.rate, tc.min, got, tc.want)
		}
	}
}
