// Package strategy ranks markets by funding opportunity.
package strategy

import (
	"math"
	"sort"

	"funding-arb-bot/catalog"
)

// Opportunity is a transient view of a market's quotes at the moment
// of ranking. It is not persisted.
type Opportunity struct {
	Symbol      string
	FundingRate float64 // annualized %
	MarkPrice   float64
	Market      catalog.Market
}

// Rank orders markets by descending absolute annualized funding rate.
// Ties break on symbol so the output is deterministic for identical
// input. Pure function, no I/O.
func Rank(markets []catalog.Market) []Opportunity {
	opps := make([]Opportunity, 0, len(markets))
	for _, m := range markets {
		opps = append(opps, Opportunity{
			Symbol:      m.Symbol,
			FundingRate: m.FundingRate,
			MarkPrice:   m.MarkPrice,
			Market:      m,
		})
	}

	sort.SliceStable(opps, func(i, j int) bool {
		a, b := math.Abs(opps[i].FundingRate), math.Abs(opps[j].FundingRate)
		if a != b {
			return a > b
		}
		return opps[i].Symbol < opps[j].Symbol
	})

	return opps
}

// Qualifies reports whether the opportunity clears the configured
// minimum absolute annualized rate.
func Qualifies(o Opportunity, minRate float64) bool {
	return math.Abs(o.FundingRate) >= minRate
}
