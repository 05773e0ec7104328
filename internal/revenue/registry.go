// Package revenue estimates daily per-protocol revenue from volume and TVL.
//
// Estimates are heuristic. Each protocol family gets a formula keyed by a
// name pattern in a Registry; protocols with no matching rule earn zero.
package revenue

import (
	"strings"
)

// Default heuristic rates.
const (
	SwapFeeRate      = 0.003  // flat 0.3% fee-tier proxy on swap volume
	DailyYieldSpread = 0.0003 // 0.03% daily spread on TVL
)

// RuleNone marks a protocol day that matched no rule.
const RuleNone = "none"

// Inputs are the daily signals a formula may use.
type Inputs struct {
	TotalVolumeETH float64
	TotalVolumeUSD float64
	LatestTVLUSD   *float64
	ETHPriceUSD    *float64
}

// Formula computes estimated revenue in USD.
type Formula func(in Inputs) float64

// Rule maps a protocol name pattern to a revenue formula.
type Rule struct {
	Name    string
	Pattern string // case-insensitive substring of protocol_name
	Formula Formula
}

// Matches reports whether the rule applies to protocolName.
func (r Rule) Matches(protocolName string) bool {
	return strings.Contains(strings.ToLower(protocolName), strings.ToLower(r.Pattern))
}

// Rates are the overridable heuristic rates.
type Rates struct {
	SwapFeeRate      float64
	DailyYieldSpread float64
}

// DefaultRates returns the standard heuristic rates.
func DefaultRates() Rates {
	return Rates{SwapFeeRate: SwapFeeRate, DailyYieldSpread: DailyYieldSpread}
}

// Registry is an ordered list of rules. The first matching rule wins.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns the uniswap and aave rules with the given rates.
func DefaultRegistry(rates Rates) *Registry {
	r := NewRegistry()
	r.Register(Rule{
		Name:    "swap_fee",
		Pattern: "uniswap",
		Formula: func(in Inputs) float64 {
			return in.TotalVolumeUSD * rates.SwapFeeRate
		},
	})
	r.Register(Rule{
		Name:    "tvl_yield_spread",
		Pattern: "aave",
		Formula: func(in Inputs) float64 {
			if in.LatestTVLUSD == nil {
				return 0
			}
			return *in.LatestTVLUSD * rates.DailyYieldSpread
		},
	})
	return r
}

// Register appends a rule. Rules registered earlier take precedence.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Estimate returns the revenue for protocolName and the name of the rule used.
func (r *Registry) Estimate(protocolName string, in Inputs) (float64, string) {
	for _, rule := range r.rules {
		if rule.Matches(protocolName) {
			return rule.Formula(in), rule.Name
		}
	}
	return 0, RuleNone
}
