package revenue

import (
	"math"
	"testing"
	"time"

	"defi-cohort-lab/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func tx(hash, wallet, protocol string, d int, valueETH float64) *domain.Transaction {
	ts := day(d).Add(10 * time.Hour)
	return &domain.Transaction{
		TxHash:         hash,
		BlockTimestamp: ts,
		Day:            day(d),
		Week:           domain.WeekStart(ts),
		FromAddress:    wallet,
		ValueETH:       valueETH,
		ProtocolName:   protocol,
		Chain:          "ethereum",
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRegistry_PatternMatching(t *testing.T) {
	r := DefaultRegistry(DefaultRates())
	tvl := 1_000_000.0

	tests := []struct {
		protocol string
		in       Inputs
		want     float64
		rule     string
	}{
		{"Uniswap V3", Inputs{TotalVolumeUSD: 10_000}, 30, "swap_fee"},
		{"UNISWAP", Inputs{TotalVolumeUSD: 100}, 0.3, "swap_fee"},
		{"Aave V3", Inputs{LatestTVLUSD: &tvl}, 300, "tvl_yield_spread"},
		{"Aave V3", Inputs{}, 0, "tvl_yield_spread"},
		{"Curve", Inputs{TotalVolumeUSD: 10_000, LatestTVLUSD: &tvl}, 0, RuleNone},
	}

	for _, tt := range tests {
		got, rule := r.Estimate(tt.protocol, tt.in)
		if !approx(got, tt.want) || rule != tt.rule {
			t.Errorf("%s: expected %f/%s, got %f/%s", tt.protocol, tt.want, tt.rule, got, rule)
		}
	}
}

func TestRegistry_RegisterExtension(t *testing.T) {
	r := DefaultRegistry(Rates{SwapFeeRate: 0.01, DailyYieldSpread: 0})
	r.Register(Rule{
		Name:    "curve_fee",
		Pattern: "curve",
		Formula: func(in Inputs) float64 { return in.TotalVolumeUSD * 0.0004 },
	})

	got, rule := r.Estimate("Curve Finance", Inputs{TotalVolumeUSD: 1000})
	if rule != "curve_fee" || !approx(got, 0.4) {
		t.Errorf("expected curve_fee 0.4, got %s %f", rule, got)
	}

	got, _ = r.Estimate("Uniswap V3", Inputs{TotalVolumeUSD: 1000})
	if !approx(got, 10) {
		t.Errorf("expected overridden swap rate to give 10, got %f", got)
	}

	got, rule = r.Estimate("Balancer", Inputs{TotalVolumeUSD: 1000})
	if rule != RuleNone || got != 0 {
		t.Errorf("expected no rule for unregistered protocol, got %s %f", rule, got)
	}
}

func TestEstimate_DailyAggregation(t *testing.T) {
	txs := []*domain.Transaction{
		tx("0x1", "0xa", "Uniswap V3", 4, 1.0),
		tx("0x2", "0xa", "Uniswap V3", 4, 2.0),
		tx("0x3", "0xb", "Uniswap V3", 4, 1.0),
		tx("0x4", "0xb", "Aave V3", 4, 5.0),
		tx("0x5", "0xc", "Uniswap V3", 6, 1.0),
	}
	prices := []*domain.TokenPrice{
		{TokenID: "ethereum", TokenSymbol: "ETH", Date: day(3), PriceUSD: 3000},
		{TokenID: "ethereum", TokenSymbol: "ETH", Date: day(4), PriceUSD: 2000},
		{TokenID: "usd-coin", TokenSymbol: "USDC", Date: day(4), PriceUSD: 1},
	}
	tvl := []*domain.ProtocolTVL{
		{ProtocolSlug: "aave-v3", ProtocolName: "Aave V3", Chain: "ethereum", Date: day(1), TVLUSD: 1_000_000},
	}

	rows := NewEstimator(DefaultRegistry(DefaultRates()), "ethereum").Estimate(txs, prices, tvl)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	aave := rows[0]
	if aave.ProtocolName != "Aave V3" || !aave.Date.Equal(day(4)) {
		t.Fatalf("unexpected ordering: %+v", aave)
	}
	if aave.TVLUSD == nil || *aave.TVLUSD != 1_000_000 {
		t.Errorf("expected carried-forward TVL, got %v", aave.TVLUSD)
	}
	if !approx(aave.EstimatedRevenueUSD, 300) {
		t.Errorf("expected aave revenue 300, got %f", aave.EstimatedRevenueUSD)
	}

	uni := rows[1]
	if uni.TxCount != 3 || uni.UniqueWallets != 2 {
		t.Errorf("expected 3 txs / 2 wallets, got %d / %d", uni.TxCount, uni.UniqueWallets)
	}
	if !approx(uni.TotalVolumeUSD, 8000) || !approx(uni.EstimatedRevenueUSD, 24) {
		t.Errorf("expected 8000 USD volume and 24 revenue, got %f / %f", uni.TotalVolumeUSD, uni.EstimatedRevenueUSD)
	}
	if uni.TVLUSD != nil {
		t.Errorf("expected nil TVL for uniswap, got %v", *uni.TVLUSD)
	}

	// Day 6 has no price; day 4 price is carried forward
	later := rows[2]
	if later.ETHPriceUSD == nil || *later.ETHPriceUSD != 2000 {
		t.Errorf("expected carried-forward price 2000, got %v", later.ETHPriceUSD)
	}
}

func TestEstimate_NoPriceBeforeDay(t *testing.T) {
	txs := []*domain.Transaction{tx("0x1", "0xa", "Uniswap V3", 2, 1.0)}
	prices := []*domain.TokenPrice{{TokenID: "ethereum", Date: day(5), PriceUSD: 2000}}

	rows := NewEstimator(DefaultRegistry(DefaultRates()), "ethereum").Estimate(txs, prices, nil)
	if rows[0].ETHPriceUSD != nil {
		t.Errorf("expected nil price, got %v", *rows[0].ETHPriceUSD)
	}
	if rows[0].TotalVolumeUSD != 0 || rows[0].EstimatedRevenueUSD != 0 {
		t.Errorf("expected zero USD volume and revenue, got %+v", rows[0])
	}
}

func TestEstimate_Empty(t *testing.T) {
	rows := NewEstimator(DefaultRegistry(DefaultRates()), "ethereum").Estimate(nil, nil, nil)
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}
