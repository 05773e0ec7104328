package attribution

import (
	"math"
	"testing"
	"time"

	"defi-cohort-lab/internal/cohort"
	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/revenue"
)

var day = time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

func tx(hash, wallet, protocol string, valueETH float64) *domain.Transaction {
	ts := day.Add(3 * time.Hour)
	return &domain.Transaction{
		TxHash:         hash,
		BlockTimestamp: ts,
		Day:            day,
		Week:           domain.WeekStart(ts),
		FromAddress:    wallet,
		ValueETH:       valueETH,
		ProtocolName:   protocol,
		Chain:          "ethereum",
		TxType:         domain.TxTypeSwap,
	}
}

func TestAttribute_ProportionalShares(t *testing.T) {
	txs := []*domain.Transaction{
		tx("0x1", "0xa", "Uniswap V3", 1),
		tx("0x2", "0xb", "Uniswap V3", 1),
		tx("0x3", "0xc", "Uniswap V3", 1),
		tx("0x4", "0xc", "Uniswap V3", 1),
	}
	labels := []*domain.WalletLabel{
		{WalletAddress: "0xa", Label: "airdrop", LabelType: "campaign"},
		{WalletAddress: "0xb", Label: "airdrop", LabelType: "campaign"},
		{WalletAddress: "0xc", Label: "organic", LabelType: "campaign"},
	}
	rev := []*domain.DailyProtocolRevenue{{
		Date:                day,
		ProtocolName:        "Uniswap V3",
		UniqueWallets:       3,
		EstimatedRevenueUSD: 30,
	}}

	rows := Attribute(rev, txs, cohort.Resolve(txs, labels))
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	airdrop, organic := rows[0], rows[1]
	if airdrop.AcquisitionSource != "airdrop" || airdrop.ActiveWallets != 2 {
		t.Fatalf("unexpected airdrop row: %+v", airdrop)
	}
	if *airdrop.AttributedRevenueUSD != 20 || *organic.AttributedRevenueUSD != 10 {
		t.Errorf("expected 20/10 split, got %f/%f", *airdrop.AttributedRevenueUSD, *organic.AttributedRevenueUSD)
	}
	if *airdrop.RevenuePerWalletUSD != 10 || *organic.RevenuePerWalletUSD != 10 {
		t.Errorf("expected per-wallet revenue 10 for every source")
	}
}

func TestAttribute_ZeroUniqueWallets(t *testing.T) {
	txs := []*domain.Transaction{tx("0x1", "0xa", "Aave V3", 1)}
	rev := []*domain.DailyProtocolRevenue{{Date: day, ProtocolName: "Aave V3", UniqueWallets: 0, EstimatedRevenueUSD: 5}}

	rows := Attribute(rev, txs, nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].AttributedRevenueUSD != nil || rows[0].RevenuePerWalletUSD != nil {
		t.Errorf("expected nil attribution, got %+v", rows[0])
	}
	if rows[0].AcquisitionSource != domain.UnknownSource {
		t.Errorf("expected unknown source, got %s", rows[0].AcquisitionSource)
	}
}

func TestAttribute_SumsToProtocolRevenue(t *testing.T) {
	var txs []*domain.Transaction
	var labels []*domain.WalletLabel
	sources := []string{"airdrop", "organic", "referral"}
	for i := 0; i < 17; i++ {
		wallet := "0xw" + string(rune('a'+i))
		txs = append(txs, tx("0xh"+string(rune('a'+i)), wallet, "Uniswap V3", float64(i)+0.37))
		labels = append(labels, &domain.WalletLabel{WalletAddress: wallet, Label: sources[i%3], LabelType: "campaign"})
	}
	txs = append(txs, tx("0xz", "0xwa", "Aave V3", 2))

	prices := []*domain.TokenPrice{{TokenID: "ethereum", Date: day, PriceUSD: 2345.67}}
	tvl := []*domain.ProtocolTVL{{ProtocolName: "Aave V3", Chain: "ethereum", Date: day, TVLUSD: 1e9}}
	rev := revenue.NewEstimator(revenue.DefaultRegistry(revenue.DefaultRates()), "ethereum").Estimate(txs, prices, tvl)

	rows := Attribute(rev, txs, cohort.Resolve(txs, labels))
	sums := make(map[string]float64)
	for _, r := range rows {
		sums[r.ProtocolName] += *r.AttributedRevenueUSD
	}

	for _, r := range rev {
		if math.Abs(sums[r.ProtocolName]-r.EstimatedRevenueUSD) > 1e-6 {
			t.Errorf("%s: attribution sums to %f, expected %f", r.ProtocolName, sums[r.ProtocolName], r.EstimatedRevenueUSD)
		}
	}
}
