package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage/memory"
)

// Demo wallet addresses.
const (
	DemoAirdropWallet = "0x1111111111111111111111111111111111111111"
	DemoOrganicWallet = "0x2222222222222222222222222222222222222222"
	DemoUnknownWallet = "0x3333333333333333333333333333333333333333"
	DemoBotWallet     = "0x4444444444444444444444444444444444444444"
	DemoFailedWallet  = "0x5555555555555555555555555555555555555555"
)

const (
	uniswapRouter = "0xe592427a0aece92de3edee1f18e0157c05861564"
	aavePool      = "0x87870bca3f3fd6335c3f4ce8392d69350b4fa4e2"
	demoWeeks     = 6
)

// DemoStart is the first day of the demo dataset (a Monday).
var DemoStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type demoBuilder struct {
	seq   int
	block int64
	txs   []*domain.RawTransaction
}

func (b *demoBuilder) add(wallet string, at time.Time, method, protocol, to string, eth float64, isError bool) {
	b.seq++
	b.block += 7
	wei := "0"
	if eth > 0 {
		wei = strconv.FormatFloat(eth*1e6, 'f', 0, 64) + "000000000000"
	}
	contract := to
	b.txs = append(b.txs, &domain.RawTransaction{
		TxHash:          fmt.Sprintf("0x%064x", b.seq),
		BlockNumber:     18_900_000 + b.block,
		BlockTimestamp:  at,
		FromAddress:     wallet,
		ToAddress:       to,
		ContractAddress: &contract,
		ValueWei:        wei,
		GasUsed:         150_000,
		GasPriceWei:     "20000000000",
		MethodID:        method,
		IsError:         isError,
		ProtocolName:    protocol,
		Chain:           "ethereum",
	})
}

func (b *demoBuilder) swap(wallet string, at time.Time, eth float64) {
	b.add(wallet, at, "0x414bf389", "Uniswap V3", uniswapRouter, eth, false)
}

func (b *demoBuilder) supply(wallet string, at time.Time, eth float64) {
	b.add(wallet, at, "0x617ba037", "Aave V3", aavePool, eth, false)
}

// DemoBundle returns a small deterministic dataset covering every stage:
//   - an airdrop-labeled wallet active every week on Uniswap
//   - an organic wallet supplying to Aave in weeks 0 and 2
//   - an unlabeled wallet active only in week 1
//   - a bot wallet with twelve evenly spaced identical swaps
//   - a wallet whose only transaction failed
func DemoBundle() *Bundle {
	b := &demoBuilder{}
	week := func(n int) time.Time { return DemoStart.AddDate(0, 0, 7*n) }

	for w := 0; w < demoWeeks; w++ {
		b.swap(DemoAirdropWallet, week(w).Add(10*time.Hour+time.Duration(w)*time.Hour), 0.5+0.25*float64(w))
	}
	b.supply(DemoOrganicWallet, week(0).Add(26*time.Hour), 4)
	b.supply(DemoOrganicWallet, week(2).Add(50*time.Hour), 2)
	b.add(DemoOrganicWallet, week(2).Add(51*time.Hour), "0xa415bcad", "Aave V3", aavePool, 0, false)
	b.swap(DemoUnknownWallet, week(1).Add(80*time.Hour), 1.2)
	for i := 0; i < 12; i++ {
		b.swap(DemoBotWallet, week(3).Add(time.Duration(i)*10*time.Minute), 0.1)
	}
	b.add(DemoFailedWallet, week(4).Add(3*time.Hour), "0x414bf389", "Uniswap V3", uniswapRouter, 1, true)

	bundle := &Bundle{Transactions: b.txs}

	days := demoWeeks * 7
	for d := 0; d < days; d++ {
		day := DemoStart.AddDate(0, 0, d)
		price := 2200 + 10*float64(d)
		bundle.TokenPrices = append(bundle.TokenPrices, &domain.RawTokenPrice{
			TokenID: "ethereum", TokenSymbol: "ETH", Date: day, PriceUSD: &price,
		})

		aaveTVL := 10_000_000_000 + 50_000_000*float64(d)
		uniTVL := 4_000_000_000 + 10_000_000*float64(d)
		bundle.ProtocolTVL = append(bundle.ProtocolTVL,
			&domain.RawProtocolTVL{ProtocolSlug: "aave-v3", ProtocolName: "Aave V3", Chain: "ethereum", Date: day, TVLUSD: &aaveTVL},
			&domain.RawProtocolTVL{ProtocolSlug: "uniswap-v3", ProtocolName: "Uniswap V3", Chain: "ethereum", Date: day, TVLUSD: &uniTVL},
		)
	}
	// A null price upstream is dropped in cleaning.
	bundle.TokenPrices = append(bundle.TokenPrices, &domain.RawTokenPrice{
		TokenID: "ethereum", TokenSymbol: "ETH", Date: DemoStart.AddDate(0, 0, days),
	})

	bundle.WalletLabels = []*domain.WalletLabel{
		{WalletAddress: DemoAirdropWallet, Label: "airdrop", LabelType: "airdrop_recipient", Project: "arbitrum", TotalTxs: 42},
		{WalletAddress: DemoOrganicWallet, Label: "organic", LabelType: "organic", Project: "none", TotalTxs: 7},
	}

	lastBridge := DemoStart.AddDate(0, 0, 20)
	bundle.CrossChainActivity = []*domain.CrossChainActivity{
		{WalletAddress: DemoAirdropWallet, DistinctChainsUsed: 3, TotalBridgingVolumeUSD: 5000, LastBridgeDate: &lastBridge},
	}

	winHigh, winLow := 0.65, 0.30
	profit := 1200.0
	bundle.WalletEnrichment = []*domain.WalletEnrichment{
		{WalletAddress: DemoAirdropWallet, HistoricalWinRate: &winHigh, RealizedProfitUSD: &profit},
		{WalletAddress: DemoOrganicWallet, HistoricalWinRate: &winLow},
	}

	return bundle
}

// DemoSource returns an in-memory source store seeded with DemoBundle.
func DemoSource() *memory.SourceStore {
	store := memory.NewSourceStore()
	// Seeding memory with valid demo rows cannot fail.
	_, _ = DemoBundle().Seed(context.Background(), store)
	return store
}
