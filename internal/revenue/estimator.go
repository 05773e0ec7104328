package revenue

import (
	"sort"
	"time"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/lookup"
)

// Estimator produces DailyProtocolRevenue rows.
type Estimator struct {
	registry   *Registry
	ethTokenID string
}

// NewEstimator creates an estimator pricing volume with ethTokenID.
func NewEstimator(registry *Registry, ethTokenID string) *Estimator {
	return &Estimator{registry: registry, ethTokenID: ethTokenID}
}

// dayProtocol keys the daily aggregate.
type dayProtocol struct {
	day      int64 // unix seconds of UTC midnight
	protocol string
}

type dailyAggregate struct {
	date      time.Time
	protocol  string
	chain     string // chain of the first transaction of the day
	txCount   int
	wallets   map[string]struct{}
	volumeETH float64
}

// Estimate aggregates transactions per (day, protocol) and applies the registry.
// Prices and TVL are carried forward from the latest observation on or before
// the day. Output is sorted by (date, protocol_name).
func (e *Estimator) Estimate(txs []*domain.Transaction, prices []*domain.TokenPrice, tvl []*domain.ProtocolTVL) []*domain.DailyProtocolRevenue {
	aggs := make(map[dayProtocol]*dailyAggregate)
	for _, tx := range txs {
		key := dayProtocol{day: tx.Day.Unix(), protocol: tx.ProtocolName}
		agg, ok := aggs[key]
		if !ok {
			agg = &dailyAggregate{
				date:     tx.Day,
				protocol: tx.ProtocolName,
				chain:    tx.Chain,
				wallets:  make(map[string]struct{}),
			}
			aggs[key] = agg
		}
		agg.txCount++
		agg.wallets[tx.FromAddress] = struct{}{}
		agg.volumeETH += tx.ValueETH
	}

	ethPrice := lookup.PriceSeries(prices, e.ethTokenID)
	tvlByProtocol := lookup.TVLSeries(tvl)

	out := make([]*domain.DailyProtocolRevenue, 0, len(aggs))
	for _, agg := range aggs {
		price := ethPrice.AsOf(agg.date)
		var latestTVL *float64
		if series, ok := tvlByProtocol[lookup.TVLKey(agg.protocol, agg.chain)]; ok {
			latestTVL = series.AsOf(agg.date)
		}

		volumeUSD := 0.0
		if price != nil {
			volumeUSD = agg.volumeETH * *price
		}

		in := Inputs{
			TotalVolumeETH: agg.volumeETH,
			TotalVolumeUSD: volumeUSD,
			LatestTVLUSD:   latestTVL,
			ETHPriceUSD:    price,
		}
		estimated, rule := e.registry.Estimate(agg.protocol, in)

		out = append(out, &domain.DailyProtocolRevenue{
			Date:                agg.date,
			ProtocolName:        agg.protocol,
			TxCount:             agg.txCount,
			UniqueWallets:       len(agg.wallets),
			TotalVolumeETH:      agg.volumeETH,
			TotalVolumeUSD:      volumeUSD,
			EstimatedRevenueUSD: estimated,
			TVLUSD:              latestTVL,
			ETHPriceUSD:         price,
			RevenueRule:         rule,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ProtocolName < out[j].ProtocolName
	})
	return out
}
