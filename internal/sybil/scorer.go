// Package sybil flags bot-like wallets from the dispersion of their activity.
package sybil

import (
	"sort"
	"time"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/metrics"
)

// Default classification thresholds.
const (
	DefaultMinTxsTiming         = 10
	DefaultMaxTimeStddevSeconds = 3600.0
	DefaultMinTxsValue          = 5
)

// Thresholds parameterizes the bot rules.
//
//   - total_txs > MinTxsTiming and time_stddev < MaxTimeStddevSeconds: high frequency
//   - total_txs > MinTxsValue and value_stddev == 0: identical values
type Thresholds struct {
	MinTxsTiming         int
	MaxTimeStddevSeconds float64
	MinTxsValue          int
}

// DefaultThresholds returns the standard rule parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTxsTiming:         DefaultMinTxsTiming,
		MaxTimeStddevSeconds: DefaultMaxTimeStddevSeconds,
		MinTxsValue:          DefaultMinTxsValue,
	}
}

// Classify applies the bot rules in order; the first match wins.
func (th Thresholds) Classify(totalTxs int, timeStddev, valueStddev float64) (bool, string) {
	if totalTxs > th.MinTxsTiming && timeStddev < th.MaxTimeStddevSeconds {
		return true, domain.BotReasonHighFrequency
	}
	if totalTxs > th.MinTxsValue && valueStddev == 0 {
		return true, domain.BotReasonIdenticalValues
	}
	return false, domain.BotReasonNone
}

// Score computes one behavior score per sending wallet, sorted by wallet.
func Score(txs []*domain.Transaction, th Thresholds) []*domain.WalletBehaviorScore {
	timestamps := make(map[string][]time.Time)
	values := make(map[string][]float64)
	for _, tx := range txs {
		timestamps[tx.FromAddress] = append(timestamps[tx.FromAddress], tx.BlockTimestamp)
		values[tx.FromAddress] = append(values[tx.FromAddress], tx.ValueETH)
	}

	out := make([]*domain.WalletBehaviorScore, 0, len(timestamps))
	for wallet, ts := range timestamps {
		timeStddev := metrics.SampleStdDev(metrics.GapsSeconds(ts))
		valueStddev := metrics.SampleStdDev(values[wallet])
		isBot, reason := th.Classify(len(ts), timeStddev, valueStddev)

		out = append(out, &domain.WalletBehaviorScore{
			WalletAddress:     wallet,
			TotalTxs:          len(ts),
			TimeStddevSeconds: timeStddev,
			ValueStddevETH:    valueStddev,
			IsBot:             isBot,
			BotReason:         reason,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].WalletAddress < out[j].WalletAddress })
	return out
}
