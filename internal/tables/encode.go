package tables

import "defi-cohort-lab/internal/domain"

func cohorts(rows []*domain.WalletCohortAssignment) *Table {
	t := &Table{
		Name: domain.TableWalletCohorts,
		Key:  []string{"wallet_address"},
		Columns: []Column{
			{"wallet_address", String},
			{"first_protocol", String},
			{"first_tx_type", String},
			{"first_tx_hash", String},
			{"first_interaction_date", Date},
			{"first_interaction_at", Timestamp},
			{"cohort_week", Date},
			{"cohort_id", String},
			{"acquisition_source", String},
			{"label_type", String},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.WalletAddress, r.FirstProtocol, r.FirstTxType, r.FirstTxHash,
			r.FirstInteractionDate, r.FirstInteractionAt, r.CohortWeek, r.CohortID,
			r.AcquisitionSource, r.LabelType,
		})
	}
	return t
}

func activity(rows []*domain.ActivityPeriod) *Table {
	t := &Table{
		Name: domain.TableActivityPeriods,
		Key:  []string{"wallet_address", "week_start"},
		Columns: []Column{
			{"wallet_address", String},
			{"week_start", Date},
			{"cohort_week", Date},
			{"cohort_id", String},
			{"acquisition_source", String},
			{"weeks_since_first", Int},
			{"is_active", Int},
			{"weekly_tx_count", Int},
			{"protocols_used", Int},
			{"week_volume_eth", Float},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.WalletAddress, r.WeekStart, r.CohortWeek, r.CohortID, r.AcquisitionSource,
			i64(r.WeeksSinceFirst), i64(r.IsActive), i64(r.WeeklyTxCount), i64(r.ProtocolsUsed),
			r.WeekVolumeETH,
		})
	}
	return t
}

func behavior(rows []*domain.WalletBehaviorScore) *Table {
	t := &Table{
		Name: domain.TableWalletBehavior,
		Key:  []string{"wallet_address"},
		Columns: []Column{
			{"wallet_address", String},
			{"total_txs", Int},
			{"time_stddev_seconds", Float},
			{"value_stddev_eth", Float},
			{"is_bot", Bool},
			{"bot_reason", String},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.WalletAddress, i64(r.TotalTxs), r.TimeStddevSeconds, r.ValueStddevETH, r.IsBot, r.BotReason,
		})
	}
	return t
}

func revenue(rows []*domain.DailyProtocolRevenue) *Table {
	t := &Table{
		Name: domain.TableDailyProtocolRevenue,
		Key:  []string{"date", "protocol_name"},
		Columns: []Column{
			{"date", Date},
			{"protocol_name", String},
			{"tx_count", Int},
			{"unique_wallets", Int},
			{"total_volume_eth", Float},
			{"total_volume_usd", Float},
			{"estimated_revenue_usd", Float},
			{"tvl_usd", NullableFloat},
			{"eth_price_usd", NullableFloat},
			{"revenue_rule", String},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.Date, r.ProtocolName, i64(r.TxCount), i64(r.UniqueWallets),
			r.TotalVolumeETH, r.TotalVolumeUSD, r.EstimatedRevenueUSD,
			nullable(r.TVLUSD), nullable(r.ETHPriceUSD), r.RevenueRule,
		})
	}
	return t
}

func retention(rows []*domain.CohortRetentionRecord) *Table {
	t := &Table{
		Name: domain.TableCohortRetention,
		Key:  []string{"cohort_id", "acquisition_source", "weeks_since_first"},
		Columns: []Column{
			{"cohort_id", String},
			{"weeks_since_first", Int},
			{"acquisition_source", String},
			{"cohort_size", Int},
			{"active_wallets", Int},
			{"total_wallets_in_period", Int},
			{"retention_rate", NullableFloat},
			{"retention_period", String},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.CohortID, i64(r.WeeksSinceFirst), r.AcquisitionSource, i64(r.CohortSize),
			i64(r.ActiveWallets), i64(r.TotalWalletsInPeriod), nullable(r.RetentionRate), r.RetentionPeriod,
		})
	}
	return t
}

func attribution(rows []*domain.DailyRevenueAttribution) *Table {
	t := &Table{
		Name: domain.TableDailyRevenueAttribution,
		Key:  []string{"date", "protocol_name", "acquisition_source"},
		Columns: []Column{
			{"date", Date},
			{"protocol_name", String},
			{"acquisition_source", String},
			{"active_wallets", Int},
			{"protocol_unique_wallets", Int},
			{"protocol_revenue_usd", Float},
			{"attributed_revenue_usd", NullableFloat},
			{"revenue_per_wallet_usd", NullableFloat},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.Date, r.ProtocolName, r.AcquisitionSource, i64(r.ActiveWallets),
			i64(r.ProtocolUniqueWallets), r.ProtocolRevenueUSD,
			nullable(r.AttributedRevenueUSD), nullable(r.RevenuePerWalletUSD),
		})
	}
	return t
}

func wallets(rows []*domain.WalletDimension) *Table {
	t := &Table{
		Name: domain.TableWalletDimension,
		Key:  []string{"wallet_address"},
		Columns: []Column{
			{"wallet_address", String},
			{"cohort_id", String},
			{"cohort_week", Date},
			{"first_protocol", String},
			{"first_tx_type", String},
			{"acquisition_source", String},
			{"label_type", String},
			{"total_txs", Int},
			{"total_volume_eth", Float},
			{"total_volume_usd", Float},
			{"protocols_used", Int},
			{"active_weeks", Int},
			{"first_tx_at", Timestamp},
			{"last_tx_at", Timestamp},
			{"volume_percentile", Int},
			{"volume_segment", String},
			{"is_bot", Bool},
			{"distinct_chains_used", Int},
			{"total_bridging_volume_usd", Float},
			{"nomad_score", NullableFloat},
			{"chain_persona", String},
			{"historical_win_rate", NullableFloat},
			{"realized_profit_usd", NullableFloat},
			{"smart_money_tier", String},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.WalletAddress, r.CohortID, r.CohortWeek, r.FirstProtocol, r.FirstTxType,
			r.AcquisitionSource, r.LabelType, i64(r.TotalTxs), r.TotalVolumeETH, r.TotalVolumeUSD,
			i64(r.ProtocolsUsed), i64(r.ActiveWeeks), r.FirstTxAt, r.LastTxAt,
			i64(r.VolumePercentile), r.VolumeSegment, r.IsBot, i64(r.DistinctChainsUsed),
			r.TotalBridgingVolumeUSD, nullable(r.NomadScore), r.ChainPersona,
			nullable(r.HistoricalWinRate), nullable(r.RealizedProfitUSD), r.SmartMoneyTier,
		})
	}
	return t
}

func protocols(rows []*domain.ProtocolDimension) *Table {
	t := &Table{
		Name: domain.TableProtocolDimension,
		Key:  []string{"protocol_name"},
		Columns: []Column{
			{"protocol_name", String},
			{"chain", String},
			{"total_txs", Int},
			{"unique_wallets", Int},
			{"total_volume_eth", Float},
			{"total_volume_usd", Float},
			{"total_estimated_revenue_usd", Float},
			{"avg_daily_revenue_usd", Float},
			{"latest_tvl_usd", NullableFloat},
			{"first_activity_date", Date},
			{"last_activity_date", Date},
			{"active_days", Int},
			{"bot_wallets", Int},
			{"bot_wallet_share", NullableFloat},
			{"revenue_per_wallet_usd", NullableFloat},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.ProtocolName, r.Chain, i64(r.TotalTxs), i64(r.UniqueWallets),
			r.TotalVolumeETH, r.TotalVolumeUSD, r.TotalEstimatedRevenueUSD, r.AvgDailyRevenueUSD,
			nullable(r.LatestTVLUSD), r.FirstActivityDate, r.LastActivityDate,
			i64(r.ActiveDays), i64(r.BotWallets), nullable(r.BotWalletShare), nullable(r.RevenuePerWalletUSD),
		})
	}
	return t
}
