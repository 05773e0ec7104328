package sybil

import (
	"testing"
	"time"

	"defi-cohort-lab/internal/domain"
)

func TestClassify_FirstRuleFires(t *testing.T) {
	isBot, reason := DefaultThresholds().Classify(15, 1000, 50)
	if !isBot || reason != domain.BotReasonHighFrequency {
		t.Errorf("expected high_frequency bot, got %v/%s", isBot, reason)
	}
}

func TestClassify_SecondRuleFires(t *testing.T) {
	isBot, reason := DefaultThresholds().Classify(6, 86400, 0)
	if !isBot || reason != domain.BotReasonIdenticalValues {
		t.Errorf("expected identical_values bot, got %v/%s", isBot, reason)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// Both rules match; timing rule is checked first
	_, reason := DefaultThresholds().Classify(20, 10, 0)
	if reason != domain.BotReasonHighFrequency {
		t.Errorf("expected high_frequency, got %s", reason)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name        string
		txs         int
		timeStddev  float64
		valueStddev float64
		want        bool
	}{
		{"exactly 10 txs is not > 10", 10, 0, 1, false},
		{"stddev exactly 3600 is not < 3600", 11, 3600, 1, false},
		{"exactly 5 txs identical values", 5, 86400, 0, false},
		{"single tx", 1, 0, 0, false},
		{"organic wallet", 30, 90000, 0.4, false},
	}

	for _, tt := range tests {
		if got, _ := th.Classify(tt.txs, tt.timeStddev, tt.valueStddev); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestScore_ScriptedWallet(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var txs []*domain.Transaction

	// 12 txs exactly 60s apart with varying values: time stddev 0
	for i := 0; i < 12; i++ {
		txs = append(txs, &domain.Transaction{
			TxHash:         "0xbot" + string(rune('a'+i)),
			FromAddress:    "0xbot",
			BlockTimestamp: base.Add(time.Duration(i) * time.Minute),
			ValueETH:       float64(i + 1),
		})
	}
	// Single-transaction wallet
	txs = append(txs, &domain.Transaction{
		TxHash:         "0xsolo",
		FromAddress:    "0xsolo",
		BlockTimestamp: base,
		ValueETH:       1,
	})

	scores := Score(txs, DefaultThresholds())
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}

	bot := scores[0]
	if bot.WalletAddress != "0xbot" || bot.TotalTxs != 12 {
		t.Fatalf("unexpected first score: %+v", bot)
	}
	if bot.TimeStddevSeconds != 0 {
		t.Errorf("expected zero timing stddev, got %f", bot.TimeStddevSeconds)
	}
	if !bot.IsBot || bot.BotReason != domain.BotReasonHighFrequency {
		t.Errorf("expected high_frequency bot, got %+v", bot)
	}

	solo := scores[1]
	if solo.IsBot || solo.TimeStddevSeconds != 0 || solo.ValueStddevETH != 0 {
		t.Errorf("expected non-bot with zero dispersion, got %+v", solo)
	}
}

func TestScore_IdenticalValues(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gaps := []int{0, 5, 30, 31, 80, 200, 201}

	var txs []*domain.Transaction
	for i, h := range gaps {
		txs = append(txs, &domain.Transaction{
			TxHash:         "0x" + string(rune('a'+i)),
			FromAddress:    "0xfarm",
			BlockTimestamp: base.Add(time.Duration(h) * time.Hour),
			ValueETH:       0.01,
		})
	}

	scores := Score(txs, DefaultThresholds())
	if !scores[0].IsBot || scores[0].BotReason != domain.BotReasonIdenticalValues {
		t.Errorf("expected identical_values bot, got %+v", scores[0])
	}
}
