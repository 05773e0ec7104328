package cohort

import (
	"testing"
	"time"

	"defi-cohort-lab/internal/domain"
)

func tx(hash, wallet string, ts time.Time, protocol, txType string) *domain.Transaction {
	return &domain.Transaction{
		TxHash:         hash,
		BlockTimestamp: ts,
		Day:            domain.DayStart(ts),
		Week:           domain.WeekStart(ts),
		FromAddress:    wallet,
		ProtocolName:   protocol,
		TxType:         txType,
	}
}

func TestResolve_OneRowPerWallet(t *testing.T) {
	base := time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC) // Wednesday, ISO week 7
	txs := []*domain.Transaction{
		tx("0x03", "0xb", base.Add(48*time.Hour), "Aave V3", domain.TxTypeSupply),
		tx("0x01", "0xa", base, "Uniswap V3", domain.TxTypeSwap),
		tx("0x02", "0xa", base.Add(-72*time.Hour), "Aave V3", domain.TxTypeBorrow),
		tx("0x04", "0xa", base.Add(240*time.Hour), "Uniswap V3", domain.TxTypeSwap),
	}

	got := Resolve(txs, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(got))
	}

	a := got[0]
	if a.WalletAddress != "0xa" {
		t.Fatalf("expected sorted output, first wallet %s", a.WalletAddress)
	}
	if a.FirstTxHash != "0x02" || a.FirstProtocol != "Aave V3" || a.FirstTxType != domain.TxTypeBorrow {
		t.Errorf("unexpected first interaction: %+v", a)
	}
	// 2024-02-11 is a Sunday, so the ISO week floor is Monday 2024-02-05
	wantWeek := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	if !a.CohortWeek.Equal(wantWeek) {
		t.Errorf("expected cohort week %v, got %v", wantWeek, a.CohortWeek)
	}
	if a.CohortID != "2024-06" {
		t.Errorf("expected cohort id 2024-06, got %s", a.CohortID)
	}
	if !a.FirstInteractionDate.Equal(time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected first interaction date: %v", a.FirstInteractionDate)
	}
}

func TestResolve_TieBreakByHash(t *testing.T) {
	ts := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	txs := []*domain.Transaction{
		tx("0xff", "0xa", ts, "Uniswap V3", domain.TxTypeSwap),
		tx("0x0a", "0xa", ts, "Aave V3", domain.TxTypeSupply),
		tx("0x5b", "0xa", ts, "Uniswap V3", domain.TxTypeSwap),
	}

	// Any input order must produce the same winner
	for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}} {
		in := []*domain.Transaction{txs[order[0]], txs[order[1]], txs[order[2]]}
		got := Resolve(in, nil)
		if got[0].FirstTxHash != "0x0a" {
			t.Errorf("order %v: expected 0x0a, got %s", order, got[0].FirstTxHash)
		}
	}
}

func TestResolve_LabelJoin(t *testing.T) {
	ts := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	txs := []*domain.Transaction{
		tx("0x1", "0xa", ts, "Uniswap V3", domain.TxTypeSwap),
		tx("0x2", "0xb", ts, "Uniswap V3", domain.TxTypeSwap),
	}
	labels := []*domain.WalletLabel{
		{WalletAddress: "0xa", Label: "airdrop_hunter", LabelType: "behavior"},
		{WalletAddress: "0xz", Label: "orphan", LabelType: "x"},
	}

	got := Resolve(txs, labels)
	if got[0].AcquisitionSource != "airdrop_hunter" || got[0].LabelType != "behavior" {
		t.Errorf("expected label on 0xa, got %+v", got[0])
	}
	if got[1].AcquisitionSource != domain.UnknownSource || got[1].LabelType != domain.UnknownSource {
		t.Errorf("expected unknown on 0xb, got %+v", got[1])
	}
}

func TestResolve_Empty(t *testing.T) {
	if got := Resolve(nil, nil); len(got) != 0 {
		t.Errorf("expected no assignments, got %d", len(got))
	}
}

func TestSizes_GroupedBySource(t *testing.T) {
	assignments := []*domain.WalletCohortAssignment{
		{WalletAddress: "0xa", CohortID: "2024-01", AcquisitionSource: "unknown"},
		{WalletAddress: "0xb", CohortID: "2024-01", AcquisitionSource: "unknown"},
		{WalletAddress: "0xc", CohortID: "2024-01", AcquisitionSource: "airdrop_hunter"},
		{WalletAddress: "0xd", CohortID: "2024-02", AcquisitionSource: "unknown"},
	}

	got := Sizes(assignments)
	want := []domain.CohortSize{
		{CohortID: "2024-01", AcquisitionSource: "airdrop_hunter", Wallets: 1},
		{CohortID: "2024-01", AcquisitionSource: "unknown", Wallets: 2},
		{CohortID: "2024-02", AcquisitionSource: "unknown", Wallets: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d sizes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("size %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
