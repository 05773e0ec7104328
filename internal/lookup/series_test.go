package lookup

import (
	"testing"
	"time"

	"defi-cohort-lab/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDailySeries_Empty(t *testing.T) {
	s := NewDailySeries(nil)

	if got := s.AsOf(day(2024, 1, 1)); got != nil {
		t.Errorf("expected nil, got %f", *got)
	}
	if _, err := s.Latest(); err != ErrNoData {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestDailySeries_ExactMatch(t *testing.T) {
	s := NewDailySeries([]Point{
		{Date: day(2024, 1, 3), Value: 3.0},
		{Date: day(2024, 1, 1), Value: 1.0},
		{Date: day(2024, 1, 2), Value: 2.0},
	})

	got := s.AsOf(day(2024, 1, 2))
	if got == nil || *got != 2.0 {
		t.Fatalf("expected 2.0, got %v", got)
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 points, got %d", s.Len())
	}
}

func TestDailySeries_AsOfCarriesForward(t *testing.T) {
	s := NewDailySeries([]Point{
		{Date: day(2024, 1, 1), Value: 1.0},
		{Date: day(2024, 1, 4), Value: 4.0},
	})

	// Intra-day timestamps resolve to their day
	got := s.AsOf(time.Date(2024, 1, 3, 18, 30, 0, 0, time.UTC))
	if got == nil || *got != 1.0 {
		t.Fatalf("expected 1.0, got %v", got)
	}

	got = s.AsOf(day(2024, 1, 4))
	if got == nil || *got != 4.0 {
		t.Fatalf("expected 4.0, got %v", got)
	}

	got = s.AsOf(day(2024, 2, 1))
	if got == nil || *got != 4.0 {
		t.Fatalf("expected 4.0, got %v", got)
	}
}

func TestDailySeries_AsOfBeforeFirst(t *testing.T) {
	s := NewDailySeries([]Point{{Date: day(2024, 1, 10), Value: 10.0}})

	if got := s.AsOf(day(2024, 1, 9)); got != nil {
		t.Errorf("expected nil before first observation, got %f", *got)
	}
}

func TestDailySeries_DuplicateDateLastWins(t *testing.T) {
	s := NewDailySeries([]Point{
		{Date: day(2024, 1, 1), Value: 1.0},
		{Date: day(2024, 1, 1), Value: 1.5},
	})

	if s.Len() != 1 {
		t.Fatalf("expected 1 point, got %d", s.Len())
	}
	latest, err := s.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Value != 1.5 {
		t.Errorf("expected 1.5, got %f", latest.Value)
	}
}

func TestPriceSeries_FiltersToken(t *testing.T) {
	prices := []*domain.TokenPrice{
		{TokenID: "ethereum", Date: day(2024, 1, 1), PriceUSD: 2300},
		{TokenID: "aave", Date: day(2024, 1, 1), PriceUSD: 110},
	}

	s := PriceSeries(prices, "ethereum")
	got := s.AsOf(day(2024, 1, 1))
	if got == nil || *got != 2300 {
		t.Fatalf("expected 2300, got %v", got)
	}
}

func TestTVLSeries_GroupsByProtocolAndChain(t *testing.T) {
	tvl := []*domain.ProtocolTVL{
		{ProtocolName: "Aave V3", Chain: "ethereum", Date: day(2024, 1, 1), TVLUSD: 100},
		{ProtocolName: "Aave V3", Chain: "polygon", Date: day(2024, 1, 1), TVLUSD: 5},
		{ProtocolName: "Uniswap V3", Chain: "ethereum", Date: day(2024, 1, 1), TVLUSD: 50},
	}

	series := TVLSeries(tvl)
	if len(series) != 3 {
		t.Fatalf("expected 3 series, got %d", len(series))
	}

	got := series[TVLKey("aave v3", "Ethereum")].AsOf(day(2024, 1, 1))
	if got == nil || *got != 100 {
		t.Errorf("expected 100, got %v", got)
	}
}
