package metrics

import (
	"math"
	"testing"
	"time"
)

func TestSafeDiv_ZeroDenominator(t *testing.T) {
	if got := SafeDiv(10, 0); got != nil {
		t.Errorf("expected nil, got %f", *got)
	}
	if got := SafeRatio(3, 0); got != nil {
		t.Errorf("expected nil, got %f", *got)
	}
}

func TestSafeDiv_Value(t *testing.T) {
	got := SafeRatio(1, 4)
	if got == nil {
		t.Fatal("expected value, got nil")
	}
	if *got != 0.25 {
		t.Errorf("expected 0.25, got %f", *got)
	}
}

func TestSampleStdDev_KnownValues(t *testing.T) {
	// Values: 2, 4, 4, 4, 5, 5, 7, 9
	// Mean = 5, sum of squared deviations = 32, sample variance = 32/7
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	want := math.Sqrt(32.0 / 7.0)

	got := SampleStdDev(xs)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestSampleStdDev_FewerThanTwo(t *testing.T) {
	if got := SampleStdDev(nil); got != 0 {
		t.Errorf("expected 0 for empty, got %f", got)
	}
	if got := SampleStdDev([]float64{42}); got != 0 {
		t.Errorf("expected 0 for single value, got %f", got)
	}
}

func TestSampleStdDev_Identical(t *testing.T) {
	if got := SampleStdDev([]float64{1.5, 1.5, 1.5}); got != 0 {
		t.Errorf("expected 0 for identical values, got %f", got)
	}
}

func TestGapsSeconds_SortsInput(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := []time.Time{
		base.Add(300 * time.Second),
		base,
		base.Add(100 * time.Second),
	}

	gaps := GapsSeconds(ts)
	if len(gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(gaps))
	}
	if gaps[0] != 100 || gaps[1] != 200 {
		t.Errorf("expected [100 200], got %v", gaps)
	}
	// Input must not be reordered
	if !ts[0].Equal(base.Add(300 * time.Second)) {
		t.Error("input slice was mutated")
	}
}

func TestNtile_FewerRowsThanBuckets(t *testing.T) {
	got := Ntile(3, 100)
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d: expected bucket %d, got %d", i, want[i], got[i])
		}
	}
}

func TestNtile_UnevenDistribution(t *testing.T) {
	// 250 rows over 100 buckets: first 50 buckets hold 3 rows, rest hold 2
	got := Ntile(250, 100)
	if len(got) != 250 {
		t.Fatalf("expected 250 entries, got %d", len(got))
	}
	if got[0] != 1 || got[2] != 1 || got[3] != 2 {
		t.Errorf("unexpected head buckets: %v", got[:4])
	}
	if got[149] != 50 || got[150] != 51 {
		t.Errorf("expected boundary 50/51 at 149/150, got %d/%d", got[149], got[150])
	}
	if got[249] != 100 {
		t.Errorf("expected last bucket 100, got %d", got[249])
	}
}

func TestNtile_Empty(t *testing.T) {
	if got := Ntile(0, 100); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
