// Package metrics holds the numeric primitives shared by the pipeline stages.
// All functions are pure and deterministic for a given input order.
package metrics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SafeDiv returns num/den, or nil when den is zero.
func SafeDiv(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}

// SafeRatio is SafeDiv over integer counts.
func SafeRatio(num, den int) *float64 {
	return SafeDiv(float64(num), float64(den))
}

// SampleStdDev calculates sample standard deviation (n-1 denominator).
// Fewer than two samples have no defined dispersion and yield 0.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sd := stat.StdDev(xs, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}

// GapsSeconds returns the gaps between consecutive timestamps in seconds.
// Timestamps are sorted ascending on a copy before differencing.
func GapsSeconds(ts []time.Time) []float64 {
	if len(ts) < 2 {
		return nil
	}
	sorted := make([]time.Time, len(ts))
	copy(sorted, ts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Sub(sorted[i-1]).Seconds())
	}
	return gaps
}

// Ntile distributes n ranked rows over the given number of buckets the way
// SQL NTILE does: bucket sizes differ by at most one and larger buckets come
// first. The returned slice holds the 1-based bucket of each rank.
func Ntile(n, buckets int) []int {
	if n <= 0 || buckets <= 0 {
		return nil
	}
	out := make([]int, n)
	base := n / buckets
	extra := n % buckets

	idx := 0
	for b := 1; b <= buckets && idx < n; b++ {
		size := base
		if b <= extra {
			size++
		}
		for k := 0; k < size && idx < n; k++ {
			out[idx] = b
			idx++
		}
	}
	return out
}
