// Package retention rolls the activity spine up into cohort retention curves.
package retention

import (
	"sort"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/metrics"
)

type groupKey struct {
	cohortID string
	source   string
	offset   int
}

type sizeKey struct {
	cohortID string
	source   string
}

// Aggregate computes one record per (cohort_id, weeks_since_first, acquisition_source).
// cohort_size comes from sizes and is segmented by source. A group with no
// matching size, or a size of zero, yields a nil rate.
// Output is sorted by (cohort_id, acquisition_source, weeks_since_first).
func Aggregate(periods []*domain.ActivityPeriod, sizes []domain.CohortSize) []*domain.CohortRetentionRecord {
	sizeOf := make(map[sizeKey]int, len(sizes))
	for _, s := range sizes {
		sizeOf[sizeKey{s.CohortID, s.AcquisitionSource}] = s.Wallets
	}

	groups := make(map[groupKey]*domain.CohortRetentionRecord)
	for _, p := range periods {
		if p.WeeksSinceFirst < 0 {
			continue
		}
		key := groupKey{p.CohortID, p.AcquisitionSource, p.WeeksSinceFirst}
		rec, ok := groups[key]
		if !ok {
			rec = &domain.CohortRetentionRecord{
				CohortID:          p.CohortID,
				WeeksSinceFirst:   p.WeeksSinceFirst,
				AcquisitionSource: p.AcquisitionSource,
				CohortSize:        sizeOf[sizeKey{p.CohortID, p.AcquisitionSource}],
				RetentionPeriod:   domain.RetentionPeriodFor(p.WeeksSinceFirst),
			}
			groups[key] = rec
		}
		rec.ActiveWallets += p.IsActive
		rec.TotalWalletsInPeriod++
	}

	out := make([]*domain.CohortRetentionRecord, 0, len(groups))
	for _, rec := range groups {
		rec.RetentionRate = metrics.SafeRatio(rec.ActiveWallets, rec.CohortSize)
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CohortID != b.CohortID {
			return a.CohortID < b.CohortID
		}
		if a.AcquisitionSource != b.AcquisitionSource {
			return a.AcquisitionSource < b.AcquisitionSource
		}
		return a.WeeksSinceFirst < b.WeeksSinceFirst
	})
	return out
}

// Matrix pivots records into cohort rows × week-offset columns of rates,
// summed across acquisition sources. Rows are keyed by cohort_id.
func Matrix(records []*domain.CohortRetentionRecord) (cohorts []string, maxOffset int, rates map[string]map[int]*float64) {
	active := make(map[string]map[int]int)
	size := make(map[string]map[int]int)
	for _, r := range records {
		if _, ok := active[r.CohortID]; !ok {
			active[r.CohortID] = make(map[int]int)
			size[r.CohortID] = make(map[int]int)
			cohorts = append(cohorts, r.CohortID)
		}
		active[r.CohortID][r.WeeksSinceFirst] += r.ActiveWallets
		size[r.CohortID][r.WeeksSinceFirst] += r.CohortSize
		if r.WeeksSinceFirst > maxOffset {
			maxOffset = r.WeeksSinceFirst
		}
	}
	sort.Strings(cohorts)

	rates = make(map[string]map[int]*float64, len(cohorts))
	for _, c := range cohorts {
		rates[c] = make(map[int]*float64)
		for offset, a := range active[c] {
			rates[c][offset] = metrics.SafeRatio(a, size[c][offset])
		}
	}
	return cohorts, maxOffset, rates
}
