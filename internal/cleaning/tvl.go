package cleaning

import (
	"fmt"
	"sort"
	"strings"

	"defi-cohort-lab/internal/domain"
)

// CleanTVL drops null, zero, negative and non-finite TVL rows and deduplicates
// by (slug, chain, date). Rows without a protocol name take it from names
// (keyed by slug). Output is sorted by (protocol_name, chain, date).
func CleanTVL(raw []*domain.RawProtocolTVL, names map[string]string) ([]*domain.ProtocolTVL, int, error) {
	dropped := 0
	seen := make(map[string]struct{}, len(raw))
	out := make([]*domain.ProtocolTVL, 0, len(raw))

	for i, r := range raw {
		if r == nil || strings.TrimSpace(r.ProtocolSlug) == "" || r.Date.IsZero() {
			return nil, dropped, fmt.Errorf("protocol_tvl row %d: missing protocol_slug or date: %w", i, ErrSchemaViolation)
		}
		if !validPositive(r.TVLUSD) {
			dropped++
			continue
		}

		slug := strings.ToLower(strings.TrimSpace(r.ProtocolSlug))
		chain := strings.ToLower(strings.TrimSpace(r.Chain))
		if chain == "" {
			chain = DefaultChain
		}
		day := domain.DayStart(r.Date)
		key := slug + "|" + chain + "|" + day.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}

		name := strings.TrimSpace(r.ProtocolName)
		if name == "" {
			name = names[slug]
		}
		if name == "" {
			name = slug
		}

		out = append(out, &domain.ProtocolTVL{
			ProtocolSlug: slug,
			ProtocolName: name,
			Chain:        chain,
			Date:         day,
			TVLUSD:       *r.TVLUSD,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProtocolName != b.ProtocolName {
			return a.ProtocolName < b.ProtocolName
		}
		if a.Chain != b.Chain {
			return a.Chain < b.Chain
		}
		return a.Date.Before(b.Date)
	})
	return out, dropped, nil
}
