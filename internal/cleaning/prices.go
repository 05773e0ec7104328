package cleaning

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"defi-cohort-lab/internal/domain"
)

// DefaultChain is assigned to rows that carry no chain.
const DefaultChain = "ethereum"

// TokenSymbols maps tracked CoinGecko token ids to ticker symbols.
var TokenSymbols = map[string]string{
	"ethereum":      "ETH",
	"wrapped-ether": "WETH",
	"uniswap":       "UNI",
	"aave":          "AAVE",
	"usd-coin":      "USDC",
	"tether":        "USDT",
	"dai":           "DAI",
}

// validPositive reports whether v is present, finite and strictly positive.
func validPositive(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v > 0
}

// CleanPrices drops null, zero, negative and non-finite prices, deduplicates
// by (token_id, date) keeping the first row, and fills missing symbols.
// Output is sorted by (token_id, date).
func CleanPrices(raw []*domain.RawTokenPrice) ([]*domain.TokenPrice, int, error) {
	dropped := 0
	seen := make(map[string]struct{}, len(raw))
	out := make([]*domain.TokenPrice, 0, len(raw))

	for i, r := range raw {
		if r == nil || strings.TrimSpace(r.TokenID) == "" || r.Date.IsZero() {
			return nil, dropped, fmt.Errorf("token_prices row %d: missing token_id or date: %w", i, ErrSchemaViolation)
		}
		if !validPositive(r.PriceUSD) {
			dropped++
			continue
		}

		tokenID := strings.ToLower(strings.TrimSpace(r.TokenID))
		day := domain.DayStart(r.Date)
		key := tokenID + "|" + day.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}

		symbol := strings.ToUpper(strings.TrimSpace(r.TokenSymbol))
		if symbol == "" {
			symbol = TokenSymbols[tokenID]
		}

		out = append(out, &domain.TokenPrice{
			TokenID:      tokenID,
			TokenSymbol:  symbol,
			Date:         day,
			PriceUSD:     *r.PriceUSD,
			MarketCapUSD: r.MarketCapUSD,
			Volume24hUSD: r.Volume24hUSD,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TokenID != out[j].TokenID {
			return out[i].TokenID < out[j].TokenID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, dropped, nil
}
