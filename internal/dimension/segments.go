package dimension

import "defi-cohort-lab/internal/domain"

// Percentile bucket upper bounds, inclusive.
const (
	WhalePercentile      = 1
	PowerUserPercentile  = 10
	ActiveUserPercentile = 50
)

// Smart money win rate thresholds.
const (
	SmartMoneyWinRate = 0.60 // strictly above
	AverageWinRate    = 0.40 // at or above
)

// SegmentFor maps a volume percentile (1 = top) to a segment.
func SegmentFor(percentile int) string {
	switch {
	case percentile <= WhalePercentile:
		return domain.SegmentWhale
	case percentile <= PowerUserPercentile:
		return domain.SegmentPowerUser
	case percentile <= ActiveUserPercentile:
		return domain.SegmentActiveUser
	default:
		return domain.SegmentRetail
	}
}

// PersonaFor maps the number of distinct chains used to a chain persona.
// hasData is false when the wallet has no cross-chain row.
func PersonaFor(chains int, hasData bool) string {
	switch {
	case !hasData || chains <= 0:
		return domain.PersonaUnknown
	case chains == 1:
		return domain.PersonaLoyalist
	case chains <= 3:
		return domain.PersonaExplorer
	default:
		return domain.PersonaMercenary
	}
}

// TierFor maps a historical win rate to a smart money tier.
func TierFor(winRate *float64) string {
	switch {
	case winRate == nil:
		return domain.TierUnknown
	case *winRate > SmartMoneyWinRate:
		return domain.TierSmartMoney
	case *winRate >= AverageWinRate:
		return domain.TierAverage
	default:
		return domain.TierRetail
	}
}
