// Package lookup resolves daily reference values (prices, TVL) for a given day.
package lookup

import (
	"errors"
	"sort"
	"strings"
	"time"

	"defi-cohort-lab/internal/domain"
)

// ErrNoData is returned when a series holds no observations.
var ErrNoData = errors.New("no data available")

// Point is one daily observation.
type Point struct {
	Date  time.Time
	Value float64
}

// DailySeries is an immutable, date-ordered series of daily observations.
type DailySeries struct {
	points []Point
}

// NewDailySeries builds a series from points in any order.
// When two points share a date, the later one in the input wins.
func NewDailySeries(points []Point) *DailySeries {
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[domain.DayStart(p.Date)] = p.Value
	}

	sorted := make([]Point, 0, len(byDay))
	for d, v := range byDay {
		sorted = append(sorted, Point{Date: d, Value: v})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	return &DailySeries{points: sorted}
}

// Len returns the number of observations.
func (s *DailySeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// AsOf returns the latest value observed on or before day.
// Returns nil if every observation is after day.
func (s *DailySeries) AsOf(day time.Time) *float64 {
	if s.Len() == 0 {
		return nil
	}
	day = domain.DayStart(day)
	// First index strictly after day
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].Date.After(day) })
	if i == 0 {
		return nil
	}
	v := s.points[i-1].Value
	return &v
}

// Latest returns the most recent observation.
func (s *DailySeries) Latest() (Point, error) {
	if s.Len() == 0 {
		return Point{}, ErrNoData
	}
	return s.points[len(s.points)-1], nil
}

// PriceSeries extracts the daily price series of one token.
func PriceSeries(prices []*domain.TokenPrice, tokenID string) *DailySeries {
	var points []Point
	for _, p := range prices {
		if p.TokenID == tokenID {
			points = append(points, Point{Date: p.Date, Value: p.PriceUSD})
		}
	}
	return NewDailySeries(points)
}

// TVLKey identifies the TVL series of a protocol on a chain.
func TVLKey(protocolName, chain string) string {
	return strings.ToLower(protocolName) + "|" + strings.ToLower(chain)
}

// TVLSeries groups TVL observations into one series per (protocol, chain).
func TVLSeries(tvl []*domain.ProtocolTVL) map[string]*DailySeries {
	grouped := make(map[string][]Point)
	for _, t := range tvl {
		key := TVLKey(t.ProtocolName, t.Chain)
		grouped[key] = append(grouped[key], Point{Date: t.Date, Value: t.TVLUSD})
	}

	out := make(map[string]*DailySeries, len(grouped))
	for key, points := range grouped {
		out[key] = NewDailySeries(points)
	}
	return out
}
