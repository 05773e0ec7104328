package cleaning

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// weiExponent is the number of decimal places between wei and ether.
const weiExponent = 18

// ParseWei parses a base-10 wei amount. An empty string is zero.
func ParseWei(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse wei %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative wei amount %q", s)
	}
	return d, nil
}

// WeiToEth converts a wei amount to ether without intermediate float rounding.
func WeiToEth(s string) (float64, error) {
	d, err := ParseWei(s)
	if err != nil {
		return 0, err
	}
	return d.Shift(-weiExponent).InexactFloat64(), nil
}

// GasCostEth returns gas_used × gas_price converted to ether.
func GasCostEth(gasUsed int64, gasPriceWei string) (float64, error) {
	price, err := ParseWei(gasPriceWei)
	if err != nil {
		return 0, err
	}
	return price.Mul(decimal.NewFromInt(gasUsed)).Shift(-weiExponent).InexactFloat64(), nil
}
