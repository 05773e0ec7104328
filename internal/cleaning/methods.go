package cleaning

import (
	"strings"

	"defi-cohort-lab/internal/domain"
)

// MethodNames maps known 4-byte selectors of the tracked contracts to function names.
var MethodNames = map[string]string{
	"0x414bf389": "exactInputSingle", // Uniswap V3 router single-hop swap
	"0xc04b8d59": "exactInput",       // Uniswap V3 router multi-hop swap
	"0x617ba037": "supply",           // Aave V3 pool
	"0xa415bcad": "borrow",
	"0x573ade81": "repay",
	"0x69328dec": "withdraw",
}

// ResolveFunctionName returns the bare function name of a call.
// An explicit name wins over the selector table; argument lists are stripped.
func ResolveFunctionName(methodID, functionName string) string {
	name := strings.TrimSpace(functionName)
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	if name != "" && name != "unknown" {
		return name
	}
	if len(methodID) > 10 {
		methodID = methodID[:10]
	}
	if known, ok := MethodNames[strings.ToLower(methodID)]; ok {
		return known
	}
	return "unknown"
}

// ClassifyMethod maps a function name to a transaction type.
func ClassifyMethod(functionName string) string {
	name := strings.ToLower(functionName)
	switch {
	case strings.HasPrefix(name, "exact"), strings.HasPrefix(name, "swap"):
		return domain.TxTypeSwap
	case name == "supply", name == "deposit":
		return domain.TxTypeSupply
	case name == "borrow":
		return domain.TxTypeBorrow
	case name == "repay":
		return domain.TxTypeRepay
	case name == "withdraw":
		return domain.TxTypeWithdraw
	default:
		return domain.TxTypeOther
	}
}
