package cleaning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"defi-cohort-lab/internal/domain"
)

// TransactionReport counts what the transaction cleaner kept and dropped.
type TransactionReport struct {
	Raw             int
	Duplicates      int
	Failed          int
	BeforeStartDate int
	Kept            int
}

// CleanTransactions normalizes raw transactions:
//   - addresses lowercased
//   - duplicates by tx_hash removed (lowest block number wins)
//   - failed transactions removed
//   - transactions before startDate removed (zero startDate disables the filter)
//   - wei amounts converted to ether, method classified, day and week derived
//
// Returns ErrInputMissing for an empty input and ErrSchemaViolation for rows
// without a hash, sender or timestamp, or with unparseable amounts.
func CleanTransactions(raw []*domain.RawTransaction, startDate time.Time) ([]*domain.Transaction, TransactionReport, error) {
	report := TransactionReport{Raw: len(raw)}
	if len(raw) == 0 {
		return nil, report, fmt.Errorf("transactions: %w", ErrInputMissing)
	}

	for i, r := range raw {
		if r == nil {
			return nil, report, fmt.Errorf("transactions row %d: nil row: %w", i, ErrSchemaViolation)
		}
		if strings.TrimSpace(r.TxHash) == "" {
			return nil, report, fmt.Errorf("transactions row %d: empty tx_hash: %w", i, ErrSchemaViolation)
		}
		if strings.TrimSpace(r.FromAddress) == "" {
			return nil, report, fmt.Errorf("transactions %s: empty from_address: %w", r.TxHash, ErrSchemaViolation)
		}
		if r.BlockTimestamp.IsZero() {
			return nil, report, fmt.Errorf("transactions %s: empty block_timestamp: %w", r.TxHash, ErrSchemaViolation)
		}
	}

	ordered := make([]*domain.RawTransaction, len(raw))
	copy(ordered, raw)
	sort.SliceStable(ordered, func(i, j int) bool {
		hi, hj := strings.ToLower(ordered[i].TxHash), strings.ToLower(ordered[j].TxHash)
		if hi != hj {
			return hi < hj
		}
		return ordered[i].BlockNumber < ordered[j].BlockNumber
	})

	var start time.Time
	if !startDate.IsZero() {
		start = domain.DayStart(startDate)
	}

	out := make([]*domain.Transaction, 0, len(ordered))
	seen := make(map[string]struct{}, len(ordered))
	for _, r := range ordered {
		hash := strings.ToLower(strings.TrimSpace(r.TxHash))
		if _, dup := seen[hash]; dup {
			report.Duplicates++
			continue
		}
		seen[hash] = struct{}{}

		if r.IsError {
			report.Failed++
			continue
		}

		ts := r.BlockTimestamp.UTC()
		if !start.IsZero() && ts.Before(start) {
			report.BeforeStartDate++
			continue
		}

		tx, err := cleanTransaction(r, hash, ts)
		if err != nil {
			return nil, report, err
		}
		out = append(out, tx)
	}

	SortTransactions(out)
	report.Kept = len(out)
	return out, report, nil
}

func cleanTransaction(r *domain.RawTransaction, hash string, ts time.Time) (*domain.Transaction, error) {
	valueEth, err := WeiToEth(r.ValueWei)
	if err != nil {
		return nil, fmt.Errorf("transactions %s: value: %v: %w", hash, err, ErrSchemaViolation)
	}
	gasCost, err := GasCostEth(r.GasUsed, r.GasPriceWei)
	if err != nil {
		return nil, fmt.Errorf("transactions %s: gas price: %v: %w", hash, err, ErrSchemaViolation)
	}

	var contract *string
	if r.ContractAddress != nil && strings.TrimSpace(*r.ContractAddress) != "" {
		c := strings.ToLower(strings.TrimSpace(*r.ContractAddress))
		contract = &c
	}

	functionName := ResolveFunctionName(r.MethodID, r.FunctionName)
	chain := strings.ToLower(strings.TrimSpace(r.Chain))
	if chain == "" {
		chain = DefaultChain
	}

	return &domain.Transaction{
		TxHash:          hash,
		BlockNumber:     r.BlockNumber,
		BlockTimestamp:  ts,
		Day:             domain.DayStart(ts),
		Week:            domain.WeekStart(ts),
		FromAddress:     strings.ToLower(strings.TrimSpace(r.FromAddress)),
		ToAddress:       strings.ToLower(strings.TrimSpace(r.ToAddress)),
		ContractAddress: contract,
		ValueWei:        strings.TrimSpace(r.ValueWei),
		ValueETH:        valueEth,
		GasUsed:         r.GasUsed,
		GasPriceWei:     strings.TrimSpace(r.GasPriceWei),
		GasCostETH:      gasCost,
		MethodID:        strings.ToLower(r.MethodID),
		FunctionName:    functionName,
		TxType:          ClassifyMethod(functionName),
		ProtocolName:    strings.TrimSpace(r.ProtocolName),
		Chain:           chain,
	}, nil
}
