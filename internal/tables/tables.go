// Package tables flattens a snapshot into named, typed columnar tables.
// Every sink and file export reads the same encoding, so column names and
// nullability stay identical across Postgres, ClickHouse, DuckDB, CSV and Parquet.
package tables

import (
	"strconv"
	"time"

	"defi-cohort-lab/internal/domain"
)

// Type is the logical type of a column.
type Type int

const (
	String Type = iota
	Int
	Float
	NullableFloat
	Bool
	Date
	Timestamp
)

// Column describes one output column.
type Column struct {
	Name string
	Type Type
}

// Table is a fully materialized output table.
// Row values are string, int64, float64, bool, time.Time or nil.
type Table struct {
	Name    string
	Key     []string // natural key, also the sort order
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Names lists output tables in publish order.
var Names = []string{
	domain.TableWalletCohorts,
	domain.TableActivityPeriods,
	domain.TableWalletBehavior,
	domain.TableDailyProtocolRevenue,
	domain.TableCohortRetention,
	domain.TableDailyRevenueAttribution,
	domain.TableWalletDimension,
	domain.TableProtocolDimension,
}

// FromSnapshot encodes every output table of snap, in Names order.
func FromSnapshot(snap *domain.Snapshot) []*Table {
	return []*Table{
		cohorts(snap.Cohorts),
		activity(snap.Activity),
		behavior(snap.Behavior),
		revenue(snap.Revenue),
		retention(snap.Retention),
		attribution(snap.Attribution),
		wallets(snap.Wallets),
		protocols(snap.Protocols),
	}
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func i64(v int) int64 { return int64(v) }

// FormatValue renders a cell the way file exports write it.
// Nulls become the empty string.
func FormatValue(t Type, v any) string {
	if v == nil {
		return ""
	}
	switch t {
	case Int:
		return strconv.FormatInt(v.(int64), 10)
	case Float, NullableFloat:
		return strconv.FormatFloat(v.(float64), 'f', 6, 64)
	case Bool:
		if v.(bool) {
			return "1"
		}
		return "0"
	case Date:
		return v.(time.Time).UTC().Format("2006-01-02")
	case Timestamp:
		return v.(time.Time).UTC().Format(time.RFC3339)
	default:
		return v.(string)
	}
}
