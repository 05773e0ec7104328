package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"defi-cohort-lab/internal/tables"
)

// parquetNode maps a column type to its Parquet node.
func parquetNode(t tables.Type) parquet.Node {
	switch t {
	case tables.Int:
		return parquet.Int(64)
	case tables.Float:
		return parquet.Leaf(parquet.DoubleType)
	case tables.NullableFloat:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	case tables.Bool:
		return parquet.Leaf(parquet.BooleanType)
	case tables.Date:
		return parquet.Date()
	case tables.Timestamp:
		return parquet.Timestamp(parquet.Millisecond)
	default:
		return parquet.String()
	}
}

// Schema builds the Parquet schema of t.
func Schema(t *tables.Table) *parquet.Schema {
	group := make(parquet.Group, len(t.Columns))
	for _, c := range t.Columns {
		group[c.Name] = parquetNode(c.Type)
	}
	return parquet.NewSchema(t.Name, group)
}

// WriteParquet writes t as a single Parquet file.
func WriteParquet(w io.Writer, t *tables.Table) error {
	schema := Schema(t)

	// Leaf column order is defined by the schema, not by the table.
	index := make(map[string]int, len(t.Columns))
	for i, path := range schema.Columns() {
		index[path[0]] = i
	}

	pw := parquet.NewWriter(w, schema)
	rows := make([]parquet.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make(parquet.Row, len(t.Columns))
		for i, c := range t.Columns {
			col := index[c.Name]
			row[col] = parquetValue(c.Type, r[i]).Level(0, definitionLevel(c.Type, r[i]), col)
		}
		rows = append(rows, row)
	}

	if _, err := pw.WriteRows(rows); err != nil {
		return fmt.Errorf("write parquet rows %s: %w", t.Name, err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer %s: %w", t.Name, err)
	}
	return nil
}

func definitionLevel(t tables.Type, v any) int {
	if t == tables.NullableFloat && v != nil {
		return 1
	}
	return 0
}

func parquetValue(t tables.Type, v any) parquet.Value {
	if v == nil {
		return parquet.NullValue()
	}
	switch t {
	case tables.Int:
		return parquet.Int64Value(v.(int64))
	case tables.Float, tables.NullableFloat:
		return parquet.DoubleValue(v.(float64))
	case tables.Bool:
		return parquet.BooleanValue(v.(bool))
	case tables.Date:
		days := v.(time.Time).UTC().Unix() / 86400
		return parquet.Int32Value(int32(days))
	case tables.Timestamp:
		return parquet.Int64Value(v.(time.Time).UTC().UnixMilli())
	default:
		return parquet.ByteArrayValue([]byte(v.(string)))
	}
}
