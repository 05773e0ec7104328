package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"defi-cohort-lab/internal/tables"
)

// WriteCSV writes t as CSV with a header row.
// Floats use six decimals and nulls are empty, so output is byte-stable.
func WriteCSV(w io.Writer, t *tables.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header %s: %w", t.Name, err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range t.Columns {
			record[i] = tables.FormatValue(c.Type, row[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", t.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderCSV renders t as a CSV string.
func RenderCSV(t *tables.Table) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return "", err
	}
	return buf.String(), nil
}
