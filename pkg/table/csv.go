package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// WriteCSV writes t as CSV with a header row.
// Times are written in RFC3339 with nanoseconds, nulls as empty fields.
// Floats use the shortest representation that round-trips.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("table: write csv header: %w", err)
	}

	rec := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.cols {
			rec[j] = formatCell(c, i)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("table: write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(c *Column, i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.Type {
	case TypeTime:
		return c.times[i].Format(time.RFC3339Nano)
	case TypeString:
		return c.strs[i]
	case TypeFloat64:
		return formatFloat(c.floats[i])
	case TypeInt8:
		return strconv.Itoa(int(c.ints[i]))
	}
	return ""
}

// formatFloat uses decimal notation for magnitudes in [1e-4, 1e21), exponent notation otherwise.
func formatFloat(v float64) string {
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e21) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
