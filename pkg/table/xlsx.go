package table

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	xlsxTimeFmt  = "2006-01-02 15:04:05.000"
)

// Sheet is a named table in a workbook.
type Sheet struct {
	Name  string
	Table *Table
}

// WriteXLSX writes the tables as an Excel workbook, one worksheet per sheet in the given order.
// The first row of a worksheet holds the column names. Nulls and NaN values are left empty.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("table: no sheets to write")
	}
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	keepDefault := false
	for _, sh := range sheets {
		if sh.Name == defaultSheet {
			keepDefault = true
		} else if _, err := xlsx.NewSheet(sh.Name); err != nil {
			return fmt.Errorf("table: new sheet %q: %w", sh.Name, err)
		}
		if err := writeSheet(xlsx, sh); err != nil {
			return err
		}
	}
	if !keepDefault {
		if err := xlsx.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("table: delete default sheet: %w", err)
		}
	}
	xlsx.SetActiveSheet(0)

	if err := xlsx.Write(w); err != nil {
		return fmt.Errorf("table: write xlsx: %w", err)
	}
	return nil
}

func writeSheet(xlsx *excelize.File, sh Sheet) error {
	sw, err := xlsx.NewStreamWriter(sh.Name)
	if err != nil {
		return fmt.Errorf("table: sheet %q: %w", sh.Name, err)
	}

	t := sh.Table
	header := make([]interface{}, t.NumCols())
	for j, name := range t.ColumnNames() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("table: sheet %q: %w", sh.Name, err)
	}

	row := make([]interface{}, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.cols {
			row[j] = xlsxCell(c, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("table: sheet %q: %w", sh.Name, err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("table: sheet %q row %d: %w", sh.Name, i, err)
		}
	}
	return sw.Flush()
}

func xlsxCell(c *Column, i int) interface{} {
	v := c.Value(i)
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(xlsxTimeFmt)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	}
	return v
}
