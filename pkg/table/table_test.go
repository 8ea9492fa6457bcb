package table

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow/go/v7/arrow/array"
	"github.com/apache/arrow/go/v7/arrow/ipc"
	"github.com/apache/arrow/go/v7/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 = t0.Add(30 * time.Second)
)

func sampleTable(t *testing.T) *Table {
	tbl, err := New(
		NewTimeColumn("epoch", []time.Time{t0, t1}),
		NewStringColumn("sv", []string{"G01", "E12"}),
		NewFloat64Column("value", []float64{20000001.5, 1e-9}),
		NewNullInt8Column("lli", []int8{1, 0}, []bool{true, false}),
	)
	require.NoError(t, err)
	return tbl
}

func TestNew(t *testing.T) {
	tbl := sampleTable(t)
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 4, tbl.NumCols())
	assert.Equal(t, []string{"epoch", "sv", "value", "lli"}, tbl.ColumnNames())

	assert.Equal(t, []any{t0, "G01", 20000001.5, int8(1)}, tbl.Row(0))
	assert.Equal(t, []any{t1, "E12", 1e-9, nil}, tbl.Row(1))
	assert.Equal(t, "E12", tbl.Value(1, "sv"))
	assert.Nil(t, tbl.Value(0, "nope"))

	c, ok := tbl.Column("lli")
	require.True(t, ok)
	assert.True(t, c.Nullable)
	assert.True(t, c.IsNull(1))
	assert.Equal(t, TypeInt8, c.Type)
}

func TestNew_Empty(t *testing.T) {
	tbl, err := New(NewTimeColumn("epoch", nil), NewStringColumn("sv", nil))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, []string{"epoch", "sv"}, tbl.ColumnNames())
}

func TestNew_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		cols []*Column
	}{
		{"ragged", []*Column{
			NewStringColumn("sv", []string{"G01", "G02"}),
			NewFloat64Column("value", []float64{1}),
		}},
		{"duplicate", []*Column{
			NewStringColumn("sv", []string{"G01"}),
			NewStringColumn("sv", []string{"G02"}),
		}},
		{"no name", []*Column{NewStringColumn("", []string{"G01"})}},
		{"validity mask", []*Column{NewNullFloat64Column("x", []float64{1, 2}, []bool{true})}},
		{"nil column", []*Column{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := New(tt.cols...)
			assert.ErrorIs(t, err, ErrSchema)
			assert.Nil(t, tbl)
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable(t)))
	want := "epoch,sv,value,lli\n" +
		"2025-01-01T00:00:00Z,G01,20000001.5,1\n" +
		"2025-01-01T00:00:30Z,E12,1e-09,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_NaN(t *testing.T) {
	tbl, err := New(
		NewStringColumn("sv", []string{"G01", "G02"}),
		NewNullFloat64Column("x", []float64{math.NaN(), 0}, []bool{true, false}),
	)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "sv,x\nG01,NaN\nG02,\n", buf.String())
}

func Test_formatFloat(t *testing.T) {
	assert.Equal(t, "0", formatFloat(0))
	assert.Equal(t, "5153.65", formatFloat(5153.65))
	assert.Equal(t, "-0.000123", formatFloat(-0.000123))
	assert.Equal(t, "1.2345e-05", formatFloat(1.2345e-05))
	assert.Equal(t, "1e+21", formatFloat(1e21))
}

func TestWriteArrow(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "obs.arrow"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, WriteArrow(f, sampleTable(t)))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	rdr, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer rdr.Close()

	schema := rdr.Schema()
	require.Equal(t, 4, len(schema.Fields()))
	assert.Equal(t, "epoch", schema.Field(0).Name)
	assert.True(t, schema.Field(3).Nullable)

	require.Equal(t, 1, rdr.NumRecords())
	rec, err := rdr.Record(0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, rec.NumRows())

	sv := rec.Column(1).(*array.String)
	assert.Equal(t, "E12", sv.Value(1))
	lli := rec.Column(3).(*array.Int8)
	assert.Equal(t, int8(1), lli.Value(0))
	assert.True(t, lli.IsNull(1))
}

// onlyWriter hides the Seek method of the wrapped writer, like a pipe.
type onlyWriter struct{ io.Writer }

func TestWriteArrowStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArrowStream(onlyWriter{&buf}, sampleTable(t)))

	rdr, err := ipc.NewReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer rdr.Release()

	assert.Equal(t, "value", rdr.Schema().Field(2).Name)
	require.True(t, rdr.Next())
	rec := rdr.Record()
	assert.EqualValues(t, 2, rec.NumRows())
	assert.Equal(t, 20000001.5, rec.Column(2).(*array.Float64).Value(0))
	assert.True(t, rec.Column(3).(*array.Int8).IsNull(1))
	assert.False(t, rdr.Next())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	tbl := sampleTable(t)
	require.NoError(t, WriteXLSX(&buf, Sheet{Name: "GPS", Table: tbl}, Sheet{Name: "Galileo", Table: tbl}))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"GPS", "Galileo"}, f.GetSheetList())

	rows, err := f.GetRows("GPS")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"epoch", "sv", "value", "lli"}, rows[0])
	assert.Equal(t, "2025-01-01 00:00:00.000", rows[1][0])
	assert.Equal(t, "G01", rows[1][1])
	assert.Equal(t, "E12", rows[2][1])
}

func TestWriteXLSX_NoSheets(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteXLSX(&buf))
}
