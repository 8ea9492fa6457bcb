package table

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v7/arrow"
	"github.com/apache/arrow/go/v7/arrow/array"
	"github.com/apache/arrow/go/v7/arrow/ipc"
	"github.com/apache/arrow/go/v7/arrow/memory"
)

// ArrowSchema returns the Arrow schema of t. Times map to timestamp[ns, UTC].
func ArrowSchema(t *Table) *arrow.Schema {
	fields := make([]arrow.Field, len(t.cols))
	for i, c := range t.cols {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: c.Nullable}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(typ Type) arrow.DataType {
	switch typ {
	case TypeTime:
		return arrow.FixedWidthTypes.Timestamp_ns
	case TypeString:
		return arrow.BinaryTypes.String
	case TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case TypeInt8:
		return arrow.PrimitiveTypes.Int8
	}
	return arrow.Null
}

// NewArrowRecord builds an Arrow record from t. The caller must call Release on the record.
func NewArrowRecord(mem memory.Allocator, t *Table) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, ArrowSchema(t))
	defer b.Release()

	for i, c := range t.cols {
		switch fb := b.Field(i).(type) {
		case *array.TimestampBuilder:
			ts := make([]arrow.Timestamp, len(c.times))
			for j, tm := range c.times {
				ts[j] = arrow.Timestamp(tm.UnixNano())
			}
			fb.AppendValues(ts, nil)
		case *array.StringBuilder:
			fb.AppendValues(c.strs, nil)
		case *array.Float64Builder:
			fb.AppendValues(c.floats, c.valid)
		case *array.Int8Builder:
			fb.AppendValues(c.ints, c.valid)
		default:
			return nil, fmt.Errorf("%w: column %q: no arrow builder for %s", ErrSchema, c.Name, c.Type)
		}
	}
	return b.NewRecord(), nil
}

// WriteArrow writes t as an Arrow IPC file with a single record batch.
// The file footer is written by seeking back, use WriteArrowStream for pipes.
func WriteArrow(w io.WriteSeeker, t *Table) error {
	mem := memory.NewGoAllocator()
	rec, err := NewArrowRecord(mem, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("table: create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("table: write arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("table: close arrow writer: %w", err)
	}
	return nil
}

// WriteArrowStream writes t in the Arrow IPC streaming format, which needs no seeking.
func WriteArrowStream(w io.Writer, t *Table) error {
	mem := memory.NewGoAllocator()
	rec, err := NewArrowRecord(mem, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	sw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := sw.Write(rec); err != nil {
		sw.Close()
		return fmt.Errorf("table: write arrow record: %w", err)
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("table: close arrow writer: %w", err)
	}
	return nil
}
