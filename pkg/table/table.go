// Package table provides column-oriented tables with a fixed schema and
// writers for CSV, Apache Arrow IPC and Excel.
package table

import (
	"errors"
	"fmt"
	"time"
)

// ErrSchema is returned if the columns of a table do not form a valid schema.
var ErrSchema = errors.New("table: invalid schema")

// Type is the data type of a column.
type Type int

// Column types.
const (
	TypeTime Type = iota + 1
	TypeString
	TypeFloat64
	TypeInt8
)

func (t Type) String() string {
	switch t {
	case TypeTime:
		return "time"
	case TypeString:
		return "string"
	case TypeFloat64:
		return "float64"
	case TypeInt8:
		return "int8"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Column is a named, typed sequence of values.
// Nullable columns carry a validity mask, a false entry marks a null.
type Column struct {
	Name     string
	Type     Type
	Nullable bool

	times  []time.Time
	strs   []string
	floats []float64
	ints   []int8
	valid  []bool
}

// NewTimeColumn returns a column of timestamps.
func NewTimeColumn(name string, values []time.Time) *Column {
	return &Column{Name: name, Type: TypeTime, times: values}
}

// NewStringColumn returns a column of strings.
func NewStringColumn(name string, values []string) *Column {
	return &Column{Name: name, Type: TypeString, strs: values}
}

// NewFloat64Column returns a column of float64 values.
func NewFloat64Column(name string, values []float64) *Column {
	return &Column{Name: name, Type: TypeFloat64, floats: values}
}

// NewNullFloat64Column returns a nullable float64 column. values and valid must have the same length.
func NewNullFloat64Column(name string, values []float64, valid []bool) *Column {
	return &Column{Name: name, Type: TypeFloat64, Nullable: true, floats: values, valid: valid}
}

// NewNullInt8Column returns a nullable int8 column. values and valid must have the same length.
func NewNullInt8Column(name string, values []int8, valid []bool) *Column {
	return &Column{Name: name, Type: TypeInt8, Nullable: true, ints: values, valid: valid}
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Type {
	case TypeTime:
		return len(c.times)
	case TypeString:
		return len(c.strs)
	case TypeFloat64:
		return len(c.floats)
	case TypeInt8:
		return len(c.ints)
	}
	return 0
}

// IsNull reports whether the value at row i is null.
func (c *Column) IsNull(i int) bool {
	return c.Nullable && !c.valid[i]
}

// Value returns the value at row i, or nil if it is null.
// The dynamic type is time.Time, string, float64 or int8.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch c.Type {
	case TypeTime:
		return c.times[i]
	case TypeString:
		return c.strs[i]
	case TypeFloat64:
		return c.floats[i]
	case TypeInt8:
		return c.ints[i]
	}
	return nil
}

// Times returns the values of a time column.
func (c *Column) Times() []time.Time { return c.times }

// Strings returns the values of a string column.
func (c *Column) Strings() []string { return c.strs }

// Float64s returns the values of a float64 column. Nulls have an undefined value.
func (c *Column) Float64s() []float64 { return c.floats }

// Int8s returns the values of an int8 column. Nulls have an undefined value.
func (c *Column) Int8s() []int8 { return c.ints }

// Valid returns the validity mask of a nullable column, nil otherwise.
func (c *Column) Valid() []bool { return c.valid }

// Table is a set of columns of equal length.
type Table struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New creates a table from the given columns. All columns must have the same length,
// unique non-empty names and, if nullable, a validity mask of the same length.
// An error wrapping ErrSchema is returned otherwise.
func New(cols ...*Column) (*Table, error) {
	t := &Table{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("%w: column %d is nil", ErrSchema, i)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrSchema, i)
		}
		if _, exists := t.index[c.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrSchema, c.Name)
		}
		if c.Type < TypeTime || c.Type > TypeInt8 {
			return nil, fmt.Errorf("%w: column %q has unknown type %s", ErrSchema, c.Name, c.Type)
		}
		t.index[c.Name] = i

		n := c.Len()
		if i == 0 {
			t.nrows = n
		} else if n != t.nrows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrSchema, c.Name, n, t.nrows)
		}
		if c.Nullable && len(c.valid) != n {
			return nil, fmt.Errorf("%w: column %q has %d validity entries for %d rows", ErrSchema, c.Name, len(c.valid), n)
		}
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in schema order.
func (t *Table) Columns() []*Column { return t.cols }

// ColumnNames returns the column names in schema order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Value returns the value of the named column at row i, nil for nulls and unknown columns.
func (t *Table) Value(i int, name string) any {
	c, ok := t.Column(name)
	if !ok {
		return nil
	}
	return c.Value(i)
}

// Row returns the values of row i in schema order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Value(i)
	}
	return row
}
