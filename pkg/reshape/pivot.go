package reshape

import (
	"sort"
	"time"

	"github.com/de-bkg/gnsstab/pkg/gnss"
	"github.com/de-bkg/gnsstab/pkg/table"
	"github.com/sirupsen/logrus"
)

// ReadNavigationByConstellation reads the RINEX navigation file at path and returns one
// wide table per constellation, keyed by the constellation label, e.g. "GPS".
// See PivotByConstellation for the table layout.
func ReadNavigationByConstellation(path string, opts ...Option) (map[string]*table.Table, error) {
	o := newOptions(opts)
	start := time.Now()

	var tables map[string]*table.Table
	recs, err := readNavRecords(OpReadNavigationPivot, path, o)
	if err == nil {
		tables, err = PivotByConstellation(recs)
	}

	rows := 0
	for _, t := range tables {
		rows += t.NumRows()
	}
	o.metrics.observe(OpReadNavigationPivot, start, rows, err)
	if err != nil {
		return nil, err
	}
	o.logger.WithFields(logrus.Fields{"path": path, "frames": len(recs), "constellations": Constellations(tables)}).Debug("navigation pivoted")
	return tables, nil
}

// group holds the records of one constellation and the union of their parameter names.
type group struct {
	recs   []NavRecord
	params map[string]struct{}
}

// PivotByConstellation partitions records by constellation and builds one wide table per partition.
//
// The columns are epoch, sv and one nullable float64 column per parameter found in any record
// of the partition, sorted by name. A parameter missing in a record is null in its row.
// Rows keep the order of records. Records without a constellation are grouped under "Unknown".
// An empty input gives an empty map.
func PivotByConstellation(records []NavRecord) (map[string]*table.Table, error) {
	groups := make(map[string]*group)
	for _, r := range records {
		label := gnss.Constellation(r.SV)
		g, ok := groups[label]
		if !ok {
			g = &group{params: make(map[string]struct{})}
			groups[label] = g
		}
		g.recs = append(g.recs, r)
		for _, p := range r.Params {
			g.params[p.Name] = struct{}{}
		}
	}

	tables := make(map[string]*table.Table, len(groups))
	for label, g := range groups {
		tbl, err := g.wide()
		if err != nil {
			return nil, newError(OpPivotByConstellation, "", ErrSchemaBuild, err)
		}
		tables[label] = tbl
	}
	return tables, nil
}

// wide builds the table of the group.
func (g *group) wide() (*table.Table, error) {
	names := make([]string, 0, len(g.params))
	for name := range g.params {
		names = append(names, name)
	}
	sort.Strings(names)

	n := len(g.recs)
	times := make([]time.Time, n)
	svs := make([]string, n)
	vals := make([][]float64, len(names))
	valid := make([][]bool, len(names))
	for j := range names {
		vals[j] = make([]float64, n)
		valid[j] = make([]bool, n)
	}

	col := make(map[string]int, len(names))
	for j, name := range names {
		col[name] = j
	}
	for i, r := range g.recs {
		times[i] = r.Epoch
		svs[i] = r.SV
		for _, p := range r.Params {
			j := col[p.Name]
			if valid[j][i] {
				continue // first value wins
			}
			vals[j][i] = p.Value
			valid[j][i] = true
		}
	}

	cols := make([]*table.Column, 0, 2+len(names))
	cols = append(cols, table.NewTimeColumn(ColEpoch, times), table.NewStringColumn(ColSV, svs))
	for j, name := range names {
		cols = append(cols, table.NewNullFloat64Column(name, vals[j], valid[j]))
	}
	return table.New(cols...)
}

// Constellations returns the keys of tables in sorted order.
func Constellations(tables map[string]*table.Table) []string {
	labels := make([]string, 0, len(tables))
	for label := range tables {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
