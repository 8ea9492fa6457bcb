package reshape

import (
	"time"

	"github.com/de-bkg/gnsstab/pkg/rinex"
	"github.com/de-bkg/gnsstab/pkg/table"
	"github.com/sirupsen/logrus"
)

// Clock parameters present in every navigation record.
const (
	ParamClockBias      = "clock_bias"
	ParamClockDrift     = "clock_drift"
	ParamClockDriftRate = "clock_drift_rate"
)

// Param is a named navigation parameter.
type Param struct {
	Name  string
	Value float64
}

// NavRecord is one broadcast ephemeris frame of a satellite.
// Params starts with the three clock parameters, followed by the orbital
// parameters in record layout order. Parameters blank in the file are absent.
type NavRecord struct {
	SV     string    // Satellite, e.g. "G01".
	Epoch  time.Time // Time of clock.
	Params []Param
}

// Get returns the value of the named parameter.
func (r NavRecord) Get(name string) (float64, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// NewNavRecord converts a decoded ephemeris.
func NewNavRecord(eph *rinex.Ephemeris) NavRecord {
	keys := eph.OrbitKeys()
	params := make([]Param, 0, 3+len(keys))
	params = append(params,
		Param{ParamClockBias, eph.ClockBias},
		Param{ParamClockDrift, eph.ClockDrift},
		Param{ParamClockDriftRate, eph.ClockDriftRate},
	)
	for _, k := range keys {
		params = append(params, Param{k, eph.Orbits[k]})
	}
	return NavRecord{SV: eph.PRN.String(), Epoch: eph.TOC, Params: params}
}

// ReadNavigationLong reads the RINEX navigation file at path and returns one row per
// parameter and frame with the columns sv, epoch, param and value.
// Rows follow the file order of the frames, within a frame the clock parameters come first.
func ReadNavigationLong(path string, opts ...Option) (*table.Table, error) {
	o := newOptions(opts)
	start := time.Now()

	var tbl *table.Table
	recs, err := readNavRecords(OpReadNavigation, path, o)
	if err == nil {
		tbl, err = FlattenNavigation(recs)
	}

	rows := 0
	if tbl != nil {
		rows = tbl.NumRows()
	}
	o.metrics.observe(OpReadNavigation, start, rows, err)
	if err != nil {
		return nil, err
	}
	o.logger.WithFields(logrus.Fields{"path": path, "frames": len(recs), "rows": rows}).Debug("navigation flattened")
	return tbl, nil
}

func readNavRecords(op, path string, o *options) ([]NavRecord, error) {
	f, err := load(op, path, rinex.KindNavigation, o)
	if err != nil {
		return nil, err
	}
	dec, err := f.NavDecoder()
	if err != nil {
		return nil, newError(op, path, ErrDecode, err)
	}

	var recs []NavRecord
	for dec.NextEphemeris() {
		recs = append(recs, NewNavRecord(dec.Ephemeris()))
	}
	if err := dec.Err(); err != nil {
		return nil, newError(op, path, ErrDecode, err)
	}
	return recs, nil
}

// FlattenNavigation returns the long navigation table for records.
func FlattenNavigation(records []NavRecord) (*table.Table, error) {
	n := 0
	for _, r := range records {
		n += len(r.Params)
	}

	svs := make([]string, 0, n)
	times := make([]time.Time, 0, n)
	names := make([]string, 0, n)
	vals := make([]float64, 0, n)
	for _, r := range records {
		for _, p := range r.Params {
			svs = append(svs, r.SV)
			times = append(times, r.Epoch)
			names = append(names, p.Name)
			vals = append(vals, p.Value)
		}
	}

	tbl, err := table.New(
		table.NewStringColumn(ColSV, svs),
		table.NewTimeColumn(ColEpoch, times),
		table.NewStringColumn(ColParam, names),
		table.NewFloat64Column(ColValue, vals),
	)
	if err != nil {
		return nil, newError(OpFlattenNavigation, "", ErrSchemaBuild, err)
	}
	return tbl, nil
}
