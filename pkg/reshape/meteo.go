package reshape

import (
	"time"

	"github.com/de-bkg/gnsstab/pkg/rinex"
	"github.com/de-bkg/gnsstab/pkg/table"
	"github.com/sirupsen/logrus"
)

// ReadMeteo reads the RINEX meteo file at path and returns one row per epoch and observation
// type with the columns epoch, observable and value. Missing values produce no row.
func ReadMeteo(path string, opts ...Option) (*table.Table, error) {
	o := newOptions(opts)
	start := time.Now()
	tbl, err := readMeteo(path, o)
	rows := 0
	if tbl != nil {
		rows = tbl.NumRows()
	}
	o.metrics.observe(OpReadMeteo, start, rows, err)
	if err != nil {
		return nil, err
	}
	o.logger.WithFields(logrus.Fields{"path": path, "rows": rows}).Debug("meteo flattened")
	return tbl, nil
}

func readMeteo(path string, o *options) (*table.Table, error) {
	f, err := load(OpReadMeteo, path, rinex.KindMeteo, o)
	if err != nil {
		return nil, err
	}
	dec, err := f.MetDecoder()
	if err != nil {
		return nil, newError(OpReadMeteo, path, ErrDecode, err)
	}

	var epochs []*rinex.MeteoEpoch
	for dec.NextEpoch() {
		epochs = append(epochs, dec.Epoch())
	}
	if err := dec.Err(); err != nil {
		return nil, newError(OpReadMeteo, path, ErrDecode, err)
	}
	return FlattenMeteo(dec.Header.ObsTypes, epochs)
}

// FlattenMeteo returns the long meteo table for epochs, whose values are in the order of obsTypes.
func FlattenMeteo(obsTypes []rinex.MeteoObsType, epochs []*rinex.MeteoEpoch) (*table.Table, error) {
	var (
		times []time.Time
		codes []string
		vals  []float64
	)
	for _, epo := range epochs {
		recs, err := epo.Values(obsTypes)
		if err != nil {
			return nil, newError(OpFlattenMeteo, "", ErrSchemaBuild, err)
		}
		for _, v := range recs {
			times = append(times, epo.Time)
			codes = append(codes, string(v.Type))
			vals = append(vals, v.Val)
		}
	}

	tbl, err := table.New(
		table.NewTimeColumn(ColEpoch, times),
		table.NewStringColumn(ColObservable, codes),
		table.NewFloat64Column(ColValue, vals),
	)
	if err != nil {
		return nil, newError(OpFlattenMeteo, "", ErrSchemaBuild, err)
	}
	return tbl, nil
}
