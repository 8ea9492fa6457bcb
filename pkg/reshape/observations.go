// Package reshape turns RINEX observation, navigation and meteo records into tables.
//
// Observations and navigation ephemerides are flattened into long tables with one row
// per value. Navigation ephemerides can also be pivoted into one wide table per
// constellation, whose columns are the union of all parameters found for that constellation.
//
// The Read functions open a file, check its record kind and build the tables.
// The Flatten and Pivot functions do the same for records already in memory.
package reshape

import (
	"math"
	"time"

	"github.com/de-bkg/gnsstab/pkg/rinex"
	"github.com/de-bkg/gnsstab/pkg/table"
	"github.com/sirupsen/logrus"
)

// Operation names used in errors and metrics.
const (
	OpReadObservations     = "read observations"
	OpReadNavigation       = "read navigation"
	OpReadNavigationPivot  = "read navigation by constellation"
	OpReadMeteo            = "read meteo"
	OpFlattenObservations  = "flatten observations"
	OpFlattenNavigation    = "flatten navigation"
	OpPivotByConstellation = "pivot by constellation"
	OpFlattenMeteo         = "flatten meteo"
)

// Column names.
const (
	ColEpoch      = "epoch"
	ColSV         = "sv"
	ColObservable = "observable"
	ColValue      = "value"
	ColLLI        = "lli"
	ColParam      = "param"
)

// Position is the approximate receiver position in ECEF coordinates [m].
// All components are NaN if the file header has no position.
type Position struct {
	X, Y, Z float64
}

// IsNaN reports whether the position is missing.
func (p Position) IsNaN() bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z)
}

func nanPosition() Position {
	return Position{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
}

// ReadObservations reads the RINEX observation file at path and returns one row per signal
// with the columns epoch, sv, observable and value, plus lli with WithLLI.
// Rows follow the file: epochs, then satellites within the epoch, then observables in header order.
//
// The returned position is the header's APPROX POSITION XYZ. A file without position
// is not an error, the position is then NaN in all components.
func ReadObservations(path string, opts ...Option) (*table.Table, Position, error) {
	o := newOptions(opts)
	start := time.Now()
	tbl, pos, err := readObservations(path, o)
	rows := 0
	if tbl != nil {
		rows = tbl.NumRows()
	}
	o.metrics.observe(OpReadObservations, start, rows, err)
	if err != nil {
		return nil, nanPosition(), err
	}
	o.logger.WithFields(logrus.Fields{"path": path, "rows": rows, "position": pos}).Debug("observations flattened")
	return tbl, pos, nil
}

func readObservations(path string, o *options) (*table.Table, Position, error) {
	f, err := load(OpReadObservations, path, rinex.KindObservation, o)
	if err != nil {
		return nil, Position{}, err
	}
	dec, err := f.ObsDecoder()
	if err != nil {
		return nil, Position{}, newError(OpReadObservations, path, ErrDecode, err)
	}

	var epochs []*rinex.Epoch
	for dec.NextEpoch() {
		epochs = append(epochs, dec.Epoch())
	}
	if err := dec.Err(); err != nil {
		return nil, Position{}, newError(OpReadObservations, path, ErrDecode, err)
	}

	o.logger.WithFields(logrus.Fields{"path": path, "systems": dec.Header.SatSystems().String(), "epochs": len(epochs)}).Debug("observations decoded")

	hpos := dec.Header.Position
	pos := Position{X: hpos.X, Y: hpos.Y, Z: hpos.Z}
	if hpos.IsNaN() {
		pos = nanPosition()
	}

	tbl, err := FlattenObservations(epochs, o.lli)
	if err != nil {
		return nil, Position{}, err
	}
	return tbl, pos, nil
}

// FlattenObservations returns the long observation table for epochs.
// Epochs with a special event flag (> 1) carry no observations and are skipped.
// With withLLI the nullable column lli is added, null where the file has no indicator.
func FlattenObservations(epochs []*rinex.Epoch, withLLI bool) (*table.Table, error) {
	n := 0
	for _, epo := range epochs {
		if epo != nil && epo.Flag <= 1 {
			n += epo.NumObs()
		}
	}

	times := make([]time.Time, 0, n)
	svs := make([]string, 0, n)
	codes := make([]string, 0, n)
	vals := make([]float64, 0, n)
	var llis []int8
	var lliValid []bool
	if withLLI {
		llis = make([]int8, 0, n)
		lliValid = make([]bool, 0, n)
	}

	for _, epo := range epochs {
		if epo == nil || epo.Flag > 1 {
			continue
		}
		for _, sat := range epo.ObsList {
			sv := sat.Prn.String()
			for _, obs := range sat.Obss {
				times = append(times, epo.Time)
				svs = append(svs, sv)
				codes = append(codes, string(obs.Code))
				vals = append(vals, obs.Val)
				if withLLI {
					llis = append(llis, obs.LLI)
					lliValid = append(lliValid, obs.HasLLI)
				}
			}
		}
	}

	cols := []*table.Column{
		table.NewTimeColumn(ColEpoch, times),
		table.NewStringColumn(ColSV, svs),
		table.NewStringColumn(ColObservable, codes),
		table.NewFloat64Column(ColValue, vals),
	}
	if withLLI {
		cols = append(cols, table.NewNullInt8Column(ColLLI, llis, lliValid))
	}
	tbl, err := table.New(cols...)
	if err != nil {
		return nil, newError(OpFlattenObservations, "", ErrSchemaBuild, err)
	}
	return tbl, nil
}
