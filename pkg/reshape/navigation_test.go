package reshape

import (
	"testing"
	"time"

	"github.com/de-bkg/gnsstab/pkg/rinex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var toc = time.Date(2020, 6, 16, 20, 10, 0, 0, time.UTC)

func TestReadNavigationLong(t *testing.T) {
	tbl, err := ReadNavigationLong(navGPSFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"sv", "epoch", "param", "value"}, tbl.ColumnNames())

	// G01 with 26 orbit values, G01 without fitInt, G12 with 26 orbit values.
	require.Equal(t, 29+28+29, tbl.NumRows())

	assert.Equal(t, []any{"G01", toc, ParamClockBias, -3.872234374285e-04}, tbl.Row(0))
	assert.Equal(t, []any{"G01", toc, ParamClockDrift, -8.526512829121e-12}, tbl.Row(1))
	assert.Equal(t, []any{"G01", toc, ParamClockDriftRate, 0.0}, tbl.Row(2))
	assert.Equal(t, []any{"G01", toc, "iode", 53.0}, tbl.Row(3))
	assert.Equal(t, []any{"G01", toc, "fitInt", 4.0}, tbl.Row(28))
	assert.Equal(t, "t_tm", tbl.Value(29+27, ColParam))
	assert.Equal(t, "G12", tbl.Value(29+28, ColSV))
}

func TestReadNavigationLong_Formats(t *testing.T) {
	want, err := ReadNavigationLong(navGPSFile)
	require.NoError(t, err)

	t.Run("gzip", func(t *testing.T) {
		tbl, err := ReadNavigationLong(navGPSGzip)
		require.NoError(t, err)
		assert.Equal(t, want, tbl)
	})

	t.Run("RINEX 2", func(t *testing.T) {
		tbl, err := ReadNavigationLong(navGPSv2)
		require.NoError(t, err)
		assert.Equal(t, 2*29, tbl.NumRows())
		assert.Equal(t, want.Row(0), tbl.Row(0))
	})

	t.Run("RINEX 4", func(t *testing.T) {
		tbl, err := ReadNavigationLong(navMixv4)
		require.NoError(t, err)
		svs, _ := tbl.Column(ColSV)
		assert.Contains(t, svs.Strings(), "G01")
		assert.Contains(t, svs.Strings(), "E01")
		assert.NotContains(t, svs.Strings(), "C19")
	})
}

func TestReadNavigationLong_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		kind error
	}{
		{"missing file", "../rinex/testdata/nope.rnx", ErrNotFound},
		{"directory", "../rinex/testdata", ErrNotFound},
		{"garbage", garbageFile, ErrDecode},
		{"observation file", obsFile, ErrWrongRecordKind},
		{"clock file", clockFile, ErrWrongRecordKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ReadNavigationLong(tt.path)
			assert.ErrorIs(t, err, tt.kind)
			assert.Nil(t, tbl)
		})
	}
}

func TestReadNavigationLong_ParamsBelongToFrame(t *testing.T) {
	tbl, err := ReadNavigationLong(navMixFile)
	require.NoError(t, err)

	f, err := rinex.Open(navMixFile)
	require.NoError(t, err)
	dec, err := f.NavDecoder()
	require.NoError(t, err)

	row := 0
	for dec.NextEphemeris() {
		eph := dec.Ephemeris()
		n := 3 + len(eph.Orbits)
		for i := row; i < row+n; i++ {
			param := tbl.Value(i, ColParam).(string)
			assert.Equal(t, eph.PRN.String(), tbl.Value(i, ColSV))
			switch param {
			case ParamClockBias, ParamClockDrift, ParamClockDriftRate:
			default:
				assert.Contains(t, eph.Orbits, param)
			}
		}
		row += n
	}
	require.NoError(t, dec.Err())
	assert.Equal(t, tbl.NumRows(), row)
}

func TestNewNavRecord(t *testing.T) {
	f, err := rinex.Open(navMixFile)
	require.NoError(t, err)
	dec, err := f.NavDecoder()
	require.NoError(t, err)
	require.True(t, dec.NextEphemeris())
	require.True(t, dec.NextEphemeris())

	rec := NewNavRecord(dec.Ephemeris())
	assert.Equal(t, "R01", rec.SV)
	assert.Equal(t, time.Date(2020, 6, 16, 20, 15, 0, 0, time.UTC), rec.Epoch)
	require.Len(t, rec.Params, 15)
	assert.Equal(t, Param{Name: ParamClockBias, Value: 1.005083322525e-05}, rec.Params[0])
	assert.Equal(t, "posX", rec.Params[3].Name)
	assert.Equal(t, "ageOp", rec.Params[14].Name)

	v, ok := rec.Get("freqNum")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	_, ok = rec.Get("fitInt")
	assert.False(t, ok)
}

func TestFlattenNavigation(t *testing.T) {
	recs := []NavRecord{
		{SV: "G01", Epoch: toc, Params: []Param{{ParamClockBias, 1}, {"iode", 2}}},
		{SV: "E01", Epoch: toc, Params: []Param{{ParamClockBias, 3}}},
	}
	tbl, err := FlattenNavigation(recs)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []any{"G01", toc, "iode", 2.0}, tbl.Row(1))
	assert.Equal(t, []any{"E01", toc, ParamClockBias, 3.0}, tbl.Row(2))

	empty, err := FlattenNavigation(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())
	assert.Equal(t, 4, empty.NumCols())
}
