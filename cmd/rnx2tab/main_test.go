package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v7/arrow"
	"github.com/apache/arrow/go/v7/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testdata = "../../pkg/rinex/testdata"

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err = app.Run(append([]string{"rnx2tab"}, args...))
	return out.String(), errOut.String(), err
}

func TestObs(t *testing.T) {
	stdout, stderr, err := run(t, "obs", "--lli", filepath.Join(testdata, "TEST00DEU_R_20250010000_01H_30S_MO.rnx"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "receiver position X=4027881.8478 Y=306998.2610 Z=4919498.6554")

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "epoch,sv,observable,value,lli", lines[0])
	assert.Equal(t, "2025-01-01T00:00:00Z,G05,L1C,110000000.456,1", lines[2])
}

func TestObs_NoPosition(t *testing.T) {
	_, stderr, err := run(t, "obs", filepath.Join(testdata, "NPOS00DEU_R_20250010000_01H_30S_GO.rnx"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "no receiver position")
}

func TestNav_Arrow(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nav.arrow")
	_, _, err := run(t, "--format", "arrow", "--out", out, "nav", filepath.Join(testdata, "GPSN00TST_R_20201680000_01D_GN.rnx"))
	require.NoError(t, err)
	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rdr, err := ipc.NewFileReader(f)
	require.NoError(t, err)
	defer rdr.Close()
	assert.Equal(t, []string{"sv", "epoch", "param", "value"}, fieldNames(rdr.Schema()))
	assert.Equal(t, 1, rdr.NumRecords())
}

func TestNav_ArrowStdout(t *testing.T) {
	stdout, _, err := run(t, "--format", "arrow", "--out", "-", "nav", filepath.Join(testdata, "GPSN00TST_R_20201680000_01D_GN.rnx"))
	require.NoError(t, err)

	rdr, err := ipc.NewReader(strings.NewReader(stdout))
	require.NoError(t, err)
	defer rdr.Release()
	assert.Equal(t, []string{"sv", "epoch", "param", "value"}, fieldNames(rdr.Schema()))
	rows := int64(0)
	for rdr.Next() {
		rows += rdr.Record().NumRows()
	}
	assert.EqualValues(t, 86, rows)
}

func fieldNames(schema *arrow.Schema) []string {
	var names []string
	for _, f := range schema.Fields() {
		names = append(names, f.Name)
	}
	return names
}

func TestNavPivot(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "--out", dir, "navpivot", filepath.Join(testdata, "MIXD00TST_R_20201680000_01D_MN.rnx"))
	require.NoError(t, err)
	for _, label := range []string{"GPS", "GLONASS", "Galileo"} {
		assert.FileExists(t, filepath.Join(dir, "MIXD00TST_R_20201680000_01D_MN_"+label+".csv"))
	}

	data, err := os.ReadFile(filepath.Join(dir, "MIXD00TST_R_20201680000_01D_MN_GLONASS.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "epoch,sv,accelX,accelY,accelZ,ageOp,clock_bias,"))
}

func TestNavPivot_XLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "eph.xlsx")
	_, _, err := run(t, "-f", "xlsx", "-o", out, "navpivot", filepath.Join(testdata, "MIXD00TST_R_20201680000_01D_MN.rnx"))
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"GLONASS", "GPS", "Galileo"}, f.GetSheetList())
}

func TestNavPivot_XLSXStdout(t *testing.T) {
	stdout, _, err := run(t, "-f", "xlsx", "-o", "-", "navpivot", filepath.Join(testdata, "MIXD00TST_R_20201680000_01D_MN.rnx"))
	require.NoError(t, err)
	assert.NoFileExists(t, "-")

	f, err := excelize.OpenReader(strings.NewReader(stdout))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"GLONASS", "GPS", "Galileo"}, f.GetSheetList())
}

func Test_createAndEncode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	err := createAndEncode(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, "epoch,sv\n"); err != nil {
			return err
		}
		return errors.New("disk full")
	})
	assert.ErrorContains(t, err, "disk full")
	assert.NoFileExists(t, path, "partly written file is removed")

	require.NoError(t, createAndEncode(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "epoch,sv\n")
		return err
	}))
	assert.FileExists(t, path)
}

func TestMet_Metrics(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "rnx2tab.prom")
	stdout, _, err := run(t, "--metrics-file", metricsFile, "met", filepath.Join(testdata, "BAUT00DEU_R_20223131300_01H_10S_MM.rnx"))
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(stdout, "\n"))

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gnsstab_reads_total{op="read meteo",result="ok"} 1`)
	assert.Contains(t, string(data), `gnsstab_rows_total{op="read meteo"} 5`)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"format", []string{"--format", "json", "obs", "x"}, "invalid flags"},
		{"no file", []string{"nav"}, "needs exactly one RINEX file"},
		{"missing", []string{"nav", filepath.Join(testdata, "nope.rnx")}, "file not found"},
		{"wrong kind", []string{"nav", filepath.Join(testdata, "brst155h.20o")}, "wrong record kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func Test_outputName(t *testing.T) {
	assert.Equal(t, "WTZR00DEU_R_20250010000_01D_30S_MO_obs.csv", outputName("/data/WTZR00DEU_R_20250010000_01D_30S_MO.crx.gz", "obs", "csv"))
	assert.Equal(t, "brdc1680.20n_GPS.arrow", outputName("brdc1680.20n", "GPS", "arrow"))
}
