package rinex

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileNamePattern(t *testing.T) {
	// Rnx2
	res := Rnx2FileNamePattern.FindStringSubmatch("adar335t.18d.Z") // obs hourly
	assert.Greater(t, len(res), 7)

	res = Rnx2FileNamePattern.FindStringSubmatch("bcln332d15.18o") // obs highrate
	assert.Greater(t, len(res), 7)

	// Rnx3
	res = Rnx3FileNamePattern.FindStringSubmatch("ALGO00CAN_R_20121601000_15M_01S_GO.rnx") // obs highrate
	assert.Greater(t, len(res), 7)

	res = Rnx3FileNamePattern.FindStringSubmatch("ALGO00CAN_R_20121600000_01D_MN.rnx.gz") // nav
	assert.Greater(t, len(res), 7)
}

func TestNewFile(t *testing.T) {
	assert := assert.New(t)

	f, err := NewFile("testdata/brst155h.20o")
	require.NoError(t, err)
	assert.Equal("BRST", f.FourCharID)
	assert.Equal("MO", f.DataType)
	assert.Equal("01H", f.FilePeriod)
	assert.Equal(time.Date(2020, 6, 3, 7, 0, 0, 0, time.UTC), f.StartTime)
	assert.True(f.IsObsType())

	f, err = NewFile("ALGO00CAN_R_20121600000_01D_MN.rnx.gz")
	require.NoError(t, err)
	assert.Equal("ALGO", f.FourCharID)
	assert.Equal("CAN", f.CountryCode)
	assert.Equal("MN", f.DataType)
	assert.Equal("rnx", f.Format)
	assert.Equal("gz", f.Compression)
	assert.Equal(time.Date(2012, 6, 8, 0, 0, 0, 0, time.UTC), f.StartTime)
	assert.True(f.IsNavType())
	assert.False(f.IsHatanakaCompressed())

	f, err = NewFile("baut313n.22m")
	require.NoError(t, err)
	assert.True(f.IsMeteoType())

	_, err = NewFile("foo.txt")
	assert.Error(err)
}

func TestRnxFil_Stem(t *testing.T) {
	tests := map[string]string{
		"testdata/ALGO00CAN_R_20121600000_01D_MN.rnx.gz": "ALGO00CAN_R_20121600000_01D_MN",
		"BRUX00BEL_R_20183101900_01H_30S_MO.crx":         "BRUX00BEL_R_20183101900_01H_30S_MO",
		"/data/brst155h.20o":                             "brst155h.20o",
		"adar335t.18d.Z":                                 "adar335t.18d",
		"some/other.file":                                "other",
	}
	for path, want := range tests {
		f := &RnxFil{Path: path}
		assert.Equal(t, want, f.Stem(), path)
	}
}

func TestParseDoy(t *testing.T) {
	assert := assert.New(t)

	// parse Rnx3 starttime
	tests := map[string]time.Time{
		"20121601000": time.Date(2012, 6, 8, 10, 0, 0, 0, time.UTC),
		"20192681900": time.Date(2019, 9, 25, 19, 0, 0, 0, time.UTC),
		"20192660415": time.Date(2019, 9, 23, 4, 15, 0, 0, time.UTC),
	}

	for k, v := range tests {
		ti, err := time.Parse(rnx3StartTimeFormat, k)
		assert.NoError(err)
		assert.Equal(v, ti)
	}
}

func Test_parseHeaderDate(t *testing.T) {
	tests := []struct {
		date string
		want time.Time
	}{
		{"20181106 200225 UTC", time.Date(2018, 11, 6, 20, 2, 25, 0, time.UTC)},
		{"20181106 200225", time.Date(2018, 11, 6, 20, 2, 25, 0, time.UTC)},
		{"06-Nov-18 20:02", time.Date(2018, 11, 6, 20, 2, 0, 0, time.UTC)},
		{"2018-11-06 20:02", time.Date(2018, 11, 6, 20, 2, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseHeaderDate(tt.date)
		assert.NoError(t, err, tt.date)
		assert.Equal(t, tt.want, got, tt.date)
	}

	_, err := parseHeaderDate("yesterday")
	assert.Error(t, err)
}

func Test_parseFloat(t *testing.T) {
	tests := map[string]float64{
		"-3.872234374285D-04": -3.872234374285e-4,
		" 5.300000000000E+01": 53,
		"   12.1":             12.1,
		"0.1118d-07":          0.1118e-7,
	}
	for s, want := range tests {
		got, err := parseFloat(s)
		assert.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := parseFloat("   ")
	assert.Error(t, err)
}

func ExampleNewFile() {
	f, err := NewFile("BRUX00BEL_R_20183101900_01H_30S_MO.crx.gz")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(f.FourCharID, f.DataType, f.IsHatanakaCompressed(), f.Stem())
	// Output: BRUX MO true BRUX00BEL_R_20183101900_01H_30S_MO
}
