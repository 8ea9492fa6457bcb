package rinex

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/de-bkg/gnsstab/pkg/gnss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEphemerides(t *testing.T, path string) (NavHeader, []*Ephemeris) {
	t.Helper()
	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	dec, err := NewNavDecoder(r)
	require.NoError(t, err)

	ephs := []*Ephemeris{}
	for dec.NextEphemeris() {
		ephs = append(ephs, dec.Ephemeris())
	}
	require.NoError(t, dec.Err())
	return dec.Header, ephs
}

func TestNavDecoder_readHeader(t *testing.T) {
	const header = `     3.04           N: GNSS NAV DATA    E: GALILEO          RINEX VERSION / TYPE
sbf2rin-13.4.3                          20200617 000148 UTC PGM / RUN BY / DATE
GAL    2.9250E+01  3.0469E-01  1.1047E-02  0.0000E+00       IONOSPHERIC CORR
     2                                                      MERGED FILE
COPY OF BRDC                                                COMMENT
                                                            END OF HEADER
`
	assert := assert.New(t)
	dec, err := NewNavDecoder(strings.NewReader(header))
	require.NoError(t, err)
	assert.Equal(float32(3.04), dec.Header.RINEXVersion)
	assert.Equal("N", dec.Header.RINEXType)
	assert.Equal(gnss.SysGAL, dec.Header.SatSystem)
	assert.Equal("sbf2rin-13.4.3", dec.Header.Pgm)
	assert.Equal(time.Date(2020, 6, 17, 0, 1, 48, 0, time.UTC), dec.Header.Date)
	assert.Equal(2, dec.Header.MergedFiles)
	assert.Equal([]string{"COPY OF BRDC"}, dec.Header.Comments)
	assert.False(dec.NextEphemeris())
	assert.NoError(dec.Err())
}

func TestNavDecoder_NoHeader(t *testing.T) {
	_, err := NewNavDecoder(strings.NewReader("G01 2020 06 16 20 10 00-3.872234374285E-04\n"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestNavDecoder_WrongType(t *testing.T) {
	const header = `     3.04           OBSERVATION DATA    M                   RINEX VERSION / TYPE
                                                            END OF HEADER
`
	_, err := NewNavDecoder(strings.NewReader(header))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNavDecoder_Mixedv3(t *testing.T) {
	assert := assert.New(t)
	hdr, ephs := readEphemerides(t, "testdata/MIXD00TST_R_20201680000_01D_MN.rnx")
	assert.Equal(gnss.SysMIXED, hdr.SatSystem)
	require.Len(t, ephs, 4)

	prns := []string{}
	for _, eph := range ephs {
		prns = append(prns, eph.PRN.String())
	}
	assert.Equal([]string{"G01", "R01", "E01", "G02"}, prns)

	gps := ephs[0]
	assert.Equal(time.Date(2020, 6, 16, 20, 10, 0, 0, time.UTC), gps.TOC)
	assert.Equal(-3.872234374285e-4, gps.ClockBias)
	assert.Equal(-8.526512829121e-12, gps.ClockDrift)
	assert.Equal(0.0, gps.ClockDriftRate)
	assert.Len(gps.Orbits, 26)
	assert.Equal([]string{"iode", "crs", "deltaN", "m0", "cuc", "e", "cus", "sqrta", "toe", "cic", "omega0", "cis",
		"i0", "crc", "omega", "omegaDot", "idot", "l2Codes", "week", "l2p", "accuracy", "health", "tgd", "iodc",
		"t_tm", "fitInt"}, gps.OrbitKeys())
	assert.Equal(53.0, gps.Orbits["iode"])
	assert.Equal(5.153636745453e3, gps.Orbits["sqrta"])
	assert.Equal(8.931145281531e-3, gps.Orbits["e"])
	assert.Equal(4.0, gps.Orbits["fitInt"])

	glo := ephs[1]
	assert.Equal(time.Date(2020, 6, 16, 20, 15, 0, 0, time.UTC), glo.TOC)
	assert.Equal(2.4486e5, glo.ClockDriftRate, "message frame time")
	assert.Len(glo.Orbits, 12)
	assert.Equal(2.078591064453e4, glo.Orbits["posX"])
	assert.Equal(1.0, glo.Orbits["freqNum"])

	gal := ephs[2]
	assert.Len(gal.Orbits, 24)
	assert.Equal(38.0, gal.Orbits["iodnav"])
	assert.Equal(517.0, gal.Orbits["dataSources"])
	assert.Equal(-2.561137080193e-9, gal.Orbits["bgdE5bE1"])
	assert.NotContains(gal.Orbits, "fitInt")

	// blank fit interval
	g02 := ephs[3]
	assert.Len(g02.Orbits, 25)
	assert.NotContains(g02.Orbits, "fitInt")
	assert.Equal(2.43678e5, g02.Orbits["t_tm"])
}

func TestNavDecoder_GPSv2(t *testing.T) {
	assert := assert.New(t)
	hdr, ephs := readEphemerides(t, "testdata/brst168u.20n")
	assert.Equal(float32(2.11), hdr.RINEXVersion)
	assert.Equal(gnss.SysGPS, hdr.SatSystem)
	require.Len(t, ephs, 2)

	eph := ephs[0]
	assert.Equal("G01", eph.PRN.String())
	assert.Equal(time.Date(2020, 6, 16, 20, 10, 0, 0, time.UTC), eph.TOC)
	assert.Equal(-3.872234374285e-4, eph.ClockBias)
	assert.Len(eph.Orbits, 26)
	assert.Equal(-1.122187500000e2, eph.Orbits["crs"])
	assert.Equal(2.11e3, eph.Orbits["week"])

	assert.Equal("G12", ephs[1].PRN.String())
	assert.Equal(time.Date(2020, 6, 16, 20, 0, 0, 0, time.UTC), ephs[1].TOC)
}

func TestNavDecoder_v4(t *testing.T) {
	assert := assert.New(t)
	hdr, ephs := readEphemerides(t, "testdata/MIXD00TST_R_20220010000_01D_MN.rnx")
	assert.Equal(float32(4.0), hdr.RINEXVersion)

	// STO and ION records and the unsupported BDS CNV1 message are skipped.
	require.Len(t, ephs, 2)
	assert.Equal("G01", ephs[0].PRN.String())
	assert.Equal("LNAV", ephs[0].MessageType)
	assert.Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), ephs[0].TOC)
	assert.Len(ephs[0].Orbits, 26)

	assert.Equal("E01", ephs[1].PRN.String())
	assert.Equal("INAV", ephs[1].MessageType)
	assert.Equal(time.Date(2022, 1, 1, 0, 10, 0, 0, time.UTC), ephs[1].TOC)
	assert.Len(ephs[1].Orbits, 24)
}

func TestNavDecoder_InvalidRecord(t *testing.T) {
	const data = `     3.04           N: GNSS NAV DATA    G: GPS              RINEX VERSION / TYPE
                                                            END OF HEADER
G01 2020 06 16 20 10 00-3.872234374285E-04-8.52651282912XE-12 0.000000000000E+00
`
	dec, err := NewNavDecoder(strings.NewReader(data))
	require.NoError(t, err)
	assert.False(t, dec.NextEphemeris())
	assert.Error(t, dec.Err())
}

func Test_layoutFor(t *testing.T) {
	tests := []struct {
		sys     gnss.System
		version float32
		msgType string
		wantLen int
		wantOk  bool
	}{
		{gnss.SysGPS, 3.04, "", 7, true},
		{gnss.SysQZSS, 3.04, "", 7, true},
		{gnss.SysGLO, 3.04, "", 3, true},
		{gnss.SysGLO, 3.05, "", 4, true},
		{gnss.SysSBAS, 2.11, "", 3, true},
		{gnss.SysGPS, 4.0, "CNAV", 8, true},
		{gnss.SysGPS, 4.0, "CNV2", 9, true},
		{gnss.SysBDS, 4.0, "CNV1", 0, false},
		{gnss.SysMIXED, 3.04, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.sys.String()+tt.msgType, func(t *testing.T) {
			layout, ok := layoutFor(tt.sys, tt.version, tt.msgType)
			assert.Equal(t, tt.wantOk, ok)
			assert.Len(t, layout, tt.wantLen)
		})
	}
}
