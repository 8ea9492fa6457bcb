package rinex

import (
	"time"

	"github.com/de-bkg/gnsstab/pkg/gnss"
)

// NavRecordType is the record type of RINEX-4 navigation data records.
type NavRecordType string

// RINEX-4 navigation record types.
const (
	NavRecordTypeEPH NavRecordType = "EPH" // Ephemeris.
	NavRecordTypeSTO NavRecordType = "STO" // System time offset.
	NavRecordTypeEOP NavRecordType = "EOP" // Earth orientation parameters.
	NavRecordTypeION NavRecordType = "ION" // Ionospheric model.
)

// Ephemeris is a broadcast ephemeris of any satellite system.
//
// The first record line holds three clock values. For GLONASS these are -TauN, GammaN
// and the message frame time, for SBAS aGf0, aGf1 and the transmission time.
// All further values are stored in Orbits, keyed by their record layout name.
// Values left blank in the file are not in Orbits.
type Ephemeris struct {
	PRN         gnss.PRN
	TOC         time.Time // Time of clock.
	MessageType string    // Navigation message type, RINEX-4 only, e.g. "LNAV".

	ClockBias      float64
	ClockDrift     float64
	ClockDriftRate float64

	Orbits    map[string]float64
	orbitKeys []string
}

// OrbitKeys returns the keys of Orbits in record layout order.
func (eph *Ephemeris) OrbitKeys() []string {
	return eph.orbitKeys
}

func (eph *Ephemeris) setOrbit(key string, val float64) {
	if eph.Orbits == nil {
		eph.Orbits = make(map[string]float64, 28)
	}
	if _, exists := eph.Orbits[key]; !exists {
		eph.orbitKeys = append(eph.orbitKeys, key)
	}
	eph.Orbits[key] = val
}

// NavHeader provides the RINEX Navigation Header information.
// All header parameters are optional and may comprise different types of ionospheric model parameters
// and time conversion parameters.
type NavHeader struct {
	RINEXVersion float32     // RINEX Format version
	RINEXType    string      // RINEX File type. N for Nav
	SatSystem    gnss.System // Satellite System. System is "Mixed" if more than one.

	Pgm   string    // name of program creating this file
	RunBy string    // name of agency creating this file
	Date  time.Time // Date and time of file creation.

	MergedFiles int      // Number of merged files.
	DOI         string   // Digital Object Identifier (DOI) for data citation.
	Licenses    []string // Data license of use.

	Comments []string // * comment lines

	Labels []string // all Header Labels found
}

// orbitLayout names the broadcast orbit fields, four per record line, following the
// first line with the clock values. Empty names are spare fields.
type orbitLayout [][4]string

var (
	layoutGPS = orbitLayout{
		{"iode", "crs", "deltaN", "m0"},
		{"cuc", "e", "cus", "sqrta"},
		{"toe", "cic", "omega0", "cis"},
		{"i0", "crc", "omega", "omegaDot"},
		{"idot", "l2Codes", "week", "l2p"},
		{"accuracy", "health", "tgd", "iodc"},
		{"t_tm", "fitInt", "", ""},
	}

	layoutGPSCNAV = orbitLayout{
		{"adot", "crs", "deltaN", "m0"},
		{"cuc", "e", "cus", "sqrta"},
		{"top", "cic", "omega0", "cis"},
		{"i0", "crc", "omega", "omegaDot"},
		{"idot", "deltaNDot", "uraiNed0", "uraiNed1"},
		{"uraiEd", "health", "tgd", "uraiNed2"},
		{"iscL1CA", "iscL2C", "iscL5I5", "iscL5Q5"},
		{"t_tm", "wnOp", "", ""},
	}

	layoutGPSCNV2 = orbitLayout{
		{"adot", "crs", "deltaN", "m0"},
		{"cuc", "e", "cus", "sqrta"},
		{"top", "cic", "omega0", "cis"},
		{"i0", "crc", "omega", "omegaDot"},
		{"idot", "deltaNDot", "uraiNed0", "uraiNed1"},
		{"uraiEd", "health", "tgd", "uraiNed2"},
		{"iscL1CA", "iscL2C", "iscL5I5", "iscL5Q5"},
		{"iscL1Cd", "iscL1Cp", "", ""},
		{"t_tm", "wnOp", "flags", ""},
	}

	layoutGAL = orbitLayout{
		{"iodnav", "crs", "deltaN", "m0"},
		{"cuc", "e", "cus", "sqrta"},
		{"toe", "cic", "omega0", "cis"},
		{"i0", "crc", "omega", "omegaDot"},
		{"idot", "dataSources", "week", ""},
		{"sisa", "health", "bgdE5aE1", "bgdE5bE1"},
		{"t_tm", "", "", ""},
	}

	layoutBDS = orbitLayout{
		{"aode", "crs", "deltaN", "m0"},
		{"cuc", "e", "cus", "sqrta"},
		{"toe", "cic", "omega0", "cis"},
		{"i0", "crc", "omega", "omegaDot"},
		{"idot", "", "week", ""},
		{"accuracy", "satH1", "tgd1b1b3", "tgd2b2b3"},
		{"t_tm", "aodc", "", ""},
	}

	layoutIRNSS = orbitLayout{
		{"iodec", "crs", "deltaN", "m0"},
		{"cuc", "e", "cus", "sqrta"},
		{"toe", "cic", "omega0", "cis"},
		{"i0", "crc", "omega", "omegaDot"},
		{"idot", "", "week", ""},
		{"accuracy", "health", "tgd", ""},
		{"t_tm", "", "", ""},
	}

	layoutGLO = orbitLayout{
		{"posX", "velX", "accelX", "health"},
		{"posY", "velY", "accelY", "freqNum"},
		{"posZ", "velZ", "accelZ", "ageOp"},
	}

	// GLONASS since RINEX 3.05.
	layoutGLO305 = orbitLayout{
		{"posX", "velX", "accelX", "health"},
		{"posY", "velY", "accelY", "freqNum"},
		{"posZ", "velZ", "accelZ", "ageOp"},
		{"statusFlags", "deltaTauN", "urai", "healthFlags"},
	}

	layoutSBAS = orbitLayout{
		{"posX", "velX", "accelX", "health"},
		{"posY", "velY", "accelY", "ura"},
		{"posZ", "velZ", "accelZ", "iodn"},
	}
)

// layoutFor returns the orbit layout for a satellite system. The message type is
// only given for RINEX-4 records. ok is false for unsupported messages.
func layoutFor(sys gnss.System, version float32, msgType string) (layout orbitLayout, ok bool) {
	if version >= 4 {
		switch {
		case (sys == gnss.SysGPS || sys == gnss.SysQZSS) && msgType == "LNAV":
			return layoutGPS, true
		case (sys == gnss.SysGPS || sys == gnss.SysQZSS) && msgType == "CNAV":
			return layoutGPSCNAV, true
		case (sys == gnss.SysGPS || sys == gnss.SysQZSS) && msgType == "CNV2":
			return layoutGPSCNV2, true
		case sys == gnss.SysGAL && (msgType == "INAV" || msgType == "FNAV"):
			return layoutGAL, true
		case sys == gnss.SysBDS && (msgType == "D1" || msgType == "D2"):
			return layoutBDS, true
		case sys == gnss.SysGLO && msgType == "FDMA":
			return layoutGLO305, true
		case sys == gnss.SysSBAS && msgType == "SBAS":
			return layoutSBAS, true
		case sys == gnss.SysNavIC && msgType == "LNAV":
			return layoutIRNSS, true
		}
		return nil, false
	}

	switch sys {
	case gnss.SysGPS, gnss.SysQZSS:
		return layoutGPS, true
	case gnss.SysGAL:
		return layoutGAL, true
	case gnss.SysBDS:
		return layoutBDS, true
	case gnss.SysNavIC:
		return layoutIRNSS, true
	case gnss.SysGLO:
		if version >= 3.05 {
			return layoutGLO305, true
		}
		return layoutGLO, true
	case gnss.SysSBAS:
		return layoutSBAS, true
	}
	return nil, false
}
