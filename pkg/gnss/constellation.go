package gnss

// Constellation labels.
const (
	LabelGPS     = "GPS"
	LabelGLONASS = "GLONASS"
	LabelGalileo = "Galileo"
	LabelBeiDou  = "BeiDou"
	LabelQZSS    = "QZSS"
	LabelIRNSS   = "IRNSS"
	LabelSBAS    = "SBAS"
	LabelUnknown = "Unknown"
)

// systemPerAbbr maps the single-letter RINEX system identifier to a system.
var systemPerAbbr = map[byte]System{
	'G': SysGPS,
	'R': SysGLO,
	'E': SysGAL,
	'J': SysQZSS,
	'C': SysBDS,
	'I': SysIRNSS,
	'S': SysSBAS,
}

// SystemByAbbr returns the satellite system for the RINEX abbreviation, e.g. "G".
// The mixed abbreviation "M" is accepted.
func SystemByAbbr(abbr string) (System, bool) {
	if abbr == "M" {
		return SysMIXED, true
	}
	if len(abbr) != 1 {
		return 0, false
	}
	sys, ok := systemPerAbbr[abbr[0]]
	return sys, ok
}

// Constellation classifies a satellite identifier like "G05" or "E12" by its
// leading system letter. Unrecognized or empty identifiers are "Unknown".
func Constellation(sv string) string {
	if sv == "" {
		return LabelUnknown
	}
	sys, ok := systemPerAbbr[sv[0]]
	if !ok {
		return LabelUnknown
	}
	return sys.Label()
}
