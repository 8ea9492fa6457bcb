// Package gnss contains common constants and type definitions.
package gnss

import (
	"encoding/json"
	"strings"
)

// System is a satellite system.
type System int

// Available satellite systems.
const (
	SysGPS System = iota + 1
	SysGLO
	SysGAL
	SysQZSS
	SysBDS
	SysIRNSS
	SysSBAS
	SysMIXED
)

// SysNavIC is the current name of the indian regional system IRNSS.
const SysNavIC = SysIRNSS

func (sys System) String() string {
	if sys < 0 || sys > SysMIXED {
		return ""
	}
	return [...]string{"", "GPS", "GLO", "GAL", "QZSS", "BDS", "IRNSS", "SBAS", "MIXED"}[sys]
}

// Abbr returns the systems' abbreviation used in RINEX.
func (sys System) Abbr() string {
	if sys < 0 || sys > SysMIXED {
		return ""
	}
	return [...]string{"", "G", "R", "E", "J", "C", "I", "S", "M"}[sys]
}

// Label returns the human readable constellation name used as table key,
// e.g. "GLONASS" or "BeiDou". Systems without a constellation return LabelUnknown.
func (sys System) Label() string {
	switch sys {
	case SysGPS:
		return LabelGPS
	case SysGLO:
		return LabelGLONASS
	case SysGAL:
		return LabelGalileo
	case SysQZSS:
		return LabelQZSS
	case SysBDS:
		return LabelBeiDou
	case SysIRNSS:
		return LabelIRNSS
	case SysSBAS:
		return LabelSBAS
	}
	return LabelUnknown
}

// MarshalJSON encodes the system by its RINEX abbreviation.
func (sys System) MarshalJSON() ([]byte, error) {
	return json.Marshal(sys.Abbr())
}

// Systems specifies a list of satellite systems.
type Systems []System

// String returns the contained systems in sitelog manner GPS+GLO+...
func (syss Systems) String() string {
	str := make([]string, 0, len(syss))
	for _, sys := range syss {
		str = append(str, sys.String())
	}
	return strings.Join(str, "+")
}
