package rinex

import (
	"math"
	"sort"
	"time"

	"github.com/de-bkg/gnsstab/pkg/gnss"
)

// The RINEX observation code that specifies frequency, signal and tracking mode like "L1C".
type ObsCode string

// Coord defines a XYZ coordinate.
type Coord struct {
	X, Y, Z float64
}

// IsNaN reports whether any component of the coordinate is NaN.
func (c Coord) IsNaN() bool {
	return math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z)
}

// CoordNEU defines a North-, East-, Up-coordinate or eccentrity
type CoordNEU struct {
	N, E, Up float64
}

// Obs specifies a RINEX observation.
type Obs struct {
	Code   ObsCode // The observation code, e.g. L1C.
	Val    float64 // The observation itself.
	LLI    int8    // LLI is the loss of lock indicator.
	HasLLI bool    // HasLLI is false if the LLI field was blank.
	SNR    int8    // SNR is the signal-to-noise ratio.
}

// SatObs contains all observations for a satellite per epoch.
type SatObs struct {
	Prn  gnss.PRN // The satellite number or PRN.
	Obss []Obs    // The observations in header order. Blank fields are not included.
}

// Get returns the observation for the given code.
func (so SatObs) Get(code ObsCode) (Obs, bool) {
	for _, o := range so.Obss {
		if o.Code == code {
			return o, true
		}
	}
	return Obs{}, false
}

// Epoch contains a RINEX obs data epoch.
type Epoch struct {
	Time    time.Time // The epoch time.
	Flag    int8      // The epoch flag 0:OK, 1:power failure between previous and current epoch, >1 : Special event.
	NumSat  uint8     // The number of satellites per epoch.
	ObsList []SatObs  // The list of observations per epoch.
}

// NumObs returns the number of observations in the epoch.
func (epo *Epoch) NumObs() int {
	n := 0
	for _, so := range epo.ObsList {
		n += len(so.Obss)
	}
	return n
}

// A ObsHeader provides the RINEX Observation Header information.
type ObsHeader struct {
	RINEXVersion float32 // RINEX Format version
	RINEXType    string  // RINEX File type. O for Obs
	// The header satellite system. Note that system is "Mixed" if more than one. Use SatSystems() to get a list of all used systems.
	SatSystem gnss.System

	Pgm   string    // name of program creating this file
	RunBy string    // name of agency creating this file
	Date  time.Time // Date and time of file creation.

	Comments []string // * comment lines

	MarkerName   string // The name of the antenna marker, usually the 9-character station ID.
	MarkerNumber string // The IERS DOMES number assigned to the station marker is expected.
	MarkerType   string // Type of the marker.

	Observer, Agency string

	ReceiverNumber, ReceiverType, ReceiverVersion string
	AntennaNumber, AntennaType                    string

	// Geocentric approximate marker position [m]. All components are NaN
	// if the header has no valid APPROX POSITION XYZ record.
	Position     Coord
	AntennaDelta CoordNEU // North,East,Up deltas in [m]

	ObsTypes map[gnss.System][]ObsCode // List of all observation types per GNSS.

	SignalStrengthUnit string
	Interval           float64 // Observation interval in seconds
	TimeOfFirstObs     time.Time
	TimeOfLastObs      time.Time
	GloSlots           map[gnss.PRN]int // GLONASS slot and frequency numbers.
	LeapSeconds        int              // The current number of leap seconds
	NSatellites        int              // Number of satellites, for which observations are stored in the file

	Labels []string // all Header Labels found.
}

// SatSystems returns all used satellite systems, sorted. The header must have been read before.
// For RINEX-2 files use SatSystem.
func (hdr *ObsHeader) SatSystems() gnss.Systems {
	if hdr.ObsTypes == nil {
		return gnss.Systems{}
	}
	sysList := make(gnss.Systems, 0, len(hdr.ObsTypes))
	for sys := range hdr.ObsTypes {
		sysList = append(sysList, sys)
	}
	sort.Slice(sysList, func(i, j int) bool { return sysList[i] < sysList[j] })
	return sysList
}

// obsTypesFor returns the observation types for the satellite system. RINEX-2 files
// list the types once for all systems.
func (hdr *ObsHeader) obsTypesFor(sys gnss.System) []ObsCode {
	if hdr.RINEXVersion < 3 {
		return hdr.ObsTypes[hdr.SatSystem]
	}
	return hdr.ObsTypes[sys]
}

// Convert strings to Obscodes.
func convStringsToObscodes(strs []string) []ObsCode {
	obscodes := make([]ObsCode, 0, len(strs))
	for _, str := range strs {
		obscodes = append(obscodes, ObsCode(str))
	}
	return obscodes
}
