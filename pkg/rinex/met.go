package rinex

import (
	"fmt"
	"math"
	"time"
)

// Meteorological observation type abbreviation PR, TD, etc.
type MeteoObsType string

// MeteoSensor describes a meteorological sensor.
type MeteoSensor struct {
	Model           string       // Model (manufacturer).
	Type            string       // The type.
	Accuracy        float64      // Accuracy with same units as obs values.
	ObservationType MeteoObsType // The observation type.
	Position        Coord        // Approx. position of the sensor - Geocentric coordinates X, Y, Z (ITRF or WGS84).
	Height          float64      // Ellipsoidal height.
}

// A MeteoHeader provides the RINEX Meteo Header information.
type MeteoHeader struct {
	RINEXVersion float32 // RINEX Format version
	RINEXType    string  // RINEX File type. M for Meteo

	Pgm   string    // name of program creating this file
	RunBy string    // name of agency creating this file
	Date  time.Time // Date and time of file creation.

	MarkerName, MarkerNumber string // antennas' marker name, *number and type

	DOI          string   // Digital Object Identifier (DOI) for data citation i.e. https://doi.org/<DOI-number>.
	Licenses     []string // Line(s) with the data license of use.
	StationInfos []string // Line(s) with the link(s) to persistent URL with the station metadata (site log, GeodesyML, etc).

	ObsTypes []MeteoObsType // The different observation types stored in the file.
	Sensors  []*MeteoSensor // Description of the meteo sensors.
	Comments []string
	Labels   []string // all Header Labels found.
}

// Sensor returns the sensor for the observation type, nil if the header describes none.
func (hdr *MeteoHeader) Sensor(typ MeteoObsType) *MeteoSensor {
	for _, sens := range hdr.Sensors {
		if sens.ObservationType == typ {
			return sens
		}
	}
	return nil
}

// MeteoEpoch contains a RINEX meteo epoch.
type MeteoEpoch struct {
	Time time.Time // The epoch time.
	Obs  []float64 // The observations in the same sequence as given in the header. Blank fields are NaN.
}

// MeteoValue is a single recorded meteo observation.
type MeteoValue struct {
	Type MeteoObsType
	Val  float64
}

// Values pairs the recorded observations of the epoch with the header types.
// Blank fields are left out. It is an error if the epoch has more values than types.
func (epo *MeteoEpoch) Values(types []MeteoObsType) ([]MeteoValue, error) {
	if len(epo.Obs) > len(types) {
		return nil, fmt.Errorf("epoch %s has %d values for %d observation types", epo.Time.Format(time.RFC3339), len(epo.Obs), len(types))
	}
	vals := make([]MeteoValue, 0, len(epo.Obs))
	for i, v := range epo.Obs {
		if math.IsNaN(v) {
			continue
		}
		vals = append(vals, MeteoValue{Type: types[i], Val: v})
	}
	return vals, nil
}

// parseSensorPosition parses the X, Y, Z and H fields (4F14.4) of a SENSOR POS XYZ/H record.
func parseSensorPosition(val string) (coord Coord, height float64, err error) {
	var f [4]float64
	for i := range f {
		if f[i], err = parseFloat(field(val, 14*i, 14)); err != nil {
			return coord, height, fmt.Errorf("rinex met header: sensor position: %v", err)
		}
	}
	return Coord{X: f[0], Y: f[1], Z: f[2]}, f[3], nil
}
