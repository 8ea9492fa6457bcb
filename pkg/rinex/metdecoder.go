package rinex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// metRecordLayout describes the fixed columns of a meteo data record.
type metRecordLayout struct {
	timeFormat string // epoch time, starting at column 1
	shortYear  bool   // two digit year, the leading digit may be blank
	firstValue int    // column of the first value
	contValue  int    // column of the first value in a continuation line
	perLine    int    // values per line
	width      int    // F7.1
}

var (
	metLayoutv3 = metRecordLayout{timeFormat: "2006  1  2 15  4  5", firstValue: 20, contValue: 4, perLine: 8, width: 7}
	metLayoutv2 = metRecordLayout{timeFormat: "06  1  2 15  4  5", shortYear: true, firstValue: 18, contValue: 4, perLine: 8, width: 7}
)

// MetDecoder reads and decodes header and data records from a RINEX Meteo input stream.
type MetDecoder struct {
	// The Header is valid after NewMetDecoder. The header must exist,
	// otherwise ErrNoHeader will be returned.
	Header  MeteoHeader
	sc      *bufio.Scanner
	layout  metRecordLayout
	epo     *MeteoEpoch
	lineNum int
	err     error
}

// NewMetDecoder creates a new decoder for RINEX Meteo data.
// The RINEX header will be read implicitly. The header must exist.
func NewMetDecoder(r io.Reader) (*MetDecoder, error) {
	dec := &MetDecoder{sc: newScanner(r)}
	if dec.err = dec.readHeader(); dec.err != nil {
		return dec, dec.err
	}
	dec.layout = metLayoutv3
	if dec.Header.RINEXVersion < 3 {
		dec.layout = metLayoutv2
	}
	return dec, nil
}

func (dec *MetDecoder) readHeader() error {
	hdr := &dec.Header
	var positions []string // SENSOR POS XYZ/H may precede its SENSOR MOD/TYPE/ACC
	for dec.scan() {
		line := dec.sc.Text()
		if dec.lineNum == 1 && !strings.Contains(line, "RINEX VERSION / TYPE") {
			return ErrNoHeader
		}
		if len(line) < 61 {
			continue
		}
		val, key := line[:60], strings.TrimSpace(line[60:])
		hdr.Labels = append(hdr.Labels, key)

		var err error
		switch key {
		case "RINEX VERSION / TYPE":
			err = hdr.setVersionType(val)
		case "PGM / RUN BY / DATE":
			hdr.setProgram(val)
		case "COMMENT":
			hdr.Comments = append(hdr.Comments, strings.TrimSpace(val))
		case "MARKER NAME":
			hdr.MarkerName = strings.TrimSpace(val)
		case "MARKER NUMBER":
			hdr.MarkerNumber = strings.TrimSpace(val[:20])
		case "DOI":
			hdr.DOI = strings.TrimSpace(val)
		case "LICENSE OF USE":
			hdr.Licenses = append(hdr.Licenses, strings.TrimSpace(val))
		case "STATION INFORMATION":
			hdr.StationInfos = append(hdr.StationInfos, strings.TrimSpace(val))
		case "# / TYPES OF OBSERV":
			for _, typ := range strings.Fields(val[6:]) {
				hdr.ObsTypes = append(hdr.ObsTypes, MeteoObsType(typ))
			}
		case "SENSOR MOD/TYPE/ACC":
			hdr.Sensors = append(hdr.Sensors, parseSensor(val))
		case "SENSOR POS XYZ/H":
			positions = append(positions, val)
		case "END OF HEADER":
			return hdr.placeSensors(positions)
		default:
			logger.Debugf("rinex met header: %q not handled", key)
		}
		if err != nil {
			return err
		}
	}
	if err := dec.sc.Err(); err != nil {
		return err
	}
	return fmt.Errorf("rinex met header: no END OF HEADER after %d lines", dec.lineNum)
}

func (hdr *MeteoHeader) setVersionType(val string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(val[:20]), 32)
	if err != nil {
		return fmt.Errorf("parse RINEX VERSION: %v", err)
	}
	hdr.RINEXVersion = float32(v)
	hdr.RINEXType = val[20:21]
	if hdr.RINEXType != "M" {
		return fmt.Errorf("%w: %q is not a meteo file", ErrUnknownKind, hdr.RINEXType)
	}
	return nil
}

// setProgram keeps the first PGM / RUN BY / DATE record, later ones are history.
func (hdr *MeteoHeader) setProgram(val string) {
	if hdr.Pgm != "" {
		return
	}
	hdr.Pgm = strings.TrimSpace(val[:20])
	hdr.RunBy = strings.TrimSpace(val[20:40])
	date, err := parseHeaderDate(strings.TrimSpace(val[40:]))
	if err != nil {
		logger.Debugf("rinex met header: date %q: %v", val[40:], err)
		return
	}
	hdr.Date = date
}

func parseSensor(val string) *MeteoSensor {
	sens := &MeteoSensor{
		Model:           strings.TrimSpace(val[:20]),
		Type:            strings.TrimSpace(val[20:40]),
		ObservationType: MeteoObsType(val[57:59]),
	}
	acc, err := parseFloat(val[40:53])
	if err != nil {
		logger.Warnf("rinex met header: sensor %s accuracy: %v", sens.ObservationType, err)
	}
	sens.Accuracy = acc
	return sens
}

// placeSensors assigns the SENSOR POS XYZ/H records to the sensors of the same observation type.
func (hdr *MeteoHeader) placeSensors(positions []string) error {
	for _, val := range positions {
		typ := MeteoObsType(val[57:59])
		sens := hdr.Sensor(typ)
		if sens == nil {
			return fmt.Errorf("rinex met header: position, but no sensor for %q", typ)
		}
		var err error
		if sens.Position, sens.Height, err = parseSensorPosition(val); err != nil {
			return err
		}
	}
	return nil
}

// Err returns the first non-EOF error that was encountered by the decoder.
func (dec *MetDecoder) Err() error {
	if dec.err == io.EOF {
		return nil
	}
	return dec.err
}

func (dec *MetDecoder) setErr(err error) {
	dec.err = errors.Join(dec.err, err)
}

func (dec *MetDecoder) scan() bool {
	if !dec.sc.Scan() {
		return false
	}
	dec.lineNum++
	return true
}

// NextEpoch reads the observations for the next epoch.
// It returns false when the scan stops, either by reaching the end of the input or an error.
func (dec *MetDecoder) NextEpoch() bool {
	for dec.scan() {
		line := dec.sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		epo, err := dec.decodeEpoch(line)
		if err != nil {
			dec.setErr(fmt.Errorf("rinex met: line %d: %v", dec.lineNum, err))
			return false
		}
		dec.epo = epo
		return true
	}
	if err := dec.sc.Err(); err != nil {
		dec.setErr(fmt.Errorf("rinex met: read epoch: %v", err))
	}
	return false
}

// decodeEpoch decodes the data record starting with line. Values wrap into continuation lines.
func (dec *MetDecoder) decodeEpoch(line string) (*MeteoEpoch, error) {
	lay := dec.layout
	if len(line) < lay.firstValue {
		return nil, fmt.Errorf("incomplete line: %q", line)
	}
	ts := line[1:lay.firstValue]
	if lay.shortYear && ts[0] == ' ' {
		ts = "0" + ts[1:]
	}
	epoTime, err := time.Parse(lay.timeFormat, ts)
	if err != nil {
		return nil, err
	}

	n := len(dec.Header.ObsTypes)
	epo := &MeteoEpoch{Time: epoTime, Obs: make([]float64, n)}
	col := lay.firstValue
	for i := 0; i < n; i++ {
		if i > 0 && i%lay.perLine == 0 {
			if !dec.scan() {
				return nil, fmt.Errorf("epoch %s: missing continuation line", epoTime.Format(time.RFC3339))
			}
			line, col = dec.sc.Text(), lay.contValue
		}
		epo.Obs[i], err = parseMeteoValue(field(line, col, lay.width))
		if err != nil {
			return nil, err
		}
		col += lay.width
	}
	return epo, nil
}

// parseMeteoValue returns NaN for a blank field.
func parseMeteoValue(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return math.NaN(), nil
	}
	return parseFloat(s)
}

// Epoch returns the most recent epoch generated by a call to NextEpoch.
func (dec *MetDecoder) Epoch() *MeteoEpoch {
	return dec.epo
}
