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

	"github.com/de-bkg/gnsstab/pkg/gnss"
)

// ObsDecoder reads and decodes header and data records from a RINEX Obs input stream.
type ObsDecoder struct {
	// The Header is valid after NewObsDecoder. The header must exist,
	// otherwise ErrNoHeader will be returned.
	Header  ObsHeader
	sc      *bufio.Scanner
	epo     *Epoch // the current epoch
	lineNum int
	err     error
}

// NewObsDecoder creates a new decoder for RINEX Observation data.
// The RINEX header will be read implicitly. The header must exist.
//
// It is the caller's responsibility to call Close on the underlying reader when done!
func NewObsDecoder(r io.Reader) (*ObsDecoder, error) {
	dec := &ObsDecoder{sc: newScanner(r)}
	dec.Header, dec.err = dec.readHeader()
	return dec, dec.err
}

// Err returns the first non-EOF error that was encountered by the decoder.
func (dec *ObsDecoder) Err() error {
	if dec.err == io.EOF {
		return nil
	}
	return dec.err
}

// readHeader reads a RINEX Observation header. If the Header does not exist,
// a ErrNoHeader error will be returned.
func (dec *ObsDecoder) readHeader() (hdr ObsHeader, err error) {
	hdr.ObsTypes = map[gnss.System][]ObsCode{}
	hdr.Position = Coord{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
	var rememberSys gnss.System
	maxLines := 900
readln:
	for dec.readLine() {
		line := dec.line()

		if dec.lineNum == 1 {
			if !strings.Contains(line, "RINEX VERS") { // "CRINEX VERS   / TYPE" or "RINEX VERSION / TYPE"
				err = ErrNoHeader
				return
			}
		}
		if dec.lineNum > maxLines {
			return hdr, fmt.Errorf("reading header failed: line %d reached without finding end of header", maxLines)
		}

		if len(line) < 61 {
			continue
		}

		val := line[:60] // RINEX files are ASCII
		key := strings.TrimSpace(line[60:])
		hdr.Labels = append(hdr.Labels, key)

		switch key {
		case "RINEX VERSION / TYPE":
			if f64, err := strconv.ParseFloat(strings.TrimSpace(val[:20]), 32); err == nil {
				hdr.RINEXVersion = float32(f64)
			} else {
				return hdr, fmt.Errorf("parse RINEX VERSION: %v", err)
			}
			hdr.RINEXType = strings.TrimSpace(val[20:21])
			abbr := strings.TrimSpace(val[40:41])
			if abbr == "" { // RINEX-2: blank means GPS
				abbr = "G"
			}
			if sys, ok := sysPerAbbr(abbr); ok {
				hdr.SatSystem = sys
			} else {
				err = fmt.Errorf("read header: invalid satellite system in line %d: %s", dec.lineNum, line)
				return
			}
		case "PGM / RUN BY / DATE":
			// Additional lines of this type can appear together after the second line, if needed to preserve the history of previous actions on the file.
			if hdr.Pgm != "" {
				continue
			}
			hdr.Pgm = strings.TrimSpace(val[:20])
			hdr.RunBy = strings.TrimSpace(val[20:40])
			if date, err := parseHeaderDate(strings.TrimSpace(val[40:])); err == nil {
				hdr.Date = date
			} else {
				logger.Debugf("parse header date: %q, %v", val[40:], err)
			}
		case "COMMENT":
			hdr.Comments = append(hdr.Comments, strings.TrimSpace(val))
		case "MARKER NAME":
			hdr.MarkerName = strings.TrimSpace(val)
		case "MARKER NUMBER":
			hdr.MarkerNumber = strings.TrimSpace(val[:20])
		case "MARKER TYPE":
			hdr.MarkerType = strings.TrimSpace(val[:20])
		case "OBSERVER / AGENCY":
			hdr.Observer = strings.TrimSpace(val[:20])
			hdr.Agency = strings.TrimSpace(val[20:])
		case "REC # / TYPE / VERS":
			hdr.ReceiverNumber = strings.TrimSpace(val[:20])
			hdr.ReceiverType = strings.TrimSpace(val[20:40])
			hdr.ReceiverVersion = strings.TrimSpace(val[40:])
		case "ANT # / TYPE":
			hdr.AntennaNumber = strings.TrimSpace(val[:20])
			hdr.AntennaType = strings.TrimSpace(val[20:40])
		case "APPROX POSITION XYZ":
			pos, err := parseCoord(val)
			if err != nil {
				logger.Warnf("rinex: line %d: approx. position: %v", dec.lineNum, err)
				continue
			}
			hdr.Position = pos
		case "ANTENNA: DELTA H/E/N":
			ecc := strings.Fields(val)
			if len(ecc) != 3 {
				return hdr, fmt.Errorf("parse antenna deltas from line: %s", line)
			}
			if f64, err := strconv.ParseFloat(ecc[0], 64); err == nil {
				hdr.AntennaDelta.Up = f64
			}
			if f64, err := strconv.ParseFloat(ecc[1], 64); err == nil {
				hdr.AntennaDelta.E = f64
			}
			if f64, err := strconv.ParseFloat(ecc[2], 64); err == nil {
				hdr.AntennaDelta.N = f64
			}
		case "SYS / # / OBS TYPES":
			var sys gnss.System
			if val[:1] == " " { // line continued
				sys = rememberSys
			} else {
				ok := false
				if sys, ok = sysPerAbbr(val[:1]); !ok {
					err = fmt.Errorf("read header: invalid satellite system: %q: line %d", val[:1], dec.lineNum)
					return
				}
				rememberSys = sys
				nTypes, err := strconv.Atoi(strings.TrimSpace(val[3:6]))
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				hdr.ObsTypes[sys] = make([]ObsCode, 0, nTypes)
			}
			obscodes := convStringsToObscodes(strings.Fields(val[7:]))
			hdr.ObsTypes[sys] = append(hdr.ObsTypes[sys], obscodes...)
		case "# / TYPES OF OBSERV": // RINEX-2
			sys := hdr.SatSystem
			if strings.TrimSpace(val[:6]) != "" { // number of obs types
				nTypes, err := strconv.Atoi(strings.TrimSpace(val[:6]))
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				hdr.ObsTypes[sys] = make([]ObsCode, 0, nTypes)
			}
			obscodes := convStringsToObscodes(strings.Fields(val[6:]))
			hdr.ObsTypes[sys] = append(hdr.ObsTypes[sys], obscodes...)
		case "SIGNAL STRENGTH UNIT":
			hdr.SignalStrengthUnit = strings.TrimSpace(val[:20])
		case "INTERVAL":
			if f64, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				hdr.Interval = f64
			}
		case "TIME OF FIRST OBS":
			t, err := time.Parse(epochTimeFormat, strings.TrimSpace(val[:43]))
			if err != nil {
				return hdr, fmt.Errorf("parse %q: %v", key, err)
			}
			hdr.TimeOfFirstObs = t
		case "TIME OF LAST OBS":
			t, err := time.Parse(epochTimeFormat, strings.TrimSpace(val[:43]))
			if err != nil {
				return hdr, fmt.Errorf("parse %q: %v", key, err)
			}
			hdr.TimeOfLastObs = t
		case "GLONASS SLOT / FRQ #":
			if strings.TrimSpace(val[:3]) != "" { // number of satellites
				nSat, err := strconv.Atoi(strings.TrimSpace(val[:3]))
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				hdr.GloSlots = make(map[gnss.PRN]int, nSat)
			}
			fields := strings.Fields(val[4:])
			for i := 0; i < len(fields)-1; i += 2 {
				prn, err := gnss.NewPRN(fields[i])
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				frq, err := strconv.Atoi(fields[i+1])
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				hdr.GloSlots[prn] = frq
			}
		case "LEAP SECONDS": // optional
			i, err := strconv.Atoi(strings.TrimSpace(val[:6]))
			if err != nil {
				return hdr, fmt.Errorf("parse %q: %v", key, err)
			}
			hdr.LeapSeconds = i
		case "# OF SATELLITES": // optional
			i, err := strconv.Atoi(strings.TrimSpace(val[:6]))
			if err != nil {
				return hdr, fmt.Errorf("parse %q: %v", key, err)
			}
			hdr.NSatellites = i
		case "WAVELENGTH FACT L1/2", "RCV CLOCK OFFS APPL", "SYS / PHASE SHIFT", "SYS / PHASE SHIFTS",
			"GLONASS COD/PHS/BIS", "PRN / # OF OBS", "SYS / DCBS APPLIED", "SYS / PCVS APPLIED",
			"SYS / SCALE FACTOR", "ANTENNA: DELTA X/Y/Z", "ANTENNA: B.SIGHT XYZ", "ANTENNA: PHASECENTER",
			"CENTER OF MASS: XYZ", "DOI", "LICENSE OF USE", "STATION INFORMATION",
			"CRINEX VERS   / TYPE", "CRINEX PROG / DATE":
			// known but not needed here
		case "END OF HEADER":
			break readln
		default:
			logger.Debugf("Header field %q not handled yet", key)
		}
	}

	if err = dec.sc.Err(); err != nil {
		return hdr, err
	}

	if hdr.RINEXVersion == 0 {
		return hdr, fmt.Errorf("unknown RINEX Version")
	}

	if hdr.RINEXType != "O" {
		return hdr, fmt.Errorf("%w: %q is not an observation file", ErrUnknownKind, hdr.RINEXType)
	}

	return hdr, err
}

// NextEpoch reads the observations for the next epoch.
// It returns false when the scan stops, either by reaching the end of the input or an error.
// Special events (epoch flag > 1) carry no observations and are skipped.
func (dec *ObsDecoder) NextEpoch() bool {
	if dec.Header.RINEXVersion < 3 {
		return dec.nextEpochv2()
	}
	return dec.nextEpoch()
}

// Read RINEX version 2 obs file.
func (dec *ObsDecoder) nextEpochv2() bool {
readln:
	for dec.readLine() {
		line := dec.line()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < 32 {
			dec.setErr(fmt.Errorf("rinex2: invalid epoch line %d: %q", dec.lineNum, line))
			return false
		}

		epoFlag, err := strconv.Atoi(line[28:29])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex2: parse epoch flag in line %d: %q", dec.lineNum, line))
			return false
		}

		// Number of satellites or number of special records.
		numSat, err := strconv.Atoi(strings.TrimSpace(line[29:32]))
		if err != nil {
			dec.setErr(fmt.Errorf("rinex2: line %d: %v", dec.lineNum, err))
			return false
		}

		if epoFlag >= 2 && epoFlag <= 5 {
			if ok := dec.skipLines(numSat); !ok {
				break readln
			}
			continue
		}

		epoTime, err := parseEpochTimev2(line[1:26])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex2: line %d: %v", dec.lineNum, err))
			return false
		}

		// Read list of PRNs
		pos := 32
		sats := make([]gnss.PRN, 0, numSat)
		for iSat := 0; iSat < numSat; iSat++ {
			if iSat > 0 && iSat%12 == 0 {
				if ok := dec.readLine(); !ok {
					break readln
				}
				line = dec.line()
				pos = 32
			}
			if len(line) < pos+3 {
				dec.setErr(fmt.Errorf("rinex2: missing satellite in line %d: %q", dec.lineNum, line))
				return false
			}

			prn, err := gnss.NewPRN(line[pos : pos+3])
			if err != nil {
				dec.setErr(fmt.Errorf("rinex2: new PRN in line %d: %q: %v", dec.lineNum, line, err))
				return false
			}
			sats = append(sats, prn)
			pos += 3
		}

		epo := &Epoch{Time: epoTime, Flag: int8(epoFlag), NumSat: uint8(numSat),
			ObsList: make([]SatObs, 0, numSat)}

		// Read observations
		obsTypes := dec.Header.obsTypesFor(dec.Header.SatSystem)
		for _, prn := range sats {
			if ok := dec.readLine(); !ok {
				break readln
			}
			line = dec.line()

			obss := make([]Obs, 0, len(obsTypes))
			pos := 0
			for ityp, typ := range obsTypes {
				if ityp > 0 && ityp%5 == 0 {
					if ok := dec.readLine(); !ok {
						break readln
					}
					line = dec.line()
					pos = 0
				}
				obs, ok, err := decodeObs(field(line, pos, 16))
				if err != nil {
					dec.setErr(fmt.Errorf("rinex2: parse %s observation in line %d: %q: %v", typ, dec.lineNum, line, err))
					return false
				}
				pos += 16
				if !ok {
					continue
				}
				obs.Code = typ
				obss = append(obss, obs)
			}
			epo.ObsList = append(epo.ObsList, SatObs{Prn: prn, Obss: obss})
		}

		if epoFlag == 6 { // cycle slip records
			continue
		}
		dec.epo = epo
		return true
	}

	if err := dec.sc.Err(); err != nil {
		dec.setErr(fmt.Errorf("rinex2: read epochs: %v", err))
	}

	return false // EOF
}

func (dec *ObsDecoder) nextEpoch() bool {
readln:
	for dec.readLine() {
		line := dec.line()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !strings.HasPrefix(line, "> ") {
			logger.Warnf("rinex: line %d: stream does not start with epoch line: %q", dec.lineNum, line) // must not be an error
			continue
		}
		if len(line) < 35 {
			dec.setErr(fmt.Errorf("rinex: invalid epoch line %d: %q", dec.lineNum, line))
			return false
		}

		epoFlag, err := strconv.Atoi(line[31:32])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex: parse epoch flag in line %d: %q: %v", dec.lineNum, line, err))
			return false
		}

		numSat, err := strconv.Atoi(strings.TrimSpace(line[32:35]))
		if err != nil {
			dec.setErr(fmt.Errorf("rinex: line %d: %v", dec.lineNum, err))
			return false
		}

		if epoFlag >= 2 && epoFlag <= 5 {
			if ok := dec.skipLines(numSat); !ok {
				break readln
			}
			continue
		}

		epoTime, err := time.Parse(epochTimeFormat, line[2:29])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex: line %d: %v", dec.lineNum, err))
			return false
		}

		epo := &Epoch{Time: epoTime, Flag: int8(epoFlag), NumSat: uint8(numSat),
			ObsList: make([]SatObs, 0, numSat)}

		// Read observations
		for ii := 1; ii <= numSat; ii++ {
			if ok := dec.readLine(); !ok {
				break readln
			}
			line = dec.line()
			if len(line) < 3 {
				dec.setErr(fmt.Errorf("rinex: invalid observation line %d: %q", dec.lineNum, line))
				return false
			}

			prn, err := gnss.NewPRN(line[0:3])
			if err != nil {
				dec.setErr(fmt.Errorf("rinex: parse sat num in line %d: %q: %v", dec.lineNum, line, err))
				return false
			}

			obsTypes := dec.Header.obsTypesFor(prn.Sys)
			obss := make([]Obs, 0, len(obsTypes))
			for ityp, typ := range obsTypes {
				obs, ok, err := decodeObs(field(line, 3+16*ityp, 16))
				if err != nil {
					dec.setErr(fmt.Errorf("rinex: parse %s observation in line %d: %q: %v", typ, dec.lineNum, line, err))
					return false
				}
				if !ok {
					continue
				}
				obs.Code = typ
				obss = append(obss, obs)
			}
			epo.ObsList = append(epo.ObsList, SatObs{Prn: prn, Obss: obss})
		}

		if epoFlag == 6 { // cycle slip records
			continue
		}
		dec.epo = epo
		return true
	}

	if err := dec.sc.Err(); err != nil {
		dec.setErr(fmt.Errorf("rinex: read epochs: %v", err))
	}

	return false // EOF
}

// Epoch returns the most recent epoch generated by a call to NextEpoch.
func (dec *ObsDecoder) Epoch() *Epoch {
	return dec.epo
}

// setErr adds an error.
func (dec *ObsDecoder) setErr(err error) {
	dec.err = errors.Join(dec.err, err)
}

// readLine reads the next line into buffer. It returns false if an error
// occurs or EOF was reached.
func (dec *ObsDecoder) readLine() bool {
	if ok := dec.sc.Scan(); !ok {
		return ok
	}
	dec.lineNum++
	return true
}

// skip i lines.
func (dec *ObsDecoder) skipLines(i int) bool {
	for l := 0; l < i; l++ {
		if ok := dec.readLine(); !ok {
			return false
		}
	}
	return true
}

// line returns the current line.
func (dec *ObsDecoder) line() string {
	return dec.sc.Text()
}

// decodeObs decodes an observation field of a GNSS obs file: F14.3,I1,I1.
// ok is false if the value is blank. The LLI is kept as recorded, also after a power failure epoch.
func decodeObs(s string) (obs Obs, ok bool, err error) {
	// Value
	valStr := strings.TrimSpace(field(s, 0, 14))
	if valStr == "" {
		return obs, false, nil
	}
	obs.Val, err = strconv.ParseFloat(valStr, 64)
	if err != nil {
		return obs, false, fmt.Errorf("parse obs: %q: %v", s, err)
	}

	// LLI
	if c := field(s, 14, 1); c != "" && c != " " {
		lli, err := strconv.Atoi(c)
		if err != nil {
			return obs, false, fmt.Errorf("parse LLI: %q: %v", s, err)
		}
		obs.LLI = int8(lli)
		obs.HasLLI = true
	}
	// SNR
	if c := field(s, 15, 1); c != "" && c != " " {
		snr, err := strconv.Atoi(c)
		if err != nil {
			return obs, false, fmt.Errorf("parse SNR: %q: %v", s, err)
		}
		obs.SNR = int8(snr)
	}
	return obs, true, nil
}

// parseCoord parses the three XYZ components of a header record.
func parseCoord(val string) (Coord, error) {
	fields := strings.Fields(val)
	if len(fields) != 3 {
		return Coord{}, fmt.Errorf("want 3 components, got %d: %q", len(fields), strings.TrimSpace(val))
	}
	var xyz [3]float64
	for i, f := range fields {
		f64, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Coord{}, err
		}
		xyz[i] = f64
	}
	return Coord{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// parseEpochTimev2 parses a RINEX-2 epoch time with a two-digit year.
func parseEpochTimev2(s string) (time.Time, error) {
	if s != "" && s[0] == ' ' { // year can be only 1 char, so pad with 0.
		s = "0" + s[1:]
	}
	return time.Parse(epochTimeFormatv2, s)
}

// field returns the substring of s of width n at pos, cut at the end of s.
func field(s string, pos, n int) string {
	if pos >= len(s) {
		return ""
	}
	end := pos + n
	if end > len(s) {
		end = len(s)
	}
	return s[pos:end]
}

// newScanner returns a line scanner with a buffer large enough for long header comments.
func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return sc
}
