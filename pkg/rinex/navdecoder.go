package rinex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/de-bkg/gnsstab/pkg/gnss"
)

const (
	// TimeOfClockFormat is the time format within RINEX-3 Nav records.
	TimeOfClockFormat string = "2006  1  2 15  4  5"

	// TimeOfClockFormatv2 is the time format within RINEX-2 Nav records.
	TimeOfClockFormatv2 string = "06  1  2 15  4  5.0"
)

// A NavDecoder reads and decodes header and data records from a RINEX Nav input stream.
type NavDecoder struct {
	// The Header is valid after NewNavDecoder. The header must exist,
	// otherwise ErrNoHeader will be returned.
	Header  NavHeader
	sc      *bufio.Scanner
	eph     *Ephemeris
	lineNum int
	hold    bool // the current line is read again
	err     error
}

// NewNavDecoder creates a new decoder for RINEX Navigation data.
// The RINEX header will be read implicitly.
//
// It is the caller's responsibility to call Close on the underlying reader when done!
func NewNavDecoder(r io.Reader) (*NavDecoder, error) {
	dec := &NavDecoder{sc: newScanner(r)}
	dec.Header, dec.err = dec.readHeader()
	return dec, dec.err
}

// Err returns the first non-EOF error that was encountered by the decoder.
func (dec *NavDecoder) Err() error {
	if dec.err == io.EOF {
		return nil
	}
	return dec.err
}

// readHeader reads a RINEX Navigation header. If the Header does not exist,
// a ErrNoHeader error will be returned.
func (dec *NavDecoder) readHeader() (hdr NavHeader, err error) {
	maxLines := 300
readln:
	for dec.readLine() {
		line := dec.line()

		// The header always begins with "RINEX VERSION / TYPE".
		if dec.lineNum == 1 {
			if !strings.Contains(line, "RINEX VERSION / TYPE") {
				return hdr, ErrNoHeader
			}
		}
		if dec.lineNum > maxLines {
			return hdr, fmt.Errorf("reading header failed: line %d reached without finding end of header", maxLines)
		}
		if len(line) < 61 {
			continue
		}

		// RINEX files are ASCII
		val := line[:60]
		key := strings.TrimSpace(line[60:])

		hdr.Labels = append(hdr.Labels, key)

		switch key {
		case "RINEX VERSION / TYPE":
			if f64, err := strconv.ParseFloat(strings.TrimSpace(val[:20]), 32); err == nil {
				hdr.RINEXVersion = float32(f64)
			} else {
				return hdr, fmt.Errorf("could not parse RINEX VERSION: %v", err)
			}
			hdr.RINEXType = strings.TrimSpace(val[20:21])

			if hdr.RINEXVersion < 3 {
				// Only N and G are RINEX conform.
				switch hdr.RINEXType {
				case "N":
					hdr.SatSystem = gnss.SysGPS
				case "G":
					hdr.SatSystem = gnss.SysGLO
				case "E", "L":
					hdr.SatSystem = gnss.SysGAL
				case "C":
					hdr.SatSystem = gnss.SysBDS
				case "J", "Q":
					hdr.SatSystem = gnss.SysQZSS
				case "S", "H":
					hdr.SatSystem = gnss.SysSBAS
				default:
					return hdr, fmt.Errorf("%w: read RINEX-2 header: no navigation type: %s", ErrUnknownKind, hdr.RINEXType)
				}
				hdr.RINEXType = "N"
				continue
			}

			if hdr.RINEXType != "N" {
				return hdr, fmt.Errorf("%w: %q is not a navigation file", ErrUnknownKind, hdr.RINEXType)
			}
			s := strings.TrimSpace(val[40:41])
			if sys, ok := sysPerAbbr(s); ok {
				hdr.SatSystem = sys
			} else {
				return hdr, fmt.Errorf("read RINEX-3 header: invalid satellite system: %s", s)
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
		case "MERGED FILE":
			nStr := strings.TrimSpace(val[:9])
			if nStr != "" {
				n, err := strconv.Atoi(nStr)
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				hdr.MergedFiles = n
			}
		case "DOI":
			hdr.DOI = strings.TrimSpace(val)
		case "LICENSE OF USE":
			hdr.Licenses = append(hdr.Licenses, strings.TrimSpace(val))
		case "IONOSPHERIC CORR", "TIME SYSTEM CORR", "LEAP SECONDS", "ION ALPHA", "ION BETA", "DELTA-UTC: A0,A1,T,W",
			"CORR TO SYSTEM TIME", "D-UTC A0,A1,T,W,S,U", "STATION INFORMATION":
			// not needed for the ephemeris
		case "END OF HEADER":
			break readln
		default:
			logger.Debugf("Header field %q not handled yet", key)
		}
	}

	if err := dec.sc.Err(); err != nil {
		return hdr, err
	}

	if hdr.RINEXVersion == 0 {
		return hdr, fmt.Errorf("unknown RINEX Version")
	}

	return hdr, nil
}

// NextEphemeris reads the next Ephemeris into the buffer.
// It returns false when the scan stops, either by reaching the end of the input or an error.
func (dec *NavDecoder) NextEphemeris() bool {
	if dec.Header.RINEXVersion < 3 {
		return dec.nextEphemerisv2()
	}
	if dec.Header.RINEXVersion < 4 {
		return dec.nextEphemerisv3()
	}
	return dec.nextEphemerisv4()
}

// decode RINEX Version 2 ephemeris.
func (dec *NavDecoder) nextEphemerisv2() bool {
	for dec.readLine() {
		line := dec.line()
		if len(line) < 3 {
			continue
		}

		if strings.TrimSpace(line[:2]) == "" {
			logger.Warnf("rinex: line %d: stray line: %q", dec.lineNum, line)
			continue
		}

		layout, _ := layoutFor(dec.Header.SatSystem, dec.Header.RINEXVersion, "")
		lines, ok := dec.readRecordLines(len(layout))
		if !ok {
			dec.setErr(fmt.Errorf("rinex2: line %d: incomplete ephemeris", dec.lineNum))
			return false
		}

		eph, err := dec.decodeEPH(lines, dec.Header.SatSystem, layout)
		if err != nil {
			dec.setErr(err)
			return false
		}
		dec.eph = eph
		return true
	}

	if err := dec.sc.Err(); err != nil {
		dec.setErr(fmt.Errorf("rinex: read epochs: %v", err))
	}

	return false // EOF
}

// decode RINEX Version 3 ephemeris.
func (dec *NavDecoder) nextEphemerisv3() bool {
	for dec.readLine() {
		line := dec.line()
		if len(line) < 1 {
			continue
		}

		if !strings.ContainsAny(line[:1], "GREJCIS") {
			logger.Warnf("rinex: line %d: stream does not start with epoch line: %q", dec.lineNum, line) // must not be an error
			continue
		}

		sys, ok := sysPerAbbr(line[:1])
		if !ok {
			dec.setErr(fmt.Errorf("rinex: line %d: invalid satellite system: %q", dec.lineNum, line[:1]))
			return false
		}

		if len(line) < 23 { // ToC. simple test to prevent panicing.
			dec.setErr(fmt.Errorf("rinex: invalid line %d: %q", dec.lineNum, line))
			return false
		}

		layout, _ := layoutFor(sys, dec.Header.RINEXVersion, "")
		lines, ok := dec.readRecordLines(len(layout))
		if !ok {
			dec.setErr(fmt.Errorf("rinex: line %d: incomplete ephemeris", dec.lineNum))
			return false
		}

		eph, err := dec.decodeEPH(lines, sys, layout)
		if err != nil {
			dec.setErr(err)
			return false
		}
		dec.eph = eph
		return true
	}

	if err := dec.sc.Err(); err != nil {
		dec.setErr(fmt.Errorf("rinex: read epochs: %v", err))
	}

	return false // EOF
}

// decode RINEX Version 4 ephemeris. Records are introduced by a "> " line.
// Records other than EPH and unsupported message types are skipped.
func (dec *NavDecoder) nextEphemerisv4() bool {
	for dec.readLine() {
		line := dec.line()
		if len(line) < 1 {
			continue
		}

		if !strings.HasPrefix(line, "> ") {
			continue
		}

		if len(line) < 9 {
			dec.setErr(fmt.Errorf("rinex: invalid record line %d: %q", dec.lineNum, line))
			return false
		}

		rectyp := NavRecordType(line[2:5])
		if rectyp != NavRecordTypeEPH {
			continue
		}

		sys, ok := sysPerAbbr(line[6:7])
		if !ok {
			dec.setErr(fmt.Errorf("rinex: invalid satellite system in: %q (line %d)", line, dec.lineNum))
			return false
		}
		msgType := strings.TrimSpace(field(line, 10, 10))

		// The record ends at the next "> " line.
		lines := make([]string, 0, 10)
		for dec.readLine() {
			if strings.HasPrefix(dec.line(), "> ") {
				dec.unreadLine()
				break
			}
			lines = append(lines, dec.line())
		}

		layout, ok := layoutFor(sys, dec.Header.RINEXVersion, msgType)
		if !ok {
			logger.Debugf("rinex: line %d: skip %s %s record", dec.lineNum, sys, msgType)
			continue
		}
		if len(lines) < 1 {
			dec.setErr(fmt.Errorf("rinex: line %d: empty %s record", dec.lineNum, rectyp))
			return false
		}

		eph, err := dec.decodeEPH(lines, sys, layout)
		if err != nil {
			dec.setErr(err)
			return false
		}
		eph.MessageType = msgType
		dec.eph = eph
		return true
	}

	if err := dec.sc.Err(); err != nil {
		dec.setErr(fmt.Errorf("rinex: read epochs: %v", err))
	}

	return false // EOF
}

// Ephemeris returns the most recent ephemeris generated by a call to NextEphemeris.
func (dec *NavDecoder) Ephemeris() *Ephemeris {
	return dec.eph
}

// setErr adds an error.
func (dec *NavDecoder) setErr(err error) {
	dec.err = errors.Join(dec.err, err)
}

// readLine reads the next line into buffer. It returns false if an error
// occurs or EOF was reached.
func (dec *NavDecoder) readLine() bool {
	if dec.hold {
		dec.hold = false
		return true
	}
	if ok := dec.sc.Scan(); !ok {
		return ok
	}
	dec.lineNum++
	return true
}

// unreadLine lets the next readLine return the current line again.
func (dec *NavDecoder) unreadLine() {
	dec.hold = true
}

// line returns the current line.
func (dec *NavDecoder) line() string {
	return dec.sc.Text()
}

// readRecordLines returns the current line and the following n orbit lines.
func (dec *NavDecoder) readRecordLines(n int) ([]string, bool) {
	lines := make([]string, 0, n+1)
	lines = append(lines, dec.line())
	for i := 0; i < n; i++ {
		if ok := dec.readLine(); !ok {
			return lines, false
		}
		lines = append(lines, dec.line())
	}
	return lines, true
}

// decodeEPH decodes the lines of an ephemeris record. The first line contains
// PRN, TOC and the clock values, all further lines four orbit values each.
// For RINEX-2 the format is 3X,4D19.12 instead of 4X,4D19.12, so we have a shift of -1.
func (dec *NavDecoder) decodeEPH(lines []string, sys gnss.System, layout orbitLayout) (*Ephemeris, error) {
	if layout == nil {
		return nil, fmt.Errorf("rinex: not supported satellite system: %v", sys)
	}

	line := lines[0]
	eph := &Ephemeris{}
	var err error

	eph.PRN, err = dec.parsePRN(line)
	if err != nil {
		return nil, fmt.Errorf("parse prn: line %d: %q: %v", dec.lineNum, line, err)
	}

	eph.TOC, err = dec.parseToC(line)
	if err != nil {
		return nil, fmt.Errorf("parse ToC: line %d: %q: %v", dec.lineNum, line, err)
	}

	shift := 0
	if dec.Header.RINEXVersion < 3 {
		shift = -1
	}

	clock := [3]float64{}
	for i := range clock {
		clock[i], err = parseFloat(field(line, 23+shift+19*i, 19))
		if err != nil {
			return nil, fmt.Errorf("parse clock: %v: %q: %v", eph.PRN, line, err)
		}
	}
	eph.ClockBias, eph.ClockDrift, eph.ClockDriftRate = clock[0], clock[1], clock[2]

	for i, keys := range layout {
		if i+1 >= len(lines) {
			break
		}
		line := lines[i+1]
		for k, key := range keys {
			s := field(line, 4+shift+19*k, 19)
			if key == "" || strings.TrimSpace(s) == "" {
				continue
			}
			f64, err := parseFloat(s)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %v: %q: %v", key, eph.PRN, line, err)
			}
			eph.setOrbit(key, f64)
		}
	}

	return eph, nil
}

// parse the prn from the data record.
func (dec *NavDecoder) parsePRN(line string) (gnss.PRN, error) {
	if dec.Header.RINEXVersion < 3 {
		return gnss.NewPRN(dec.Header.SatSystem.Abbr() + field(line, 0, 2))
	}
	return gnss.NewPRN(field(line, 0, 3))
}

// parse the time of eph from the data record.
func (dec *NavDecoder) parseToC(line string) (time.Time, error) {
	if dec.Header.RINEXVersion < 3 {
		toc := field(line, 3, 19)
		if toc != "" && toc[0] == ' ' { // year can be only 1 char, so pad with 0.
			toc = "0" + toc[1:]
		}
		return time.Parse(TimeOfClockFormatv2, toc)
	}

	return time.Parse(TimeOfClockFormat, field(line, 4, 19))
}
