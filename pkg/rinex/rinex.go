// Package rinex provides functions for reading RINEX files.
package rinex

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/de-bkg/gnsstab/pkg/gnss"
)

const (
	// epochTimeFormat is the time format for the epoch-time in RINEX3 files.
	epochTimeFormat string = "2006  1  2 15  4  5.0000000"

	// epochTimeFormatv2 is the time format for the epoch-time in RINEX2 files.
	epochTimeFormatv2 string = "06  1  2 15  4  5.0000000"

	// rnx3StartTimeFormat is the time format for the start time in RINEX3 file names.
	rnx3StartTimeFormat string = "20060021504"

	// The Date/Time format in the PGM / RUN BY / DATE header record.
	headerDateFormat string = "20060102 150405"

	// The Date/Time format with time zone in the PGM / RUN BY / DATE header record.
	//
	// Format: "yyyymmdd hhmmss zone" with 3–4 character code for the time zone.
	headerDateWithZoneFormat string = "20060102 150405 MST"

	// The RINEX-2 Date/Time format in the PGM / RUN BY / DATE header record.
	headerDateFormatv2 string = "02-Jan-06 15:04"
)

// errors
var (
	// ErrNoHeader is returned when reading RINEX data that does not begin with a RINEX Header.
	ErrNoHeader = errors.New("RINEX: no header")

	// ErrUnknownKind is returned if the RINEX file type could not be determined from the header.
	ErrUnknownKind = errors.New("RINEX: unknown file type")
)

var (
	// Rnx2FileNamePattern is the regex for RINEX2 filenames.
	Rnx2FileNamePattern = regexp.MustCompile(`(([a-z0-9]{4})(\d{3})([a-x0])(\d{2})?\.(\d{2})([domnglqfph]))\.?([a-zA-Z0-9]+)?`)

	// Rnx3FileNamePattern is the regex for RINEX3 filenames.
	Rnx3FileNamePattern = regexp.MustCompile(`((([A-Z0-9]{4})(\d)(\d)([A-Z]{3})_([RSU])_((\d{4})(\d{3})(\d{2})(\d{2}))_(\d{2}[A-Z])_?(\d{2}[CZSMHDU])?_([GREJCSIM][MNO]))\.(rnx|crx))\.?([a-zA-Z0-9]+)?`)

	// rnx2TypMap maps RINEX2 filename types to RINEX3 data-types.
	rnx2TypMap = map[string]string{"o": "MO", "d": "MO", "n": "GN", "g": "RN", "l": "EN", "q": "JN",
		"f": "CN", "h": "SN", "p": "MN", "m": "MM"}
)

// RnxFil contains the fields that can be derived from a RINEX filename.
type RnxFil struct {
	Path string

	FourCharID     string
	MonumentNumber int
	ReceiverNumber int
	CountryCode    string // ISO 3char
	StartTime      time.Time
	DataSource     string // [RSU]
	FilePeriod     string // 15M, 01D
	DataFreq       string // 30S, not for nav files
	DataType       string // The data type abbreviations GO, RO, MN, MM, ...
	Format         string // rnx, crx, etc. Attention: Format and Hatanaka are dependent!
	Compression    string // gz, ...
}

// NewFile returns a new RINEX file object. The filename will be parsed, an error
// is returned if it does not follow the RINEX naming conventions.
func NewFile(filepath string) (*RnxFil, error) {
	fil := &RnxFil{Path: filepath}
	err := fil.parseFilename()
	return fil, err
}

// IsObsType returns true if the file is a RINEX observation file type.
func (f *RnxFil) IsObsType() bool {
	return strings.HasSuffix(f.DataType, "O")
}

// IsNavType returns true if the file is a RINEX navigation file type.
func (f *RnxFil) IsNavType() bool {
	return strings.HasSuffix(f.DataType, "N")
}

// IsMeteoType returns true if the file is a RINEX meteo file type.
func (f *RnxFil) IsMeteoType() bool {
	return f.DataType == "MM"
}

// IsHatanakaCompressed returns true if the file is Hatanaka compressed by its name.
func (f *RnxFil) IsHatanakaCompressed() bool {
	return f.Format == "crx"
}

// Stem returns the RINEX filename without format and compression extensions,
// e.g. "BRDC00WRD_R_20250870000_01D_MN" or "brst155h.20n".
func (f *RnxFil) Stem() string {
	fn := filepath.Base(f.Path)
	if res := Rnx3FileNamePattern.FindStringSubmatch(fn); res != nil {
		return res[2]
	}
	if res := Rnx2FileNamePattern.FindStringSubmatch(fn); res != nil {
		return res[1]
	}
	return strings.TrimSuffix(fn, filepath.Ext(fn))
}

// parseFilename parses the specified filename, which must be a valid RINEX filename,
// and fills its fields.
func (f *RnxFil) parseFilename() error {
	if f.Path == "" {
		return fmt.Errorf("could not parse filename: Path is empty")
	}

	fn := filepath.Base(f.Path)
	if len(fn) > 20 { // Rnx3
		res := Rnx3FileNamePattern.FindStringSubmatch(fn)
		if res == nil {
			return fmt.Errorf("no RINEX-3 filename: %s", fn)
		}
		for k, v := range res {
			switch k {
			case 3:
				f.FourCharID = strings.ToUpper(v)
			case 4:
				i, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("could not parse MonumentNumber: %s", v)
				}
				f.MonumentNumber = i
			case 5:
				i, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("could not parse ReceiverNumber: %s", v)
				}
				f.ReceiverNumber = i
			case 6:
				f.CountryCode = strings.ToUpper(v)
			case 7:
				f.DataSource = strings.ToUpper(v)
			case 8:
				t, err := time.Parse(rnx3StartTimeFormat, v)
				if err != nil {
					return fmt.Errorf("could not parse start time: %s: %v", v, err)
				}
				f.StartTime = t
			case 13:
				f.FilePeriod = strings.ToUpper(v)
			case 14:
				f.DataFreq = strings.ToUpper(v)
			case 15:
				f.DataType = strings.ToUpper(v)
			case 16:
				f.Format = strings.ToLower(v)
			case 17:
				f.Compression = v
			}
		}
		return nil
	}

	// Rnx2
	res := Rnx2FileNamePattern.FindStringSubmatch(fn)
	if res == nil {
		return fmt.Errorf("no RINEX-2 filename: %s", fn)
	}
	for k, v := range res {
		switch k {
		case 2:
			f.FourCharID = strings.ToUpper(v)
		case 5: // highrate minutes
			if res[4] == "0" {
				f.FilePeriod = "01D"
				f.DataFreq = "30S"
			} else if v != "" {
				f.FilePeriod = "15M"
				f.DataFreq = "01S"
			} else {
				f.FilePeriod = "01H"
				f.DataFreq = "30S"
			}
		case 6: // yr
			doy, err := time.Parse("06002", v+res[3])
			if err != nil {
				return fmt.Errorf("could not parse DoY: %v", err)
			}
			hr, _ := getHourAsDigit(rune((res[4])[0]))
			min := 0
			if res[5] != "" && res[5] != "00" { // highrate minutes
				min, _ = strconv.Atoi(res[5])
			}
			f.StartTime = doy.Add(time.Duration(hr)*time.Hour + time.Duration(min)*time.Minute)
		case 7:
			typ, ok := rnx2TypMap[strings.ToLower(v)]
			if !ok {
				return fmt.Errorf("could not determine the DATA TYPE")
			}
			f.DataType = typ
			f.Format = "rnx"
			if strings.ToLower(v) == "d" {
				f.Format = "crx"
			}
		case 8:
			f.Compression = v
		}
	}

	return nil
}

// Parse the Date/Time in the PGM / RUN BY / DATE header record.
// It is recommended to use UTC as the time zone. Set zone to LCL if an unknown local time was used.
func parseHeaderDate(date string) (time.Time, error) {
	format := headerDateFormat
	if len(date) == 19 || len(date) == 20 {
		format = headerDateWithZoneFormat
	} else if len(date) == 15 && strings.Contains(date, "-") {
		format = headerDateFormatv2
	} else if len(date) == 18 && strings.Contains(date, "-") {
		format = "02-Jan-06 15:04:05" // unofficial!
	} else if len(date) == 17 && strings.Contains(date, "-") {
		format = "02-Jan-2006 15:04" // unofficial!
	} else if len(date) == 16 && strings.Contains(date, "-") {
		format = "2006-01-02 15:04" // unofficial!
	}

	ti, err := time.Parse(format, date)
	if err != nil {
		return time.Time{}, err
	}
	return ti, nil
}

// sysPerAbbr returns the satellite system for a RINEX system identifier.
func sysPerAbbr(abbr string) (gnss.System, bool) {
	return gnss.SystemByAbbr(abbr)
}

// parseFloat parses a RINEX float, that may use the Fortran exponent 'D'.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "dD") {
		s = strings.NewReplacer("D", "E", "d", "e").Replace(s)
	}
	return strconv.ParseFloat(s, 64)
}

func getHourAsDigit(char rune) (int, error) {
	hr := int(char) - int('a')
	if hr < 0 || hr > 23 {
		return 0, fmt.Errorf("could not get hour for %c", char)
	}
	return hr, nil
}
