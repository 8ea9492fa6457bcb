package gnss

import (
	"fmt"
	"strconv"
	"strings"
)

// PRN specifies a GNSS satellite.
type PRN struct {
	Sys System // The satellite system.
	Num int8   // The satellite number.
}

// NewPRN returns a new PRN for the string prn that is e.g. G12.
// RINEX-2 files may leave the system blank for GPS, " 5" is therefore G05.
func NewPRN(prn string) (PRN, error) {
	if len(prn) < 2 {
		return PRN{}, fmt.Errorf("invalid satellite identifier: %q", prn)
	}
	abbr := prn[:1]
	if abbr == " " {
		abbr = "G"
	}
	sys, ok := systemPerAbbr[abbr[0]]
	if !ok {
		return PRN{}, fmt.Errorf("invalid satellite system: %q", prn)
	}
	snum, err := strconv.Atoi(strings.TrimSpace(prn[1:]))
	if err != nil {
		return PRN{}, fmt.Errorf("parse sat num: %q: %v", prn, err)
	}
	if snum < 1 || snum > 127 {
		return PRN{}, fmt.Errorf("check satellite number '%v%d'", sys, snum)
	}
	return PRN{Sys: sys, Num: int8(snum)}, nil
}

// String is a PRN Stringer.
func (prn PRN) String() string {
	return fmt.Sprintf("%s%02d", prn.Sys.Abbr(), prn.Num)
}
