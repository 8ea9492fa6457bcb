package rinex

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mholt/archiver/v3"
)

// Kind is the kind of records a RINEX file contains.
type Kind int

// RINEX file kinds.
const (
	KindUnknown Kind = iota
	KindObservation
	KindNavigation
	KindMeteo
	KindClock
)

func (k Kind) String() string {
	switch k {
	case KindObservation:
		return "observation"
	case KindNavigation:
		return "navigation"
	case KindMeteo:
		return "meteo"
	case KindClock:
		return "clock"
	}
	return "unknown"
}

// compressedExts are the file extensions handled by the archiver decompressors.
var compressedExts = map[string]bool{".gz": true, ".bz2": true, ".xz": true, ".lz4": true, ".sz": true, ".zst": true}

// File is a RINEX file that has been read into memory. The content is decompressed
// and Hatanaka expanded, so that the decoders can read it multiple times.
type File struct {
	Path     string
	Version  float32 // RINEX Format version.
	Kind     Kind
	Hatanaka bool // The file was Hatanaka compressed.
	data     []byte
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	crx2rnx string
}

// WithCRX2RNX sets the Hatanaka decompression program. Default is CRX2RNX in the PATH.
func WithCRX2RNX(tool string) OpenOption {
	return func(c *openConfig) {
		c.crx2rnx = tool
	}
}

// Open reads the RINEX file at path. Compressed files (.gz, .bz2, .xz, .lz4, .sz, .zst)
// are decompressed, Hatanaka compressed observation files are expanded with CRX2RNX.
// The kind of the file is determined from the RINEX VERSION / TYPE header line.
//
// An error wrapping os.ErrNotExist is returned if the file does not exist.
func Open(path string, opts ...OpenOption) (*File, error) {
	cfg := openConfig{crx2rnx: "CRX2RNX"}
	for _, opt := range opts {
		opt(&cfg)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := &File{Path: path, data: raw}
	if ext := strings.ToLower(filepath.Ext(path)); compressedExts[ext] {
		if f.data, err = decompress(path, raw); err != nil {
			return nil, err
		}
	}

	if isCompactRINEX(f.data) {
		f.Hatanaka = true
		if f.data, err = crx2rnx(cfg.crx2rnx, f.data); err != nil {
			return nil, err
		}
	}

	if f.Version, f.Kind, err = sniffKind(f.data); err != nil {
		return nil, err
	}
	logger.Debugf("rinex: opened %s: version %.2f, %s, hatanaka: %t", path, f.Version, f.Kind, f.Hatanaka)
	return f, nil
}

// Reader returns a reader for the uncompressed content.
func (f *File) Reader() io.Reader {
	return bytes.NewReader(f.data)
}

// ObsDecoder returns a decoder for the observation data.
func (f *File) ObsDecoder() (*ObsDecoder, error) {
	return NewObsDecoder(f.Reader())
}

// NavDecoder returns a decoder for the navigation data.
func (f *File) NavDecoder() (*NavDecoder, error) {
	return NewNavDecoder(f.Reader())
}

// MetDecoder returns a decoder for the meteo data.
func (f *File) MetDecoder() (*MetDecoder, error) {
	return NewMetDecoder(f.Reader())
}

func decompress(path string, raw []byte) ([]byte, error) {
	iface, err := archiver.ByExtension(path)
	if err != nil {
		return nil, fmt.Errorf("rinex: decompress %s: %v", filepath.Base(path), err)
	}
	d, ok := iface.(archiver.Decompressor)
	if !ok {
		return nil, fmt.Errorf("rinex: decompress %s: unsupported compression %T", filepath.Base(path), iface)
	}

	var out bytes.Buffer
	if err := d.Decompress(bytes.NewReader(raw), &out); err != nil {
		return nil, fmt.Errorf("rinex: decompress %s: %v", filepath.Base(path), err)
	}
	return out.Bytes(), nil
}

// isCompactRINEX returns true if the data starts with a Compact RINEX (Hatanaka) header.
func isCompactRINEX(data []byte) bool {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	return bytes.Contains(line, []byte("CRINEX VERS")) || bytes.Contains(line, []byte("COMPACT RINEX FORMAT"))
}

// sniffKind determines the RINEX version and the kind of records from the first header line.
func sniffKind(data []byte) (float32, Kind, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, KindUnknown, err
		}
		return 0, KindUnknown, ErrNoHeader
	}
	line := sc.Text()
	if len(line) < 61 || !strings.Contains(line[60:], "RINEX VERSION / TYPE") {
		return 0, KindUnknown, ErrNoHeader
	}

	f64, err := strconv.ParseFloat(strings.TrimSpace(line[:20]), 32)
	if err != nil {
		return 0, KindUnknown, fmt.Errorf("could not parse RINEX VERSION: %v", err)
	}
	version := float32(f64)

	switch typ := line[20:21]; typ {
	case "O":
		return version, KindObservation, nil
	case "N":
		return version, KindNavigation, nil
	case "M":
		return version, KindMeteo, nil
	case "C":
		if version < 3 && strings.Contains(line, "NAV") { // BDS nav in RINEX-2 style
			return version, KindNavigation, nil
		}
		return version, KindClock, nil
	case "G", "H", "E", "L", "J", "Q", "S":
		if version < 3 {
			return version, KindNavigation, nil
		}
	}
	return version, KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, line[20:21])
}
