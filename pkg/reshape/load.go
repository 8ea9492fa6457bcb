package reshape

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/de-bkg/gnsstab/pkg/rinex"
	"github.com/sirupsen/logrus"
)

// load opens the RINEX file at path and checks that it holds records of the wanted kind.
// The kind is taken from the header, no data records are decoded here.
func load(op, path string, want rinex.Kind, o *options) (*rinex.File, error) {
	if err := checkReadable(path); err != nil {
		return nil, newError(op, path, ErrNotFound, err)
	}

	var openOpts []rinex.OpenOption
	if o.crx2rnx != "" {
		openOpts = append(openOpts, rinex.WithCRX2RNX(o.crx2rnx))
	}

	f, err := rinex.Open(path, openOpts...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, newError(op, path, ErrNotFound, err)
		}
		return nil, newError(op, path, ErrDecode, err)
	}
	if f.Kind != want {
		return nil, newError(op, path, ErrWrongRecordKind, fmt.Errorf("got %s data, want %s data", f.Kind, want))
	}
	checkFilename(f, o.logger)
	return f, nil
}

// checkReadable returns an error if path is not a regular file that can be opened for reading.
func checkReadable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	return r.Close()
}

// checkFilename warns if the RINEX filename announces other data than the header.
// Non-standard filenames are not checked.
func checkFilename(f *rinex.File, logger logrus.FieldLogger) {
	fil, err := rinex.NewFile(f.Path)
	if err != nil {
		logger.WithField("path", f.Path).Debugf("filename not checked: %v", err)
		return
	}

	var nameKind rinex.Kind
	switch {
	case fil.IsObsType():
		nameKind = rinex.KindObservation
	case fil.IsNavType():
		nameKind = rinex.KindNavigation
	case fil.IsMeteoType():
		nameKind = rinex.KindMeteo
	default:
		return
	}
	fields := logrus.Fields{"path": f.Path, "datatype": fil.DataType}
	if nameKind != f.Kind {
		logger.WithFields(fields).Warnf("filename says %s data, header says %s data", nameKind, f.Kind)
	}
	if fil.IsHatanakaCompressed() != f.Hatanaka {
		logger.WithFields(fields).Warnf("filename format %q does not match content, hatanaka: %t", fil.Format, f.Hatanaka)
	}
}
