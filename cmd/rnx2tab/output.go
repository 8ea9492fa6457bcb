package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/de-bkg/gnsstab/pkg/reshape"
	"github.com/de-bkg/gnsstab/pkg/rinex"
	"github.com/de-bkg/gnsstab/pkg/table"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var fileExt = map[string]string{"csv": ".csv", "arrow": ".arrow", "xlsx": ".xlsx"}

// outputName derives an output filename from the input file, e.g. "WTZR00DEU_R_20250010000_01D_30S_MO_obs.csv".
func outputName(input, suffix, format string) string {
	fil := &rinex.RnxFil{Path: input}
	return fil.Stem() + "_" + suffix + fileExt[format]
}

func writeTable(c *cli.Context, cfg *config, input, suffix string, tbl *table.Table) error {
	out := cfg.Out
	if out == "-" || (out == "" && cfg.Format == "csv") {
		return encode(c.App.Writer, cfg.Format, suffix, tbl)
	}
	if out == "" {
		out = outputName(input, suffix, cfg.Format)
	}
	return createAndEncode(out, func(w io.Writer) error {
		return encode(w, cfg.Format, suffix, tbl)
	})
}

func encode(w io.Writer, format, sheet string, tbl *table.Table) error {
	switch format {
	case "csv":
		return table.WriteCSV(w, tbl)
	case "arrow":
		if f, ok := w.(*os.File); ok && isRegular(f) {
			return table.WriteArrow(f, tbl)
		}
		return table.WriteArrowStream(w, tbl)
	case "xlsx":
		return table.WriteXLSX(w, table.Sheet{Name: sheet, Table: tbl})
	}
	return fmt.Errorf("unknown format %q", format)
}

// writeTables writes the per-constellation tables. xlsx gives one workbook with a sheet
// per constellation, csv and arrow one file per constellation in the output directory.
func writeTables(c *cli.Context, cfg *config, input string, tables map[string]*table.Table) error {
	labels := reshape.Constellations(tables)
	if len(labels) == 0 {
		log.Warnf("%s: no ephemerides", input)
		return nil
	}

	if cfg.Format == "xlsx" {
		sheets := make([]table.Sheet, 0, len(labels))
		for _, label := range labels {
			sheets = append(sheets, table.Sheet{Name: label, Table: tables[label]})
		}
		out := cfg.Out
		if out == "-" {
			return table.WriteXLSX(c.App.Writer, sheets...)
		}
		if out == "" {
			out = outputName(input, "navpivot", cfg.Format)
		}
		return createAndEncode(out, func(w io.Writer) error {
			return table.WriteXLSX(w, sheets...)
		})
	}

	dir := cfg.Out
	if dir == "" || dir == "-" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, label := range labels {
		out := filepath.Join(dir, outputName(input, label, cfg.Format))
		tbl := tables[label]
		if err := createAndEncode(out, func(w io.Writer) error {
			return encode(w, cfg.Format, label, tbl)
		}); err != nil {
			return err
		}
	}
	return nil
}

// isRegular reports whether f is a regular file, so Arrow can write the seekable file format.
func isRegular(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode().IsRegular()
}

// createAndEncode writes path with enc. A partly written file is removed on error.
func createAndEncode(path string, enc func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := enc(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	log.Infof("written %s", path)
	return nil
}
