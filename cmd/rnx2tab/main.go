// rnx2tab converts RINEX observation, navigation and meteo files into tables.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/de-bkg/gnsstab/pkg/reshape"
	"github.com/de-bkg/gnsstab/pkg/rinex"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	version = "0.1.0"
)

// config holds the global flags.
type config struct {
	Format      string `validate:"oneof=csv arrow xlsx"`
	Out         string
	LogLevel    string `validate:"oneof=trace debug info warn warning error"`
	MetricsFile string
	CRX2RNX     string `validate:"required"`
}

// use a single instance of Validate, it caches struct info
var validate = validator.New()

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	cfg := &config{}
	var registry *prometheus.Registry
	var metrics *reshape.Metrics

	app := &cli.App{
		Name:    "rnx2tab",
		Usage:   "convert RINEX files into tables",
		Version: version,
		Description: `Converts RINEX observation, navigation and meteo files, optionally compressed,
into long or per-constellation wide tables in CSV, Apache Arrow IPC or Excel format.

EXAMPLES:
    $ rnx2tab obs --lli WTZR00DEU_R_20250010000_01D_30S_MO.crx.gz >obs.csv
    $ rnx2tab --format arrow --out eph navpivot BRDC00WRD_S_20250010000_01D_MN.rnx.gz`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Value:       "csv",
				Usage:       "output format: csv, arrow or xlsx",
				Destination: &cfg.Format,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output file, a directory for navpivot with csv or arrow. Default: stdout for csv, derived from the input filename otherwise",
				Destination: &cfg.Out,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Value:       "info",
				Usage:       "log level: trace, debug, info, warn or error",
				Destination: &cfg.LogLevel,
			},
			&cli.StringFlag{
				Name:        "metrics-file",
				Usage:       "write Prometheus metrics in text format to this file",
				Destination: &cfg.MetricsFile,
			},
			&cli.StringFlag{
				Name:        "crx2rnx",
				Value:       "CRX2RNX",
				Usage:       "Hatanaka decompression program",
				EnvVars:     []string{"CRX2RNX"},
				Destination: &cfg.CRX2RNX,
			},
		},
		Before: func(c *cli.Context) error {
			if err := validate.Struct(cfg); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			lvl, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			log.SetOutput(c.App.ErrWriter)
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			rinex.SetLogger(log.StandardLogger())

			if cfg.MetricsFile != "" {
				registry = prometheus.NewRegistry()
				if metrics, err = reshape.NewMetrics(registry); err != nil {
					return err
				}
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if registry == nil {
				return nil
			}
			if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		},
	}

	opts := func(c *cli.Context) []reshape.Option {
		o := []reshape.Option{
			reshape.WithLogger(log.StandardLogger()),
			reshape.WithMetrics(metrics),
			reshape.WithCRX2RNX(cfg.CRX2RNX),
		}
		if c.Bool("lli") {
			o = append(o, reshape.WithLLI())
		}
		return o
	}

	app.Commands = []*cli.Command{
		{
			Name:      "obs",
			Usage:     "long table of observations: epoch, sv, observable, value",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "lli", Usage: "add the loss of lock indicator column"},
			},
			Action: func(c *cli.Context) error {
				path, err := inputPath(c)
				if err != nil {
					return err
				}
				tbl, pos, err := reshape.ReadObservations(path, opts(c)...)
				if err != nil {
					return err
				}
				if pos.IsNaN() {
					fmt.Fprintf(c.App.ErrWriter, "%s: no receiver position\n", path)
				} else {
					fmt.Fprintf(c.App.ErrWriter, "%s: receiver position X=%.4f Y=%.4f Z=%.4f\n", path, pos.X, pos.Y, pos.Z)
				}
				return writeTable(c, cfg, path, "obs", tbl)
			},
		},
		{
			Name:      "nav",
			Usage:     "long table of navigation parameters: sv, epoch, param, value",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				path, err := inputPath(c)
				if err != nil {
					return err
				}
				tbl, err := reshape.ReadNavigationLong(path, opts(c)...)
				if err != nil {
					return err
				}
				return writeTable(c, cfg, path, "nav", tbl)
			},
		},
		{
			Name:      "navpivot",
			Usage:     "one wide table of navigation parameters per constellation",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				path, err := inputPath(c)
				if err != nil {
					return err
				}
				tables, err := reshape.ReadNavigationByConstellation(path, opts(c)...)
				if err != nil {
					return err
				}
				log.Infof("%s: constellations: %s", path, strings.Join(reshape.Constellations(tables), ", "))
				return writeTables(c, cfg, path, tables)
			},
		},
		{
			Name:      "met",
			Usage:     "long table of meteorological observations: epoch, observable, value",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				path, err := inputPath(c)
				if err != nil {
					return err
				}
				tbl, err := reshape.ReadMeteo(path, opts(c)...)
				if err != nil {
					return err
				}
				return writeTable(c, cfg, path, "met", tbl)
			},
		},
	}
	return app
}

func inputPath(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s needs exactly one RINEX file", c.Command.Name)
	}
	return c.Args().First(), nil
}
