// Package main is the imglocate command: annotate images with detected
// objects, search annotations by label, render them, or serve all of it over
// MCP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/imglocate/internal/annotation"
	"github.com/ironsheep/imglocate/internal/annotator"
	"github.com/ironsheep/imglocate/internal/config"
	"github.com/ironsheep/imglocate/internal/detection"
	"github.com/ironsheep/imglocate/internal/engine"
	"github.com/ironsheep/imglocate/internal/imaging"
	"github.com/ironsheep/imglocate/internal/logging"
	"github.com/ironsheep/imglocate/internal/search"
	"github.com/ironsheep/imglocate/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	flagConfig    = "config"
	flagVerbosity = "verbosity"
	flagForce     = "force"
	flagSimulate  = "simulate"
	flagCacheSize = "cache-size"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "imglocate: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	var logger *zap.SugaredLogger

	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print version information"}
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "imglocate %s\n", Version)
		fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
	}

	return &cli.App{
		Name:    "imglocate",
		Usage:   "locate objects in images",
		Version: Version,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Value:   config.DefaultPath(),
				Usage:   "load configuration from `FILE`",
			},
			&cli.IntFlag{
				Name:    flagVerbosity,
				Aliases: []string{"v"},
				Usage:   "logging level: 0 errors, 1 warnings, 2 info, 3 debug",
				EnvVars: []string{"IMGLOCATE_VERBOSITY"},
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			logger, err = logging.New("imglocate", c.Int(flagVerbosity))
			return err
		},
		After: func(*cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "annotate",
				Usage:     "detect objects and write <image>.txt annotations",
				ArgsUsage: "IMAGE...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    flagForce,
						Aliases: []string{"f"},
						Usage:   "regenerate annotations even when they are up to date",
					},
					&cli.BoolFlag{
						Name:    flagSimulate,
						Aliases: []string{"s"},
						Usage:   "only print annotations, do not write them",
					},
				},
				Action: func(c *cli.Context) error {
					return annotateAction(c, logger)
				},
			},
			{
				Name:      "search",
				Usage:     "list annotated images containing a label",
				ArgsUsage: "LABEL IMAGE...",
				Action: func(c *cli.Context) error {
					return searchAction(c, logger)
				},
			},
			{
				Name:      "draw",
				Usage:     "render annotations onto copies of the images",
				ArgsUsage: "IMAGE...",
				Action: func(c *cli.Context) error {
					return drawAction(c, logger)
				},
			},
			{
				Name:  "serve",
				Usage: "run the MCP server on stdin/stdout",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagCacheSize,
						Usage: "number of decoded images kept in memory",
						Value: imaging.DefaultCacheSize,
					},
				},
				Action: func(c *cli.Context) error {
					return serveAction(c, logger)
				},
			},
		},
	}
}

func imageArgs(args []string) []string {
	images := make([]string, len(args))
	for i, a := range args {
		images[i] = config.ExpandHome(a)
	}
	return images
}

// loadDetector reads the configuration, its label table and the engine it
// selects.
func loadDetector(c *cli.Context, logger *zap.SugaredLogger) (engine.Engine, detection.Params, error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return nil, detection.Params{}, err
	}
	logger.Debugw("loaded configuration", "config", cfg.String())

	labels, err := config.ReadLabels(cfg.Labels)
	if err != nil {
		return nil, detection.Params{}, err
	}
	logger.Debugw("loaded labels", "count", len(labels))

	eng, err := engine.New(cfg.EngineOptions(len(labels)))
	if err != nil {
		return nil, detection.Params{}, errors.Wrap(err, "load network")
	}

	return eng, detection.Params{
		Labels:              labels,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		NMSThreshold:        cfg.NMSThreshold,
	}, nil
}

func annotateAction(c *cli.Context, logger *zap.SugaredLogger) error {
	if c.NArg() == 0 {
		return errors.New("annotate needs at least one image")
	}

	eng, params, err := loadDetector(c, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warnw("failed to release engine", "error", err)
		}
	}()

	ann := annotator.New(eng, imaging.NewFileSource(), params,
		annotator.WithForce(c.Bool(flagForce)),
		annotator.WithDryRun(c.Bool(flagSimulate)),
		annotator.WithLogger(logger))
	report := ann.Annotate(c.Context, imageArgs(c.Args().Slice()))

	if ann.DryRun() {
		if err := printReport(c.App.Writer, report); err != nil {
			return err
		}
	}

	logger.Infow("annotation finished",
		"annotated", report.Count(annotator.Annotated),
		"unchanged", report.Count(annotator.Unchanged),
		"failed", report.Failed())
	if n := report.Failed(); n > 0 {
		return errors.Wrapf(report.Err(), "%d of %d images failed", n, len(report.Outcomes))
	}
	return nil
}

// printReport writes each successful image as an "<image>:" header followed
// by its TSV lines, with a blank line between images.
func printReport(w io.Writer, report *annotator.Report) error {
	first := true
	for _, o := range report.Outcomes {
		if o.Status == annotator.Failed {
			continue
		}
		if !first {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		first = false

		if _, err := fmt.Fprintf(w, "%s:\n", o.Image); err != nil {
			return err
		}
		if err := annotation.Encode(w, o.Detections); err != nil {
			return err
		}
	}
	return nil
}

func searchAction(c *cli.Context, logger *zap.SugaredLogger) error {
	if c.NArg() < 2 {
		return errors.New("search needs a label and at least one image")
	}
	label := c.Args().First()

	matches, err := search.New(logger).Search(label, imageArgs(c.Args().Tail()))
	for _, m := range matches {
		fmt.Fprintln(c.App.Writer, m)
	}
	return err
}

func drawAction(c *cli.Context, logger *zap.SugaredLogger) error {
	if c.NArg() == 0 {
		return errors.New("draw needs at least one image")
	}

	src := imaging.NewFileSource()
	var errs error
	for _, img := range imageArgs(c.Args().Slice()) {
		set, err := annotation.ReadSet(img)
		if errors.Is(err, annotation.ErrMissingAnnotation) {
			logger.Infow("no annotations, skipping", "image", img)
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, img))
			continue
		}

		out, err := src.SaveAnnotated(set.Image, set.Detections)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, img))
			continue
		}
		logger.Infow("rendered annotations", "image", img, "output", out, "boxes", len(set.Detections))
		fmt.Fprintln(c.App.Writer, out)
	}
	return errs
}

func serveAction(c *cli.Context, logger *zap.SugaredLogger) error {
	eng, params, err := loadDetector(c, logger)
	if err != nil {
		logger.Warnw("detection unavailable, serving existing annotations only", "error", err)
		eng = nil
	} else {
		defer func() {
			if err := eng.Close(); err != nil {
				logger.Warnw("failed to release engine", "error", err)
			}
		}()
	}

	logger.Infow("starting MCP server", "version", Version, "built", BuildTime, "commit", GitCommit)

	srv := server.New(eng, params,
		server.WithLogger(logger),
		server.WithCacheSize(c.Int(flagCacheSize)),
		server.WithVersion(Version))
	return srv.Run(c.Context)
}
