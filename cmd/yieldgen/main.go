// Command yieldgen rewrites generator functions into state machines.
//
// Run it in a package directory, usually through go:generate:
//
//	//go:generate go run github.com/tmr232/yieldgen/cmd/yieldgen
//
// Every file built only with the yieldgen tag gets a counterpart built
// without it, in which each generator is replaced by a holder type and one
// method per state.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tmr232/yieldgen/config"
	"github.com/tmr232/yieldgen/emit"
	"github.com/tmr232/yieldgen/frontend"
	"github.com/tmr232/yieldgen/lower"
)

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = ""
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func setLogger(l *zap.Logger) {
	frontend.SetLogger(l.Named("frontend"))
	lower.SetLogger(l.Named("lower"))
	emit.SetLogger(l.Named("emit"))
}

// settings merges yieldgen.yaml, the environment and the command line.
func settings(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadConfig(path)
		if err == nil {
			err = cfg.ApplyEnv()
		}
	} else {
		cfg, err = config.Discover(c.String("dir"))
	}
	if err != nil {
		return nil, err
	}
	if c.IsSet("tags") {
		cfg.Tags = config.SplitTags(c.String("tags"))
		if len(cfg.Tags) == 0 {
			return nil, errors.New("--tags: no build tags given")
		}
	}
	if c.IsSet("suffix") {
		cfg.Suffix = c.String("suffix")
	}
	if c.IsSet("jobs") {
		cfg.Jobs = c.Int("jobs")
	}
	if c.Bool("verbose") {
		cfg.Verbose = true
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := settings(c)
	if err != nil {
		return cli.NewExitError(err, 2)
	}
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return cli.NewExitError(err, 2)
	}
	defer logger.Sync() //nolint:errcheck
	setLogger(logger)

	wiz, err := emit.NewWizard(cfg.Tag())
	if err != nil {
		return cli.NewExitError(err, 2)
	}
	g := &generator{cfg: cfg, wiz: wiz, dryRun: c.Bool("dry-run"), out: os.Stdout, logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = g.Run(ctx, c.String("dir"))
	switch {
	case errors.Is(err, frontend.ErrIneligible):
		return cli.NewExitError("some generators could not be rewritten", 1)
	case err != nil:
		logger.Error("generation failed", zap.Error(err))
		return cli.NewExitError("", 1)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "yieldgen"
	app.Usage = "rewrite generator functions into state machines"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "dir", Value: ".", Usage: "package directory"},
		cli.StringFlag{Name: "tags", Usage: fmt.Sprintf("comma separated build tags, the first marks generator sources (default %q)", config.DefaultTag)},
		cli.StringFlag{Name: "suffix", Usage: fmt.Sprintf("suffix of generated files (default %q)", config.DefaultSuffix)},
		cli.StringFlag{Name: "config", Usage: "configuration file, instead of searching for yieldgen.yaml"},
		cli.IntFlag{Name: "jobs", Usage: "files rewritten at once, 0 for one per CPU"},
		cli.BoolFlag{Name: "dry-run", Usage: "print generated files instead of writing them"},
		cli.BoolFlag{Name: "verbose", Usage: "log debug output"},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
