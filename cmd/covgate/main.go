// covgate runs a Cargo project's test suite under coverage instrumentation
// and fails when aggregate line or branch coverage falls below the configured
// minimums. Meant as a pass/fail gate in CI pipelines.
//
// Usage:
//
//	covgate [flags] [project-dir]
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	covgate "github.com/steve-kaufman/simple-rust-cov"
	"github.com/steve-kaufman/simple-rust-cov/exitcodes"
	"github.com/steve-kaufman/simple-rust-cov/flags"
	"github.com/steve-kaufman/simple-rust-cov/proc"
)

var (
	Version   = "v0.2.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "covgate"
	app.Usage = "Coverage gate for Cargo projects"
	app.Description = "covgate runs the test suite under coverage instrumentation and fails when line or branch coverage falls below the configured minimums"
	app.ArgsUsage = "[project-dir]"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if covgate.IsThresholdError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.ThresholdFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			}
		}
	}

	if err := app.Run(os.Args); err != nil {
		// The exit handler above terminates the process for pipeline errors;
		// anything left here is a CLI usage problem.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func run(ctx *cli.Context) error {
	log, err := newLogger(ctx.String(flags.LogLevel.Name), ctx.String(flags.LogFormat.Name))
	if err != nil {
		return covgate.NewRuntimeError(err)
	}

	cfg, err := covgate.NewConfig(ctx, log)
	if err != nil {
		return covgate.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	gate := covgate.New(cfg, proc.NewRunner(), os.Stdout)
	return gate.Run(ctx.Context)
}

func newLogger(level, format string) (logrus.FieldLogger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)

	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q (expected text or json)", format)
	}

	return log, nil
}
