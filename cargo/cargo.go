// Package cargo drives the project's build tool under coverage
// instrumentation: running the test suite and discovering the compiled test
// binaries the resulting profile corresponds to.
package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/steve-kaufman/simple-rust-cov/proc"
)

// instrumentFlags enables coverage counter instrumentation. Both Test and
// TestBinaries must run with the identical environment: the build tool
// recompiles artifacts when flags change, and the discovered binaries have to
// match the profile the test run produced.
const instrumentFlags = "RUSTFLAGS=-C instrument-coverage"

// Cargo invokes the cargo binary inside the project root.
type Cargo struct {
	Bin  string
	Dir  string
	Proc proc.Runner
	Log  logrus.FieldLogger
}

// New returns a Cargo bound to the given project directory.
func New(bin, dir string, runner proc.Runner, log logrus.FieldLogger) *Cargo {
	return &Cargo{Bin: bin, Dir: dir, Proc: runner, Log: log}
}

func (c *Cargo) instrumentEnv() []string {
	return append(os.Environ(), instrumentFlags)
}

// Test runs the full test suite with coverage instrumentation enabled.
// Success is defined purely by exit status; a non-zero exit aborts with the
// captured output, without distinguishing test failures from build failures.
func (c *Cargo) Test(ctx context.Context) error {
	cmd := proc.Command{
		Name: c.Bin,
		Args: []string{"test"},
		Dir:  c.Dir,
		Env:  c.instrumentEnv(),
	}
	c.Log.WithField("command", cmd.String()).Info("running instrumented test suite")

	res, err := c.Proc.Run(ctx, cmd)
	if err != nil {
		return errors.Wrap(err, "failed to run cargo test")
	}
	if !res.Success() {
		return errors.Errorf("cargo test failed:\n%s", res.CombinedOutput())
	}
	return nil
}

// buildEvent is the subset of cargo's JSON build-event stream we care about.
// Events whose profile is not a test profile are skipped.
type buildEvent struct {
	Profile struct {
		Test bool `json:"test"`
	} `json:"profile"`
	Filenames []string `json:"filenames"`
}

// TestBinaries re-invokes the build in compile-only mode with structured
// output and returns the paths of the compiled test binaries. It uses the
// same instrumentation environment as Test so the artifacts match the
// profile already on disk.
func (c *Cargo) TestBinaries(ctx context.Context) ([]string, error) {
	cmd := proc.Command{
		Name: c.Bin,
		Args: []string{"test", "--no-run", "--message-format=json"},
		Dir:  c.Dir,
		Env:  c.instrumentEnv(),
	}
	c.Log.WithField("command", cmd.String()).Info("discovering test binaries")

	res, err := c.Proc.Run(ctx, cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run cargo test --no-run")
	}
	if !res.Success() {
		return nil, errors.Errorf("cargo test --no-run failed:\n%s", res.CombinedOutput())
	}

	binaries, err := parseBuildEvents(res.Stdout)
	if err != nil {
		return nil, err
	}

	c.Log.WithField("count", len(binaries)).Debug("discovered test binaries")
	return binaries, nil
}

// parseBuildEvents parses one JSON object per line and collects the output
// filenames of every artifact built with a test profile.
func parseBuildEvents(output []byte) ([]string, error) {
	var binaries []string
	for _, line := range bytes.Split(output, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var event buildEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, errors.Wrapf(err, "unable to parse output as JSON: %s", line)
		}
		if !event.Profile.Test {
			continue
		}
		binaries = append(binaries, event.Filenames...)
	}
	return binaries, nil
}
