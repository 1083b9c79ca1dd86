package llvm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/steve-kaufman/simple-rust-cov/proc"
)

// Cov invokes the coverage summarization tool against a merged profile.
type Cov struct {
	Bin  string
	Proc proc.Runner
	Log  logrus.FieldLogger
}

// NewCov returns a Cov using the given report tool binary.
func NewCov(bin string, runner proc.Runner, log logrus.FieldLogger) *Cov {
	return &Cov{Bin: bin, Proc: runner, Log: log}
}

// Report runs the summarization tool against profile and the given object
// paths, returning the captured stdout and stderr. ignoreRegex excludes
// third-party sources from the summary. Region summaries are suppressed so
// the TOTAL row keeps the column layout ParseSummary expects.
func (c *Cov) Report(ctx context.Context, dir, profile string, objects []string, ignoreRegex string) (stdout, stderr string, err error) {
	args := []string{
		"report",
		"--use-color",
		"--show-region-summary=false",
		"--ignore-filename-regex=" + ignoreRegex,
		"-instr-profile", profile,
	}
	for _, object := range objects {
		args = append(args, "--object", object)
	}

	cmd := proc.Command{
		Name: c.Bin,
		Args: args,
		Dir:  dir,
	}
	c.Log.WithFields(logrus.Fields{
		"profile": profile,
		"objects": len(objects),
	}).Info("generating coverage report")

	res, err := c.Proc.Run(ctx, cmd)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to run rust-cov")
	}
	if !res.Success() {
		return "", "", errors.Errorf("rust-cov failed:\n%s", res.CombinedOutput())
	}

	return string(res.Stdout), string(res.Stderr), nil
}
