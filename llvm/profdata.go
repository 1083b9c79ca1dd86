// Package llvm wraps the LLVM coverage toolchain shipped with the Rust
// toolchain: rust-profdata for merging raw counter dumps and rust-cov for
// summarizing a merged profile against the binaries it was recorded from.
package llvm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/steve-kaufman/simple-rust-cov/proc"
)

// Profdata merges raw profile fragments into a single profile. Merge
// semantics are entirely the external tool's; this is a pass-through
// invocation.
type Profdata struct {
	Bin  string
	Proc proc.Runner
	Log  logrus.FieldLogger
}

// NewProfdata returns a Profdata using the given merge tool binary.
func NewProfdata(bin string, runner proc.Runner, log logrus.FieldLogger) *Profdata {
	return &Profdata{Bin: bin, Proc: runner, Log: log}
}

// Merge consolidates the given fragments into a profile at out, running the
// tool in dir. At least one fragment is required.
func (p *Profdata) Merge(ctx context.Context, dir string, fragments []string, out string) error {
	if len(fragments) == 0 {
		return errors.New("no raw profile fragments to merge; did the instrumented test run produce any?")
	}

	args := append([]string{"merge", "-sparse"}, fragments...)
	args = append(args, "-o", out)
	cmd := proc.Command{
		Name: p.Bin,
		Args: args,
		Dir:  dir,
	}
	p.Log.WithFields(logrus.Fields{
		"fragments": len(fragments),
		"out":       out,
	}).Info("merging raw profile fragments")

	res, err := p.Proc.Run(ctx, cmd)
	if err != nil {
		return errors.Wrap(err, "failed to run rust-profdata")
	}
	if !res.Success() {
		return errors.Errorf("rust-profdata failed:\n%s", res.CombinedOutput())
	}
	return nil
}
