package covgate

import (
	"fmt"

	"github.com/steve-kaufman/simple-rust-cov/llvm"
)

// Violation records one coverage metric that fell below its minimum.
type Violation struct {
	Metric   string  // "line" or "branch"
	Observed float64 // fraction in [0,1]
	Required float64 // fraction in [0,1]
}

func (v Violation) String() string {
	return fmt.Sprintf("%s coverage requirement not met (%v < %v)", v.Metric, v.Observed, v.Required)
}

// GateResult is the outcome of evaluating a coverage summary against the
// configured minimums.
type GateResult struct {
	Summary    llvm.Summary
	Violations []Violation
}

// Passed reports whether every metric met its minimum.
func (r GateResult) Passed() bool {
	return len(r.Violations) == 0
}

// Evaluate compares the parsed coverage summary against the configured
// minimums. Both metrics are checked independently so a run below both
// thresholds reports both violations, each with its own observed and
// required values.
func Evaluate(summary llvm.Summary, minLine, minBranch float64) GateResult {
	result := GateResult{Summary: summary}

	if summary.LineCoverage < minLine {
		result.Violations = append(result.Violations, Violation{
			Metric:   "line",
			Observed: summary.LineCoverage,
			Required: minLine,
		})
	}
	if summary.BranchCoverage < minBranch {
		result.Violations = append(result.Violations, Violation{
			Metric:   "branch",
			Observed: summary.BranchCoverage,
			Required: minBranch,
		})
	}

	return result
}
