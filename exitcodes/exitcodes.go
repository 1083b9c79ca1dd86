// Package exitcodes defines the standard exit codes used by covgate.
//
//   - Success (0): all coverage thresholds met
//   - ThresholdFailure (1): parsed coverage below a configured minimum
//   - RuntimeErr (2): pipeline failures such as tool invocation errors,
//     unparseable tool output, or filesystem problems
package exitcodes

const (
	Success          = 0
	ThresholdFailure = 1
	RuntimeErr       = 2
)
