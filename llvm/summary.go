package llvm

import (
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/pkg/errors"
)

// Summary holds the aggregate coverage fractions parsed from a report.
type Summary struct {
	LineCoverage   float64 // fraction in [0,1]
	BranchCoverage float64 // fraction in [0,1]
}

// TOTAL-row field offsets after a whitespace split, with region summaries
// suppressed. The row's column groups are:
//
//	TOTAL funcs missed-funcs func% lines missed-lines line% branches missed-branches branch%
//	  0     1        2         3     4       5          6      7           8            9
//
// If the report tool's layout changes, these offsets are the only thing that
// needs updating.
const (
	lineCoverageField   = 6
	branchCoverageField = 9
)

// ParseSummary extracts the aggregate line and branch coverage from the
// report tool's stdout. The output is requested with color, so ANSI escapes
// are stripped before scanning for the first line containing "TOTAL".
func ParseSummary(stdout string) (Summary, error) {
	totalLine, err := findTotalLine(stripansi.Strip(stdout))
	if err != nil {
		return Summary{}, err
	}

	fields := strings.Fields(totalLine)
	if len(fields) <= branchCoverageField {
		return Summary{}, errors.Errorf("TOTAL row has %d fields, expected at least %d: %q",
			len(fields), branchCoverageField+1, totalLine)
	}

	line, err := coverageFraction(fields[lineCoverageField])
	if err != nil {
		return Summary{}, err
	}
	branch, err := coverageFraction(fields[branchCoverageField])
	if err != nil {
		return Summary{}, err
	}

	return Summary{LineCoverage: line, BranchCoverage: branch}, nil
}

func findTotalLine(stdout string) (string, error) {
	for _, line := range strings.Split(stdout, "\n") {
		if strings.Contains(line, "TOTAL") {
			return line, nil
		}
	}
	return "", errors.Errorf("couldn't find coverage percentages in rust-cov output:\n%s", stdout)
}

// coverageFraction converts a percentage token from the TOTAL row into a
// fraction. The literal "-" means no applicable regions and counts as fully
// covered.
func coverageFraction(token string) (float64, error) {
	if token == "-" {
		return 1.0, nil
	}

	pct, _, found := strings.Cut(token, "%")
	if !found {
		return 0, errors.Errorf("unable to parse coverage percent from: %s", token)
	}
	value, err := strconv.ParseFloat(pct, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "coverage string was not a valid float: %s", token)
	}
	return value / 100, nil
}
