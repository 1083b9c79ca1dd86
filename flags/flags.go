// Package flags defines the covgate CLI surface.
package flags

import (
	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "COVGATE"

// prefixEnvVars returns the environment variable fallbacks for a flag.
func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	MinLineCoverage = &cli.Float64Flag{
		Name:    "min-line-coverage",
		Value:   1.0,
		EnvVars: prefixEnvVars("MIN_LINE_COVERAGE"),
		Usage:   "Minimum aggregate line coverage as a fraction in [0,1]",
	}
	MinBranchCoverage = &cli.Float64Flag{
		Name:    "min-branch-coverage",
		Value:   1.0,
		EnvVars: prefixEnvVars("MIN_BRANCH_COVERAGE"),
		Usage:   "Minimum aggregate branch coverage as a fraction in [0,1]",
	}
	CargoBinary = &cli.StringFlag{
		Name:    "cargo-binary",
		Value:   "cargo",
		EnvVars: prefixEnvVars("CARGO_BINARY"),
		Usage:   "Path to the cargo binary to use for building and running tests",
	}
	ProfdataBinary = &cli.StringFlag{
		Name:    "profdata-binary",
		Value:   "rust-profdata",
		EnvVars: prefixEnvVars("PROFDATA_BINARY"),
		Usage:   "Path to the profile merge tool",
	}
	CovBinary = &cli.StringFlag{
		Name:    "cov-binary",
		Value:   "rust-cov",
		EnvVars: prefixEnvVars("COV_BINARY"),
		Usage:   "Path to the coverage report tool",
	}
	ArtifactDir = &cli.StringFlag{
		Name:    "artifact-dir",
		Value:   ".profdata",
		EnvVars: prefixEnvVars("ARTIFACT_DIR"),
		Usage:   "Artifact subdirectory under the project root for the merged profile",
	}
	IgnoreFilenameRegex = &cli.StringFlag{
		Name:    "ignore-filename-regex",
		Value:   "/.cargo/registry",
		EnvVars: prefixEnvVars("IGNORE_FILENAME_REGEX"),
		Usage:   "Source filename pattern excluded from the coverage report",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: prefixEnvVars("CONFIG"),
		Usage:   "Path to a covgate.yaml config file (default: covgate.yaml in the project root, if present)",
	}
	MetricsTextfile = &cli.StringFlag{
		Name:    "metrics-textfile",
		Value:   "",
		EnvVars: prefixEnvVars("METRICS_TEXTFILE"),
		Usage:   "Write prometheus textfile metrics to this path after the run",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level: trace, debug, info, warn, error",
	}
	LogFormat = &cli.StringFlag{
		Name:    "log-format",
		Value:   "text",
		EnvVars: prefixEnvVars("LOG_FORMAT"),
		Usage:   "Log format: text or json",
	}
)

// Flags is the full CLI flag set.
var Flags = []cli.Flag{
	MinLineCoverage,
	MinBranchCoverage,
	CargoBinary,
	ProfdataBinary,
	CovBinary,
	ArtifactDir,
	IgnoreFilenameRegex,
	ConfigFile,
	MetricsTextfile,
	LogLevel,
	LogFormat,
}
