// Package covgate gates a Cargo project's test suite on code coverage: it
// runs the suite under instrumentation, merges the raw profiles, asks the
// LLVM coverage toolchain for an aggregate report, and fails the run when
// line or branch coverage falls below the configured minimums.
package covgate

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/steve-kaufman/simple-rust-cov/flags"
)

// defaultConfigFile is picked up from the project root when present and no
// explicit --config is given.
const defaultConfigFile = "covgate.yaml"

// Config is the immutable configuration for one gate run. It is constructed
// once from CLI input (with an optional project config file underneath) and
// passed to every stage.
type Config struct {
	ProjectDir          string
	ArtifactDir         string // relative to ProjectDir
	MinLineCoverage     float64
	MinBranchCoverage   float64
	IgnoreFilenameRegex string
	CargoBinary         string
	ProfdataBinary      string
	CovBinary           string
	MetricsTextfile     string

	Log logrus.FieldLogger
}

// fileConfig mirrors Config's project-level knobs in covgate.yaml. Pointer
// fields distinguish "unset" from zero values.
type fileConfig struct {
	MinLineCoverage     *float64 `yaml:"min_line_coverage"`
	MinBranchCoverage   *float64 `yaml:"min_branch_coverage"`
	ArtifactDir         *string  `yaml:"artifact_dir"`
	IgnoreFilenameRegex *string  `yaml:"ignore_filename_regex"`
	CargoBinary         *string  `yaml:"cargo_binary"`
	ProfdataBinary      *string  `yaml:"profdata_binary"`
	CovBinary           *string  `yaml:"cov_binary"`
}

// NewConfig builds the run configuration from the CLI context. Precedence
// per knob: explicitly set CLI flag, then project config file, then flag
// default.
func NewConfig(ctx *cli.Context, log logrus.FieldLogger) (*Config, error) {
	projectDir := ctx.Args().First()
	if projectDir == "" {
		projectDir = "."
	}
	absProjectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get absolute path for project dir %s", projectDir)
	}

	cfg := &Config{
		ProjectDir:          absProjectDir,
		ArtifactDir:         ctx.String(flags.ArtifactDir.Name),
		MinLineCoverage:     ctx.Float64(flags.MinLineCoverage.Name),
		MinBranchCoverage:   ctx.Float64(flags.MinBranchCoverage.Name),
		IgnoreFilenameRegex: ctx.String(flags.IgnoreFilenameRegex.Name),
		CargoBinary:         ctx.String(flags.CargoBinary.Name),
		ProfdataBinary:      ctx.String(flags.ProfdataBinary.Name),
		CovBinary:           ctx.String(flags.CovBinary.Name),
		MetricsTextfile:     ctx.String(flags.MetricsTextfile.Name),
		Log:                 log,
	}

	if err := cfg.applyFile(ctx); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile loads the project config file, if any, and fills in every knob
// the CLI didn't set explicitly.
func (c *Config) applyFile(ctx *cli.Context) error {
	path := ctx.String(flags.ConfigFile.Name)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(c.ProjectDir, defaultConfigFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	c.Log.WithField("config", path).Debug("loaded project config file")

	if fc.MinLineCoverage != nil && !ctx.IsSet(flags.MinLineCoverage.Name) {
		c.MinLineCoverage = *fc.MinLineCoverage
	}
	if fc.MinBranchCoverage != nil && !ctx.IsSet(flags.MinBranchCoverage.Name) {
		c.MinBranchCoverage = *fc.MinBranchCoverage
	}
	if fc.ArtifactDir != nil && !ctx.IsSet(flags.ArtifactDir.Name) {
		c.ArtifactDir = *fc.ArtifactDir
	}
	if fc.IgnoreFilenameRegex != nil && !ctx.IsSet(flags.IgnoreFilenameRegex.Name) {
		c.IgnoreFilenameRegex = *fc.IgnoreFilenameRegex
	}
	if fc.CargoBinary != nil && !ctx.IsSet(flags.CargoBinary.Name) {
		c.CargoBinary = *fc.CargoBinary
	}
	if fc.ProfdataBinary != nil && !ctx.IsSet(flags.ProfdataBinary.Name) {
		c.ProfdataBinary = *fc.ProfdataBinary
	}
	if fc.CovBinary != nil && !ctx.IsSet(flags.CovBinary.Name) {
		c.CovBinary = *fc.CovBinary
	}
	return nil
}

func (c *Config) validate() error {
	if c.MinLineCoverage < 0 || c.MinLineCoverage > 1 {
		return errors.Errorf("min line coverage must be a fraction in [0,1], got %v", c.MinLineCoverage)
	}
	if c.MinBranchCoverage < 0 || c.MinBranchCoverage > 1 {
		return errors.Errorf("min branch coverage must be a fraction in [0,1], got %v", c.MinBranchCoverage)
	}
	if c.ArtifactDir == "" {
		return errors.New("artifact dir is required")
	}
	if filepath.IsAbs(c.ArtifactDir) {
		return errors.Errorf("artifact dir must be relative to the project root, got %s", c.ArtifactDir)
	}
	return nil
}
