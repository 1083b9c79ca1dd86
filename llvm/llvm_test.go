package llvm

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-kaufman/simple-rust-cov/proc"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestProfdataMerge(t *testing.T) {
	t.Run("passes sparse mode, fragments and destination", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("rust-profdata", proc.Result{})
		p := NewProfdata("rust-profdata", fake, testLogger())

		err := p.Merge(context.Background(), "/work/project",
			[]string{"default_1.profraw", "default_2.profraw"},
			".profdata/unittest.profdata")

		require.NoError(t, err)
		calls := fake.CallsTo("rust-profdata")
		require.Len(t, calls, 1)
		assert.Equal(t, []string{
			"merge", "-sparse",
			"default_1.profraw", "default_2.profraw",
			"-o", ".profdata/unittest.profdata",
		}, calls[0].Args)
		assert.Equal(t, "/work/project", calls[0].Dir)
	})

	t.Run("zero fragments is fatal before invoking the tool", func(t *testing.T) {
		fake := proc.NewFake()
		p := NewProfdata("rust-profdata", fake, testLogger())

		err := p.Merge(context.Background(), ".", nil, "out.profdata")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no raw profile fragments")
		assert.Empty(t, fake.Calls())
	})

	t.Run("non-zero exit includes tool output", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("rust-profdata", proc.Result{
			Stderr:   []byte("error: default_1.profraw: invalid instrumentation profile data\n"),
			ExitCode: 1,
		})
		p := NewProfdata("rust-profdata", fake, testLogger())

		err := p.Merge(context.Background(), ".", []string{"default_1.profraw"}, "out.profdata")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rust-profdata failed")
		assert.Contains(t, err.Error(), "invalid instrumentation profile data")
	})
}

func TestCovReport(t *testing.T) {
	t.Run("builds the report invocation with repeated objects", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("rust-cov", proc.Result{
			Stdout: []byte(sampleReport),
			Stderr: []byte("warning: something benign\n"),
		})
		c := NewCov("rust-cov", fake, testLogger())

		stdout, stderr, err := c.Report(context.Background(), "/work/project",
			".profdata/unittest.profdata",
			[]string{"/tmp/bin_a", "/tmp/bin_b"},
			"/.cargo/registry")

		require.NoError(t, err)
		assert.Equal(t, sampleReport, stdout)
		assert.Equal(t, "warning: something benign\n", stderr)

		calls := fake.CallsTo("rust-cov")
		require.Len(t, calls, 1)
		assert.Equal(t, []string{
			"report",
			"--use-color",
			"--show-region-summary=false",
			"--ignore-filename-regex=/.cargo/registry",
			"-instr-profile", ".profdata/unittest.profdata",
			"--object", "/tmp/bin_a",
			"--object", "/tmp/bin_b",
		}, calls[0].Args)
		assert.Equal(t, "/work/project", calls[0].Dir)
	})

	t.Run("non-zero exit includes tool output", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("rust-cov", proc.Result{
			Stderr:   []byte("error: no such file unittest.profdata\n"),
			ExitCode: 1,
		})
		c := NewCov("rust-cov", fake, testLogger())

		_, _, err := c.Report(context.Background(), ".", "unittest.profdata", nil, "/.cargo/registry")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "rust-cov failed")
		assert.Contains(t, err.Error(), "no such file")
	})
}
