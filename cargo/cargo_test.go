package cargo

import (
	"context"
	"strings"
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

func TestTest(t *testing.T) {
	t.Run("runs cargo test with the instrumentation env", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{})
		c := New("cargo", "/work/project", fake, testLogger())

		require.NoError(t, c.Test(context.Background()))

		calls := fake.CallsTo("cargo")
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"test"}, calls[0].Args)
		assert.Equal(t, "/work/project", calls[0].Dir)
		assert.Contains(t, calls[0].Env, "RUSTFLAGS=-C instrument-coverage")
	})

	t.Run("non-zero exit includes captured output", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{
			Stdout:   []byte("running 3 tests\n"),
			Stderr:   []byte("test it_works ... FAILED\n"),
			ExitCode: 101,
		})
		c := New("cargo", ".", fake, testLogger())

		err := c.Test(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "cargo test failed")
		assert.Contains(t, err.Error(), "running 3 tests")
		assert.Contains(t, err.Error(), "it_works ... FAILED")
	})

	t.Run("respects the configured binary", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("/opt/rust/bin/cargo", proc.Result{})
		c := New("/opt/rust/bin/cargo", ".", fake, testLogger())

		require.NoError(t, c.Test(context.Background()))
		assert.Len(t, fake.CallsTo("/opt/rust/bin/cargo"), 1)
	})
}

func TestTestBinaries(t *testing.T) {
	t.Run("collects filenames of test-profile artifacts only", func(t *testing.T) {
		stdout := strings.Join([]string{
			`{"profile":{"test":true},"filenames":["/tmp/bin_a"]}`,
			`{"profile":{"test":false},"filenames":["/tmp/bin_b"]}`,
		}, "\n")
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{Stdout: []byte(stdout)})
		c := New("cargo", ".", fake, testLogger())

		binaries, err := c.TestBinaries(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"/tmp/bin_a"}, binaries)

		calls := fake.CallsTo("cargo")
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"test", "--no-run", "--message-format=json"}, calls[0].Args)
		assert.Contains(t, calls[0].Env, "RUSTFLAGS=-C instrument-coverage")
	})

	t.Run("appends every filename of a test artifact", func(t *testing.T) {
		stdout := `{"profile":{"test":true},"filenames":["/tmp/bin_a","/tmp/bin_a.dSYM"]}`
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{Stdout: []byte(stdout)})
		c := New("cargo", ".", fake, testLogger())

		binaries, err := c.TestBinaries(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"/tmp/bin_a", "/tmp/bin_a.dSYM"}, binaries)
	})

	t.Run("skips events without a test profile shape", func(t *testing.T) {
		stdout := strings.Join([]string{
			`{"reason":"compiler-message","message":{"rendered":"warning"}}`,
			`{"reason":"build-finished","success":true}`,
			`{"profile":{"test":true},"filenames":["/tmp/bin_a"]}`,
		}, "\n")
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{Stdout: []byte(stdout)})
		c := New("cargo", ".", fake, testLogger())

		binaries, err := c.TestBinaries(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"/tmp/bin_a"}, binaries)
	})

	t.Run("malformed JSON line is fatal", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{Stdout: []byte("not json at all")})
		c := New("cargo", ".", fake, testLogger())

		_, err := c.TestBinaries(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to parse output as JSON")
	})

	t.Run("non-string filename entry is fatal", func(t *testing.T) {
		stdout := `{"profile":{"test":true},"filenames":[42]}`
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{Stdout: []byte(stdout)})
		c := New("cargo", ".", fake, testLogger())

		_, err := c.TestBinaries(context.Background())

		require.Error(t, err)
	})

	t.Run("build failure aborts with output", func(t *testing.T) {
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{
			Stderr:   []byte("error[E0308]: mismatched types\n"),
			ExitCode: 101,
		})
		c := New("cargo", ".", fake, testLogger())

		_, err := c.TestBinaries(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "E0308")
	})

	t.Run("empty and blank lines are ignored", func(t *testing.T) {
		stdout := "\n\n  \n" + `{"profile":{"test":true},"filenames":["/tmp/bin_a"]}` + "\n\n"
		fake := proc.NewFake()
		fake.StubResult("cargo", proc.Result{Stdout: []byte(stdout)})
		c := New("cargo", ".", fake, testLogger())

		binaries, err := c.TestBinaries(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"/tmp/bin_a"}, binaries)
	})
}
