// Package artifacts manages the on-disk lifecycle of coverage instrumentation
// artifacts: the raw .profraw fragments dropped by instrumented test processes
// and the merged .profdata profile.
package artifacts

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
)

// FragmentPattern matches the raw profile fragments the instrumented test
// processes write into the project root.
const FragmentPattern = "default*.profraw"

// profileName is the merged profile's filename inside the artifact dir.
const profileName = "unittest.profdata"

// Store tracks coverage artifacts for one project checkout. Dir is relative
// to ProjectDir and is rebuilt fresh every run.
type Store struct {
	ProjectDir string
	Dir        string
}

// NewStore returns a Store rooted at projectDir with artifacts under dir.
func NewStore(projectDir, dir string) *Store {
	return &Store{ProjectDir: projectDir, Dir: dir}
}

// ArtifactDir returns the absolute artifact directory path.
func (s *Store) ArtifactDir() string {
	return filepath.Join(s.ProjectDir, s.Dir)
}

// ProfilePath returns the merged profile's absolute path.
func (s *Store) ProfilePath() string {
	return filepath.Join(s.ArtifactDir(), profileName)
}

// Reset ensures the artifact directory exists and is empty. Idempotent:
// calling it twice leaves the same empty-directory end state.
func (s *Store) Reset() error {
	dir := s.ArtifactDir()
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "failed to clean artifact dir %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create artifact dir %s", dir)
	}
	return nil
}

// Fragments lists the raw profile fragments currently in the project root.
// The scan is non-recursive and matches regular files only.
func (s *Store) Fragments() ([]string, error) {
	matches, err := zglob.Glob(filepath.Join(s.ProjectDir, FragmentPattern))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list files in %s", s.ProjectDir)
	}

	var fragments []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to stat %s", m)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		fragments = append(fragments, m)
	}
	return fragments, nil
}

// PurgeFragments deletes every raw fragment in the project root and returns
// how many were removed. Deletion is irreversible; callers must only purge
// after the fragments have been merged.
func (s *Store) PurgeFragments() (int, error) {
	fragments, err := s.Fragments()
	if err != nil {
		return 0, err
	}
	for i, f := range fragments {
		if err := os.Remove(f); err != nil {
			return i, errors.Wrapf(err, "failed to delete fragment %s", f)
		}
	}
	return len(fragments), nil
}
