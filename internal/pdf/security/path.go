// Package security keeps file access inside the configured report directory.
package security

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrOutsideDirectory is returned for paths that escape the guarded directory
var ErrOutsideDirectory = eris.New("path is outside configured directory")

// PathGuard confines paths to one directory, following symlinks
type PathGuard struct {
	dir     string
	realDir string
}

// NewPathGuard creates a guard for directory. The directory need not exist yet.
func NewPathGuard(directory string) (*PathGuard, error) {
	if directory == "" {
		return nil, eris.New("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(directory)
	if err != nil {
		return nil, eris.Wrap(err, "failed to resolve configured directory")
	}
	abs = filepath.Clean(abs)

	real := abs
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		real = resolved
	}
	return &PathGuard{dir: abs, realDir: real}, nil
}

// Directory returns the absolute guarded directory
func (g *PathGuard) Directory() string {
	return g.dir
}

// Contains reports whether path, and its symlink target if any, stay inside
// the guarded directory
func (g *PathGuard) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)

	real := abs
	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return false
		}
		real = resolved
	}

	return g.within(abs) && g.within(real)
}

// Resolve turns a path relative to the guarded directory into an absolute
// one and rejects anything that escapes it
func (g *PathGuard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", eris.New("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.dir, path)
	}
	abs := filepath.Clean(path)
	if !g.Contains(abs) {
		return "", eris.Wrapf(ErrOutsideDirectory, "%s", path)
	}
	return abs, nil
}

func (g *PathGuard) within(path string) bool {
	for _, dir := range []string{g.dir, g.realDir} {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
