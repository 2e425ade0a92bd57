package pdf

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/a3tai/labreport-summarizer/internal/pdf/security"
)

// Search discovers report files below a directory
type Search struct {
	validator *Validator
}

// NewSearch creates a new PDF search handler with the specified constraints
func NewSearch(maxFileSize int64) *Search {
	return &Search{
		validator: NewValidator(maxFileSize),
	}
}

// FindPDFs walks directory and returns every acceptable PDF sorted by path.
// The order is the upload order used for tie-breaking downstream.
func (s *Search) FindPDFs(directory string) ([]FileInfo, error) {
	if directory == "" {
		return nil, eris.New("directory cannot be empty")
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, eris.Wrap(err, "failed to resolve directory path")
	}
	if info, err := os.Stat(absDirectory); err != nil {
		return nil, eris.Wrapf(err, "directory %s", directory)
	} else if !info.IsDir() {
		return nil, eris.Errorf("not a directory: %s", directory)
	}

	guard, err := security.NewPathGuard(absDirectory)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	err = filepath.Walk(absDirectory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Continue walking even if we encounter an error with a specific file
			return nil //nolint:nilerr // Intentionally continue on file errors
		}

		if !guard.Contains(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || !HasPDFExtension(info.Name()) {
			return nil
		}

		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			zap.L().Debug("search: skipping file", zap.String("path", path), zap.Error(err))
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "error walking directory")
	}

	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i].Path) < strings.ToLower(files[j].Path)
	})
	return files, nil
}

// Sources converts discovered files to pipeline sources read lazily from disk
func Sources(files []FileInfo) []Source {
	out := make([]Source, len(files))
	for i, f := range files {
		out[i] = Source{Name: f.Name, Path: f.Path}
	}
	return out
}
