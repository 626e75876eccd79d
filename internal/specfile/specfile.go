// Package specfile reads and writes generated spec files and inspects an
// existing RSpec project layout.
package specfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"apiauto/pkg/logging"
)

// Mode selects how Write treats an existing file.
type Mode string

const (
	// ModeCreate refuses to touch an existing file.
	ModeCreate Mode = "create"
	// ModeUpdate replaces the file content.
	ModeUpdate Mode = "update"
	// ModeAppend adds the content after the existing content, separated by a blank line.
	ModeAppend Mode = "append"
)

// ParseMode validates s. An empty string selects ModeCreate.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeCreate, nil
	case ModeCreate, ModeUpdate, ModeAppend:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown write mode %q (expected create, update or append)", s)
}

// ExistsError is returned by Write in ModeCreate when the target exists.
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("file %s already exists, use update or append mode", e.Path)
}

// IsExists reports whether err is or wraps an ExistsError.
func IsExists(err error) bool {
	var existsErr *ExistsError
	return errors.As(err, &existsErr)
}

// File is the result of Read.
type File struct {
	Path    string `json:"filePath"`
	Content string `json:"content"`
	Exists  bool   `json:"exists"`
}

// Read returns the content of path. A missing file is reported through
// File.Exists, not as an error.
func Read(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{Path: path}, nil
		}
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{Path: path, Content: string(data), Exists: true}, nil
}

// Write stores content at path according to mode, creating parent
// directories as needed. It returns the content that ended up in the file.
func Write(path, content string, mode Mode) (string, error) {
	existing, err := Read(path)
	if err != nil {
		return "", err
	}

	final := content
	switch mode {
	case ModeCreate, "":
		if existing.Exists {
			return "", &ExistsError{Path: path}
		}
	case ModeUpdate:
	case ModeAppend:
		if existing.Exists {
			final = existing.Content + "\n\n" + content
		}
	default:
		return "", fmt.Errorf("unknown write mode %q", mode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(final), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	logging.Info("SpecFile", "Wrote %s (%s, %d bytes)", path, mode, len(final))
	return final, nil
}

// NonFunctionalPath returns the sibling path used for the non-functional
// spec of specPath: users_spec.rb becomes users_non_functional_spec.rb.
func NonFunctionalPath(specPath string) string {
	dir, base := filepath.Split(specPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.TrimSuffix(name, "_spec")
	return dir + name + "_non_functional_spec.rb"
}

// FindSpecFiles walks root for *_spec.rb files whose path contains pattern.
// An empty pattern matches every spec file; a missing root yields no files.
func FindSpecFiles(root, pattern string) ([]string, error) {
	var results []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			logging.Debug("SpecFile", "Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), "_spec.rb") {
			return nil
		}
		if pattern == "" || strings.Contains(path, pattern) {
			results = append(results, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}
	return results, nil
}
