package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilePathValidator checks the paths pixels writes to: the response cache
// database, the search index and the download directory.
type FilePathValidator struct {
	// AllowedBaseDirs restricts paths to these trees. Empty allows any.
	AllowedBaseDirs []string
	// AllowHomeExpansion expands a leading ~/ to the home directory.
	AllowHomeExpansion bool
	// AllowRelativePaths keeps relative paths relative instead of resolving
	// them against the working directory.
	AllowRelativePaths bool
	MaxPathLength      int
}

// NewFilePathValidator creates a validator that only accepts paths under the
// pixels data and config directories, the user's picture and download
// folders, the temp dir, and any extraDirs.
func NewFilePathValidator(extraDirs ...string) *FilePathValidator {
	homeDir, _ := os.UserHomeDir()
	dirs := []string{
		filepath.Join(homeDir, ".pixels"),
		filepath.Join(homeDir, ".config", "pixels"),
		filepath.Join(homeDir, "Pictures"),
		filepath.Join(homeDir, "Downloads"),
		os.TempDir(),
	}
	for _, d := range extraDirs {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return &FilePathValidator{
		AllowedBaseDirs:    dirs,
		AllowHomeExpansion: true,
		MaxPathLength:      4096,
	}
}

// NewPermissiveFilePathValidator accepts any directory.
func NewPermissiveFilePathValidator() *FilePathValidator {
	return &FilePathValidator{
		AllowHomeExpansion: true,
		AllowRelativePaths: true,
		MaxPathLength:      4096,
	}
}

// ValidateAndSanitize returns the cleaned form of path or the first rule it
// breaks.
func (v *FilePathValidator) ValidateAndSanitize(path string) (string, error) {
	if path == "" {
		return "", errors.New("path cannot be empty")
	}
	if v.MaxPathLength > 0 && len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	if err := checkCharacters(path); err != nil {
		return "", err
	}

	normalized, err := v.normalize(path)
	if err != nil {
		return "", fmt.Errorf("path normalization failed: %w", err)
	}
	if err := v.checkBaseDirs(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

func checkCharacters(path string) error {
	for _, r := range path {
		if r == 0 {
			return errors.New("path contains null bytes")
		}
		if r < 32 && r != '\t' {
			return errors.New("path contains control characters")
		}
	}
	if strings.Contains(path, `\\`) || strings.HasPrefix(path, "//") {
		return errors.New("UNC paths are not allowed")
	}
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return errors.New("directory traversal not allowed")
		}
	}
	return nil
}

func (v *FilePathValidator) normalize(path string) (string, error) {
	switch {
	case v.AllowHomeExpansion && strings.HasPrefix(path, "~/"):
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	case strings.HasPrefix(path, "~"):
		return "", errors.New("tilde expansion not allowed or invalid tilde usage")
	}

	if !v.AllowRelativePaths && !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot make path absolute: %w", err)
		}
		path = abs
	}
	return filepath.Clean(path), nil
}

func (v *FilePathValidator) checkBaseDirs(path string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBase, absPath)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("path not within allowed directories: %v", v.AllowedBaseDirs)
}

// ValidateDirectory validates path as a directory, creating it when
// createIfNotExist is set.
func (v *FilePathValidator) ValidateDirectory(path string, createIfNotExist bool) (string, error) {
	validated, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(validated)
	switch {
	case os.IsNotExist(err):
		if createIfNotExist {
			if mkErr := os.MkdirAll(validated, 0o755); mkErr != nil {
				return "", fmt.Errorf("failed to create directory: %w", mkErr)
			}
		}
	case err != nil:
		return "", fmt.Errorf("checking directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("path exists but is not a directory: %s", validated)
	}
	return validated, nil
}

// ValidateFile validates path as a file location. An existing directory at
// path is rejected.
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	validated, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(validated); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", validated)
	}
	return validated, nil
}

// SafeFileName reduces name to characters that are safe in a file name on
// every platform the app runs on.
func SafeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "_"
	}
	return out
}
