package validation

import (
	"os"
	"path/filepath"
)

// PathHandler resolves the app's on-disk locations, falling back to the
// defaults under ~/.pixels when a setting is empty.
type PathHandler struct {
	validator *FilePathValidator
}

// NewSecurePathHandler restricts paths to the pixels directories plus
// extraDirs.
func NewSecurePathHandler(extraDirs ...string) *PathHandler {
	return &PathHandler{validator: NewFilePathValidator(extraDirs...)}
}

func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{validator: NewPermissiveFilePathValidator()}
}

func (ph *PathHandler) ExpandAndValidatePath(path string) (string, error) {
	return ph.validator.ValidateAndSanitize(path)
}

// CachePath returns the validated response cache database path.
func (ph *PathHandler) CachePath(userPath string) (string, error) {
	if userPath == "" {
		dir, err := dataDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(dir, "cache.db")
	}
	p, err := ph.validator.ValidateFile(userPath)
	if err != nil {
		return "", err
	}
	if _, err := ph.validator.ValidateDirectory(filepath.Dir(p), true); err != nil {
		return "", err
	}
	return p, nil
}

// IndexPath returns the validated search index directory. bleve creates the
// directory itself.
func (ph *PathHandler) IndexPath(userPath string) (string, error) {
	if userPath == "" {
		dir, err := dataDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(dir, "index.bleve")
	}
	return ph.validator.ValidateDirectory(userPath, false)
}

// DownloadDir validates the download directory and creates it.
func (ph *PathHandler) DownloadDir(userPath string) (string, error) {
	if userPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(home, "Pictures", "pixels")
	}
	return ph.validator.ValidateDirectory(userPath, true)
}

// EnsureSecureDirectory creates a directory safely after validation
func (ph *PathHandler) EnsureSecureDirectory(path string) (string, error) {
	return ph.validator.ValidateDirectory(path, true)
}

func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pixels"), nil
}
