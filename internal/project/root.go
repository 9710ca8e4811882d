package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the design description file looked up by FindDesign.
const ManifestName = "svir.toml"

// FindDesign walks up from startDir to locate svir.toml.
func FindDesign(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindDesignRoot returns the directory containing svir.toml, if any.
func FindDesignRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindDesign(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}
