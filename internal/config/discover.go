package config

import (
	"errors"
	"os"
	"path/filepath"
)

// FileName is the name of the study file searched for in parent directories.
const FileName = "convstudy.yaml"

// EnvVar names the environment variable pointing at a study file.
const EnvVar = "CONVSTUDY_CONFIG"

// ErrNoStudyFile is returned when no study file is found.
var ErrNoStudyFile = errors.New("convstudy.yaml not found in the working directory or any parent")

// Discover returns the study file to use: explicit if set, else the file
// named by $CONVSTUDY_CONFIG, else the nearest convstudy.yaml at or above
// startDir. ErrNoStudyFile means the built-in default applies.
func Discover(explicit, startDir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}
	return FindFrom(startDir)
}

// FindFrom walks up from the given directory until it finds convstudy.yaml.
func FindFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNoStudyFile
		}
		dir = parent
	}
}
