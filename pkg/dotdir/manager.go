// Package dotdir manages the .ragbot/ and ~/.ragbot directories.
//
// The dot directory holds the persistent state for a ragbot installation:
// config.toml, the chunk/vector SQLite databases, and the memory ledger
// files. A local ./.ragbot/ directory takes precedence over ~/.ragbot/ so
// state can be kept per project.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the ragbot directory.
	dirName = ".ragbot"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .ragbot/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.ragbot/ dir
//  3. Home ~/.ragbot/ dir
//  4. If none found, attempt to create ~/.ragbot/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating ragbot directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// localDirExists checks whether a .ragbot/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
