package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PathResolver provides robust path resolution for the fillserve binary
type PathResolver struct {
	executablePath string
	homeDir        string
	configDir      string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	// Resolve any symlinks to get the actual binary location
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executablePath: execPath,
		homeDir:        homeDir,
		configDir:      getConfigDir(homeDir),
	}

	log.Debugf("PathResolver initialized: exec=%s, configDir=%s", pr.executablePath, pr.configDir)
	return pr, nil
}

// getConfigDir returns the appropriate config directory for the platform
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", "fillserve")
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "fillserve")
		}
		return filepath.Join(homeDir, ".config", "fillserve")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "fillserve")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "fillserve")
	default:
		return filepath.Join(homeDir, ".fillserve")
	}
}

// GetStateDir resolves where learned state is kept.
// An absolute user path wins, then a path relative to the config dir.
func (pr *PathResolver) GetStateDir(userSpecifiedPath string) (string, error) {
	dir := userSpecifiedPath
	if dir == "" {
		dir = "state"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(pr.configDir, dir)
	}
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// GetConfigDir returns the config directory
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}
