package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Loader resolves the layered configuration.
type Loader struct {
	// WorkDir is where the project config search starts. Empty means the
	// process working directory.
	WorkDir string

	logger *log.Logger
}

// NewLoader creates a loader. A nil logger uses the default logger.
func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{logger: logger}
}

// Load applies defaults, the user config, the project config and finally
// explicit (if non-empty), then validates the result. Missing user and
// project files are skipped; a missing explicit file is an error.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := Default()

	if path, err := UserPath(); err == nil {
		l.overlayUser(cfg, path)
	}
	if path := l.findProject(); path != "" {
		if err := cfg.DecodeFile(path); err != nil {
			return nil, err
		}
		l.logger.Debug("loaded project config", "path", path)
	}
	if explicit != "" {
		if err := cfg.DecodeFile(explicit); err != nil {
			return nil, err
		}
		l.logger.Debug("loaded config", "path", explicit)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) overlayUser(cfg *Config, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := cfg.DecodeFile(path); err != nil {
		l.logger.Warn("ignoring user config", "path", path, "error", err)
		return
	}
	l.logger.Debug("loaded user config", "path", path)
}

// findProject searches for bedplan.toml in the working directory and its
// parents.
func (l *Loader) findProject() string {
	dir := l.WorkDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}
	for {
		path := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// =============================================================================
// Paths
// =============================================================================

// UserPath returns the user config file path
// ($XDG_CONFIG_HOME/bedplan/config.toml or ~/.config/bedplan/config.toml).
func UserPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, UserFile), nil
}

// CacheDir returns the cache directory ($XDG_CACHE_HOME/bedplan or
// ~/.cache/bedplan).
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// GardensDir returns the directory of saved gardens
// ($XDG_DATA_HOME/bedplan/gardens or ~/.local/share/bedplan/gardens).
func GardensDir() (string, error) {
	dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gardens"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}
