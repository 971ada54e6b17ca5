package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Storage selects and tunes the packet store backend.
type Storage struct {
	// Backend is "sqlite", "file", or "auto". Auto prefers SQLite and
	// degrades to the flat file store when the database cannot be opened.
	Backend string `toml:"backend"`
}

// Sync configures the upload destination and the collector drain loop.
type Sync struct {
	// Destination is either an http(s) base URL or a local directory that
	// stands in for cloud storage.
	Destination    string `toml:"destination"`
	RequestTimeout int    `toml:"request_timeout"`
	DrainInterval  int    `toml:"drain_interval"`
	ProbeInterval  int    `toml:"probe_interval"`
	ProbeTimeout   int    `toml:"probe_timeout"`
}

// Verification configures the recorder and its simulated location source.
type Verification struct {
	SampleInterval int     `toml:"sample_interval"`
	BaseLatitude   float64 `toml:"base_latitude"`
	BaseLongitude  float64 `toml:"base_longitude"`
	JitterMeters   float64 `toml:"jitter_meters"`
	MinAccuracy    float64 `toml:"min_accuracy"`
	MaxAccuracy    float64 `toml:"max_accuracy"`
}

// Device configures the static device snapshot.
type Device struct {
	ScreenResolution string `toml:"screen_resolution"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fieldwork.
type Config struct {
	Paths        Paths        `toml:"paths"`
	Storage      Storage      `toml:"storage"`
	Sync         Sync         `toml:"sync"`
	Verification Verification `toml:"verification"`
	Device       Device       `toml:"device"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fieldwork/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fieldwork.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for collector operation.
// A directory sync destination is created on a best-effort basis so the
// collector can run while external storage is unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := strings.TrimSpace(c.Sync.Destination); dir != "" && !c.DestinationIsHTTP() {
		_ = os.MkdirAll(dir, 0o755)
	}
	return nil
}

// DestinationIsHTTP reports whether the sync destination is a remote URL
// rather than a local directory.
func (c *Config) DestinationIsHTTP() bool {
	dest := strings.TrimSpace(c.Sync.Destination)
	return strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://")
}

// StorePath returns the SQLite database location for the packet store.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "packets.db")
}

// FallbackStorePath returns the flat file store location.
func (c *Config) FallbackStorePath() string {
	return filepath.Join(c.Paths.DataDir, "packets.json")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
