package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Decoder contains the settings applied to every decode session.
type Decoder struct {
	Round        uint32 `toml:"round"`
	StripNull    bool   `toml:"strip_null"`
	EmmProcess   bool   `toml:"emm_process"`
	ChunkPackets int    `toml:"chunk_packets"`
}

// Lock contains the cross-process single-owner lock settings.
type Lock struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// SRT contains settings for SRT input in caller mode.
type SRT struct {
	DialTimeoutSeconds int `toml:"dial_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values for b25.
//
// Configuration sections by subsystem:
//   - Decoder: round count, packet filtering toggles, read chunk size
//   - Lock: lock file guarding the card across processes
//   - SRT: dial timeout for SRT input
//   - Logging: log level
type Config struct {
	Decoder Decoder `toml:"decoder"`
	Lock    Lock    `toml:"lock"`
	SRT     SRT     `toml:"srt"`
	Logging Logging `toml:"logging"`
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The returned config has all path fields expanded.
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
		decoder.DisallowUnknownFields()
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

// Write encodes the configuration as TOML.
func (c *Config) Write(w io.Writer) error {
	enc := toml.NewEncoder(w)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directory holding the lock file.
func (c *Config) EnsureDirectories() error {
	if !c.Lock.Enabled {
		return nil
	}
	dir := filepath.Dir(c.Lock.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create lock directory %q: %w", dir, err)
	}
	return nil
}

// ChunkSize returns the read size in bytes for one Decode call.
func (c *Config) ChunkSize() int {
	return c.Decoder.ChunkPackets * packetSize
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
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
