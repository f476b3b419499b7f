package config

import (
	"log/slog"
	"strings"
)

func (c *Config) normalize() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Decoder.Round == 0 {
		c.Decoder.Round = defaultRound
	}
	if c.Decoder.ChunkPackets == 0 {
		c.Decoder.ChunkPackets = defaultChunkPackets
	}
	if strings.TrimSpace(c.Lock.Path) == "" {
		c.Lock.Path = defaultLockPath
	}
	path, err := expandPath(c.Lock.Path)
	if err != nil {
		return err
	}
	c.Lock.Path = path
	return nil
}

// LogLevel maps the configured level name to a slog level.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
