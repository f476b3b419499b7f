package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDecoder(); err != nil {
		return err
	}
	if err := c.validateSRT(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDecoder() error {
	if c.Decoder.Round == 0 {
		return errors.New("decoder.round must be positive")
	}
	if c.Decoder.ChunkPackets < 1 || c.Decoder.ChunkPackets > maxChunkPackets {
		return fmt.Errorf("decoder.chunk_packets must be between 1 and %d", maxChunkPackets)
	}
	return nil
}

func (c *Config) validateSRT() error {
	if c.SRT.DialTimeoutSeconds <= 0 {
		return errors.New("srt.dial_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}
