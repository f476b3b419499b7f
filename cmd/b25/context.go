package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zsiec/b25/decoder"
	"github.com/zsiec/b25/internal/config"
	"github.com/zsiec/b25/internal/passthrough"
	"github.com/zsiec/b25/registry"
)

type commandContext struct {
	configFlag *string

	cfg        *config.Config
	configPath string
	configSeen bool
	log        *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once and installs the process logger.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, exists, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg, c.configPath, c.configSeen = cfg, path, exists

	level := cfg.LogLevel()
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	c.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.log)
	return cfg, nil
}

// newRegistry builds the single-owner session registry for this process.
// Sessions run the pass-through transform; a hardware engine plugs in here
// through its arib.TransformFactory and arib.CardFactory.
func (c *commandContext) newRegistry() (*registry.Registry, error) {
	lockPath := ""
	if c.cfg.Lock.Enabled {
		if err := c.cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		lockPath = c.cfg.Lock.Path
	}
	return registry.New(registry.Config{
		NewSession: func() *decoder.Session {
			return decoder.New(passthrough.NewTransform, passthrough.NewCard, c.log)
		},
		LockPath: lockPath,
		Log:      c.log,
	})
}

// openSession initializes s and applies the configured toggles.
func (c *commandContext) openSession(s *decoder.Session) error {
	if !s.Initialize(c.cfg.Decoder.Round) {
		return fmt.Errorf("b25 decoder initialize failed")
	}
	s.DiscardNullPacket(c.cfg.Decoder.StripNull)
	s.EnableEmmProcess(c.cfg.Decoder.EmmProcess)
	return nil
}

// signalContext is cancelled on SIGINT, SIGTERM, or SIGPIPE.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
