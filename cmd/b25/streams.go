package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/zsiec/b25/internal/config"
	"github.com/zsiec/b25/internal/ingest"
	"github.com/zsiec/b25/internal/ingest/srt"
)

var errTerminalOutput = errors.New("refusing to write a transport stream to a terminal")

// openInput resolves the decode source: "-" is stdin, srt:// dials a remote
// listener, anything else is a file path.
func openInput(ctx context.Context, target string, cfg *config.Config) (*ingest.Stream, error) {
	switch {
	case target == "-":
		return ingest.NewStream("stdin", io.NopCloser(os.Stdin)), nil
	case srt.IsURL(target):
		req, err := srt.ParseURL(target)
		if err != nil {
			return nil, err
		}
		req.DialTimeout = time.Duration(cfg.SRT.DialTimeoutSeconds) * time.Second
		return srt.Dial(ctx, req, nil)
	default:
		f, err := os.Open(target)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		return ingest.NewStream(filepath.Base(target), f), nil
	}
}

// openOutput resolves the decode destination: "-" is stdout, anything else
// is a file that is created or truncated. stdout is refused when it is a
// terminal.
func openOutput(target string) (io.WriteCloser, error) {
	if target == "-" {
		if isTerminal(os.Stdout) {
			return nil, errTerminalOutput
		}
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return f, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
