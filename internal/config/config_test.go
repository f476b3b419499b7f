package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("exists should be false")
	}
	if resolved != path {
		t.Errorf("resolved: got %q, want %q", resolved, path)
	}
	if cfg.Decoder.Round != defaultRound {
		t.Errorf("round: got %d, want %d", cfg.Decoder.Round, defaultRound)
	}
	if cfg.ChunkSize() != 188*512 {
		t.Errorf("chunk size: got %d, want %d", cfg.ChunkSize(), 188*512)
	}
	if !filepath.IsAbs(cfg.Lock.Path) {
		t.Errorf("lock path should be absolute, got %q", cfg.Lock.Path)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[decoder]
round = 8
strip_null = true
emm_process = true
chunk_packets = 64

[lock]
enabled = false

[logging]
level = " DEBUG "
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Error("exists should be true")
	}
	if cfg.Decoder.Round != 8 || !cfg.Decoder.StripNull || !cfg.Decoder.EmmProcess {
		t.Errorf("decoder: got %+v", cfg.Decoder)
	}
	if cfg.ChunkSize() != 64*188 {
		t.Errorf("chunk size: got %d", cfg.ChunkSize())
	}
	if cfg.Lock.Enabled {
		t.Error("lock should be disabled")
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v, want debug", cfg.LogLevel())
	}
	if cfg.SRT.DialTimeoutSeconds != defaultSRTDialTimeout {
		t.Errorf("srt dial timeout default lost: got %d", cfg.SRT.DialTimeoutSeconds)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "unknown key", body: "[decoder]\nrounds = 4\n", want: "parse config"},
		{name: "chunk too large", body: "[decoder]\nchunk_packets = 1000000\n", want: "chunk_packets"},
		{name: "zero dial timeout", body: "[srt]\ndial_timeout_seconds = 0\n", want: "dial_timeout_seconds"},
		{name: "bad level", body: "[logging]\nlevel = \"loud\"\n", want: "logging.level"},
		{name: "bad toml", body: "[decoder\n", want: "parse config"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, _, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Decoder.StripNull = true

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "strip_null = true") {
		t.Errorf("encoded config missing strip_null:\n%s", buf.String())
	}

	loaded, _, _, err := Load(writeConfig(t, buf.String()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Decoder.StripNull {
		t.Error("strip_null lost in round trip")
	}
}

func TestExpandPathHome(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandPath("~/b25/card.lock")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "b25", "card.lock"); got != want {
		t.Errorf("expandPath: got %q, want %q", got, want)
	}
}

func TestEnsureDirectories(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Lock.Path = filepath.Join(t.TempDir(), "nested", "dir", "card.lock")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(cfg.Lock.Path)); err != nil || !info.IsDir() {
		t.Errorf("lock directory not created: %v", err)
	}
}
