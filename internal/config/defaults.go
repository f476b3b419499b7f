package config

const (
	packetSize = 188

	defaultConfigPath     = "~/.config/b25/config.toml"
	defaultRound          = 4
	defaultChunkPackets   = 512
	defaultLockPath       = "~/.cache/b25/card.lock"
	defaultSRTDialTimeout = 10
	defaultLogLevel       = "info"
	maxChunkPackets       = 1 << 16
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Decoder: Decoder{
			Round:        defaultRound,
			ChunkPackets: defaultChunkPackets,
		},
		Lock: Lock{
			Enabled: true,
			Path:    defaultLockPath,
		},
		SRT: SRT{
			DialTimeoutSeconds: defaultSRTDialTimeout,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
