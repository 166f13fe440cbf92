package storage

import (
	"fmt"
	"os"
)

// AudioConfig holds audio playback settings
type AudioConfig struct {
	Volume float64 `json:"volume"` // 0.0 to 1.0
	Muted  bool    `json:"muted"`
}

// VideoConfig holds display settings
type VideoConfig struct {
	Scale      int  `json:"scale"` // Window scale factor
	Fullscreen bool `json:"fullscreen"`
}

// RewindConfig holds rewind buffer settings
type RewindConfig struct {
	Enabled      bool `json:"enabled"`
	BufferSizeMB int  `json:"buffer_size_mb"`
	FrameStep    int  `json:"frame_step"` // Capture every N frames
}

// Config is the top-level application configuration
type Config struct {
	Version int          `json:"version"`
	Audio   AudioConfig  `json:"audio"`
	Video   VideoConfig  `json:"video"`
	Rewind  RewindConfig `json:"rewind"`

	// Keyboard overrides per player button name, e.g. {"A": "KeyZ"}.
	// Buttons not listed use the core's defaults.
	Keyboard map[string]string `json:"keyboard,omitempty"`
}

const configVersion = 1

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: configVersion,
		Audio: AudioConfig{
			Volume: 1.0,
			Muted:  false,
		},
		Video: VideoConfig{
			Scale:      3,
			Fullscreen: false,
		},
		Rewind: RewindConfig{
			Enabled:      true,
			BufferSizeMB: 64,
			FrameStep:    6,
		},
	}
}

// LoadConfig reads the config file, filling in defaults for any missing
// fields. A missing file returns the defaults without error; a corrupted
// file returns an error.
func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := ReadJSON(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Audio.Volume < 0 {
		cfg.Audio.Volume = 0
	}
	if cfg.Audio.Volume > 1 {
		cfg.Audio.Volume = 1
	}
	if cfg.Video.Scale < 1 {
		cfg.Video.Scale = 1
	}

	return cfg, nil
}

// SaveConfig writes the config file atomically
func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	cfg.Version = configVersion
	return AtomicWriteJSON(path, cfg)
}
