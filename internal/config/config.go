package config

import (
	"time"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/insert"
	"github.com/voxkey/voxkey/internal/provider"
	"github.com/voxkey/voxkey/internal/session"
	"github.com/voxkey/voxkey/internal/transcriber"
)

type Config struct {
	Hotkey        HotkeyConfig              `toml:"hotkey"`
	Recording     RecordingConfig           `toml:"recording"`
	Transcription TranscriptionConfig       `toml:"transcription"`
	Insertion     InsertionConfig           `toml:"insertion"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Providers     map[string]ProviderConfig `toml:"providers"`
}

type HotkeyConfig struct {
	// Combo is a "+"-joined key set such as "ctrl+alt+space".
	Combo string `toml:"combo"`
}

type RecordingConfig struct {
	SampleRate  int           `toml:"sample_rate"`
	Channels    int           `toml:"channels"`
	Device      string        `toml:"device"`
	StopTimeout time.Duration `toml:"stop_timeout"`
}

type TranscriptionConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	// Language is an ISO-639-3 hint; empty means auto-detect.
	Language string        `toml:"language"`
	Timeout  time.Duration `toml:"timeout"`
}

type InsertionConfig struct {
	Strategy         string        `toml:"strategy"` // "clipboard" or "keypress"
	RestoreClipboard bool          `toml:"restore_clipboard"`
	GraceDelay       time.Duration `toml:"grace_delay"`
	ClipboardTimeout time.Duration `toml:"clipboard_timeout"`
	TypeTimeout      time.Duration `toml:"type_timeout"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

// ProviderConfig holds the API key for a provider.
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

// DefaultConfig returns the initial configuration used for onboarding.
func DefaultConfig() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Combo: "ctrl+alt+space",
		},
		Recording: RecordingConfig{
			SampleRate:  16000,
			Channels:    1,
			Device:      "",
			StopTimeout: 2 * time.Second,
		},
		Transcription: TranscriptionConfig{
			Provider: provider.Gemini,
			Language: "",
			Timeout:  60 * time.Second,
		},
		Insertion: InsertionConfig{
			Strategy:         string(insert.StrategyClipboard),
			RestoreClipboard: true,
			GraceDelay:       200 * time.Millisecond,
			ClipboardTimeout: 3 * time.Second,
			TypeTimeout:      5 * time.Second,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Providers: make(map[string]ProviderConfig),
	}
}

func (c *Config) ToCaptureConfig() audio.Config {
	captureCfg := audio.DefaultConfig()
	captureCfg.SampleRate = c.Recording.SampleRate
	captureCfg.Channels = c.Recording.Channels
	captureCfg.Device = c.Recording.Device
	captureCfg.StopTimeout = c.Recording.StopTimeout
	return captureCfg
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	return transcriber.Config{
		Provider: c.Transcription.Provider,
		APIKey:   c.apiKeyFor(c.Transcription.Provider),
		Model:    c.Transcription.Model,
	}
}

func (c *Config) ToInsertConfig() insert.Config {
	return insert.Config{
		Strategy:         insert.Strategy(c.Insertion.Strategy),
		RestoreClipboard: c.Insertion.RestoreClipboard,
		GraceDelay:       c.Insertion.GraceDelay,
		ClipboardTimeout: c.Insertion.ClipboardTimeout,
		TypeTimeout:      c.Insertion.TypeTimeout,
	}
}

func (c *Config) ToSessionConfig() session.Config {
	return session.Config{
		TranscribeTimeout: c.Transcription.Timeout,
		LanguageHint:      c.Transcription.Language,
	}
}

// apiKeyFor returns the configured key for a provider, or "" when unset.
// Environment fallback happens in provider.ResolveAPIKey.
func (c *Config) apiKeyFor(name string) string {
	if p, ok := c.Providers[name]; ok {
		return p.APIKey
	}
	return ""
}
