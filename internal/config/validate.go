package config

import (
	"fmt"

	"github.com/voxkey/voxkey/internal/hotkey"
	"github.com/voxkey/voxkey/internal/insert"
	"github.com/voxkey/voxkey/internal/language"
	"github.com/voxkey/voxkey/internal/provider"
)

func (c *Config) Validate() error {
	if _, err := hotkey.ParseSpec(c.Hotkey.Combo); err != nil {
		return fmt.Errorf("invalid hotkey.combo: %w", err)
	}

	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.StopTimeout <= 0 {
		return fmt.Errorf("invalid recording.stop_timeout: %v", c.Recording.StopTimeout)
	}

	if c.Transcription.Provider == "" {
		return fmt.Errorf("invalid transcription.provider: empty")
	}
	if _, ok := provider.Get(c.Transcription.Provider); !ok {
		return fmt.Errorf("invalid transcription.provider: %s (must be one of %v)", c.Transcription.Provider, provider.List())
	}
	if c.Transcription.Language != "" && !language.IsValidCode(c.Transcription.Language) {
		return fmt.Errorf("invalid transcription.language: %s (use ISO-639-3 codes like 'eng', 'khm', or empty for auto-detect)", c.Transcription.Language)
	}
	if c.Transcription.Timeout < 0 {
		return fmt.Errorf("invalid transcription.timeout: %v (0 disables the watchdog)", c.Transcription.Timeout)
	}

	if !insert.ValidStrategy(insert.Strategy(c.Insertion.Strategy)) {
		return fmt.Errorf("invalid insertion.strategy: %s (must be clipboard or keypress)", c.Insertion.Strategy)
	}
	if c.Insertion.ClipboardTimeout <= 0 {
		return fmt.Errorf("invalid insertion.clipboard_timeout: %v", c.Insertion.ClipboardTimeout)
	}
	if c.Insertion.TypeTimeout <= 0 {
		return fmt.Errorf("invalid insertion.type_timeout: %v", c.Insertion.TypeTimeout)
	}
	if c.Insertion.GraceDelay < 0 {
		return fmt.Errorf("invalid insertion.grace_delay: %v", c.Insertion.GraceDelay)
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if c.Notifications.Enabled && !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}
