package tui

import (
	"strings"
	"testing"

	"github.com/voxkey/voxkey/internal/config"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "***"},
		{"short", "***"},
		{"sk-abcdefghijklmnop", "sk-a...mnop"},
	}
	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestHasUserChanges(t *testing.T) {
	cfg := config.DefaultConfig()
	if hasUserChanges(cfg) {
		t.Error("default config has no user changes")
	}

	cfg.Providers["gemini"] = config.ProviderConfig{APIKey: "key"}
	if !hasUserChanges(cfg) {
		t.Error("configured API key counts as a user change")
	}
}

func TestSectionLabels(t *testing.T) {
	cfg := config.DefaultConfig()

	if got := formatHotkeyLabel(cfg); !strings.Contains(got, cfg.Hotkey.Combo) {
		t.Errorf("hotkey label = %q", got)
	}
	if got := formatLanguageLabel(cfg); !strings.Contains(got, "Auto-detect") {
		t.Errorf("language label = %q", got)
	}

	cfg.Transcription.Language = "khm"
	if got := formatLanguageLabel(cfg); !strings.Contains(got, "Khmer") {
		t.Errorf("language label = %q", got)
	}

	cfg.Notifications.Enabled = false
	if got := formatNotificationsLabel(cfg); !strings.Contains(got, "disabled") {
		t.Errorf("notifications label = %q", got)
	}
}

func TestProviderSummaryFallsBackToDefaultModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Transcription.Provider = "gemini"
	cfg.Transcription.Model = ""

	got := providerSummary(cfg)
	if !strings.Contains(got, "Gemini") || !strings.Contains(got, "gemini-2.0-flash") {
		t.Errorf("providerSummary = %q", got)
	}
}
