package tui

import (
	"fmt"

	"github.com/voxkey/voxkey/internal/config"
	"github.com/voxkey/voxkey/internal/language"
	"github.com/voxkey/voxkey/internal/provider"
)

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func isProviderConfigured(cfg *config.Config, providerName string) bool {
	if pc, ok := cfg.Providers[providerName]; ok {
		return pc.APIKey != ""
	}
	return false
}

func providerSummary(cfg *config.Config) string {
	name := cfg.Transcription.Provider
	info, ok := provider.Get(name)
	if !ok {
		return name
	}
	model := cfg.Transcription.Model
	if model == "" {
		model = info.DefaultModel
	}
	return fmt.Sprintf("%s (%s)", info.DisplayName, model)
}

func languageSummary(cfg *config.Config) string {
	if cfg.Transcription.Language == "" {
		return "Auto-detect"
	}
	return language.FromCode(cfg.Transcription.Language).Name
}

func formatHotkeyLabel(cfg *config.Config) string {
	return fmt.Sprintf("Hotkey (%s)", cfg.Hotkey.Combo)
}

func formatProviderLabel(cfg *config.Config) string {
	return fmt.Sprintf("Provider (%s)", cfg.Transcription.Provider)
}

func formatLanguageLabel(cfg *config.Config) string {
	return fmt.Sprintf("Language (%s)", languageSummary(cfg))
}

func formatInsertionLabel(cfg *config.Config) string {
	return fmt.Sprintf("Insertion (%s)", cfg.Insertion.Strategy)
}

func formatNotificationsLabel(cfg *config.Config) string {
	if !cfg.Notifications.Enabled {
		return "Notifications (disabled)"
	}
	return fmt.Sprintf("Notifications (%s)", cfg.Notifications.Type)
}
