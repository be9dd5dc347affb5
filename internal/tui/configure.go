package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/muesli/termenv"
	"github.com/voxkey/voxkey/internal/config"
	"github.com/voxkey/voxkey/internal/hotkey"
	"github.com/voxkey/voxkey/internal/language"
	"github.com/voxkey/voxkey/internal/provider"
)

// ConfigureResult holds the configuration result from the TUI.
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// ConfigSection represents a configuration section.
type ConfigSection string

const (
	SectionHotkey        ConfigSection = "hotkey"
	SectionProvider      ConfigSection = "provider"
	SectionLanguage      ConfigSection = "language"
	SectionInsertion     ConfigSection = "insertion"
	SectionNotifications ConfigSection = "notifications"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// Run starts the configuration wizard. A fresh install walks every section
// in order; an existing config gets the section menu.
func Run(existingConfig *config.Config) (*ConfigureResult, error) {
	if existingConfig != nil && hasUserChanges(existingConfig) {
		return runEditExisting(existingConfig)
	}
	return runFreshInstall(existingConfig)
}

// hasUserChanges detects if config has user modifications.
func hasUserChanges(cfg *config.Config) bool {
	for _, pc := range cfg.Providers {
		if pc.APIKey != "" {
			return true
		}
	}
	return false
}

func runFreshInstall(cfg *config.Config) (*ConfigureResult, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	fmt.Println(Logo())
	fmt.Println(StyleMuted.Render("Let's set up voxkey. Hold your combo, speak, release."))
	fmt.Println()

	steps := []func(*config.Config) error{
		editProvider,
		editLanguage,
		editHotkey,
		editInsertion,
		editNotifications,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}
	}

	confirmed, err := showSummary(cfg)
	if err != nil || !confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}
	return &ConfigureResult{Config: cfg}, nil
}

func runEditExisting(cfg *config.Config) (*ConfigureResult, error) {
	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}

		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case SectionHotkey:
			_ = editHotkey(cfg)
		case SectionProvider:
			_ = editProvider(cfg)
		case SectionLanguage:
			_ = editLanguage(cfg)
		case SectionInsertion:
			_ = editInsertion(cfg)
		case SectionNotifications:
			_ = editNotifications(cfg)
		}
	}
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(formatHotkeyLabel(cfg), SectionHotkey),
		huh.NewOption(formatProviderLabel(cfg), SectionProvider),
		huh.NewOption(formatLanguageLabel(cfg), SectionLanguage),
		huh.NewOption(formatInsertionLabel(cfg), SectionInsertion),
		huh.NewOption(formatNotificationsLabel(cfg), SectionNotifications),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func editHotkey(cfg *config.Config) error {
	combo := cfg.Hotkey.Combo
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Push-to-talk combo").
				Description("\"+\"-joined keys, e.g. ctrl+alt+space. Recording runs while every key is held.").
				Value(&combo).
				Validate(func(s string) error {
					_, err := hotkey.ParseSpec(s)
					return err
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}
	cfg.Hotkey.Combo = combo
	return nil
}

func editProvider(cfg *config.Config) error {
	options := make([]huh.Option[string], 0)
	for _, name := range provider.List() {
		info, _ := provider.Get(name)
		label := info.DisplayName
		if isProviderConfigured(cfg, name) {
			label += " " + StyleSuccess.Render("(key set)")
		}
		options = append(options, huh.NewOption(label, name))
	}

	selected := cfg.Transcription.Provider
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription provider").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	info, _ := provider.Get(selected)
	current := cfg.Providers[selected].APIKey
	prompt := fmt.Sprintf("API key (or leave empty to use %s)", info.EnvVar)
	if current != "" {
		prompt = fmt.Sprintf("API key (current %s)", maskAPIKey(current))
	}

	var key string
	keyForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(prompt).
				EchoMode(huh.EchoModePassword).
				Value(&key),
		),
	).WithTheme(getTheme())
	if err := keyForm.Run(); err != nil {
		return err
	}

	cfg.Transcription.Provider = selected
	cfg.Transcription.Model = "" // reset to the provider default
	if key != "" {
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]config.ProviderConfig)
		}
		cfg.Providers[selected] = config.ProviderConfig{APIKey: key}
	}
	return nil
}

func editLanguage(cfg *config.Config) error {
	options := []huh.Option[string]{huh.NewOption("Auto-detect", "")}
	for _, lang := range language.List() {
		options = append(options, huh.NewOption(lang.Name, lang.Code))
	}

	selected := cfg.Transcription.Language
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Spoken language").
				Description("A hint for the transcription model").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Transcription.Language = selected
	return nil
}

func editInsertion(cfg *config.Config) error {
	strategy := cfg.Insertion.Strategy
	restore := cfg.Insertion.RestoreClipboard
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Insertion strategy").
				Options(
					huh.NewOption("Clipboard (fast, replaces then restores clipboard)", "clipboard"),
					huh.NewOption("Keypress (types character by character)", "keypress"),
				).
				Value(&strategy),
			huh.NewConfirm().
				Title("Restore the previous clipboard contents after pasting?").
				Value(&restore),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Insertion.Strategy = strategy
	cfg.Insertion.RestoreClipboard = restore
	return nil
}

func editNotifications(cfg *config.Config) error {
	enabled := cfg.Notifications.Enabled
	kind := cfg.Notifications.Type
	if kind == "" {
		kind = "desktop"
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Show status notifications?").
				Value(&enabled),
			huh.NewSelect[string]().
				Title("Notification type").
				Options(
					huh.NewOption("Desktop (notify-send)", "desktop"),
					huh.NewOption("Log only", "log"),
					huh.NewOption("None", "none"),
				).
				Value(&kind),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Notifications.Enabled = enabled
	cfg.Notifications.Type = kind
	return nil
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()

	fmt.Printf("  %s %s\n", StyleLabel.Render("Combo:"), cfg.Hotkey.Combo)
	fmt.Printf("  %s %s\n", StyleLabel.Render("Provider:"), providerSummary(cfg))
	fmt.Printf("  %s %s\n", StyleLabel.Render("Language:"), languageSummary(cfg))
	fmt.Printf("  %s %s\n", StyleLabel.Render("Insertion:"), cfg.Insertion.Strategy)
	if cfg.Notifications.Enabled {
		fmt.Printf("  %s %s\n", StyleLabel.Render("Notifications:"), cfg.Notifications.Type)
	} else {
		fmt.Printf("  %s disabled\n", StyleLabel.Render("Notifications:"))
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func clearScreen() {
	termenv.NewOutput(os.Stdout).ClearScreen()
}
