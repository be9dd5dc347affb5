package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voxkey/voxkey/internal/bus"
	"github.com/voxkey/voxkey/internal/config"
	"github.com/voxkey/voxkey/internal/daemon"
	"github.com/voxkey/voxkey/internal/deps"
	"github.com/voxkey/voxkey/internal/tui"
)

func main() {
	_ = rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "voxkey",
	Short: "Push-to-talk dictation for Wayland",
	Long: `Voxkey records the microphone while a global hotkey combo is held,
transcribes the speech through a cloud provider, and types the result
into whatever application has focus.`,
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		statusCmd(),
		cancelCmd(),
		pressCmd(),
		releaseCmd(),
		stopCmd(),
		versionCmd(),
		configureCmd(),
		doctorCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := config.NewManager()
			if err != nil {
				if errors.Is(err, config.ErrConfigNotFound) {
					return fmt.Errorf("%w\nRun 'voxkey configure' first", err)
				}
				return err
			}
			return daemon.New(manager).Run()
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get the current session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdStatus)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Abort the in-flight session",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdCancel)
			if err != nil {
				return fmt.Errorf("failed to cancel: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func pressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "press",
		Short: "Start recording as if the combo were pressed",
		Long: `Injects a synthetic combo press. Bind this (with 'release') in your
compositor to drive voxkey without the evdev watcher.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdPress)
			if err != nil {
				return fmt.Errorf("failed to press: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func releaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Stop recording as if the combo were released",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdRelease)
			if err != nil {
				return fmt.Errorf("failed to release: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdQuit)
			if err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdProto)
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for voxkey.
This will guide you through setting up:
- Transcription provider and API key
- Spoken language
- Push-to-talk combo
- Insertion strategy and notifications`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = config.DefaultConfig()
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved. Start the daemon with 'voxkey serve'.")
	return nil
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			var missingRequired bool
			for _, s := range deps.CheckAll() {
				mark := "ok "
				if !s.Installed {
					if s.Required {
						mark = "MISSING"
						missingRequired = true
					} else {
						mark = "missing"
					}
				}
				fmt.Printf("%-12s %-8s %s\n", s.Name, mark, s.Purpose)
			}
			if missingRequired {
				return fmt.Errorf("required tools are missing")
			}
			return nil
		},
	}
}
