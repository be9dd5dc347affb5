package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

const logoASCII = `
                    _
__   _______  _____| | _____ _   _
\ \ / / _ \ \/ / _ \ |/ / _ \ | | |
 \ V / (_) >  <  __/   <  __/ |_| |
  \_/ \___/_/\_\___|_|\_\___|\__, |
                             |___/ `

// Logo returns the voxkey ASCII art header.
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
